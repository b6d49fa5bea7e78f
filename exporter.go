package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Sink receives every payload of a session under its export-relative path.
type Sink interface {
	Persist(ctx context.Context, path string, payload []byte) error
}

// FolderSink writes straight into a directory through the native capability.
type FolderSink struct {
	native  Native
	baseDir string

	logger *slog.Logger
}

var _ Sink = (*FolderSink)(nil)

func NewFolderSink(logger *slog.Logger, native Native, baseDir string) *FolderSink {
	return &FolderSink{
		native:  native,
		baseDir: baseDir,
		logger:  logger,
	}
}

func (s *FolderSink) Persist(ctx context.Context, path string, payload []byte) error {
	s.logger.Info("Saving to folder", "path", path, "bytes", len(payload))
	if err := s.native.SaveFile(ctx, s.baseDir, path, payload); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

// ArchiveSink keeps payloads in memory until Pack. A path written twice
// keeps the later payload.
type ArchiveSink struct {
	files map[string][]byte

	logger *slog.Logger
}

var _ Sink = (*ArchiveSink)(nil)

func NewArchiveSink(logger *slog.Logger) *ArchiveSink {
	return &ArchiveSink{
		files:  map[string][]byte{},
		logger: logger,
	}
}

func (s *ArchiveSink) Persist(_ context.Context, path string, payload []byte) error {
	if !filepath.IsLocal(path) || strings.Contains(path, `\`) {
		return fmt.Errorf("path %q is not relative to the archive root", path)
	}
	s.logger.Info("Adding to ZIP", "path", path, "bytes", len(payload))
	s.files[path] = payload
	return nil
}

func (s *ArchiveSink) Len() int {
	return len(s.files)
}

// Paths returns the accumulated paths in sorted order.
func (s *ArchiveSink) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (s *ArchiveSink) Get(path string) ([]byte, bool) {
	b, ok := s.files[path]
	return b, ok
}

// Pack writes all payloads as a deflate-compressed zip, in path order.
func (s *ArchiveSink) Pack(w io.Writer) error {
	zw := zip.NewWriter(w)
	modified := time.Now()
	for _, p := range s.Paths() {
		f, err := zw.CreateHeader(&zip.FileHeader{
			Name:     p,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to add %s to archive: %w", p, err)
		}
		if _, err := f.Write(s.files[p]); err != nil {
			zw.Close()
			return fmt.Errorf("failed to write %s to archive: %w", p, err)
		}
	}
	return zw.Close()
}

// selectSink picks the backend for a whole session. Folder mode needs the
// native capability; without it the session falls back to an archive and
// downgraded is true.
func selectSink(logger *slog.Logger, cfg *Config, native Native) (sink Sink, downgraded bool) {
	if cfg.Mode.archive() {
		return NewArchiveSink(logger), false
	}
	if native == nil {
		return NewArchiveSink(logger), true
	}
	return NewFolderSink(logger, native, cfg.ExportDirectory), false
}
