package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Saver stores a finished archive where the user can pick it up.
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) error
}

// Sender posts a finished archive to a channel.
type Sender interface {
	Send(ctx context.Context, channelID, filename string, data []byte) error
}

// LocalSaver writes archives into a directory.
type LocalSaver struct {
	dir string

	logger *slog.Logger
}

var _ Saver = (*LocalSaver)(nil)

func NewLocalSaver(logger *slog.Logger, dir string) *LocalSaver {
	return &LocalSaver{
		dir:    dir,
		logger: logger,
	}
}

func (s *LocalSaver) Save(_ context.Context, filename string, data []byte) error {
	if _, err := os.ReadDir(s.dir); err != nil {
		if err := os.MkdirAll(s.dir, 0755); err != nil {
			return err
		}
	}
	dst := filepath.Join(s.dir, filename)
	s.logger.Info("Saving archive", "destination", dst, "bytes", len(data))
	return os.WriteFile(dst, data, 0644)
}

// DiscordSender uploads archives as a message attachment.
type DiscordSender struct {
	innerClient *resty.Client

	logger *slog.Logger
}

var _ Sender = (*DiscordSender)(nil)

func NewDiscordSender(logger *slog.Logger, baseURL, token string) *DiscordSender {
	inner := resty.New().SetBaseURL(strings.TrimRight(baseURL, "/"))
	if token != "" {
		inner.SetHeader("Authorization", token)
	}
	return &DiscordSender{
		innerClient: inner,
		logger:      logger,
	}
}

func (s *DiscordSender) Send(ctx context.Context, channelID, filename string, data []byte) error {
	resp, err := s.innerClient.R().
		SetContext(ctx).
		SetFormData(map[string]string{"payload_json": `{"content":""}`}).
		SetFileReader("files[0]", filename, bytes.NewReader(data)).
		Post("/channels/" + channelID + "/messages")
	if err != nil {
		return fmt.Errorf("failed to upload %s to channel %s: %w", filename, channelID, err)
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("failed to upload %s to channel %s: status %d", filename, channelID, resp.StatusCode())
	}
	s.logger.Info("Archive sent to channel", "channel", channelID, "filename", filename)
	return nil
}
