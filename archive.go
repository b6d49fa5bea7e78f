package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	ErrGuildNotFound  = errors.New("guild not found")
	ErrSessionStarted = errors.New("session already started")
)

type State int

const (
	StateIdle State = iota
	StateValidating
	StateRunning
	StateFinalizing
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateRunning:
		return "running"
	case StateFinalizing:
		return "finalizing"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session runs one export. Collaborators are plain fields so hosts can swap
// them before calling Run; a Session runs at most once.
type Session struct {
	Store  Store
	Client APIClient
	// nil when the host has no writable filesystem
	Native Native
	// built from Native when nil
	Downloader *Downloader
	Saver      Saver
	Sender     Sender
	Progress   Progress
	Notifier   Notifier
	Collectors []Collector

	config  *Config
	state   atomic.Int32
	aborted atomic.Bool
	logger  *slog.Logger
}

func NewSession(conf *Config, store Store, client APIClient) *Session {
	logger := conf.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", uuid.NewString())

	return &Session{
		Store:      store,
		Client:     client,
		Saver:      NewLocalSaver(logger, conf.ExportDirectory),
		Progress:   NewLogProgress(logger),
		Notifier:   NewLogNotifier(logger),
		Collectors: DefaultCollectors(),
		config:     conf,
		logger:     logger,
	}
}

func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	s.logger.Debug("session state", "from", s.State().String(), "to", state.String())
	s.state.Store(int32(state))
}

// Abort asks the session to stop reporting progress. Work already started
// runs to completion; remaining collectors still run.
func (s *Session) Abort() {
	if s.aborted.CompareAndSwap(false, true) {
		s.logger.Info("Export aborted")
	}
}

func (s *Session) Aborted() bool {
	return s.aborted.Load()
}

// Run exports the configured guild and reports the outcome through the
// Notifier exactly once.
// A second call returns a failed outcome without running or notifying.
func (s *Session) Run(ctx context.Context) Outcome {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateValidating)) {
		return Outcome{GuildID: s.config.GuildID, State: StateFailed, Err: ErrSessionStarted}
	}
	outcome := s.run(ctx)
	if err := s.Notifier.Notify(ctx, outcome); err != nil {
		s.logger.Error("an error occurred", "function", "Notifier.Notify", "error", err.Error())
	}
	return outcome
}

func (s *Session) run(ctx context.Context) Outcome {
	conf := s.config
	outcome := Outcome{GuildID: conf.GuildID, State: StateFailed}

	guild, ok := s.Store.Guild(conf.GuildID)
	if !ok || guild == nil {
		s.setState(StateFailed)
		outcome.Err = fmt.Errorf("%w: %s", ErrGuildNotFound, conf.GuildID)
		return outcome
	}
	outcome.GuildName = guild.Name
	logger := s.logger.With("guild", guild.ID)
	logger.Info(fmt.Sprintf("Starting export for guild: %s (%s)", guild.Name, guild.ID))

	s.setState(StateRunning)
	title := fmt.Sprintf("Exporting %s...", guild.Name)

	sink, downgraded := selectSink(logger, conf, s.Native)
	if downgraded {
		logger.Warn("Direct folder export is not supported on this host. Falling back to ZIP.")
		s.report(title, "Direct folder export is not supported on this host. Falling back to ZIP.")
	}

	downloader := s.Downloader
	if downloader == nil {
		downloader = NewDownloader(s.Native, nil)
	}
	ec := &ExportContext{
		GuildID:        guild.ID,
		Guild:          guild,
		ActionDelay:    conf.ActionDelay,
		FilenameFormat: conf.FilenameFormat,
		MediaProxy:     conf.MediaProxy,
		Store:          s.Store,
		Client:         s.Client,
		Downloader:     downloader,
		Logger:         logger,
		sink:           sink,
		report:         func(status string) { s.report(title, status) },
	}

	for _, c := range s.Collectors {
		if c.Enabled != nil && !c.Enabled(conf.Categories) {
			continue
		}
		s.report(title, c.Status)
		if err := runCollector(ctx, c, ec); err != nil {
			logger.Error(fmt.Sprintf("Collector %s failed", c.Name), "collector", c.Name, "error", err.Error())
		}
	}

	s.setState(StateFinalizing)
	if err := s.finalize(ctx, guild, sink, &outcome); err != nil {
		s.setState(StateFailed)
		outcome.Err = err
		return outcome
	}

	s.setState(StateSucceeded)
	outcome.State = StateSucceeded
	logger.Info(fmt.Sprintf("Export completed for guild: %s", guild.Name))
	return outcome
}

// runCollector contains a collector's failure, panics included.
func runCollector(ctx context.Context, c Collector, ec *ExportContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return c.Run(ctx, ec)
}

func (s *Session) report(title, status string) {
	if s.Aborted() {
		return
	}
	s.Progress.Report(title, status)
}

func ArchiveName(guildName string) string {
	return Sanitize(guildName) + "_export.zip"
}

func (s *Session) finalize(ctx context.Context, guild *Guild, sink Sink, outcome *Outcome) error {
	defer s.Progress.Done()

	archive, ok := sink.(*ArchiveSink)
	if !ok {
		outcome.Delivery = "folder"
		return nil
	}
	outcome.Files = archive.Len()

	var buf bytes.Buffer
	if err := archive.Pack(&buf); err != nil {
		return fmt.Errorf("failed to pack archive: %w", err)
	}
	name := ArchiveName(guild.Name)
	data := buf.Bytes()
	outcome.ArchiveName = name
	outcome.ArchiveSize = len(data)

	conf := s.config
	if conf.Mode == ModeZipSend && conf.SendToChannelID != "" {
		if s.Sender == nil {
			s.logger.Warn("No sender configured, saving the archive instead", "channel", conf.SendToChannelID)
		} else {
			err := s.send(ctx, conf.SendToChannelID, name, data)
			if err == nil {
				outcome.Delivery = "sent"
				return nil
			}
			s.logger.Error("Failed to send ZIP to channel", "channel", conf.SendToChannelID, "error", err.Error())
			s.report(fmt.Sprintf("Exporting %s...", guild.Name), "Failed to send ZIP. Saving instead.")
			if err := s.save(ctx, name, data); err != nil {
				return err
			}
			outcome.Delivery = "saved-after-send-failure"
			return nil
		}
	}

	if err := s.save(ctx, name, data); err != nil {
		return err
	}
	outcome.Delivery = "saved"
	return nil
}

func (s *Session) send(ctx context.Context, channelID, name string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Sender.Send(ctx, channelID, name, data)
}

func (s *Session) save(ctx context.Context, name string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to save %s: panic: %v", name, r)
		}
	}()
	if s.Saver == nil {
		return fmt.Errorf("no saver configured for %s", name)
	}
	if err := s.Saver.Save(ctx, name, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}
