package export

import (
	"context"
	"fmt"
	"log/slog"
)

// Outcome is the terminal result of a session.
type Outcome struct {
	GuildID   string
	GuildName string
	State     State
	Err       error

	// set for archive sessions
	ArchiveName string
	ArchiveSize int
	// "folder", "saved", "sent" or "saved-after-send-failure"
	Delivery string
	Files    int
}

func (o Outcome) Succeeded() bool {
	return o.State == StateSucceeded
}

func (o Outcome) Message() string {
	if o.Succeeded() {
		return fmt.Sprintf("Exported %s successfully!", o.GuildName)
	}
	name := o.GuildName
	if name == "" {
		name = o.GuildID
	}
	return fmt.Sprintf("Failed to export %s: %v", name, o.Err)
}

// Notifier reports the terminal outcome of a session, once.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome) error
}

type LogNotifier struct {
	logger *slog.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, o Outcome) error {
	if o.Succeeded() {
		n.logger.Info(o.Message(), "guild", o.GuildID, "delivery", o.Delivery, "archive", o.ArchiveName, "files", o.Files)
		return nil
	}
	n.logger.Error(o.Message(), "guild", o.GuildID)
	return nil
}

// MultiNotifier fans an outcome out to several notifiers. Every notifier is
// called; the first error is returned.
type MultiNotifier []Notifier

var _ Notifier = (MultiNotifier)(nil)

func (m MultiNotifier) Notify(ctx context.Context, o Outcome) error {
	var first error
	for _, n := range m {
		if err := n.Notify(ctx, o); err != nil && first == nil {
			first = err
		}
	}
	return first
}
