package export

import (
	"context"
	"strings"
	"time"
)

// FirstString returns the first non-empty value, used for flag/env fallbacks.
func FirstString(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}

var unsafeFilenameChars = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	`"`, "_",
	"/", "_",
	`\`, "_",
	"|", "_",
	"?", "_",
	"*", "_",
)

// Sanitize replaces characters that are not allowed in file names with "_".
func Sanitize(name string) string {
	return unsafeFilenameChars.Replace(name)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
