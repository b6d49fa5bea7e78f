package export

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeMessage(t *testing.T) {
	ok := Outcome{GuildID: "g1", GuildName: "Test Guild", State: StateSucceeded}
	assert.Equal(t, "Exported Test Guild successfully!", ok.Message())

	failed := Outcome{GuildID: "g1", State: StateFailed, Err: ErrGuildNotFound}
	assert.Equal(t, "Failed to export g1: guild not found", failed.Message())
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, Outcome) error {
	return errors.New("smtp down")
}

func TestMultiNotifierCallsEveryone(t *testing.T) {
	first := &recordingNotifier{}
	last := &recordingNotifier{}
	m := MultiNotifier{first, failingNotifier{}, NewLogNotifier(discardLogger()), last}

	err := m.Notify(context.Background(), Outcome{State: StateSucceeded})

	assert.EqualError(t, err, "smtp down")
	assert.Len(t, first.outcomes, 1)
	assert.Len(t, last.outcomes, 1)
}
