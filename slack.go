package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/slack-go/slack"
)

// SlackSender posts archives to a Slack channel.
type SlackSender struct {
	slackClient *slack.Client

	logger *slog.Logger
}

var _ Sender = (*SlackSender)(nil)

func NewSlackSender(logger *slog.Logger, token string, options ...slack.Option) *SlackSender {
	return &SlackSender{
		slackClient: slack.New(token, options...),
		logger:      logger,
	}
}

func (s *SlackSender) Send(ctx context.Context, channelID, filename string, data []byte) error {
	params := slack.UploadFileV2Parameters{
		Channel:  channelID,
		Filename: filename,
		Title:    filename,
		Reader:   bytes.NewReader(data),
		FileSize: len(data),
	}
	summary, err := s.slackClient.UploadFileV2Context(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to UploadFileV2(%s): %w", channelID, err)
	}
	s.logger.Info(fmt.Sprintf("SlackSender: upload success. file_id: %s", summary.ID), "channel", channelID)
	return nil
}
