package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	export "github.com/ToshihitoKon/guild-export"
)

type exportResponse struct {
	Guild    string `json:"guild"`
	Archive  string `json:"archive"`
	Bytes    int    `json:"bytes"`
	Files    int    `json:"files"`
	Delivery string `json:"delivery"`
}

func handler(ctx context.Context, req *exportRequest) (string, error) {
	logger := slog.Default()

	conf, err := makeConfig(req)
	if err != nil {
		return "bad request", err
	}
	conf.Logger = logger

	apiURL := export.FirstString(req.APIURL, export.DefaultAPIBaseURL)
	token := export.FirstString(req.Token, os.Getenv("GE_TOKEN"))
	client := export.NewRestClient(logger, apiURL, token)

	store := export.NewMemoryStore()
	if err := export.PrimeStore(ctx, client, store, conf.GuildID); err != nil {
		logger.Warn("failed to load guild from API", "error", err.Error())
	}

	session := export.NewSession(conf, store, client)

	bucket := export.FirstString(req.S3Bucket, os.Getenv("GE_S3_BUCKET"))
	saver, err := export.NewS3Saver(ctx, logger, bucket, req.S3Key)
	if err != nil {
		return "internal server error", err
	}
	session.Saver = saver

	switch req.SendVia {
	case "", "discord":
		session.Sender = export.NewDiscordSender(logger, apiURL, token)
	case "slack":
		session.Sender = export.NewSlackSender(logger, export.FirstString(req.SlackToken, os.Getenv("GE_SLACK_TOKEN")))
	default:
		return "bad request", fmt.Errorf("unknown send_via %q", req.SendVia)
	}

	if len(req.To) > 0 {
		n, err := export.NewSESNotifier(ctx, logger,
			os.Getenv("GE_SES_CONFIG_SET"), os.Getenv("GE_SES_SOURCE_ARN"),
			export.FirstString(req.From, os.Getenv("GE_NOTIFY_FROM")), req.To, req.Subject,
		)
		if err != nil {
			return "internal server error", err
		}
		session.Notifier = export.MultiNotifier{export.NewLogNotifier(logger), n}
	}

	outcome := session.Run(ctx)
	if !outcome.Succeeded() {
		return "internal server error", outcome.Err
	}

	b, err := json.Marshal(exportResponse{
		Guild:    outcome.GuildName,
		Archive:  outcome.ArchiveName,
		Bytes:    outcome.ArchiveSize,
		Files:    outcome.Files,
		Delivery: outcome.Delivery,
	})
	if err != nil {
		return "internal server error", err
	}
	return string(b), nil
}

// makeConfig builds an archive-only config: a lambda has no writable
// export directory, so the mode is ZipSend with a channel and ZipSave
// (to S3) without one.
func makeConfig(req *exportRequest) (*export.Config, error) {
	conf := export.DefaultConfig()
	conf.GuildID = export.FirstString(req.GuildID, os.Getenv("GE_GUILD_ID"))
	conf.SendToChannelID = export.FirstString(req.ChannelID, os.Getenv("GE_CHANNEL_ID"))
	conf.Mode = export.ModeZipSave
	if conf.SendToChannelID != "" {
		conf.Mode = export.ModeZipSend
	}

	if req.FilenameFormat != "" {
		f, err := export.ParseFilenameFormat(req.FilenameFormat)
		if err != nil {
			return nil, err
		}
		conf.FilenameFormat = f
	}
	if req.DelayMsec != nil {
		conf.ActionDelay = time.Duration(*req.DelayMsec) * time.Millisecond
	}
	if len(req.Categories) > 0 {
		cats, err := export.ParseCategories(req.Categories)
		if err != nil {
			return nil, err
		}
		conf.Categories = cats
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}
