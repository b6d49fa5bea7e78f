package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	export "github.com/ToshihitoKon/guild-export"
	"github.com/lmittmann/tint"
	flag "github.com/spf13/pflag"
)

type options struct {
	conf *export.Config

	token    string
	apiURL   string
	snapshot string

	sendVia    string
	slackToken string

	s3Bucket string
	s3Prefix string

	notifyFrom      []string
	notifyTo        []string
	notifySubject   string
	sesConfigSet    string
	sesSourceArn    string
	noProgress      bool
	verbose         bool
	actionDelayMsec int
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level, TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)
	opts.conf.Logger = logger

	outcome, err := run(context.Background(), opts)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	if !outcome.Succeeded() {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options) (export.Outcome, error) {
	conf := opts.conf
	logger := conf.Logger

	client := export.NewRestClient(logger, opts.apiURL, opts.token)

	var store *export.MemoryStore
	if opts.snapshot != "" {
		s, err := export.LoadSnapshot(opts.snapshot)
		if err != nil {
			return export.Outcome{}, err
		}
		store = s
	} else {
		store = export.NewMemoryStore()
		if err := export.PrimeStore(ctx, client, store, conf.GuildID); err != nil {
			// the session reports the missing guild itself
			logger.Warn("failed to load guild from API", "error", err.Error())
		}
	}

	session := export.NewSession(conf, store, client)
	session.Native = export.NewLocalNative(nil)

	if opts.s3Bucket != "" {
		saver, err := export.NewS3Saver(ctx, logger, opts.s3Bucket, opts.s3Prefix)
		if err != nil {
			return export.Outcome{}, err
		}
		session.Saver = saver
	}

	switch opts.sendVia {
	case "discord":
		session.Sender = export.NewDiscordSender(logger, opts.apiURL, opts.token)
	case "slack":
		if opts.slackToken == "" {
			return export.Outcome{}, fmt.Errorf("--slack-token (or GE_SLACK_TOKEN) is required with --send-via slack")
		}
		session.Sender = export.NewSlackSender(logger, opts.slackToken)
	default:
		return export.Outcome{}, fmt.Errorf("unknown --send-via %q (discord or slack)", opts.sendVia)
	}

	if !opts.noProgress {
		session.Progress = export.NewTermProgress(os.Stderr)
	}

	notifiers := export.MultiNotifier{export.NewLogNotifier(logger)}
	if len(opts.notifyTo) > 0 {
		n, err := export.NewSESNotifier(ctx, logger,
			opts.sesConfigSet, opts.sesSourceArn,
			export.FirstString(opts.notifyFrom...), opts.notifyTo, opts.notifySubject,
		)
		if err != nil {
			return export.Outcome{}, err
		}
		notifiers = append(notifiers, n)
	}
	session.Notifier = notifiers

	// The first interrupt only silences progress output; the export keeps
	// going. A second one terminates the process.
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		session.Abort()
		fmt.Fprintln(os.Stderr, "\nExport aborted. Press Ctrl-C again to quit immediately.")
		<-sigs
		os.Exit(130)
	}()

	return session.Run(ctx), nil
}

func parseFlags() (*options, error) {
	opts := &options{conf: export.DefaultConfig()}
	conf := opts.conf
	cats := &conf.Categories

	guildID := flag.StringP("guild", "g", "", "ID of the guild to export (GE_GUILD_ID)")
	flag.StringVar(&opts.token, "token", "", "Authorization header value for the API, e.g. \"Bot xxx\" (GE_TOKEN)")
	flag.StringVar(&opts.apiURL, "api-url", export.DefaultAPIBaseURL, "API base URL")
	flag.StringVar(&opts.snapshot, "snapshot", "", "Read cached guild data from this JSON snapshot instead of priming from the API")

	mode := flag.StringP("mode", "m", string(export.ModeZipSave), "Export mode: Folder, ZipSave or ZipSend")
	exportDir := flag.StringP("dir", "o", "", "Export directory (GE_EXPORT_DIR)")
	channelID := flag.String("channel", "", "Channel ID to send the ZIP to in ZipSend mode (GE_CHANNEL_ID)")
	flag.StringVar(&opts.sendVia, "send-via", "discord", "Channel type for ZipSend: discord or slack")
	flag.StringVar(&opts.slackToken, "slack-token", "", "Slack token for --send-via slack (GE_SLACK_TOKEN)")

	filenameFormat := flag.String("filename-format", string(export.FilenameByID), "Asset file names: IDs or Names")
	flag.IntVar(&opts.actionDelayMsec, "delay", int(export.DefaultActionDelay/time.Millisecond), "Delay between API calls and asset downloads in milliseconds")
	flag.StringVar(&conf.MediaProxy, "media-proxy", export.DefaultMediaProxy, "Host of the emoji media proxy")

	flag.BoolVar(&cats.Info, "info", true, "Export general guild info, icon and banner")
	flag.BoolVar(&cats.Channels, "channels", true, "Export channels")
	flag.BoolVar(&cats.Roles, "roles", true, "Export roles")
	flag.BoolVar(&cats.Automod, "automod", true, "Export automod rules")
	flag.BoolVar(&cats.Bans, "bans", true, "Export bans")
	flag.BoolVar(&cats.Members, "members", true, "Export members")
	flag.BoolVar(&cats.Emojis, "emojis", true, "Export emojis")
	flag.BoolVar(&cats.Stickers, "stickers", true, "Export stickers")
	flag.BoolVar(&cats.Sounds, "sounds", true, "Export soundboard sounds")

	flag.StringVar(&opts.s3Bucket, "s3-bucket", "", "Save the ZIP to this S3 bucket instead of the export directory (GE_S3_BUCKET)")
	flag.StringVar(&opts.s3Prefix, "s3-prefix", "", "Key prefix for --s3-bucket")

	flag.StringSliceVar(&opts.notifyTo, "notify-to", nil, "Mail the outcome to these addresses through SES")
	flag.StringSliceVar(&opts.notifyFrom, "notify-from", nil, "Sender address of the outcome mail (GE_NOTIFY_FROM)")
	flag.StringVar(&opts.notifySubject, "notify-subject", "Guild export", "Subject prefix of the outcome mail")
	flag.StringVar(&opts.sesConfigSet, "ses-config-set", "", "SES configuration set name")
	flag.StringVar(&opts.sesSourceArn, "ses-source-arn", "", "SES source ARN")

	flag.BoolVar(&opts.noProgress, "no-progress", false, "Log progress instead of drawing a status line")
	flag.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")
	flag.Parse()

	conf.GuildID = export.FirstString(*guildID, os.Getenv("GE_GUILD_ID"))
	opts.token = export.FirstString(opts.token, os.Getenv("GE_TOKEN"))
	opts.slackToken = export.FirstString(opts.slackToken, os.Getenv("GE_SLACK_TOKEN"))
	opts.s3Bucket = export.FirstString(opts.s3Bucket, os.Getenv("GE_S3_BUCKET"))
	opts.notifyFrom = append(opts.notifyFrom, os.Getenv("GE_NOTIFY_FROM"))
	conf.ExportDirectory = export.FirstString(*exportDir, os.Getenv("GE_EXPORT_DIR"), export.DefaultExportDir)
	conf.SendToChannelID = export.FirstString(*channelID, os.Getenv("GE_CHANNEL_ID"))
	conf.ActionDelay = time.Duration(opts.actionDelayMsec) * time.Millisecond

	var err error
	if conf.Mode, err = export.ParseExportMode(*mode); err != nil {
		return nil, err
	}
	if conf.FilenameFormat, err = export.ParseFilenameFormat(*filenameFormat); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
