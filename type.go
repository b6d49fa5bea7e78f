package export

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type ExportMode string

const (
	ModeFolder  ExportMode = "Folder"
	ModeZipSave ExportMode = "ZipSave"
	ModeZipSend ExportMode = "ZipSend"
)

func ParseExportMode(s string) (ExportMode, error) {
	switch m := ExportMode(s); m {
	case ModeFolder, ModeZipSave, ModeZipSend:
		return m, nil
	}
	return "", fmt.Errorf("unknown export mode %q (Folder, ZipSave or ZipSend)", s)
}

func (m ExportMode) archive() bool {
	return m != ModeFolder
}

type FilenameFormat string

const (
	FilenameByID   FilenameFormat = "IDs"
	FilenameByName FilenameFormat = "Names"
)

func ParseFilenameFormat(s string) (FilenameFormat, error) {
	switch f := FilenameFormat(s); f {
	case FilenameByID, FilenameByName:
		return f, nil
	}
	return "", fmt.Errorf("unknown filename format %q (IDs or Names)", s)
}

// Categories switches collectors on and off. Guild icon and banner follow Info.
type Categories struct {
	Info     bool
	Channels bool
	Roles    bool
	Automod  bool
	Bans     bool
	Members  bool
	Emojis   bool
	Stickers bool
	Sounds   bool
}

func AllCategories() Categories {
	return Categories{
		Info:     true,
		Channels: true,
		Roles:    true,
		Automod:  true,
		Bans:     true,
		Members:  true,
		Emojis:   true,
		Stickers: true,
		Sounds:   true,
	}
}

// ParseCategories enables exactly the named categories. Names are the
// lower-case field names, e.g. "info" or "stickers".
func ParseCategories(names []string) (Categories, error) {
	var c Categories
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "info":
			c.Info = true
		case "channels":
			c.Channels = true
		case "roles":
			c.Roles = true
		case "automod":
			c.Automod = true
		case "bans":
			c.Bans = true
		case "members":
			c.Members = true
		case "emojis":
			c.Emojis = true
		case "stickers":
			c.Stickers = true
		case "sounds":
			c.Sounds = true
		default:
			return Categories{}, fmt.Errorf("unknown category %q", name)
		}
	}
	return c, nil
}

type Config struct {
	GuildID string

	Mode            ExportMode
	ExportDirectory string
	SendToChannelID string

	Categories     Categories
	FilenameFormat FilenameFormat
	ActionDelay    time.Duration

	// host of the emoji media proxy, e.g. "media.discordapp.net"
	MediaProxy string

	Logger *slog.Logger
}

const (
	DefaultActionDelay = 250 * time.Millisecond
	DefaultMediaProxy  = "media.discordapp.net"
	DefaultExportDir   = "GuildExports"
)

func DefaultConfig() *Config {
	return &Config{
		Mode:            ModeZipSave,
		ExportDirectory: DefaultExportDir,
		Categories:      AllCategories(),
		FilenameFormat:  FilenameByID,
		ActionDelay:     DefaultActionDelay,
		MediaProxy:      DefaultMediaProxy,
		Logger:          slog.Default(),
	}
}

func (c *Config) Validate() error {
	if c.GuildID == "" {
		return fmt.Errorf("guild id is required")
	}
	if c.ActionDelay < 0 {
		return fmt.Errorf("action delay must not be negative: %s", c.ActionDelay)
	}
	if c.Mode == ModeFolder && c.ExportDirectory == "" {
		return fmt.Errorf("export directory is required in Folder mode")
	}
	return nil
}
