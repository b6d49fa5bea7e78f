package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const cdnBaseURL = "https://cdn.discordapp.com"

// sticker format type of animated GIF stickers
const stickerFormatGIF = 4

func collectGuildAssets(ctx context.Context, ec *ExportContext) error {
	g := ec.Guild
	if g.Icon != "" {
		url := guildImageURL("icons", g.ID, g.Icon)
		ec.Downloader.Download(ctx, url, "icon"+imageExt(url), ec)
		ec.pause(ctx)
	}
	if g.Banner != "" {
		url := guildImageURL("banners", g.ID, g.Banner)
		ec.Downloader.Download(ctx, url, "banner"+imageExt(url), ec)
		ec.pause(ctx)
	}
	return nil
}

// guildImageURL resolves an icon or banner hash. Hashes of animated images
// start with "a_".
func guildImageURL(kind, guildID, hash string) string {
	format := "png"
	if strings.HasPrefix(hash, "a_") {
		format = "gif"
	}
	return fmt.Sprintf("%s/%s/%s/%s.%s", cdnBaseURL, kind, guildID, hash, format)
}

func imageExt(url string) string {
	if strings.Contains(url, ".gif") {
		return ".gif"
	}
	return ".png"
}

func collectEmojis(ctx context.Context, ec *ExportContext) error {
	emojis := fetchRecords(ctx, ec, recordSource{
		category: CategoryEmojis,
		path:     "/guilds/" + ec.GuildID + "/emojis",
	})
	ec.Logger.Info(fmt.Sprintf("Found %d emojis", len(emojis)))
	if err := saveRecords(ctx, ec, "emojis.json", emojis, nil); err != nil {
		return err
	}

	proxy := ec.MediaProxy
	if proxy == "" {
		proxy = DefaultMediaProxy
	}
	for i, emoji := range emojis {
		id := recordString(emoji, "id")
		if id == "" {
			continue
		}
		name := recordString(emoji, "name")
		ext := ".png"
		if recordBool(emoji, "animated") {
			ext = ".gif"
		}
		url := fmt.Sprintf("https://%s/emojis/%s%s?size=512&quality=lossless", proxy, id, ext)

		ec.Logger.Info(fmt.Sprintf("Downloading emoji: %s (%s)", name, id))
		ec.Report(fmt.Sprintf("Downloading emoji %d/%d...", i+1, len(emojis)))
		ec.Downloader.Download(ctx, url, "emojis/"+ec.assetName(name, id)+ext, ec)
		ec.pause(ctx)
	}
	return nil
}

func collectStickers(ctx context.Context, ec *ExportContext) error {
	stickers := fetchRecords(ctx, ec, recordSource{
		category: CategoryStickers,
		path:     "/guilds/" + ec.GuildID + "/stickers",
	})
	ec.Logger.Info(fmt.Sprintf("Found %d stickers", len(stickers)))
	if err := saveRecords(ctx, ec, "stickers.json", stickers, normalizeSticker); err != nil {
		return err
	}

	for i, sticker := range stickers {
		id := recordString(sticker, "id")
		if id == "" {
			continue
		}
		name := recordString(sticker, "name")
		ext := ".png"
		if recordInt(sticker, "format_type", "formatType") == stickerFormatGIF {
			ext = ".gif"
		}
		url := fmt.Sprintf("%s/stickers/%s%s", cdnBaseURL, id, ext)

		ec.Logger.Info(fmt.Sprintf("Downloading sticker: %s (%s)", name, id))
		ec.Report(fmt.Sprintf("Downloading sticker %d/%d...", i+1, len(stickers)))
		ec.Downloader.Download(ctx, url, "stickers/"+ec.assetName(name, id)+ext, ec)
		ec.pause(ctx)
	}
	return nil
}

func collectSounds(ctx context.Context, ec *ExportContext) error {
	sounds := fetchRecords(ctx, ec, recordSource{
		category: CategorySounds,
		path:     "/guilds/" + ec.GuildID + "/soundboard-sounds",
		decode:   decodeSounds,
	})
	ec.Logger.Info(fmt.Sprintf("Found %d soundboard sounds", len(sounds)))
	if err := saveRecords(ctx, ec, "sounds.json", sounds, normalizeSound); err != nil {
		return err
	}

	for i, sound := range sounds {
		id := recordString(sound, "sound_id", "soundId")
		if id == "" {
			continue
		}
		name := recordString(sound, "name")
		if name == "" {
			name = "Unknown Sound"
		}
		url := fmt.Sprintf("%s/soundboard-sounds/%s", cdnBaseURL, id)

		ec.Logger.Info(fmt.Sprintf("Downloading sound: %s (%s)", name, id))
		ec.Report(fmt.Sprintf("Downloading sound %d/%d...", i+1, len(sounds)))
		ec.Downloader.Download(ctx, url, "sounds/"+ec.assetName(name, id)+".ogg", ec)
		ec.pause(ctx)
	}
	return nil
}

// decodeSounds reads the {"items": [...]} envelope of the soundboard endpoint.
func decodeSounds(body []byte) []Record {
	if v := gjson.GetBytes(body, "items"); v.IsArray() {
		return splitRecords([]byte(v.Raw))
	}
	return splitRecords(body)
}
