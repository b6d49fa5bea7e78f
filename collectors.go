package export

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// DefaultCollectors returns every collector in export order.
func DefaultCollectors() []Collector {
	return []Collector{
		{
			Name:    "info",
			Status:  "Exporting general information...",
			Enabled: func(c Categories) bool { return c.Info },
			Run:     collectInfo,
		},
		{
			Name:    "roles",
			Status:  "Exporting roles...",
			Enabled: func(c Categories) bool { return c.Roles },
			Run:     collectRoles,
		},
		{
			Name:    "channels",
			Status:  "Exporting channels...",
			Enabled: func(c Categories) bool { return c.Channels },
			Run:     collectChannels,
		},
		{
			Name:    "automod",
			Status:  "Exporting automod rules...",
			Enabled: func(c Categories) bool { return c.Automod },
			Run:     collectAutomod,
		},
		{
			Name:    "bans",
			Status:  "Exporting bans...",
			Enabled: func(c Categories) bool { return c.Bans },
			Run:     collectBans,
		},
		{
			Name:    "members",
			Status:  "Exporting members...",
			Enabled: func(c Categories) bool { return c.Members },
			Run:     collectMembers,
		},
		{
			Name:    "guild-assets",
			Status:  "Exporting guild assets (Icon/Banner)...",
			Enabled: func(c Categories) bool { return c.Info },
			Run:     collectGuildAssets,
		},
		{
			Name:    "emojis",
			Status:  "Exporting emojis...",
			Enabled: func(c Categories) bool { return c.Emojis },
			Run:     collectEmojis,
		},
		{
			Name:    "stickers",
			Status:  "Exporting stickers...",
			Enabled: func(c Categories) bool { return c.Stickers },
			Run:     collectStickers,
		},
		{
			Name:    "sounds",
			Status:  "Exporting soundboard sounds...",
			Enabled: func(c Categories) bool { return c.Sounds },
			Run:     collectSounds,
		},
	}
}

func collectInfo(ctx context.Context, ec *ExportContext) error {
	g := ec.Guild

	features := make([]any, 0, len(g.Features))
	for _, f := range g.Features {
		features = append(features, f)
	}
	info := map[string]any{
		"id":                     g.ID,
		"name":                   g.Name,
		"icon":                   g.Icon,
		"description":            g.Description,
		"ownerId":                g.OwnerID,
		"verificationLevel":      g.VerificationLevel,
		"rulesChannelId":         g.RulesChannelID,
		"publicUpdatesChannelId": g.PublicUpdatesChannelID,
		"preferredLocale":        g.PreferredLocale,
		"features":               features,
		"vanityURLCode":          g.VanityURLCode,
		"nsfwLevel":              g.NSFWLevel,
		"premiumTier":            g.PremiumTier,
		"premiumSubscriberCount": g.PremiumSubscriberCount,
	}
	if c, ok := ec.Store.(MemberCounter); ok {
		if n, ok := c.MemberCount(ec.GuildID); ok {
			info["totalMembers"] = n
		}
	}
	if n, ok := activeMembers(ec.Store, ec.GuildID); ok {
		info["activeMembers"] = n
	}

	payload, err := encodePayload(info)
	if err != nil {
		return err
	}
	if err := ec.Persist(ctx, "info.json", payload); err != nil {
		return fmt.Errorf("failed to persist info.json: %w", err)
	}

	if s, ok := ec.Store.(SettingsStore); ok {
		if err := saveSettings(ctx, ec, s); err != nil {
			ec.Logger.Warn("Failed to export guild settings", "error", err.Error())
		}
	}

	ec.pause(ctx)
	return nil
}

func saveSettings(ctx context.Context, ec *ExportContext, s SettingsStore) error {
	settings, err := s.GuildSettings(ec.GuildID)
	if err != nil {
		return err
	}
	if len(settings) == 0 {
		return nil
	}
	tree, err := decodeTree(settings)
	if err != nil {
		return err
	}
	payload, err := encodePayload(tree)
	if err != nil {
		return err
	}
	return ec.Persist(ctx, "settings.json", payload)
}

func collectRoles(ctx context.Context, ec *ExportContext) error {
	return collectRecords(recordSource{
		category: CategoryRoles,
		path:     "/guilds/" + ec.GuildID + "/roles",
	}, "roles.json", nil)(ctx, ec)
}

func collectChannels(ctx context.Context, ec *ExportContext) error {
	return collectRecords(recordSource{
		category: CategoryChannels,
		path:     "/guilds/" + ec.GuildID + "/channels",
	}, "channels.json", nil)(ctx, ec)
}

// An automod fetch failure still writes an empty automod.json, like every
// other category.
func collectAutomod(ctx context.Context, ec *ExportContext) error {
	return collectRecords(recordSource{
		category: CategoryAutomod,
		path:     "/guilds/" + ec.GuildID + "/auto-moderation/rules",
	}, "automod.json", nil)(ctx, ec)
}

func collectBans(ctx context.Context, ec *ExportContext) error {
	return collectRecords(recordSource{
		category:  CategoryBans,
		path:      "/guilds/" + ec.GuildID + "/bans",
		paginated: true,
		cursor:    userID,
	}, "bans.json", nil)(ctx, ec)
}

// A cached member list of one is usually just the current user, so it does
// not count as a hit.
func collectMembers(ctx context.Context, ec *ExportContext) error {
	return collectRecords(recordSource{
		category:  CategoryMembers,
		path:      "/guilds/" + ec.GuildID + "/members",
		paginated: true,
		cursor:    userID,
		decode:    decodeMembers,
		minCached: 1,
	}, "members.json", nil)(ctx, ec)
}

// decodeMembers accepts a bare array or an object with a members array.
func decodeMembers(body []byte) []Record {
	if v := gjson.GetBytes(body, "members"); v.IsArray() {
		return splitRecords([]byte(v.Raw))
	}
	return splitRecords(body)
}
