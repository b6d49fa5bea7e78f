package export

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Record is one entry of a category as delivered by the store or the API.
type Record = json.RawMessage

type Category string

const (
	CategoryRoles    Category = "roles"
	CategoryChannels Category = "channels"
	CategoryAutomod  Category = "automod"
	CategoryBans     Category = "bans"
	CategoryMembers  Category = "members"
	CategoryEmojis   Category = "emojis"
	CategoryStickers Category = "stickers"
	CategorySounds   Category = "sounds"
)

// Guild is the subset of guild metadata the exporter needs.
type Guild struct {
	ID                     string
	Name                   string
	Icon                   string
	Banner                 string
	Description            string
	OwnerID                string
	VerificationLevel      int64
	RulesChannelID         string
	PublicUpdatesChannelID string
	PreferredLocale        string
	Features               []string
	VanityURLCode          string
	NSFWLevel              int64
	PremiumTier            int64
	PremiumSubscriberCount int64
}

// ParseGuild reads a guild object. Both the API's snake_case keys and the
// camelCase keys of client-side caches are accepted.
func ParseGuild(raw []byte) (*Guild, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("guild payload is not valid JSON")
	}
	g := &Guild{
		ID:                     recordString(raw, "id"),
		Name:                   recordString(raw, "name"),
		Icon:                   recordString(raw, "icon"),
		Banner:                 recordString(raw, "banner"),
		Description:            recordString(raw, "description"),
		OwnerID:                recordString(raw, "owner_id", "ownerId"),
		VerificationLevel:      recordInt(raw, "verification_level", "verificationLevel"),
		RulesChannelID:         recordString(raw, "rules_channel_id", "rulesChannelId"),
		PublicUpdatesChannelID: recordString(raw, "public_updates_channel_id", "publicUpdatesChannelId"),
		PreferredLocale:        recordString(raw, "preferred_locale", "preferredLocale"),
		VanityURLCode:          recordString(raw, "vanity_url_code", "vanityURLCode"),
		NSFWLevel:              recordInt(raw, "nsfw_level", "nsfwLevel"),
		PremiumTier:            recordInt(raw, "premium_tier", "premiumTier"),
		PremiumSubscriberCount: recordInt(raw, "premium_subscription_count", "premiumSubscriberCount"),
	}
	gjson.GetBytes(raw, "features").ForEach(func(_, value gjson.Result) bool {
		g.Features = append(g.Features, value.String())
		return true
	})
	if g.ID == "" {
		return nil, fmt.Errorf("guild payload has no id")
	}
	return g, nil
}

// recordString returns the first path that exists in the record, as a string.
func recordString(r []byte, paths ...string) string {
	for _, p := range paths {
		if v := gjson.GetBytes(r, p); v.Exists() && v.Type != gjson.Null {
			return v.String()
		}
	}
	return ""
}

func recordInt(r []byte, paths ...string) int64 {
	for _, p := range paths {
		if v := gjson.GetBytes(r, p); v.Exists() && v.Type != gjson.Null {
			return v.Int()
		}
	}
	return 0
}

func recordBool(r []byte, paths ...string) bool {
	for _, p := range paths {
		if v := gjson.GetBytes(r, p); v.Exists() && v.Type != gjson.Null {
			return v.Bool()
		}
	}
	return false
}

// splitRecords turns a JSON array into records. Anything else yields nil.
func splitRecords(raw []byte) []Record {
	v := gjson.ParseBytes(raw)
	if !v.IsArray() {
		return nil
	}
	items := v.Array()
	records := make([]Record, 0, len(items))
	for _, item := range items {
		records = append(records, Record(item.Raw))
	}
	return records
}

// userID resolves the owning user of a ban, member or sound record.
func userID(r Record) string {
	return recordString(r, "user.id", "user_id", "userId")
}

// normalizeSound replaces the nested user object with a flat user_id and
// settles the sound id on sound_id.
func normalizeSound(m map[string]any) {
	uid := ""
	if user, ok := m["user"].(map[string]any); ok {
		uid = stringField(user, "id")
	}
	uid = FirstString(uid, stringField(m, "user_id"), stringField(m, "userId"))
	if uid != "" {
		m["user_id"] = uid
	}
	delete(m, "user")
	delete(m, "userId")
	if id := FirstString(stringField(m, "sound_id"), stringField(m, "soundId")); id != "" {
		m["sound_id"] = id
		delete(m, "soundId")
	}
}

// stringField returns a string or number field of a decoded object as text.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// normalizeSticker settles the format discriminator on format_type.
func normalizeSticker(m map[string]any) {
	if _, ok := m["format_type"]; ok {
		delete(m, "formatType")
		return
	}
	if v, ok := m["formatType"]; ok {
		m["format_type"] = v
		delete(m, "formatType")
	}
}
