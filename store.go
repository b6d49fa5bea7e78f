package export

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/tidwall/gjson"
)

// Store is a read-only cache of guild data that is already available
// locally. A miss is reported with ok == false.
type Store interface {
	Guild(guildID string) (*Guild, bool)
	Records(category Category, guildID string) ([]Record, bool)
}

type MemberCounter interface {
	MemberCount(guildID string) (int, bool)
}

// OnlineCounter and OnlineMemberCounter are two spellings of the same lookup.
// Whichever one a store implements is used; OnlineCounter wins if both are.
type OnlineCounter interface {
	OnlineCount(guildID string) (int, bool)
}

type OnlineMemberCounter interface {
	OnlineMemberCount(guildID string) (int, bool)
}

type SettingsStore interface {
	GuildSettings(guildID string) (Record, error)
}

func activeMembers(s Store, guildID string) (int, bool) {
	if c, ok := s.(OnlineCounter); ok {
		return c.OnlineCount(guildID)
	}
	if c, ok := s.(OnlineMemberCounter); ok {
		return c.OnlineMemberCount(guildID)
	}
	return 0, false
}

type MemoryStore struct {
	guilds   map[string]*Guild
	records  map[string]map[Category][]Record
	members  map[string]int
	online   map[string]int
	settings map[string]Record
}

var _ Store = (*MemoryStore)(nil)
var _ MemberCounter = (*MemoryStore)(nil)
var _ OnlineCounter = (*MemoryStore)(nil)
var _ SettingsStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		guilds:   map[string]*Guild{},
		records:  map[string]map[Category][]Record{},
		members:  map[string]int{},
		online:   map[string]int{},
		settings: map[string]Record{},
	}
}

func (s *MemoryStore) PutGuild(g *Guild) {
	s.guilds[g.ID] = g
}

func (s *MemoryStore) PutRecords(guildID string, category Category, records []Record) {
	if _, ok := s.records[guildID]; !ok {
		s.records[guildID] = map[Category][]Record{}
	}
	s.records[guildID][category] = records
}

func (s *MemoryStore) PutCounts(guildID string, members, online int) {
	if members > 0 {
		s.members[guildID] = members
	}
	if online > 0 {
		s.online[guildID] = online
	}
}

func (s *MemoryStore) PutSettings(guildID string, settings Record) {
	s.settings[guildID] = settings
}

func (s *MemoryStore) Guild(guildID string) (*Guild, bool) {
	g, ok := s.guilds[guildID]
	return g, ok
}

func (s *MemoryStore) Records(category Category, guildID string) ([]Record, bool) {
	byCategory, ok := s.records[guildID]
	if !ok {
		return nil, false
	}
	records, ok := byCategory[category]
	return records, ok
}

func (s *MemoryStore) MemberCount(guildID string) (int, bool) {
	n, ok := s.members[guildID]
	return n, ok
}

func (s *MemoryStore) OnlineCount(guildID string) (int, bool) {
	n, ok := s.online[guildID]
	return n, ok
}

func (s *MemoryStore) GuildSettings(guildID string) (Record, error) {
	return s.settings[guildID], nil
}

// snapshot keys holding embedded record lists, per category
var snapshotCategoryKeys = map[Category][]string{
	CategoryRoles:    {"roles"},
	CategoryChannels: {"channels"},
	CategoryAutomod:  {"automod", "auto_moderation_rules"},
	CategoryBans:     {"bans"},
	CategoryMembers:  {"members"},
	CategoryEmojis:   {"emojis"},
	CategoryStickers: {"stickers"},
	CategorySounds:   {"sounds", "soundboard_sounds"},
}

// LoadSnapshot reads a snapshot file into a MemoryStore. The file holds one
// guild object or a list of them; each may embed record lists (roles,
// emojis, channels ...), member counts and user settings.
func LoadSnapshot(path string) (*MemoryStore, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("snapshot %s is not valid JSON", path)
	}

	store := NewMemoryStore()
	root := gjson.ParseBytes(b)
	guilds := []gjson.Result{root}
	if root.IsArray() {
		guilds = root.Array()
	}
	for _, g := range guilds {
		if err := store.putGuildObject([]byte(g.Raw)); err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", path, err)
		}
	}
	return store, nil
}

// putGuildObject stores a guild and everything embedded in it.
func (s *MemoryStore) putGuildObject(raw []byte) error {
	guild, err := ParseGuild(raw)
	if err != nil {
		return err
	}
	s.PutGuild(guild)

	for category, keys := range snapshotCategoryKeys {
		for _, key := range keys {
			v := gjson.GetBytes(raw, key)
			if !v.IsArray() {
				continue
			}
			s.PutRecords(guild.ID, category, splitRecords([]byte(v.Raw)))
			break
		}
	}

	s.PutCounts(guild.ID,
		int(recordInt(raw, "approximate_member_count", "member_count", "memberCount")),
		int(recordInt(raw, "approximate_presence_count", "online_count", "onlineCount")),
	)

	if v := gjson.GetBytes(raw, "settings"); v.IsObject() {
		s.PutSettings(guild.ID, Record(v.Raw))
	}
	return nil
}

// PrimeStore fetches the guild object from the API and caches it, with the
// roles, emojis and stickers the API embeds in it. It runs before a session
// so that the session itself finds the guild in its store.
func PrimeStore(ctx context.Context, client APIClient, store *MemoryStore, guildID string) error {
	query := url.Values{}
	query.Set("with_counts", "true")
	resp, err := client.Get(ctx, "/guilds/"+guildID, query)
	if err != nil {
		return fmt.Errorf("failed to fetch guild %s: %w", guildID, err)
	}
	if !resp.OK {
		return fmt.Errorf("failed to fetch guild %s: %s", guildID, resp.describe())
	}
	return store.putGuildObject(resp.Body)
}
