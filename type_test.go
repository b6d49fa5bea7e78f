package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseExportMode(t *testing.T) {
	for _, s := range []string{"Folder", "ZipSave", "ZipSend"} {
		m, err := ParseExportMode(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(m))
	}
	_, err := ParseExportMode("zip")
	assert.Error(t, err)
}

func TestParseFilenameFormat(t *testing.T) {
	f, err := ParseFilenameFormat("Names")
	require.NoError(t, err)
	assert.Equal(t, FilenameByName, f)
	_, err = ParseFilenameFormat("")
	assert.Error(t, err)
}

func TestParseCategories(t *testing.T) {
	c, err := ParseCategories([]string{"roles", " Emojis "})
	require.NoError(t, err)
	assert.Equal(t, Categories{Roles: true, Emojis: true}, c)

	c, err = ParseCategories([]string{"info", "channels", "roles", "automod", "bans", "members", "emojis", "stickers", "sounds"})
	require.NoError(t, err)
	assert.Equal(t, AllCategories(), c)

	_, err = ParseCategories([]string{"webhooks"})
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	conf := DefaultConfig()
	assert.Error(t, conf.Validate())

	conf.GuildID = "g1"
	assert.NoError(t, conf.Validate())

	conf.ActionDelay = -1
	assert.Error(t, conf.Validate())

	conf = DefaultConfig()
	conf.GuildID = "g1"
	conf.Mode = ModeFolder
	conf.ExportDirectory = ""
	assert.Error(t, conf.Validate())
}
