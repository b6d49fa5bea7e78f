package export

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/h2non/gock.v1"
)

func TestLocalSaverCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "GuildExports")
	saver := NewLocalSaver(discardLogger(), dir)

	require.NoError(t, saver.Save(context.Background(), "Test_export.zip", []byte("PK")))

	b, err := os.ReadFile(filepath.Join(dir, "Test_export.zip"))
	require.NoError(t, err)
	assert.Equal(t, "PK", string(b))
}

// Test that the archive is posted as a multipart attachment.
func TestDiscordSenderSend(t *testing.T) {
	defer gock.Off()
	gock.New("http://api.test/").
		Post("api/v10/channels/c9/messages").
		MatchHeader("Authorization", "Bot secret").
		MatchHeader("Content-Type", "multipart/form-data").
		AddMatcher(func(r1 *http.Request, r2 *gock.Request) (bool, error) {
			if err := r1.ParseMultipartForm(1 << 20); err != nil {
				return false, err
			}
			if r1.FormValue("payload_json") == "" {
				return false, nil
			}
			f, header, err := r1.FormFile("files[0]")
			if err != nil {
				return false, nil
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			return header.Filename == "Test_export.zip" && string(b) == "PK", nil
		}).
		Reply(200).
		AddHeader("Content-Type", "application/json").
		BodyString(`{"id": "m1"}`)
	sender := NewDiscordSender(discardLogger(), "http://api.test/api/v10", "Bot secret")
	gock.InterceptClient(sender.innerClient.GetClient())

	require.NoError(t, sender.Send(context.Background(), "c9", "Test_export.zip", []byte("PK")))
	require.True(t, gock.IsDone())
}

func TestDiscordSenderSendTooLarge(t *testing.T) {
	defer gock.Off()
	gock.New("http://api.test/").
		Post("api/v10/channels/c9/messages").
		Reply(413).
		BodyString("request entity too large")
	sender := NewDiscordSender(discardLogger(), "http://api.test/api/v10", "Bot secret")
	gock.InterceptClient(sender.innerClient.GetClient())

	err := sender.Send(context.Background(), "c9", "Test_export.zip", []byte(strings.Repeat("x", 64)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "413")
}
