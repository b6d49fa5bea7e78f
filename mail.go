package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/rand"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// base64 body lines are wrapped at this width (RFC 2045)
const mimeLineLength = 76

type Mail struct {
	From     string
	To       []string
	Subject  string
	Body     []byte
	Boundary string
}

// headerString renders the message headers. Guild names are often not ASCII,
// so the subject is Q-encoded.
func (m *Mail) headerString() string {
	headers := []string{
		"From: " + m.From,
		"To: " + strings.Join(m.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", m.Subject),
		"MIME-Version: 1.0",
		"Content-Type: multipart/mixed; boundary=" + m.Boundary,
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n"
}

func (m *Mail) raw() []byte {
	return append([]byte(m.headerString()), m.Body...)
}

func toMIMEBody(text []byte, boundary string) ([]byte, error) {
	body := new(bytes.Buffer)
	bodyWriter := multipart.NewWriter(body)
	if err := bodyWriter.SetBoundary(boundary); err != nil {
		return nil, err
	}

	part, err := bodyWriter.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		bodyWriter.Close()
		return nil, err
	}

	enc := base64.StdEncoding.EncodeToString(text)
	for len(enc) > 0 {
		n := min(mimeLineLength, len(enc))
		if _, err := fmt.Fprintf(part, "%s\r\n", enc[:n]); err != nil {
			bodyWriter.Close()
			return nil, err
		}
		enc = enc[n:]
	}

	if err := bodyWriter.Close(); err != nil {
		return nil, err
	}
	return body.Bytes(), nil
}

func boundary() string {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	b := make([]byte, 32)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

// outcomeMailText renders the plain text body of an outcome mail.
func outcomeMailText(o Outcome) []byte {
	lines := []string{o.Message(), ""}
	lines = append(lines, fmt.Sprintf("guild: %s (%s)", o.GuildName, o.GuildID))
	if o.Succeeded() {
		lines = append(lines, fmt.Sprintf("delivery: %s", o.Delivery))
		lines = append(lines, fmt.Sprintf("files: %d", o.Files))
		if o.ArchiveName != "" {
			lines = append(lines, fmt.Sprintf("archive: %s (%d bytes)", o.ArchiveName, o.ArchiveSize))
		}
	}
	return []byte(strings.Join(lines, "\n"))
}
