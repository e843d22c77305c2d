package mailer

import (
	"mime"
	"strings"
)

// buildMIME assembles a single-part MIME message with an HTML body. The
// subject is Q-encoded so non-ASCII campaign subjects survive transport.
func buildMIME(from, to, subject, body string) []byte {
	lines := []string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		body,
	}
	return []byte(strings.Join(lines, "\r\n"))
}
