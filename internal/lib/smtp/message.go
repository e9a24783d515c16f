package smtp

import (
	"mime"
	"strings"
)

// BuildMessage формирует HTML письмо в формате RFC 5322.
func BuildMessage(from, to, subject, html string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
		html,
	}, "\r\n"))
}
