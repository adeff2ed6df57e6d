package gmail

import (
	"encoding/base64"
	"errors"
	"mime"
	"strings"
)

// encodeRFC2047 encodes a header value according to RFC 2047.
// This is necessary for non-ASCII characters (like German umlauts) in subjects.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}

// buildRaw renders msg in RFC 2822 format and encodes it as base64url,
// the form Gmail expects in Message.Raw.
func buildRaw(msg EmailMessage) (string, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return "", errors.New("recipient is required")
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(msg.Subject, "\r\n") {
		return "", errors.New("header values must not contain line breaks")
	}

	var b strings.Builder
	b.WriteString("To: ")
	b.WriteString(to)
	b.WriteString("\r\n")
	b.WriteString("Subject: ")
	b.WriteString(encodeRFC2047(msg.Subject))
	b.WriteString("\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}
