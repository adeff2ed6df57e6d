package gmail

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "Meeting notes", encodeRFC2047("Meeting notes"))

	encoded := encodeRFC2047("Grüße aus Kairo")
	assert.True(t, strings.HasPrefix(encoded, "=?UTF-8?b?"), encoded)
}

func TestBuildRaw(t *testing.T) {
	raw, err := buildRaw(EmailMessage{To: " bob@example.com ", Subject: "Hi", Body: "Dear Bob,\n\nHello."})
	require.NoError(t, err)

	decoded, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)

	msg := string(decoded)
	assert.Contains(t, msg, "To: bob@example.com\r\n")
	assert.Contains(t, msg, "Subject: Hi\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nDear Bob,\n\nHello."))
}

func TestBuildRaw_Rejects(t *testing.T) {
	tests := []struct {
		name string
		msg  EmailMessage
	}{
		{name: "missing recipient", msg: EmailMessage{Subject: "x"}},
		{name: "header injection in recipient", msg: EmailMessage{To: "a@example.com\r\nBcc: c@example.com"}},
		{name: "header injection in subject", msg: EmailMessage{To: "a@example.com", Subject: "x\nBcc: c@example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildRaw(tt.msg)
			assert.Error(t, err)
		})
	}
}
