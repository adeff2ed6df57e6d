package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/tools/common"
	"github.com/teemow/workmate/internal/transcript"
)

func TestCredentialBinder_NoToken(t *testing.T) {
	bind := credentialBinder(credential.NewStore("stdio", credential.Config{}), nil)

	_, err := bind(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, credential.ErrAuthentication)
	assert.Contains(t, err.Error(), "workmate login")
}

func TestCredentialBinder_BindsServices(t *testing.T) {
	store := credential.NewStore("stdio", credential.Config{})
	require.NoError(t, store.Set(context.Background(), &oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}))

	ctx, err := credentialBinder(store, nil)(context.Background())
	require.NoError(t, err)

	services, err := common.ServicesFrom(ctx)
	require.NoError(t, err)
	assert.Equal(t, "stdio", services.SessionID)
	assert.NotNil(t, services.Drive)
}

func TestWriteTranscript(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2025, 5, 30, 14, 5, 0, 0, time.UTC)
	writeTranscript(&buf, []transcript.Entry{
		{Role: "user", Text: "hi", At: at},
		{Role: "assistant", Text: "hello", At: at},
	})
	assert.Equal(t, "[2025-05-30 14:05:00] USER:\nhi\n\n[2025-05-30 14:05:00] ASSISTANT:\nhello\n\n", buf.String())
}
