package common

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestServicesFrom(t *testing.T) {
	_, err := ServicesFrom(context.Background())
	assert.ErrorIs(t, err, ErrNoServices)

	_, err = ServicesFrom(WithServices(context.Background(), nil))
	assert.ErrorIs(t, err, ErrNoServices)

	svc := &Services{SessionID: "s1"}
	got, err := ServicesFrom(WithServices(context.Background(), svc))
	require.NoError(t, err)
	assert.Same(t, svc, got)
}

func TestNewServices(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access"})

	svc, err := NewServices(context.Background(), nil, ts)
	require.NoError(t, err)
	assert.NotNil(t, svc.Calendar)
	assert.NotNil(t, svc.Mail)
	assert.NotNil(t, svc.Drive)
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, r)
	require.Len(t, r.Content, 1)
	text, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestRequireService(t *testing.T) {
	full, err := NewServices(context.Background(), nil, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "access"}))
	require.NoError(t, err)
	ctx := WithServices(context.Background(), full)

	cal, errResult := RequireCalendar(ctx)
	assert.Nil(t, errResult)
	assert.NotNil(t, cal)
	mail, errResult := RequireMail(ctx)
	assert.Nil(t, errResult)
	assert.NotNil(t, mail)
	files, errResult := RequireDrive(ctx)
	assert.Nil(t, errResult)
	assert.NotNil(t, files)

	partial := WithServices(context.Background(), &Services{Drive: full.Drive})
	_, errResult = RequireCalendar(partial)
	require.NotNil(t, errResult)
	assert.True(t, errResult.IsError)
	assert.Equal(t, "Google Calendar is not available for this session", resultText(t, errResult))

	_, errResult = RequireMail(partial)
	require.NotNil(t, errResult)
	assert.Equal(t, "Gmail is not available for this session", resultText(t, errResult))

	_, errResult = RequireDrive(context.Background())
	require.NotNil(t, errResult)
	assert.Equal(t, ErrNoServices.Error(), resultText(t, errResult))
}

func TestToolkit_EventTimeZone(t *testing.T) {
	var tk *Toolkit
	assert.Equal(t, "Africa/Cairo", tk.EventTimeZone())
	assert.Equal(t, "Europe/Berlin", (&Toolkit{TimeZone: "Europe/Berlin"}).EventTimeZone())
}

func TestArgs(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"query": "  from:boss ",
		"blank": "   ",
		"n":     float64(7),
		"s":     "12",
	}

	assert.Equal(t, "from:boss", StringArg(req, "query", "x"))
	assert.Equal(t, "label:INBOX", StringArg(req, "blank", "label:INBOX"))
	assert.Equal(t, "d", StringArg(req, "missing", "d"))
	assert.Equal(t, 7, IntArg(req, "n", 10))
	assert.Equal(t, 12, IntArg(req, "s", 10))
	assert.Equal(t, 10, IntArg(req, "missing", 10))
	assert.True(t, HasArg(req, "n"))
	assert.False(t, HasArg(req, "missing"))
}
