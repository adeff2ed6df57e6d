package gmail_tools

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/workmate/internal/gmail"
	"github.com/teemow/workmate/internal/tools/common"
)

type fakeMail struct {
	drafted  gmail.EmailMessage
	sent     gmail.EmailMessage
	query    string
	limit    int64
	messages []gmail.MessageSummary
	latest   *gmail.MessageSummary
	err      error
}

func (f *fakeMail) CreateDraft(_ context.Context, msg gmail.EmailMessage) (string, error) {
	f.drafted = msg
	return "draft-1", f.err
}

func (f *fakeMail) Send(_ context.Context, msg gmail.EmailMessage) (string, error) {
	f.sent = msg
	return "msg-1", f.err
}

func (f *fakeMail) Search(_ context.Context, query string, limit int64) ([]gmail.MessageSummary, error) {
	f.query, f.limit = query, limit
	return f.messages, f.err
}

func (f *fakeMail) Latest(_ context.Context, query string) (gmail.MessageSummary, bool, error) {
	f.query = query
	if f.err != nil || f.latest == nil {
		return gmail.MessageSummary{}, false, f.err
	}
	return *f.latest, true, nil
}

func call(t *testing.T, fake *fakeMail, name string, args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	for _, st := range Tools(nil) {
		if st.Tool.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		ctx := common.WithServices(context.Background(), &common.Services{Mail: fake})
		res, err := st.Handler(ctx, req)
		require.NoError(t, err)
		require.Len(t, res.Content, 1)
		tc, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		return res, tc.Text
	}
	t.Fatalf("tool %s not registered", name)
	return nil, ""
}

func TestCreateDraft(t *testing.T) {
	fake := &fakeMail{}
	_, out := call(t, fake, "create_email_draft", map[string]any{
		"to":      "bob@example.com",
		"subject": "Budget",
		"body":    "Dear Bob,\n\nPlease review.\n\nBest regards,\nJane",
	})

	assert.Equal(t, "Draft created. ID: draft-1", out)
	assert.Equal(t, "bob@example.com", fake.drafted.To)
	assert.Equal(t, "Budget", fake.drafted.Subject)
}

func TestSendEmail(t *testing.T) {
	fake := &fakeMail{}
	_, out := call(t, fake, "send_email", map[string]any{"to": "bob@example.com", "subject": "Hi", "body": "Hello"})
	assert.Equal(t, "Email sent to bob@example.com", out)
	assert.Equal(t, "Hello", fake.sent.Body)
}

func TestSendEmail_Failure(t *testing.T) {
	fake := &fakeMail{err: errors.New("quota exceeded")}
	res, out := call(t, fake, "send_email", map[string]any{"to": "bob@example.com", "subject": "Hi", "body": "Hello"})
	assert.True(t, res.IsError)
	assert.Equal(t, "Failed to send email: quota exceeded", out)
}

func TestSendEmail_MissingRecipient(t *testing.T) {
	fake := &fakeMail{}
	res, _ := call(t, fake, "send_email", map[string]any{"subject": "Hi"})
	assert.True(t, res.IsError)
	assert.Empty(t, fake.sent.To)
}

func TestSearchEmails(t *testing.T) {
	fake := &fakeMail{messages: []gmail.MessageSummary{
		{From: "Boss <boss@example.com>", Subject: "Q3", Snippet: "Numbers attached"},
		{From: gmail.UnknownSender, Subject: gmail.NoSubject, Snippet: gmail.NoSnippet},
	}}

	_, out := call(t, fake, "search_emails", map[string]any{"query": "from:boss"})
	assert.Equal(t,
		"From: Boss <boss@example.com> | Subject: Q3 | Snippet: Numbers attached\n"+
			"From: (Unknown) | Subject: (No Subject) | Snippet: No snippet available",
		out)
	assert.Equal(t, "from:boss", fake.query)
	assert.Equal(t, int64(5), fake.limit)
}

func TestSearchEmails_NoMatches(t *testing.T) {
	_, out := call(t, &fakeMail{}, "search_emails", map[string]any{"query": "nothing"})
	assert.Equal(t, "No emails found matching that query.", out)
}

func TestReadLatestEmail(t *testing.T) {
	fake := &fakeMail{latest: &gmail.MessageSummary{Snippet: "See you at 10"}}
	_, out := call(t, fake, "read_latest_email", map[string]any{})
	assert.Equal(t, "Latest email: See you at 10", out)
	assert.Equal(t, DefaultLatestQuery, fake.query)
}

func TestReadLatestEmail_Empty(t *testing.T) {
	_, out := call(t, &fakeMail{}, "read_latest_email", map[string]any{"query": "from:nobody"})
	assert.Equal(t, "Inbox is empty.", out)
}
