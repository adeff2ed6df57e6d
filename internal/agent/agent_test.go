package agent

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/drive"
	"github.com/teemow/workmate/internal/llm"
	"github.com/teemow/workmate/internal/session"
	"github.com/teemow/workmate/internal/tools"
	"github.com/teemow/workmate/internal/tools/common"
)

// scriptedModel replays canned responses and records every request.
type scriptedModel struct {
	mu        sync.Mutex
	responses []*llm.Response
	requests  []llm.Request
	err       error
}

func (m *scriptedModel) Complete(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	cp.Messages = append([]llm.Message(nil), req.Messages...)
	m.requests = append(m.requests, cp)
	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llm.Response{Content: []llm.Content{{Type: llm.ContentText, Text: "done"}}}, nil
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *scriptedModel) Provider() string     { return "scripted" }
func (m *scriptedModel) DefaultModel() string { return "scripted-1" }

func toolUse(id, name string, args string) llm.Content {
	return llm.Content{Type: llm.ContentToolUse, ToolUseID: id, ToolName: name, ToolInput: json.RawMessage(args)}
}

func textResponse(blocks ...string) *llm.Response {
	resp := &llm.Response{}
	for _, b := range blocks {
		resp.Content = append(resp.Content, llm.Content{Type: llm.ContentText, Text: b})
	}
	return resp
}

type fakeDrive struct {
	files   []drive.File
	read    []string
	uploads []string
}

func (f *fakeDrive) ListFiles(context.Context, string, int64) ([]drive.File, error) {
	return f.files, nil
}
func (f *fakeDrive) FindFiles(context.Context, string) ([]string, error) { return nil, nil }
func (f *fakeDrive) GetFile(_ context.Context, id string) (drive.File, error) {
	f.read = append(f.read, id)
	for _, file := range f.files {
		if file.ID == id {
			return file, nil
		}
	}
	return drive.File{}, errors.New("not found")
}
func (f *fakeDrive) ExportText(context.Context, string) ([]byte, error) {
	return []byte("doc text"), nil
}
func (f *fakeDrive) Download(context.Context, string) ([]byte, error) { return []byte("raw"), nil }
func (f *fakeDrive) UploadText(_ context.Context, name, _ string) (string, error) {
	f.uploads = append(f.uploads, name)
	return "new-id", nil
}

func validStore(t *testing.T) *credential.Store {
	t.Helper()
	s := credential.NewStore("sess-1", credential.Config{})
	require.NoError(t, s.Set(context.Background(), &oauth2.Token{
		AccessToken: "access",
		Expiry:      time.Now().Add(time.Hour),
	}))
	return s
}

func newTestAgent(model llm.Model, opts ...Option) *Agent {
	catalog := tools.NewCatalog(&common.Toolkit{})
	base := []Option{
		WithClock(func() time.Time { return time.Date(2025, 5, 30, 14, 5, 0, 0, time.UTC) }),
		WithLocation(time.UTC),
	}
	return New(model, catalog, append(base, opts...)...)
}

func factoryFor(d *fakeDrive) ServicesFactory {
	return func(context.Context, oauth2.TokenSource) (*common.Services, error) {
		return &common.Services{Drive: d}, nil
	}
}

func TestRun_HiddenIDFlow(t *testing.T) {
	files := &fakeDrive{files: []drive.File{{ID: "12345", Name: "Budget.pdf", MimeType: drive.TextMimeType}}}
	model := &scriptedModel{responses: []*llm.Response{
		{Content: []llm.Content{toolUse("call-1", "list_files", `{"query":"Budget"}`)}},
		{Content: []llm.Content{toolUse("call-2", "read_file_content", `{"file_id":"12345"}`)}},
		textResponse("I found 'Budget.pdf'."),
	}}

	reply, err := newTestAgent(model).Run(context.Background(), Input{
		SessionID:   "sess-1",
		Credentials: validStore(t),
		Text:        "What is in my budget file?",
		UserName:    "Ada",
		Services:    factoryFor(files),
	})
	require.NoError(t, err)
	assert.Equal(t, "I found 'Budget.pdf'.", reply)
	assert.Equal(t, []string{"12345"}, files.read)

	require.Len(t, model.requests, 3)
	second := model.requests[1].Messages
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleUser, last.Role)
	require.Len(t, last.Content, 1)
	assert.Equal(t, llm.ContentToolResult, last.Content[0].Type)
	assert.Equal(t, "call-1", last.Content[0].ToolUseID)
	assert.Contains(t, last.Content[0].ToolResult, "Budget.pdf ::: 12345")
}

func TestRun_SystemPrompt(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{textResponse("hi")}}
	_, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "hello",
		UserName:    "Ada Lovelace",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.NoError(t, err)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Contains(t, req.System, "System Time: Friday, 2025-05-30 14:05.")
	assert.Contains(t, req.System, "Best regards,\nAda Lovelace")
	assert.Contains(t, req.System, `"Budget.pdf ::: 12345"`)
	assert.InDelta(t, DefaultTemperature, req.Temperature, 1e-9)
	assert.NotEmpty(t, req.Tools)
}

func TestRun_DefaultUserName(t *testing.T) {
	model := &scriptedModel{}
	_, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "hello",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.NoError(t, err)
	assert.Contains(t, model.requests[0].System, "Best regards,\nAI Assistant")
}

func TestRun_NoCredentialSkipsModel(t *testing.T) {
	model := &scriptedModel{}
	a := newTestAgent(model)

	reply, err := a.Run(context.Background(), Input{Text: "list my files"})
	require.NoError(t, err)
	assert.Equal(t, AuthErrorMessage, reply)

	reply, err = a.Run(context.Background(), Input{
		Credentials: credential.NewStore("empty", credential.Config{}),
		Text:        "list my files",
	})
	require.NoError(t, err)
	assert.Equal(t, AuthErrorMessage, reply)
	assert.Empty(t, model.requests)
}

func TestRun_CredentialLostMidTurn(t *testing.T) {
	store := validStore(t)
	model := &scriptedModel{responses: []*llm.Response{
		{Content: []llm.Content{toolUse("call-1", "list_files", `{}`)}},
	}}
	factory := func(ctx context.Context, ts oauth2.TokenSource) (*common.Services, error) {
		store.Clear(ctx)
		return &common.Services{Drive: &fakeDrive{}}, nil
	}

	reply, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: store,
		Text:        "list",
		Services:    factory,
	})
	require.NoError(t, err)
	assert.Equal(t, AuthErrorMessage, reply)
}

func TestRun_JoinsTextBlocks(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{textResponse("a", "b")}}
	reply, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "x",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.NoError(t, err)
	assert.Equal(t, "a b", reply)
}

func TestRun_RoundLimit(t *testing.T) {
	var responses []*llm.Response
	for i := 0; i < 5; i++ {
		responses = append(responses, &llm.Response{Content: []llm.Content{toolUse("c", "list_files", `{}`)}})
	}
	model := &scriptedModel{responses: responses}

	reply, err := newTestAgent(model, WithMaxRounds(3)).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "loop",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.NoError(t, err)
	assert.Equal(t, RoundLimitMessage, reply)
	assert.Len(t, model.requests, 3)
	assert.Equal(t, 3, model.requests[2].Round)
}

func TestRun_RoundLimitSkipsFinalToolCalls(t *testing.T) {
	files := &fakeDrive{}
	model := &scriptedModel{responses: []*llm.Response{
		{Content: []llm.Content{toolUse("c1", "drive_upload", `{"file_name":"notes.txt","content":"hi"}`)}},
	}}

	reply, err := newTestAgent(model, WithMaxRounds(1)).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "save my notes",
		Services:    factoryFor(files),
	})
	require.NoError(t, err)
	assert.Equal(t, RoundLimitMessage, reply)
	assert.Len(t, model.requests, 1)
	assert.Empty(t, files.uploads)
}

func TestRun_ToolsRunBeforeLastRound(t *testing.T) {
	files := &fakeDrive{}
	model := &scriptedModel{responses: []*llm.Response{
		{Content: []llm.Content{toolUse("c1", "drive_upload", `{"file_name":"notes.txt","content":"hi"}`)}},
		textResponse("Uploaded notes.txt."),
	}}

	reply, err := newTestAgent(model, WithMaxRounds(2)).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "save my notes",
		Services:    factoryFor(files),
	})
	require.NoError(t, err)
	assert.Equal(t, "Uploaded notes.txt.", reply)
	assert.Equal(t, []string{"notes.txt"}, files.uploads)
}

func TestRun_NilServicesFromFactory(t *testing.T) {
	model := &scriptedModel{}
	_, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "hi",
		Services: func(context.Context, oauth2.TokenSource) (*common.Services, error) {
			return nil, nil
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no services")
	assert.Empty(t, model.requests)
}

func TestRun_UnknownToolAndMalformedArgs(t *testing.T) {
	model := &scriptedModel{responses: []*llm.Response{
		{Content: []llm.Content{
			toolUse("c1", "launch_rocket", `{}`),
			toolUse("c2", "list_files", `{not json`),
		}},
		textResponse("sorry"),
	}}

	reply, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "go",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.NoError(t, err)
	assert.Equal(t, "sorry", reply)

	msgs := model.requests[1].Messages
	results := msgs[len(msgs)-1].Content
	require.Len(t, results, 2)
	assert.True(t, results[0].IsError)
	assert.Contains(t, results[0].ToolResult, "unknown tool launch_rocket")
	assert.True(t, results[1].IsError)
	assert.Contains(t, results[1].ToolResult, "invalid arguments for tool list_files")
}

func TestRun_ModelError(t *testing.T) {
	model := &scriptedModel{err: errors.New("quota exceeded")}
	_, err := newTestAgent(model).Run(context.Background(), Input{
		Credentials: validStore(t),
		Text:        "x",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestRun_HistoryIsReplayed(t *testing.T) {
	model := &scriptedModel{}
	history := []session.Turn{
		{Role: session.RoleUser, Text: "one"},
		{Role: session.RoleAssistant, Text: "two"},
		{Role: session.RoleUser, Text: "three"},
		{Role: session.RoleAssistant, Text: "four"},
	}

	_, err := newTestAgent(model, WithHistoryTurns(2)).Run(context.Background(), Input{
		Credentials: validStore(t),
		History:     history,
		Text:        "five",
		Services:    factoryFor(&fakeDrive{}),
	})
	require.NoError(t, err)

	msgs := model.requests[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, "three", msgs[0].Content[0].Text)
	assert.Equal(t, llm.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "five", msgs[2].Content[0].Text)
}

func TestToolSchemas(t *testing.T) {
	catalog := tools.NewCatalog(&common.Toolkit{})
	schemas := ToolSchemas(catalog.Tools())
	require.Len(t, schemas, len(catalog.Names()))

	byName := map[string]llm.ToolSchema{}
	for _, s := range schemas {
		byName[s.Name] = s
	}
	create := byName["create_event"]
	assert.ElementsMatch(t, []string{"title", "date", "time"}, create.Required)
	assert.Contains(t, create.Parameters, "title")
}
