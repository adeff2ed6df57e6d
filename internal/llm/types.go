package llm

import (
	"context"
	"encoding/json"
	"strings"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ContentType string

const (
	ContentText       ContentType = "text"
	ContentToolUse    ContentType = "tool_use"
	ContentToolResult ContentType = "tool_result"
)

// Content is one block of a message.
type Content struct {
	Type       ContentType
	Text       string
	ToolUseID  string          // tool_use / tool_result
	ToolName   string          // tool_use
	ToolInput  json.RawMessage // tool_use
	ToolResult string          // tool_result
	IsError    bool            // tool_result
}

// Message is one entry of the conversation history.
type Message struct {
	Role    Role
	Content []Content
}

// TextMessage returns a single-block text message.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Content{{Type: ContentText, Text: text}}}
}

// ToolSchema describes a tool to the model. Parameters holds the JSON
// Schema properties object.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
	Required    []string
}

// Request is a single, non-streaming completion request.
type Request struct {
	Model       string
	System      string
	Messages    []Message
	Tools       []ToolSchema
	Temperature float64
	MaxTokens   int

	// Round is the agent loop iteration, used for tracing only.
	Round int
}

// Usage records the tokens consumed by one call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the model's reply: text and tool_use blocks in the order
// the provider returned them.
type Response struct {
	Content []Content
	Usage   Usage
}

// Text joins the text blocks of r with a single space.
func (r *Response) Text() string {
	var parts []string
	for _, c := range r.Content {
		if c.Type == ContentText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, " ")
}

// ToolCalls returns the tool_use blocks of r.
func (r *Response) ToolCalls() []Content {
	var calls []Content
	for _, c := range r.Content {
		if c.Type == ContentToolUse {
			calls = append(calls, c)
		}
	}
	return calls
}

// Model is a chat model that supports tool calling.
type Model interface {
	Complete(ctx context.Context, req *Request) (*Response, error)

	// Provider returns the provider identifier, e.g. "gemini" or "anthropic".
	Provider() string

	// DefaultModel returns the model used when Request.Model is empty.
	DefaultModel() string
}
