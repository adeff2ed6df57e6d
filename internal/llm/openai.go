package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIModel implements Model for OpenAI-compatible chat completion APIs,
// including Gemini's compatibility endpoint.
type OpenAIModel struct {
	client   openai.Client
	provider string
	model    string
}

// NewOpenAI creates an OpenAI-compatible model reported as provider.
func NewOpenAI(provider string, cfg Config) *OpenAIModel {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	return &OpenAIModel{
		client:   openai.NewClient(opts...),
		provider: provider,
		model:    cfg.Model,
	}
}

func (m *OpenAIModel) Provider() string     { return m.provider }
func (m *OpenAIModel) DefaultModel() string { return m.model }

func (m *OpenAIModel) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = m.model
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: m.buildMessages(req),
	}
	if tools := m.buildTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%s completion failed: %w", m.provider, err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New(m.provider + " returned no choices")
	}

	msg := completion.Choices[0].Message
	resp := &Response{
		Usage: Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}
	if msg.Content != "" {
		resp.Content = append(resp.Content, Content{Type: ContentText, Text: msg.Content})
	}
	for _, tc := range msg.ToolCalls {
		args := tc.Function.Arguments
		if args == "" {
			args = "{}"
		}
		resp.Content = append(resp.Content, Content{
			Type:      ContentToolUse,
			ToolUseID: tc.ID,
			ToolName:  tc.Function.Name,
			ToolInput: json.RawMessage(args),
		})
	}
	return resp, nil
}

// buildMessages converts unified messages to chat completion params. Tool
// results become tool role messages.
func (m *OpenAIModel) buildMessages(req *Request) []openai.ChatCompletionMessageParamUnion {
	var params []openai.ChatCompletionMessageParamUnion

	if req.System != "" {
		params = append(params, openai.SystemMessage(req.System))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleUser:
			for _, c := range msg.Content {
				switch c.Type {
				case ContentText:
					params = append(params, openai.UserMessage(c.Text))
				case ContentToolResult:
					params = append(params, openai.ToolMessage(c.ToolResult, c.ToolUseID))
				}
			}

		case RoleAssistant:
			var text string
			var toolCalls []openai.ChatCompletionMessageToolCallParam
			for _, c := range msg.Content {
				switch c.Type {
				case ContentText:
					if text != "" {
						text += " "
					}
					text += c.Text
				case ContentToolUse:
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
						ID: c.ToolUseID,
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      c.ToolName,
							Arguments: string(c.ToolInput),
						},
					})
				}
			}
			assistant := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
			if text != "" {
				assistant.Content = openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(text)}
			}
			params = append(params, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		}
	}
	return params
}

func (m *OpenAIModel) buildTools(tools []ToolSchema) []openai.ChatCompletionToolParam {
	var result []openai.ChatCompletionToolParam
	for _, t := range tools {
		schema := shared.FunctionParameters{
			"type":       "object",
			"properties": nonNilProperties(t.Parameters),
		}
		if len(t.Required) > 0 {
			schema["required"] = t.Required
		}
		result = append(result, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  schema,
			},
		})
	}
	return result
}

func nonNilProperties(p map[string]any) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	return p
}
