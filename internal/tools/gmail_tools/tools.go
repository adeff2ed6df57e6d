package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workmate/internal/gmail"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/tools/common"
)

// DefaultLatestQuery is the query read_latest_email uses when none is given.
const DefaultLatestQuery = "label:INBOX"

// Tools returns the Gmail tools.
func Tools(tk *common.Toolkit) []mcpserver.ServerTool {
	messageArgs := []mcp.ToolOption{
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Email subject"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Plain-text email body"),
		),
	}

	createDraft := mcp.NewTool("create_email_draft",
		append([]mcp.ToolOption{mcp.WithDescription("Save an email as a Gmail draft without sending it")}, messageArgs...)...,
	)
	sendEmail := mcp.NewTool("send_email",
		append([]mcp.ToolOption{mcp.WithDescription("Send an email immediately")}, messageArgs...)...,
	)

	searchEmails := mcp.NewTool("search_emails",
		mcp.WithDescription("Search emails with Gmail search syntax, e.g. 'from:boss' or 'subject:invoice'. Returns up to 5 matches."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Gmail search query"),
		),
	)

	readLatest := mcp.NewTool("read_latest_email",
		mcp.WithDescription("Read the snippet of the most recent email matching a query"),
		mcp.WithString("query",
			mcp.Description("Gmail search query (default: 'label:INBOX')"),
		),
	)

	return []mcpserver.ServerTool{
		{
			Tool: createDraft,
			Handler: common.InstrumentedToolHandlerWithService("create_email_draft",
				instrumentation.ServiceGmail, instrumentation.OperationCreate, tk, handleCreateDraft),
		},
		{
			Tool: sendEmail,
			Handler: common.InstrumentedToolHandlerWithService("send_email",
				instrumentation.ServiceGmail, instrumentation.OperationSend, tk, handleSendEmail),
		},
		{
			Tool: searchEmails,
			Handler: common.InstrumentedToolHandlerWithService("search_emails",
				instrumentation.ServiceGmail, instrumentation.OperationSearch, tk, handleSearchEmails),
		},
		{
			Tool: readLatest,
			Handler: common.InstrumentedToolHandlerWithService("read_latest_email",
				instrumentation.ServiceGmail, instrumentation.OperationGet, tk, handleReadLatest),
		},
	}
}

func messageFromRequest(request mcp.CallToolRequest) (gmail.EmailMessage, error) {
	to, err := request.RequireString("to")
	if err != nil || strings.TrimSpace(to) == "" {
		return gmail.EmailMessage{}, fmt.Errorf("to is required")
	}
	return gmail.EmailMessage{
		To:      strings.TrimSpace(to),
		Subject: request.GetString("subject", ""),
		Body:    request.GetString("body", ""),
	}, nil
}

func handleCreateDraft(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireMail(ctx)
	if errResult != nil {
		return errResult, nil
	}

	msg, err := messageFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	id, err := client.CreateDraft(ctx, msg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create draft: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Draft created. ID: %s", id)), nil
}

func handleSendEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireMail(ctx)
	if errResult != nil {
		return errResult, nil
	}

	msg, err := messageFromRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if _, err := client.Send(ctx, msg); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send email: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Email sent to %s", msg.To)), nil
}

func handleSearchEmails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireMail(ctx)
	if errResult != nil {
		return errResult, nil
	}

	query := common.StringArg(request, "query", "")
	messages, err := client.Search(ctx, query, gmail.DefaultSearchLimit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search emails: %v", err)), nil
	}

	if len(messages) == 0 {
		return mcp.NewToolResultText("No emails found matching that query."), nil
	}

	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, fmt.Sprintf("From: %s | Subject: %s | Snippet: %s", m.From, m.Subject, m.Snippet))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func handleReadLatest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	client, errResult := common.RequireMail(ctx)
	if errResult != nil {
		return errResult, nil
	}

	query := common.StringArg(request, "query", DefaultLatestQuery)
	msg, ok, err := client.Latest(ctx, query)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read latest email: %v", err)), nil
	}
	if !ok {
		return mcp.NewToolResultText("Inbox is empty."), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Latest email: %s", msg.Snippet)), nil
}
