package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/workmate/internal/tools/calendar_tools"
	"github.com/teemow/workmate/internal/tools/common"
	"github.com/teemow/workmate/internal/tools/drive_tools"
	"github.com/teemow/workmate/internal/tools/gmail_tools"
)

// ErrUnknownTool is returned by Call for names not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Group is a named set of tools backed by one Google service.
type Group struct {
	Name  string
	Tools []mcpserver.ServerTool
}

// Catalog is the immutable set of tools available to the assistant.
type Catalog struct {
	groups []Group
	byName map[string]mcpserver.ServerTool
	order  []string
}

// NewCatalog builds the catalog of Calendar, Gmail and Drive tools.
func NewCatalog(tk *common.Toolkit) *Catalog {
	return newCatalog([]Group{
		{Name: "Calendar", Tools: calendar_tools.Tools(tk)},
		{Name: "Gmail", Tools: gmail_tools.Tools(tk)},
		{Name: "Drive", Tools: drive_tools.Tools(tk)},
	})
}

func newCatalog(groups []Group) *Catalog {
	c := &Catalog{groups: groups, byName: make(map[string]mcpserver.ServerTool)}
	for _, g := range groups {
		for _, t := range g.Tools {
			if _, dup := c.byName[t.Tool.Name]; dup {
				panic(fmt.Sprintf("duplicate tool %q", t.Tool.Name))
			}
			c.byName[t.Tool.Name] = t
			c.order = append(c.order, t.Tool.Name)
		}
	}
	return c
}

// Groups returns the tool groups in registration order.
func (c *Catalog) Groups() []Group {
	return append([]Group(nil), c.groups...)
}

// Names returns all tool names in registration order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.order...)
}

// Tools returns the tool descriptors in registration order.
func (c *Catalog) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byName[name].Tool)
	}
	return out
}

// Lookup returns the tool registered under name.
func (c *Catalog) Lookup(name string) (mcpserver.ServerTool, bool) {
	t, ok := c.byName[name]
	return t, ok
}

// Call runs the named tool with args and returns its text output. isError
// reports an in-band tool failure. err is only set for unknown tools or a
// handler that returned a Go error.
func (c *Catalog) Call(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error) {
	t, ok := c.byName[name]
	if !ok {
		return "", true, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := t.Handler(ctx, req)
	if err != nil {
		return "", true, err
	}
	return ResultText(res), res.IsError, nil
}

// Binder prepares the context of an MCP tool call, typically by attaching
// credential-bound services with common.WithServices.
type Binder func(ctx context.Context) (context.Context, error)

// Register adds every tool to s. When bind is non-nil each call's context
// passes through it first and a bind error becomes an in-band error result.
func (c *Catalog) Register(s *mcpserver.MCPServer, bind Binder) {
	tools := make([]mcpserver.ServerTool, 0, len(c.order))
	for _, name := range c.order {
		t := c.byName[name]
		if bind != nil {
			handler := t.Handler
			t.Handler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				ctx, err := bind(ctx)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return handler(ctx, request)
			}
		}
		tools = append(tools, t)
	}
	s.AddTools(tools...)
}

// ResultText concatenates the text content of res.
func ResultText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	var parts []string
	for _, content := range res.Content {
		switch tc := content.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
