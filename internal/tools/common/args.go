package common

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// StringArg returns the trimmed string argument name, or def when it is
// absent or empty.
func StringArg(request mcp.CallToolRequest, name, def string) string {
	if v, ok := request.GetArguments()[name].(string); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return def
}

// IntArg returns the numeric argument name. Models sometimes send numbers
// as strings, so both are accepted. def is returned for anything else.
func IntArg(request mcp.CallToolRequest, name string, def int) int {
	return request.GetInt(name, def)
}

// HasArg reports whether the argument name was supplied.
func HasArg(request mcp.CallToolRequest, name string) bool {
	v, ok := request.GetArguments()[name]
	return ok && v != nil && v != ""
}
