// Package tools assembles the assistant's tool catalog from the Calendar,
// Gmail and Drive tool packages.
//
// The same catalog backs the chat agent, which calls handlers directly, and
// the MCP stdio server, which registers them with an mcp-go server.
package tools
