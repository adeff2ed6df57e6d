// Package cmd implements the command-line interface for workmate.
//
// This package provides the following commands:
//   - serve: Start the browser chat assistant (default)
//   - mcp: Serve the Calendar, Gmail and Drive tools over MCP stdio
//   - login: Sign in with Google and save a token for the mcp command
//   - transcripts: Print archived chat transcripts
//   - generate-docs: Generate markdown documentation for all tools
//   - version: Display version information
package cmd
