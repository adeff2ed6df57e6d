// Package google provides OAuth2 configuration, code exchange, authenticated
// HTTP clients and profile lookup for Google APIs.
//
// The chat server keeps tokens per session (see the credential package);
// TokenFile stores the single token used by the login and mcp commands.
package google
