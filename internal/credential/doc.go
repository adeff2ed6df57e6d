// Package credential holds the delegated Google OAuth credential of one chat
// session and keeps it usable.
//
// A Store is owned by exactly one session. EnsureValid returns a non-expired
// token, refreshing it when needed. A failed refresh clears the store and
// returns an error wrapping ErrAuthentication; callers treat that as
// "log in again".
//
// Tokens are mirrored into a key-partitioned token store (the mcp-oauth
// storage interface) so that a session whose in-process copy was dropped can
// be restored. The in-process token is authoritative.
package credential
