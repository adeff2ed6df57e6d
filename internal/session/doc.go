// Package session holds per-browser chat state: the delegated Google
// credential, the visible transcript, the user's display name and the
// pending OAuth state.
//
// A Manager issues random session IDs and expires idle sessions on a
// cleanup ticker. Expiry clears the session's credential.
package session
