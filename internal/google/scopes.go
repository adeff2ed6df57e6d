package google

import (
	calendar "google.golang.org/api/calendar/v3"
	drive "google.golang.org/api/drive/v3"
	gmail "google.golang.org/api/gmail/v1"
	oauth2api "google.golang.org/api/oauth2/v2"
)

// DefaultOAuthScopes are the scopes requested at login.
//
// The scopes provide access to:
//   - Google Drive: full access (list, read, export, upload)
//   - Google Calendar: full access (list, create, delete events)
//   - Gmail: modify (search, read, draft, send)
//   - OpenID user info: display name and email for the greeting and prompt
var DefaultOAuthScopes = []string{
	drive.DriveScope,
	calendar.CalendarScope,
	gmail.GmailModifyScope,
	oauth2api.OpenIDScope,
	oauth2api.UserinfoEmailScope,
	oauth2api.UserinfoProfileScope,
}
