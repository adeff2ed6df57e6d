package gmail

// Me is the Gmail user ID alias for the authenticated user.
const Me = "me"

// Fallbacks used when a message lacks the corresponding header or snippet.
const (
	UnknownSender = "(Unknown)"
	NoSubject     = "(No Subject)"
	NoSnippet     = "No snippet available"
)

// DefaultSearchLimit caps the number of messages returned by Search.
const DefaultSearchLimit = 5

// EmailMessage is an outgoing plain-text message.
type EmailMessage struct {
	To      string
	Subject string
	Body    string
}

// MessageSummary is the metadata of a message the assistant reports.
type MessageSummary struct {
	ID      string
	From    string
	Subject string
	Snippet string
}
