package server

import (
	"embed"
	"html/template"
	"io"

	"github.com/teemow/workmate/internal/session"
)

//go:embed templates/chat.html
var templateFS embed.FS

var chatTemplate = template.Must(template.ParseFS(templateFS, "templates/chat.html"))

// Banner messages shown above the transcript, keyed by the error query value.
const (
	bannerTurnFailed  = "Something went wrong while answering. Please try again."
	bannerLoginFailed = "Sign-in failed. Please try again."
	bannerInternal    = "Something went wrong. Please try again."
)

var banners = map[string]string{
	"turn":  bannerTurnFailed,
	"login": bannerLoginFailed,
}

type pageData struct {
	LoggedIn bool
	UserName string
	Banner   string
	Turns    []session.Turn
}

func renderChat(w io.Writer, data pageData) error {
	return chatTemplate.Execute(w, data)
}
