package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/calendar"
	"github.com/teemow/workmate/internal/drive"
	"github.com/teemow/workmate/internal/gmail"
	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/instrumentation"
)

// ErrNoServices is returned when a tool runs without credential-bound
// services in its context.
var ErrNoServices = errors.New("no Google services bound to this request")

// CalendarService is the subset of calendar.Client used by the tools.
type CalendarService interface {
	UpcomingEvents(ctx context.Context, opts calendar.ListOptions) ([]calendar.EventSummary, error)
	CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventSummary, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// MailService is the subset of gmail.Client used by the tools.
type MailService interface {
	CreateDraft(ctx context.Context, msg gmail.EmailMessage) (string, error)
	Send(ctx context.Context, msg gmail.EmailMessage) (string, error)
	Search(ctx context.Context, query string, limit int64) ([]gmail.MessageSummary, error)
	Latest(ctx context.Context, query string) (gmail.MessageSummary, bool, error)
}

// DriveService is the subset of drive.Client used by the tools.
type DriveService interface {
	ListFiles(ctx context.Context, filter string, n int64) ([]drive.File, error)
	FindFiles(ctx context.Context, name string) ([]string, error)
	GetFile(ctx context.Context, fileID string) (drive.File, error)
	ExportText(ctx context.Context, fileID string) ([]byte, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	UploadText(ctx context.Context, name, content string) (string, error)
}

// Services are the Google clients bound to one session's credential.
type Services struct {
	Calendar CalendarService
	Mail     MailService
	Drive    DriveService

	// SessionID and UserEmail identify the caller in audit records.
	SessionID string
	UserEmail string
}

// NewServices creates Calendar, Gmail and Drive clients that authenticate
// with ts. No network calls are made until a tool uses a client.
func NewServices(ctx context.Context, metrics *instrumentation.Metrics, ts oauth2.TokenSource) (*Services, error) {
	opts := google.ClientOptions(ctx, ts)

	cal, err := calendar.NewClient(ctx, metrics, opts...)
	if err != nil {
		return nil, err
	}
	mail, err := gmail.NewClient(ctx, metrics, opts...)
	if err != nil {
		return nil, err
	}
	files, err := drive.NewClient(ctx, metrics, opts...)
	if err != nil {
		return nil, err
	}

	return &Services{Calendar: cal, Mail: mail, Drive: files}, nil
}

type servicesKey struct{}

// WithServices returns a context carrying svc.
func WithServices(ctx context.Context, svc *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, svc)
}

// ServicesFrom returns the services bound to ctx.
func ServicesFrom(ctx context.Context) (*Services, error) {
	svc, ok := ctx.Value(servicesKey{}).(*Services)
	if !ok || svc == nil {
		return nil, ErrNoServices
	}
	return svc, nil
}

// ServiceUnavailable formats the in-band error for a missing client.
func ServiceUnavailable(name string) string {
	return fmt.Sprintf("%s is not available for this session", name)
}

// RequireCalendar returns the bound Calendar client or an in-band error result.
func RequireCalendar(ctx context.Context) (CalendarService, *mcp.CallToolResult) {
	svc, errResult := RequireServices(ctx)
	if errResult != nil {
		return nil, errResult
	}
	if svc.Calendar == nil {
		return nil, mcp.NewToolResultError(ServiceUnavailable("Google Calendar"))
	}
	return svc.Calendar, nil
}

// RequireMail returns the bound Gmail client or an in-band error result.
func RequireMail(ctx context.Context) (MailService, *mcp.CallToolResult) {
	svc, errResult := RequireServices(ctx)
	if errResult != nil {
		return nil, errResult
	}
	if svc.Mail == nil {
		return nil, mcp.NewToolResultError(ServiceUnavailable("Gmail"))
	}
	return svc.Mail, nil
}

// RequireDrive returns the bound Drive client or an in-band error result.
func RequireDrive(ctx context.Context) (DriveService, *mcp.CallToolResult) {
	svc, errResult := RequireServices(ctx)
	if errResult != nil {
		return nil, errResult
	}
	if svc.Drive == nil {
		return nil, mcp.NewToolResultError(ServiceUnavailable("Google Drive"))
	}
	return svc.Drive, nil
}

// RequireServices returns the services bound to ctx, or an in-band error
// result for the handler to return as-is.
func RequireServices(ctx context.Context) (*Services, *mcp.CallToolResult) {
	svc, err := ServicesFrom(ctx)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return svc, nil
}
