package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/workmate/internal/instrumentation"
)

// Client wraps the Google Calendar service.
type Client struct {
	svc     *calendar.Service
	metrics *instrumentation.Metrics
	now     func() time.Time
}

// NewClient creates a Calendar client. Authentication comes from opts,
// usually google.ClientOptions for the session credential. metrics may be nil.
func NewClient(ctx context.Context, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, metrics: metrics, now: time.Now}, nil
}

// UpcomingEvents lists single (expanded) events on the primary calendar
// ordered by start time.
func (c *Client) UpcomingEvents(ctx context.Context, opts ListOptions) ([]EventSummary, error) {
	call := c.svc.Events.List(PrimaryCalendar).
		SingleEvents(true).
		OrderBy("startTime")

	if opts.MaxResults > 0 {
		call = call.MaxResults(opts.MaxResults)
	}
	if opts.Year != 0 {
		year := strconv.Itoa(opts.Year)
		call = call.TimeMin(year + "-01-01T00:00:00Z").TimeMax(year + "-12-31T23:59:59Z")
	} else {
		call = call.TimeMin(c.now().UTC().Format(time.RFC3339))
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceCalendar, instrumentation.OperationList)
	events, err := call.Context(ctx).Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	summaries := make([]EventSummary, 0, len(events.Items))
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// CreateEvent inserts a timed event on the primary calendar.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	if input.Start == "" {
		return nil, errors.New("event start is required")
	}
	if input.End == "" {
		input.End = input.Start
	}
	if input.TimeZone == "" {
		input.TimeZone = DefaultTimeZone
	}

	event := &calendar.Event{
		Summary: input.Summary,
		Start: &calendar.EventDateTime{
			DateTime: input.Start,
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End,
			TimeZone: input.TimeZone,
		},
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceCalendar, instrumentation.OperationCreate)
	created, err := c.svc.Events.Insert(PrimaryCalendar, event).Context(ctx).Do()
	done(err)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toEventSummary(created)
	return &summary, nil
}

// DeleteEvent removes an event from the primary calendar.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event ID is required")
	}

	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, instrumentation.ServiceCalendar, instrumentation.OperationDelete)
	err := c.svc.Events.Delete(PrimaryCalendar, eventID).Context(ctx).Do()
	done(err)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// LocalDateTime joins a YYYY-MM-DD date and an HH:MM clock time into the
// wall-clock form the Calendar API expects alongside a time zone.
func LocalDateTime(date, clock string) (string, error) {
	value := date + "T" + clock + ":00"
	if _, err := time.Parse("2006-01-02T15:04:05", value); err != nil {
		return "", fmt.Errorf("invalid date %q or time %q: expected YYYY-MM-DD and HH:MM", date, clock)
	}
	return value, nil
}
