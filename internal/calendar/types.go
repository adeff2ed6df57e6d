package calendar

import (
	calendar "google.golang.org/api/calendar/v3"
)

// PrimaryCalendar is the calendar ID of the signed-in user's main calendar.
const PrimaryCalendar = "primary"

// DefaultTimeZone is the IANA zone used for new events when none is configured.
const DefaultTimeZone = "Africa/Cairo"

// ListOptions bounds an UpcomingEvents query.
type ListOptions struct {
	// MaxResults caps the number of events returned.
	MaxResults int64
	// Year restricts the query to one calendar year (UTC bounds) when non-zero.
	// Otherwise events are listed from now onward.
	Year int
}

// EventInput describes a timed event to create.
type EventInput struct {
	Summary string
	// Start and End are local wall-clock times, "2006-01-02T15:04:05",
	// interpreted in TimeZone.
	Start    string
	End      string
	TimeZone string
}

// EventSummary is the subset of an event the assistant reports.
type EventSummary struct {
	ID       string
	Summary  string
	Start    string // RFC 3339 date-time, or a date for all-day events
	HTMLLink string
}

// toEventSummary converts a Google Calendar event to an EventSummary.
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}
	summary := EventSummary{
		ID:       event.Id,
		Summary:  event.Summary,
		HTMLLink: event.HtmlLink,
	}
	if event.Start != nil {
		summary.Start = event.Start.DateTime
		if summary.Start == "" {
			summary.Start = event.Start.Date
		}
	}
	return summary
}
