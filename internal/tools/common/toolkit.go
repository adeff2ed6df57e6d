package common

import (
	"log/slog"

	"github.com/teemow/workmate/internal/calendar"
	"github.com/teemow/workmate/internal/instrumentation"
)

// Toolkit holds the process-wide dependencies shared by every tool handler.
// A nil Toolkit or nil fields disable the corresponding feature.
type Toolkit struct {
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger

	// TimeZone is the IANA zone used for new calendar events.
	TimeZone string
}

// EventTimeZone returns the configured zone or calendar.DefaultTimeZone.
func (tk *Toolkit) EventTimeZone() string {
	if tk == nil || tk.TimeZone == "" {
		return calendar.DefaultTimeZone
	}
	return tk.TimeZone
}

func (tk *Toolkit) metrics() *instrumentation.Metrics {
	if tk == nil {
		return nil
	}
	return tk.Metrics
}

func (tk *Toolkit) audit() *instrumentation.AuditLogger {
	if tk == nil {
		return nil
	}
	return tk.Audit
}
