package instrumentation

import (
	"context"
	"time"
)

// TrackGoogleAPI starts a google.<service>.<operation> span and returns a
// context carrying it plus a done func. Calling done ends the span and
// records the call on m, which may be nil.
//
//	ctx, done := instrumentation.TrackGoogleAPI(ctx, c.metrics, ServiceDrive, OperationList)
//	res, err := call.Context(ctx).Do()
//	done(err)
func TrackGoogleAPI(ctx context.Context, m *Metrics, service, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := StartGoogleAPISpan(ctx, service, operation)
	return ctx, func(err error) {
		status := StatusSuccess
		if err != nil {
			status = StatusError
			SetSpanError(span, err)
		} else {
			SetSpanSuccess(span)
		}
		span.End()
		m.RecordGoogleAPIOperation(ctx, service, operation, status, time.Since(start))
	}
}
