package instrumentation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs a recording tracer provider for the duration of the test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("delete_event").
		WithService(ServiceCalendar).
		WithOperation(OperationDelete).
		WithSession("0123456789abcdef").
		WithResource("evt-1").
		Build()

	got := make(map[string]any)
	for _, attr := range attrs {
		got[string(attr.Key)] = attr.Value.AsInterface()
	}

	assert.Equal(t, map[string]any{
		SpanAttrTool:       "delete_event",
		SpanAttrService:    "calendar",
		SpanAttrOperation:  "delete",
		SpanAttrSession:    "01234567",
		SpanAttrResourceID: "evt-1",
	}, got)
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithTool("find_file").
		WithSession("").
		WithResource("").
		Build()

	assert.Len(t, attrs, 1)
}

func TestSpanHelpers_Names(t *testing.T) {
	recorder := withRecorder(t)
	ctx := context.Background()

	_, span := StartSpan(ctx, "plain")
	span.End()
	_, span = StartToolSpan(ctx, "list_files")
	span.End()
	_, span = StartGoogleAPISpan(ctx, ServiceDrive, OperationList)
	span.End()
	_, span = StartAgentSpan(ctx)
	span.End()
	_, span = StartLLMSpan(ctx, "openai", "gemini-flash-latest", 2)
	span.End()

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"plain", "tool.list_files", "google.drive.list", "agent.turn", "llm.openai"}, names)
}

func TestSetSpanErrorAndSuccess(t *testing.T) {
	recorder := withRecorder(t)
	ctx := context.Background()

	_, failed := StartSpan(ctx, "failed")
	SetSpanError(failed, errors.New("boom"))
	failed.End()

	_, ok := StartSpan(ctx, "ok")
	SetSpanError(ok, nil)
	SetSpanSuccess(ok)
	ok.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "boom", ended[0].Status().Description)
	assert.Equal(t, codes.Ok, ended[1].Status().Code)
}

func TestTraceAndSpanIDs(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
	assert.Empty(t, GetSpanID(context.Background()))

	withRecorder(t)
	ctx, span := StartSpan(context.Background(), "ids")
	defer span.End()

	assert.Len(t, GetTraceID(ctx), 32)
	assert.Len(t, GetSpanID(ctx), 16)
}

func TestTrackGoogleAPI(t *testing.T) {
	recorder := withRecorder(t)
	m, reader := newTestMetrics(t, false)

	_, done := TrackGoogleAPI(context.Background(), m, ServiceGmail, OperationSend)
	done(nil)
	_, done = TrackGoogleAPI(context.Background(), m, ServiceGmail, OperationSend)
	done(errors.New("quota"))
	_, done = TrackGoogleAPI(context.Background(), nil, ServiceDrive, OperationList)
	done(nil)

	ended := recorder.Ended()
	require.Len(t, ended, 3)
	assert.Equal(t, "google.gmail.send", ended[0].Name())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)
	assert.Equal(t, codes.Error, ended[1].Status().Code)

	got := collect(t, reader)
	assert.Equal(t, int64(2), sumOf(t, got["google_api_operations_total"]))
}
