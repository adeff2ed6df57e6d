package llm

import (
	"context"
	"time"

	"github.com/teemow/workmate/internal/instrumentation"
)

// instrumentedModel records a span and metrics for every Complete call.
type instrumentedModel struct {
	Model
	metrics *instrumentation.Metrics
}

// WithInstrumentation wraps m so each completion is traced and counted.
// metrics may be nil, in which case only spans are recorded.
func WithInstrumentation(m Model, metrics *instrumentation.Metrics) Model {
	return &instrumentedModel{Model: m, metrics: metrics}
}

func (m *instrumentedModel) Complete(ctx context.Context, req *Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = m.DefaultModel()
	}

	ctx, span := instrumentation.StartLLMSpan(ctx, m.Provider(), model, req.Round)
	defer span.End()

	start := time.Now()
	resp, err := m.Model.Complete(ctx, req)
	duration := time.Since(start)

	if err != nil {
		instrumentation.SetSpanError(span, err)
		m.metrics.RecordLLMRequest(ctx, m.Provider(), model, instrumentation.StatusError, 0, 0, duration)
		return nil, err
	}

	instrumentation.SetSpanSuccess(span)
	m.metrics.RecordLLMRequest(ctx, m.Provider(), model, instrumentation.StatusSuccess,
		resp.Usage.InputTokens, resp.Usage.OutputTokens, duration)
	return resp, nil
}
