package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/workmate/internal/credential"
	"github.com/teemow/workmate/internal/google"
	"github.com/teemow/workmate/internal/instrumentation"
	"github.com/teemow/workmate/internal/llm"
	"github.com/teemow/workmate/internal/logging"
	"github.com/teemow/workmate/internal/session"
	"github.com/teemow/workmate/internal/tools"
	"github.com/teemow/workmate/internal/tools/common"
)

// AuthErrorMessage is returned when the session has no usable credential.
const AuthErrorMessage = "Authentication Error: Please refresh and log in again."

// RoundLimitMessage is returned when the model keeps requesting tools
// after MaxRounds model calls.
const RoundLimitMessage = "I couldn't complete that request within the allowed number of steps. Please try a simpler request."

const (
	DefaultMaxRounds    = 8
	DefaultTemperature  = 0.1
	DefaultHistoryTurns = 20
)

// ServicesFactory binds Google clients to a credential.
type ServicesFactory func(ctx context.Context, ts oauth2.TokenSource) (*common.Services, error)

// Input is everything one turn needs.
type Input struct {
	SessionID   string
	Credentials *credential.Store
	History     []session.Turn
	Text        string
	UserName    string
	UserEmail   string

	// Services defaults to common.NewServices.
	Services ServicesFactory
}

// Agent drives the model/tool loop. It is safe for concurrent use.
type Agent struct {
	model       llm.Model
	catalog     *tools.Catalog
	schemas     []llm.ToolSchema
	maxRounds   int
	temperature float64
	history     int
	location    *time.Location
	now         func() time.Time
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
}

// Option configures an Agent.
type Option func(*Agent)

// WithMaxRounds caps the model calls per turn.
func WithMaxRounds(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxRounds = n
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(a *Agent) { a.temperature = t }
}

// WithHistoryTurns limits how many prior transcript turns are sent.
func WithHistoryTurns(n int) Option {
	return func(a *Agent) {
		if n >= 0 {
			a.history = n
		}
	}
}

// WithLocation sets the zone of the System Time in the prompt.
func WithLocation(loc *time.Location) Option {
	return func(a *Agent) {
		if loc != nil {
			a.location = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithMetrics(m *instrumentation.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// New creates an Agent that offers every tool in catalog to model.
func New(model llm.Model, catalog *tools.Catalog, opts ...Option) *Agent {
	a := &Agent{
		model:       model,
		catalog:     catalog,
		maxRounds:   DefaultMaxRounds,
		temperature: DefaultTemperature,
		history:     DefaultHistoryTurns,
		location:    time.Local,
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.schemas = ToolSchemas(catalog.Tools())
	return a
}

// Run executes one turn and returns the assistant's reply. Authentication
// problems and the round cap produce a reply, not an error. Errors are
// returned for model failures and unexpected credential problems.
func (a *Agent) Run(ctx context.Context, in Input) (reply string, err error) {
	start := time.Now()
	rounds := 0
	outcome := instrumentation.TurnAnswered

	ctx, span := instrumentation.StartAgentSpan(ctx,
		instrumentation.NewSpanAttributeBuilder().WithSession(in.SessionID).Build()...)
	logger := logging.WithOperation(a.logger, "agent.turn").With(logging.Session(in.SessionID))

	defer func() {
		span.SetAttributes(attribute.Int(instrumentation.SpanAttrRound, rounds))
		if err != nil {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
		a.metrics.RecordAgentTurn(ctx, outcome, rounds, time.Since(start))
		logger.Debug("turn finished",
			slog.String("outcome", outcome),
			logging.Round(rounds),
			slog.Duration("duration", time.Since(start)))
	}()

	if err := a.checkCredential(ctx, in.Credentials); err != nil {
		if errors.Is(err, credential.ErrAuthentication) {
			outcome = instrumentation.TurnAuthError
			return AuthErrorMessage, nil
		}
		outcome = instrumentation.TurnError
		return "", err
	}

	services, err := a.bindServices(ctx, in)
	if err != nil {
		outcome = instrumentation.TurnError
		return "", err
	}
	toolCtx := common.WithServices(ctx, services)

	userName := in.UserName
	if userName == "" {
		userName = google.DefaultDisplayName
	}

	req := &llm.Request{
		System:      SystemPrompt(a.now().In(a.location), userName),
		Messages:    a.conversation(in.History, in.Text),
		Tools:       a.schemas,
		Temperature: a.temperature,
	}

	for rounds < a.maxRounds {
		rounds++
		req.Round = rounds

		resp, err := a.model.Complete(ctx, req)
		if err != nil {
			outcome = instrumentation.TurnError
			return "", fmt.Errorf("model invocation failed: %w", err)
		}

		calls := resp.ToolCalls()
		if len(calls) == 0 {
			return resp.Text(), nil
		}
		if rounds == a.maxRounds {
			// Results of this round could never reach the model.
			logger.Debug("dropping tool calls past the round limit", slog.Int("calls", len(calls)))
			break
		}

		req.Messages = append(req.Messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

		results := make([]llm.Content, 0, len(calls))
		for _, call := range calls {
			if err := a.checkCredential(ctx, in.Credentials); err != nil {
				if errors.Is(err, credential.ErrAuthentication) {
					outcome = instrumentation.TurnAuthError
					return AuthErrorMessage, nil
				}
				outcome = instrumentation.TurnError
				return "", err
			}

			text, isError := a.execute(toolCtx, logger, call)
			results = append(results, llm.Content{
				Type:       llm.ContentToolResult,
				ToolUseID:  call.ToolUseID,
				ToolResult: text,
				IsError:    isError,
			})
		}
		req.Messages = append(req.Messages, llm.Message{Role: llm.RoleUser, Content: results})
	}

	outcome = instrumentation.TurnRoundLimit
	logger.Warn("round limit reached", logging.Round(rounds))
	return RoundLimitMessage, nil
}

func (a *Agent) checkCredential(ctx context.Context, creds *credential.Store) error {
	if creds == nil {
		return fmt.Errorf("%w: no credential store", credential.ErrAuthentication)
	}
	_, err := creds.EnsureValid(ctx)
	return err
}

func (a *Agent) bindServices(ctx context.Context, in Input) (*common.Services, error) {
	factory := in.Services
	if factory == nil {
		factory = func(ctx context.Context, ts oauth2.TokenSource) (*common.Services, error) {
			return common.NewServices(ctx, a.metrics, ts)
		}
	}
	svc, err := factory(ctx, in.Credentials.TokenSource(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to bind Google services: %w", err)
	}
	if svc == nil {
		return nil, errors.New("failed to bind Google services: factory returned no services")
	}
	svc.SessionID = in.SessionID
	svc.UserEmail = in.UserEmail
	return svc, nil
}

// conversation converts the transcript tail plus the new utterance into
// model messages.
func (a *Agent) conversation(history []session.Turn, text string) []llm.Message {
	if len(history) > a.history {
		history = history[len(history)-a.history:]
	}
	msgs := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		role := llm.RoleUser
		if t.Role == session.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.TextMessage(role, t.Text))
	}
	return append(msgs, llm.TextMessage(llm.RoleUser, text))
}

// execute runs one requested tool. Unknown tools and malformed arguments
// are reported to the model as text.
func (a *Agent) execute(ctx context.Context, logger *slog.Logger, call llm.Content) (string, bool) {
	args := map[string]any{}
	if len(call.ToolInput) > 0 {
		if err := json.Unmarshal(call.ToolInput, &args); err != nil {
			logger.Debug("malformed tool arguments", logging.Tool(call.ToolName), logging.Err(err))
			return fmt.Sprintf("Error: invalid arguments for tool %s: %v", call.ToolName, err), true
		}
	}

	text, isError, err := a.catalog.Call(ctx, call.ToolName, args)
	switch {
	case errors.Is(err, tools.ErrUnknownTool):
		logger.Debug("unknown tool requested", logging.Tool(call.ToolName))
		return fmt.Sprintf("Error: unknown tool %s.", call.ToolName), true
	case err != nil:
		logger.Warn("tool failed", logging.Tool(call.ToolName), logging.Err(err))
		return fmt.Sprintf("Error: %v", err), true
	}
	return text, isError
}

// ToolSchemas converts mcp tool descriptors to model tool schemas.
func ToolSchemas(ts []mcp.Tool) []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(ts))
	for _, t := range ts {
		out = append(out, llm.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.InputSchema.Properties,
			Required:    t.InputSchema.Required,
		})
	}
	return out
}
