package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/workmate/internal/instrumentation"
)

// InstrumentedToolHandler wraps a tool handler with a span, metrics and
// audit logging.
//
// Usage:
//
//	tool := mcpserver.ServerTool{Tool: t, Handler: common.InstrumentedToolHandler("my_tool", tk, handler)}
func InstrumentedToolHandler(toolName string, tk *Toolkit, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return instrument(toolName, "", "", tk, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but
// also tags the audit record and span with the Google service and
// operation type.
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, tk *Toolkit, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return instrument(toolName, serviceName, operation, tk, handler)
}

func instrument(toolName, serviceName, operation string, tk *Toolkit, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := tk.metrics()
		auditLogger := tk.audit()

		attrs := instrumentation.NewSpanAttributeBuilder().WithTool(toolName)
		if serviceName != "" {
			attrs.WithService(serviceName).WithOperation(operation)
		}

		svc, _ := ServicesFrom(ctx)
		if svc != nil && svc.SessionID != "" {
			attrs.WithSession(svc.SessionID)
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, attrs.Build()...)
		defer span.End()

		start := time.Now()
		invocation := instrumentation.NewToolInvocation(toolName).WithSpanContext(ctx)
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}
		if svc != nil {
			invocation.WithSession(svc.SessionID).WithUser(svc.UserEmail)
		}

		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		switch {
		case err != nil:
			status = instrumentation.StatusError
			invocation.CompleteWithError(err)
			instrumentation.SetSpanError(span, err)
		case result != nil && result.IsError:
			status = instrumentation.StatusError
			invocation.Complete(false, nil)
			span.SetAttributes(attribute.String(instrumentation.SpanAttrStatus, instrumentation.StatusError))
		default:
			invocation.CompleteSuccess()
			instrumentation.SetSpanSuccess(span)
		}

		metrics.RecordToolInvocation(ctx, toolName, status, duration)
		auditLogger.LogToolInvocation(invocation)

		return result, err
	}
}
