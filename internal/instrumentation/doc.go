// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for workmate.
//
// # Metrics
//
// HTTP:
//   - http_requests_total, http_request_duration_seconds by method, path and status
//   - active_sessions: live chat sessions
//
// Google APIs:
//   - google_api_operations_total, google_api_operation_duration_seconds
//     by service, operation and status
//
// OAuth:
//   - oauth_auth_total: logins by result
//   - oauth_token_refresh_total: refresh attempts by result
//
// Tools and agent:
//   - tool_invocations_total, tool_duration_seconds by tool and status
//   - agent_turns_total, agent_turn_rounds, agent_turn_duration_seconds by outcome
//   - llm_requests_total, llm_request_duration_seconds, llm_tokens_total by provider
//
// # Tracing
//
// Spans are created for agent turns (agent.turn), model calls (llm.<provider>),
// tool invocations (tool.<name>) and Google API calls (google.<service>.<operation>).
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: workmate)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "list_files", "success", time.Since(start))
package instrumentation
