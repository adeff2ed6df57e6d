// Package logging provides structured logging utilities for the workmate application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog, as text or JSON
//   - Optional size-rotated log files
//   - PII sanitization (email anonymization, truncated session IDs)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "agent.run")
//	logger.Info("turn finished",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("login completed",
//	    logging.UserHash(email))
//
// # Security Considerations
//
//   - User emails are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
//   - Session IDs are truncated so log readers cannot hijack a session
package logging
