// Package common provides shared utilities for the assistant's tool
// implementations: the Toolkit of process-wide dependencies, the
// credential-bound Services resolved from the invocation context, argument
// helpers and the instrumented handler wrapper.
package common
