// Package server provides the browser chat interface and the supporting
// HTTP endpoints of workmate.
//
// # Key Components
//
// ChatServer serves the chat page and the Google sign-in flow:
//   - GET /                chat page with the session transcript
//   - POST /chat           runs one assistant turn
//   - GET /login           redirects to the Google consent page
//   - GET /oauth2callback  completes sign-in and stores the credential
//   - POST /logout         clears the credential and transcript
//   - GET /healthz, /readyz health probes
//
// Each browser gets a session cookie. The credential, transcript and
// display name live on the session; turns within a session are serialized.
//
// MetricsServer exposes Prometheus metrics on a dedicated port.
package server
