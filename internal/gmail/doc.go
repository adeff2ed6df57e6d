// Package gmail provides a client for the Gmail API covering message search,
// reading the latest match, drafting and sending plain-text mail.
//
// Outgoing messages are RFC 2822 text/plain bodies with RFC 2047 encoded
// subjects, submitted as base64url "raw" payloads.
package gmail
