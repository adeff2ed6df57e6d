// Package gmail_tools provides the Gmail tools: drafting and sending mail,
// searching messages and reading the latest message.
package gmail_tools
