// Package calendar_tools provides the Google Calendar tools: listing
// upcoming events, creating an event and deleting an event.
package calendar_tools
