// Package calendar provides a client for the Google Calendar API limited to
// what the assistant needs: listing upcoming events on the primary calendar,
// creating timed events and deleting events.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, metrics, google.ClientOptions(ctx, ts)...)
//	if err != nil {
//	    return err
//	}
//	events, err := client.UpcomingEvents(ctx, calendar.ListOptions{MaxResults: 10})
package calendar
