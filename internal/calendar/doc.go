// Package calendar provides the calendar client used by the gateway's tools.
//
// The client is a stand-in for a real calendar backend: it never stores or
// looks up events. Availability checks return hourly slots derived from the
// requested range, and create, update and delete operations echo what they
// were given under a generated or supplied event ID.
//
// Example usage:
//
//	client := calendar.NewClient()
//	event, err := client.CreateEvent(ctx, calendar.EventInput{
//	    Title: "Team sync",
//	    Start: start,
//	    End:   start.Add(time.Hour),
//	})
package calendar
