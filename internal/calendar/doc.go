// Package calendar is the Google Calendar gateway used by the assistant.
//
// It exposes two operations, listing events in a time window and creating an
// event, and normalizes provider events into the flat Event shape returned to
// callers. Every provider or transport failure is reported as ErrUnavailable.
// Calls are bounded by a per-call timeout and guarded by a circuit breaker, and
// are never retried.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, calendar.Config{
//	    Credentials:  creds,
//	    RefreshToken: refreshToken,
//	})
//	if err != nil {
//	    return err
//	}
//
//	events, err := client.ListEvents(ctx, start, end, "")
package calendar
