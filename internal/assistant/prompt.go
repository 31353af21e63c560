package assistant

import (
	"fmt"
	"time"
)

// systemPrompt builds the instructions for the first model call.
func systemPrompt(now time.Time) string {
	return fmt.Sprintf(`You are a helpful voice assistant that manages the user's calendar.
The current date and time is %s (%s, time zone %s).

You can call these functions:
- listEvents: list events between timeMin and timeMax, optionally filtered by query.
- createEvent: create an event with a summary, start and end, and optional description and attendee emails.
- getCurrentTime: get the current date, time and time zone.

Decide on your own whether a function is needed. Answer directly when it is not.
Resolve relative dates such as "today", "tomorrow", "this week" or "next Monday" against the current date.
Always pass ISO 8601 date-times with a UTC offset. Weeks start on Sunday.
When the user gives no duration for a new event, assume one hour.`,
		now.Format(time.RFC3339), now.Weekday(), now.Location())
}

// finalPrompt instructs the second model call.
const finalPrompt = `You are a helpful voice assistant. Use the function result to answer the user's request.
Phrase the answer naturally, as it will be spoken aloud: keep it short, avoid lists, markup and raw timestamps.`
