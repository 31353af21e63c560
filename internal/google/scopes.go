package google

// CalendarScope grants read/write access to the user's calendars.
const CalendarScope = "https://www.googleapis.com/auth/calendar"

// DefaultOAuthScopes are the scopes requested by the consent flow.
var DefaultOAuthScopes = []string{
	CalendarScope,
}
