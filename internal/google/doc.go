// Package google provides OAuth2 helpers for the Google Calendar integration.
//
// It builds the consent URL used by the /auth/google flow, exchanges the
// authorization code for tokens, and turns a long-lived refresh token into a
// token source for the Calendar API client.
//
// The TokenProvider interface allows different token sources to be plugged in.
// The service runs with a single calendar identity, configured once through a
// refresh token, so the default provider is RefreshTokenProvider.
package google
