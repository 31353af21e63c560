package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// ErrNotConfigured is returned when OAuth client credentials are missing.
var ErrNotConfigured = errors.New("google oauth client is not configured")

// Credentials holds the OAuth client registration for the Calendar integration.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// Configured reports whether both client id and secret are set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// GetOAuthConfig returns the OAuth2 configuration for the calendar scope.
func GetOAuthConfig(creds Credentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  creds.RedirectURL,
		Scopes:       DefaultOAuthScopes,
	}
}

// GetAuthURL returns the consent URL. Offline access and a forced consent
// prompt make Google return a refresh token on every authorization.
func GetAuthURL(creds Credentials, state string) (string, error) {
	if !creds.Configured() {
		return "", ErrNotConfigured
	}
	conf := GetOAuthConfig(creds)
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// ExchangeCode exchanges an authorization code for tokens.
func ExchangeCode(ctx context.Context, creds Credentials, code string) (*oauth2.Token, error) {
	if !creds.Configured() {
		return nil, ErrNotConfigured
	}
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}

	conf := GetOAuthConfig(creds)
	t, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return t, nil
}

// GetHTTPClient returns an HTTP client that authenticates with tokens from
// provider and refreshes them through the OAuth config.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func GetHTTPClient(ctx context.Context, creds Credentials, provider TokenProvider, account string) (*http.Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}

	token, err := provider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}

	conf := GetOAuthConfig(creds)
	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}

	return client, nil
}
