package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAccount is the account name used for the single configured calendar identity.
const DefaultAccount = "default"

// TokenProvider is an interface for providing OAuth tokens for Google APIs
// This abstraction allows different token sources (refresh token, in-memory, etc.)
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// RefreshTokenProvider serves a token built from a configured refresh token.
// The returned token is already expired, so the first API call refreshes it.
type RefreshTokenProvider struct {
	refreshToken string
}

// NewRefreshTokenProvider creates a provider for the given refresh token.
func NewRefreshTokenProvider(refreshToken string) *RefreshTokenProvider {
	return &RefreshTokenProvider{refreshToken: refreshToken}
}

// GetTokenForAccount returns a refreshable token for the default account.
func (p *RefreshTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	if !p.HasTokenForAccount(account) {
		return nil, fmt.Errorf("no refresh token configured for account %q", account)
	}
	return &oauth2.Token{
		TokenType:    "Bearer",
		RefreshToken: p.refreshToken,
		Expiry:       time.Unix(1, 0),
	}, nil
}

// HasTokenForAccount reports whether a refresh token is configured for account.
func (p *RefreshTokenProvider) HasTokenForAccount(account string) bool {
	return p.refreshToken != "" && account == DefaultAccount
}
