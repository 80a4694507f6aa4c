// ABOUTME: OAuth 2.0 authentication for the Google Calendar API
// ABOUTME: Loads credentials, exchanges codes and hands out token-backed clients

package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// Scopes covers reading calendars, settings and writing events.
var Scopes = []string{calendar.CalendarScope}

// Authenticator handles OAuth 2.0 authentication
type Authenticator struct {
	config *oauth2.Config
	tokens *TokenFile
}

// NewAuthenticator creates a new OAuth authenticator
func NewAuthenticator(credentialsPath, tokenPath string) (*Authenticator, error) {
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("credentials.json not found at %s. Download from Google Cloud Console", credentialsPath)
	}

	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	return &Authenticator{
		config: config,
		tokens: NewTokenFile(tokenPath),
	}, nil
}

// GetClientIfAuthenticated returns a client backed by the cached token, or nil
// when no token has been saved yet. It never prompts.
func (a *Authenticator) GetClientIfAuthenticated(ctx context.Context) (*http.Client, error) {
	token, err := a.tokens.Load()
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read cached token: %w", err)
	}

	source := NewPersistentTokenSource(a.config.TokenSource(ctx, token), a.tokens.Save)
	return oauth2.NewClient(ctx, source), nil
}

// AuthURL returns the OAuth authorization URL for user authentication.
func (a *Authenticator) AuthURL() string {
	return a.config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// ExchangeCode exchanges an authorization code for tokens and saves them.
func (a *Authenticator) ExchangeCode(ctx context.Context, code string) error {
	token, err := a.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}
	return a.tokens.Save(token)
}

// RevokeToken deletes the cached token
func (a *Authenticator) RevokeToken() error {
	return a.tokens.Remove()
}

// TokenInfo contains metadata about the cached OAuth token
type TokenInfo struct {
	Valid       bool          `json:"valid"`
	AccessToken string        `json:"access_token"` // Masked for security
	Expiry      time.Time     `json:"expiry"`
	ExpiresIn   time.Duration `json:"expires_in"`
	HasRefresh  bool          `json:"has_refresh"`
}

// TokenInfo returns metadata about the cached token without making API calls.
func (a *Authenticator) TokenInfo() (*TokenInfo, error) {
	token, err := a.tokens.Load()
	if err != nil {
		return &TokenInfo{Valid: false}, nil
	}

	info := &TokenInfo{
		Valid:       token.AccessToken != "" && token.Valid(),
		AccessToken: maskToken(token.AccessToken),
		Expiry:      token.Expiry,
		HasRefresh:  token.RefreshToken != "",
	}

	if !token.Expiry.IsZero() {
		info.ExpiresIn = time.Until(token.Expiry)
	}

	return info, nil
}

// maskToken shows the first and last 4 characters, e.g. "ya29...7890"
func maskToken(token string) string {
	if len(token) <= 8 {
		return token
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// PersistentTokenSource saves every newly issued access token so refreshes
// survive a restart.
type PersistentTokenSource struct {
	source    oauth2.TokenSource
	lastToken *oauth2.Token
	saveFn    func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewPersistentTokenSource creates a TokenSource that persists tokens when they change.
func NewPersistentTokenSource(source oauth2.TokenSource, saveFn func(*oauth2.Token) error) *PersistentTokenSource {
	return &PersistentTokenSource{
		source: source,
		saveFn: saveFn,
	}
}

// Token returns a valid token, persisting it if the access token changed.
func (p *PersistentTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.source.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastToken == nil || token.AccessToken != p.lastToken.AccessToken {
		// a failed save must not fail the request
		_ = p.saveFn(token)
		p.lastToken = token
	}

	return token, nil
}
