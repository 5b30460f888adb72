// Package token implements the credential lifecycle shared by the
// dispatcher and the aggregator: reading a user's stored credential for
// a provider, refreshing it through the provider's token endpoint when
// it has gone stale, and persisting the refreshed credential before it
// is ever used.
package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"navi/internal/credstore"
	"navi/internal/metrics"
	"navi/pkg/logging"

	"golang.org/x/oauth2"
)

// expiryMargin is subtracted from the stored expiry when checking
// staleness. This accounts for clock skew between systems and the time
// the remote call itself takes.
const expiryMargin = 30 * time.Second

// ErrNoCredential is returned when the user has no stored credential
// for the requested provider.
var ErrNoCredential = errors.New("no credential stored")

// RefreshError reports a failed refresh attempt. The stale credential
// is left untouched in the store when this is returned.
type RefreshError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh for %s failed: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("token refresh for %s failed: %s", e.Provider, e.Reason)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// ProviderAuth holds the refresh-flow settings for one provider.
type ProviderAuth struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string

	// Static marks API-key style credentials that are never refreshed.
	Static bool
}

// Manager resolves fresh access tokens for (user, provider) pairs.
//
// Concurrency: multiple in-flight calls for the same pair may race to
// refresh. The race is tolerated rather than serialized: providers
// accept repeated refresh-token exchanges, last write wins, and the
// final stored state is always a valid credential. Serializing would
// add cross-request locking for no correctness gain.
type Manager struct {
	store      credstore.Store
	providers  map[string]ProviderAuth
	httpClient *http.Client
}

// NewManager creates a token manager over the given store and
// per-provider refresh settings.
func NewManager(store credstore.Store, providers map[string]ProviderAuth) *Manager {
	return &Manager{
		store:     store,
		providers: providers,
	}
}

// SetHTTPClient overrides the HTTP client used for refresh exchanges.
// Tests use this to point refreshes at a local fake endpoint with a
// bounded timeout.
func (m *Manager) SetHTTPClient(client *http.Client) {
	m.httpClient = client
}

// EnsureFresh returns a usable access token for the user/provider pair.
//
// If the stored credential is unexpired (or carries no expiry) it is
// returned as-is without any network call. An expired credential is
// refreshed through the provider's token endpoint; the refreshed
// credential is persisted before the new token is returned, so a crash
// between refresh and use cannot lose it. On refresh failure the stale
// credential stays in place and a *RefreshError is returned.
func (m *Manager) EnsureFresh(ctx context.Context, userID, provider string) (string, error) {
	cred, err := m.store.Get(ctx, userID, provider)
	if err != nil {
		return "", fmt.Errorf("failed to read credential for %s: %w", provider, err)
	}
	if cred == nil || cred.AccessToken == "" {
		return "", fmt.Errorf("%w for provider %s", ErrNoCredential, provider)
	}

	auth := m.providers[provider]
	if auth.Static {
		return cred.AccessToken, nil
	}

	if !cred.Expired(expiryMargin) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		return "", &RefreshError{Provider: provider, Reason: "no refresh token"}
	}
	if auth.TokenURL == "" {
		return "", &RefreshError{Provider: provider, Reason: "no token endpoint configured"}
	}

	logging.Debug("TokenManager", "Token expired for user=%s provider=%s, refreshing", userID, provider)

	conf := &oauth2.Config{
		ClientID:     auth.ClientID,
		ClientSecret: auth.ClientSecret,
		Scopes:       auth.Scopes,
		Endpoint:     oauth2.Endpoint{TokenURL: auth.TokenURL},
	}

	if m.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	}

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken}).Token()
	if err != nil {
		metrics.RecordTokenRefresh(provider, false)
		logging.Warn("TokenManager", "Token refresh failed for user=%s provider=%s: %v", userID, provider, err)
		return "", &RefreshError{Provider: provider, Reason: "token endpoint rejected refresh", Err: err}
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		// Providers may omit the refresh token on rotation; keep the prior one.
		refreshToken = cred.RefreshToken
	}

	refreshed := &credstore.Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    tok.Expiry,
	}

	// Persist before returning so a crash between refresh and use does
	// not lose the new token.
	if err := m.store.Put(ctx, userID, provider, refreshed); err != nil {
		metrics.RecordTokenRefresh(provider, false)
		return "", fmt.Errorf("failed to persist refreshed credential for %s: %w", provider, err)
	}

	metrics.RecordTokenRefresh(provider, true)
	logging.Info("TokenManager", "Refreshed %s token for user=%s (expires %s)", provider, userID, tok.Expiry.Format(time.RFC3339))
	return tok.AccessToken, nil
}
