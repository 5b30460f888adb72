// Package credstore defines the credential store contract consumed by
// the token lifecycle manager, together with an in-memory implementation
// for tests and a JSON-file implementation for CLI use. The persistent
// production store is an external collaborator; the core only relies on
// the Store interface.
package credstore

import (
	"context"
	"time"
)

// Credential holds one user's OAuth state for one provider. The core
// treats credentials as borrowed-and-returned: read before a call,
// written back only after a successful refresh.
type Credential struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt,omitempty"`
}

// Expired reports whether the credential's access token has expired,
// with the given margin subtracted from the expiry to absorb clock skew
// and network latency. A zero ExpiresAt means the token never expires
// (API-key style credentials).
func (c *Credential) Expired(margin time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(c.ExpiresAt.Add(-margin))
}

// Store persists credentials per user and per provider.
//
// Get returns (nil, nil) when no credential exists for the pair; errors
// are reserved for storage failures. Implementations must be safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, userID, provider string) (*Credential, error)
	Put(ctx context.Context, userID, provider string, cred *Credential) error
}
