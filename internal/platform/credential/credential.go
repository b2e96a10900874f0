// Package credential manages a short-lived bearer credential shared by every caller in the process.
package credential

import (
	"context"
	"strings"
	"time"
)

// Credential is a bearer token with its absolute lifetime.
// ExpiresAt is always IssuedAt plus the lifetime declared by the issuing server.
type Credential struct {
	Value     string    `json:"value"`
	Kind      string    `json:"kind"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ValidAt reports whether the credential can still be used at t, keeping margin before expiry.
func (c Credential) ValidAt(t time.Time, margin time.Duration) bool {
	return c.Value != "" && t.Before(c.ExpiresAt.Add(-margin))
}

// Authorization returns the value for an Authorization header.
func (c Credential) Authorization() string {
	kind := c.Kind
	if kind == "" || strings.EqualFold(kind, "bearer") {
		kind = "Bearer"
	}
	return kind + " " + c.Value
}

// Issuer obtains a brand-new credential from the issuing endpoint.
type Issuer interface {
	Issue(ctx context.Context) (Credential, error)
}

// Store shares credentials between processes. Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the stored credential. ok is false when nothing is stored.
	Load(ctx context.Context) (cred Credential, ok bool, err error)
	// Save stores cred until it expires.
	Save(ctx context.Context, cred Credential) error
	// Delete removes the stored credential.
	Delete(ctx context.Context) error
}
