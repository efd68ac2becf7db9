// Package revokedtokens keeps the denylist of refresh tokens that were
// explicitly logged out. Entries are keyed by the token's jti claim and are
// only meaningful until the token's own expiry.
package revokedtokens

import (
	"context"
	"time"
)

// Repository defines the denylist operations.
type Repository interface {
	// Revoke records jti as revoked until expiresAt. Revoking the same jti
	// twice is not an error.
	Revoke(ctx context.Context, jti string, userID string, expiresAt time.Time) error

	// IsRevoked reports whether jti is on the denylist.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// PurgeExpired drops entries whose expiry is before now and returns how
	// many were removed.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
