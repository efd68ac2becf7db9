package models

import "time"

// RevokedToken is a denylist entry for a refresh token, identified by its
// jti claim. Entries are meaningless after ExpiresAt because the token
// itself no longer verifies.
type RevokedToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	RevokedAt time.Time
}
