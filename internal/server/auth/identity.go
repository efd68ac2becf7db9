package auth

import (
	"context"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
)

// VerifiedIdentity is the identity proven by a verified access token. Its
// fields are unexported so that only Codec.VerifyAccess can produce a usable
// value; the zero value is rejected by RequireRole.
type VerifiedIdentity struct {
	userID    string
	role      models.Role
	expiresAt time.Time
	verified  bool
}

func (v VerifiedIdentity) UserID() string       { return v.userID }
func (v VerifiedIdentity) Role() models.Role    { return v.role }
func (v VerifiedIdentity) ExpiresAt() time.Time { return v.expiresAt }
func (v VerifiedIdentity) IsVerified() bool     { return v.verified }

// RequireRole permits the identity only if its role equals role exactly.
func RequireRole(id VerifiedIdentity, role models.Role) error {
	if !id.verified {
		return common.ErrMissingVerifiedIdentity
	}
	if id.role != role {
		return common.ErrForbidden
	}
	return nil
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id VerifiedIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity stored by WithIdentity.
func IdentityFromContext(ctx context.Context) (VerifiedIdentity, bool) {
	id, ok := ctx.Value(identityKey{}).(VerifiedIdentity)
	if !ok || !id.verified {
		return VerifiedIdentity{}, false
	}
	return id, true
}
