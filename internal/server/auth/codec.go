// Package auth implements the server-side credential primitives: signed
// access and refresh tokens, password hashing and policy, and the verified
// identity that the request gate hands to handlers.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind selects the signing context of a token.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// KeySet holds the signing key of one token kind. Tokens are signed with
// Secret and carry KeyID in their header; Previous lists retired keys by id
// that are still accepted for verification.
type KeySet struct {
	KeyID    string
	Secret   []byte
	Previous map[string][]byte
}

func (k KeySet) lookup(kid string) ([]byte, bool) {
	if kid == k.KeyID {
		return k.Secret, true
	}
	secret, ok := k.Previous[kid]
	return secret, ok
}

// CodecConfig configures a Codec.
type CodecConfig struct {
	Access     KeySet
	Refresh    KeySet
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Claims is the content of a token.
type Claims struct {
	UserID string      `json:"uid"`
	Role   models.Role `json:"role"`
	Kind   TokenKind   `json:"typ"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 JWTs for both token kinds. It holds no
// mutable state and is safe for concurrent use.
type Codec struct {
	keys map[TokenKind]KeySet
	ttl  map[TokenKind]time.Duration
	now  func() time.Time
}

// IssuedAtLeeway is how far in the future an "iat" may lie before the token
// is rejected, to absorb clock skew between replicas. Expiry gets no leeway.
const IssuedAtLeeway = 30 * time.Second

var errUnknownKey = errors.New("unknown key id")

func NewCodec(cfg CodecConfig) (*Codec, error) {
	for kind, ks := range map[TokenKind]KeySet{AccessToken: cfg.Access, RefreshToken: cfg.Refresh} {
		if strings.TrimSpace(ks.KeyID) == "" {
			return nil, fmt.Errorf("%s key id is empty", kind)
		}
		if len(ks.Secret) == 0 {
			return nil, fmt.Errorf("%s secret is empty", kind)
		}
		for kid, secret := range ks.Previous {
			if kid == "" || len(secret) == 0 {
				return nil, fmt.Errorf("%s previous key %q is incomplete", kind, kid)
			}
		}
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Codec{
		keys: map[TokenKind]KeySet{AccessToken: cfg.Access, RefreshToken: cfg.Refresh},
		ttl:  map[TokenKind]time.Duration{AccessToken: cfg.AccessTTL, RefreshToken: cfg.RefreshTTL},
		now:  now,
	}, nil
}

// TTL returns the lifetime of tokens of the given kind.
func (c *Codec) TTL(kind TokenKind) time.Duration {
	return c.ttl[kind]
}

// Issue signs a new token for the identity. The returned claims are exactly
// what Verify yields for the token.
func (c *Codec) Issue(kind TokenKind, userID string, role models.Role) (string, Claims, error) {
	ks, ok := c.keys[kind]
	if !ok {
		return "", Claims{}, fmt.Errorf("unknown token kind %q", kind)
	}

	now := c.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl[kind])),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = ks.KeyID

	signed, err := token.SignedString(ks.Secret)
	if err != nil {
		return "", Claims{}, err
	}

	return signed, claims, nil
}

// Verify checks signature, structure and expiry of a token of the given
// kind. Failures wrap common.ErrInvalidToken and are one of
// common.ErrTokenExpired, common.ErrTokenMalformed or
// common.ErrTokenSignatureInvalid.
func (c *Codec) Verify(kind TokenKind, tokenString string) (Claims, error) {
	ks, ok := c.keys[kind]
	if !ok {
		return Claims{}, fmt.Errorf("unknown token kind %q", kind)
	}

	// Time claims are checked below so that a token stays valid up to and
	// including its expiry second.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := Claims{}
	_, err := parser.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		secret, ok := ks.lookup(kid)
		if !ok {
			return nil, errUnknownKey
		}
		return secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}

	if claims.Kind != kind || claims.UserID == "" || claims.ID == "" || !claims.Role.IsValid() {
		return Claims{}, common.ErrTokenMalformed
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		return Claims{}, common.ErrTokenMalformed
	}

	now := c.now()
	if claims.IssuedAt.After(now.Add(IssuedAtLeeway)) {
		return Claims{}, common.ErrTokenMalformed
	}
	if now.After(claims.ExpiresAt.Time) {
		return Claims{}, common.ErrTokenExpired
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, errUnknownKey):
		return common.ErrTokenSignatureInvalid
	default:
		return common.ErrTokenMalformed
	}
}

// VerifyAccess verifies an access token and returns the identity it proves.
// It is the only way to obtain a VerifiedIdentity.
func (c *Codec) VerifyAccess(tokenString string) (VerifiedIdentity, error) {
	claims, err := c.Verify(AccessToken, tokenString)
	if err != nil {
		return VerifiedIdentity{}, err
	}
	return VerifiedIdentity{
		userID:    claims.UserID,
		role:      claims.Role,
		expiresAt: claims.ExpiresAt.Time,
		verified:  true,
	}, nil
}
