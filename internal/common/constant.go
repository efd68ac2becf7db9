// Package common contains shared constants and sentinel errors used across
// the onboarding server components.
package common

const (
	// AuthorizationHeaderName carries the access token as "Bearer <token>".
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the authorization scheme expected in front of access tokens.
	BearerScheme = "Bearer"

	// RefreshTokenCookieName is the http-only cookie holding the refresh token.
	RefreshTokenCookieName = "refreshToken"
)
