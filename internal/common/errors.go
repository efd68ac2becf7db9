// Package common defines shared constants and sentinel errors used across
// the repository, service and transport layers. Callers should use errors.Is
// to match these values.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Service-level errors.
	ErrorInternal         = errors.New("internal error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRefreshRejected    = errors.New("refresh token rejected")
	ErrValidation         = errors.New("validation failure")

	// Gate errors.
	ErrUnauthenticated         = errors.New("unauthenticated")
	ErrForbidden               = errors.New("forbidden")
	ErrMissingVerifiedIdentity = errors.New("no verified identity in request context")

	// Auth errors (invalid, malformed or expired token). The specific
	// reasons below all wrap ErrInvalidToken.
	ErrInvalidToken          = errors.New("invalid token")
	ErrTokenExpired          = fmt.Errorf("%w: token expired", ErrInvalidToken)
	ErrTokenMalformed        = fmt.Errorf("%w: token malformed", ErrInvalidToken)
	ErrTokenSignatureInvalid = fmt.Errorf("%w: token signature invalid", ErrInvalidToken)
)

// ValidationError reports one or more rejected input fields. It matches
// ErrValidation under errors.Is.
type ValidationError struct {
	// Fields maps a field name to the reason it was rejected.
	Fields map[string]string
}

// NewValidationError returns a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// Add records another rejected field.
func (e *ValidationError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if prev, ok := e.Fields[field]; ok {
		reason = prev + "; " + reason
	}
	e.Fields[field] = reason
}

// Empty reports whether no field has been rejected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
