// Package logging is the structured logging facade of the onboarding server.
// Components depend on Logger; SlogLogger backs it in production.
package logging

import "context"

// Logger writes leveled records with key/value attributes:
//
//	log.Warn(ctx, "refresh token not revoked", "error", err)
//
// Implementations must never be handed passwords or raw tokens.
type Logger interface {
	// Debug logs diagnostic detail that is off in production.
	Debug(ctx context.Context, msg string, args ...any)

	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)

	// Error is reserved for failures an operator has to look at, such as
	// an unreachable store or a panicking handler.
	Error(ctx context.Context, msg string, args ...any)

	// With derives a logger bound to extra attributes, typically
	// "module" for each server component.
	With(args ...any) Logger
}

// Nop is a Logger that discards everything. Handy in tests.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
