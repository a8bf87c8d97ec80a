// Package identity wraps the external auth service. The core only ever
// sees this narrow surface: session validation, lookup by handle, and user
// deletion.
package identity

import "context"

// User is an identity-provider account as the core sees it.
type User struct {
	ID     string
	Handle string
	Name   string
	Email  string
}

// Session is an authenticated caller. Every mutating operation derives its
// acting identity from a Session produced by token validation, never from
// client-supplied identifiers.
type Session struct {
	UserID string
	Handle string
}

// Provider is the identity-provider client interface. Lookup misses return
// (nil, nil), not an error.
type Provider interface {
	ValidateSession(ctx context.Context, sessionToken string) (*Session, error)
	GetUserByHandle(ctx context.Context, handle string) (*User, error)
	DeleteUser(ctx context.Context, userID string) error
}
