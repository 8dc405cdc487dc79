package service

import "context"

// Identity is the authenticated caller extracted from a bearer token.
type Identity struct {
	UserID string
	Role   string
	Name   string
}

// TokenVerifier validates a bearer token and returns the caller it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
