package ports

import (
	"context"

	"scholarfund/internal/core/domain"
)

// IdentityProvider resolves the current request's session token into an
// AuthUser. It is the session collaborator: issuing and refreshing tokens
// happens elsewhere.
type IdentityProvider interface {
	// Resolve returns the authenticated user for the token, or
	// domain.ErrUnauthorized when the token is missing, expired or forged.
	Resolve(ctx context.Context, token string) (domain.AuthUser, error)
}
