package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// Guard resolves records on behalf of an authenticated caller. Its one
// hard rule: a record that exists but belongs to someone else yields the
// same domain.ErrNotFound as a record that does not exist, through the
// same code path, so probing guessed IDs teaches an attacker nothing.
type Guard struct {
	store ports.VerificationStore
	log   zerolog.Logger
}

// NewGuard creates the ownership guard.
func NewGuard(store ports.VerificationStore, baseLogger *zerolog.Logger) *Guard {
	return &Guard{
		store: store,
		log:   baseLogger.With().Str("component", "ownership_guard").Logger(),
	}
}

// RequireRole fails with domain.ErrForbidden unless the user holds one of
// the allowed roles. Role gates are allowed to be loud (403, not 404):
// the resource identity is not attacker-supplied here.
func (g *Guard) RequireRole(u domain.AuthUser, allowed ...domain.Role) error {
	switch u.Role {
	case domain.RoleStudent, domain.RoleDonor, domain.RoleInstitution, domain.RoleAdmin:
		for _, r := range allowed {
			if u.Role == r {
				return nil
			}
		}
		return domain.ErrForbidden
	default:
		// Unknown role on a signed session token. Treat as forbidden,
		// but this means the token issuer and this service disagree.
		g.log.Warn().Str("role", string(u.Role)).Str("user_id", u.ID.String()).Msg("Session carries a role outside the closed set")
		return domain.ErrForbidden
	}
}

// RequireAdmin gates the review surface.
func (g *Guard) RequireAdmin(u domain.AuthUser) error {
	return g.RequireRole(u, domain.RoleAdmin)
}

// RequireStudent gates the self-service surface.
func (g *Guard) RequireStudent(u domain.AuthUser) error {
	return g.RequireRole(u, domain.RoleStudent)
}

// OwnedVerification fetches the record only if it belongs to userID.
func (g *Guard) OwnedVerification(ctx context.Context, id, userID uuid.UUID) (*domain.Verification, error) {
	return g.store.GetByIDForUser(ctx, id, userID)
}

// OwnedDocument re-resolves the parent verification under the ownership
// rule, then searches its document list. A found verification with a
// missing doc is still domain.ErrNotFound, never a distinct signal.
func (g *Guard) OwnedDocument(ctx context.Context, verificationID, docID, userID uuid.UUID) (*domain.Verification, *domain.VerificationDoc, error) {
	v, err := g.store.GetByIDForUser(ctx, verificationID, userID)
	if err != nil {
		return nil, nil, err
	}
	doc := v.Document(docID)
	if doc == nil {
		return nil, nil, domain.ErrNotFound
	}
	return v, doc, nil
}
