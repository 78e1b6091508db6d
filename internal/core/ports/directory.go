package ports

import (
	"context"

	"github.com/google/uuid"
)

// UserDirectory resolves contact details for notification recipients.
// User accounts live in the surrounding system; this core only needs an
// address to hand to the mail collaborator.
type UserDirectory interface {
	EmailFor(ctx context.Context, userID uuid.UUID) (string, error)
}
