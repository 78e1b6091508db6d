package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CooldownStore tracks per-user windows (reapplication cooldown,
// submission rate). It is injected rather than held as process-global
// state so the core stays testable and instances stay interchangeable.
type CooldownStore interface {
	// StartCooldown opens a window for the user under the given key.
	StartCooldown(ctx context.Context, key string, userID uuid.UUID, d time.Duration) error

	// InCooldown reports whether the user's window is still open and how
	// long remains.
	InCooldown(ctx context.Context, key string, userID uuid.UUID) (bool, time.Duration, error)
}
