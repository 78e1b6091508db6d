package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// UserDirectory implements ports.UserDirectory over a map.
type UserDirectory struct {
	mu     sync.RWMutex
	emails map[uuid.UUID]string
}

var _ ports.UserDirectory = (*UserDirectory)(nil) // Ensure compliance

// NewUserDirectory creates an empty directory.
func NewUserDirectory() *UserDirectory {
	return &UserDirectory{emails: make(map[uuid.UUID]string)}
}

// Put registers a user's address.
func (d *UserDirectory) Put(userID uuid.UUID, email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.emails[userID] = email
}

func (d *UserDirectory) EmailFor(ctx context.Context, userID uuid.UUID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	email, ok := d.emails[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return email, nil
}
