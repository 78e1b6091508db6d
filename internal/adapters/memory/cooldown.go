package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/ports"
)

// CooldownStore implements ports.CooldownStore in-process. It is the dev
// driver; a deployment with more than one instance wants the redis one.
type CooldownStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

var _ ports.CooldownStore = (*CooldownStore)(nil) // Ensure compliance

// NewCooldownStore creates an empty store.
func NewCooldownStore() *CooldownStore {
	return &CooldownStore{expires: make(map[string]time.Time)}
}

func cooldownKey(key string, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", key, userID)
}

func (s *CooldownStore) StartCooldown(ctx context.Context, key string, userID uuid.UUID, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expires[cooldownKey(key, userID)] = time.Now().UTC().Add(d)
	return nil
}

func (s *CooldownStore) InCooldown(ctx context.Context, key string, userID uuid.UUID) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := cooldownKey(key, userID)
	exp, ok := s.expires[k]
	if !ok {
		return false, 0, nil
	}
	remaining := time.Until(exp)
	if remaining <= 0 {
		delete(s.expires, k)
		return false, 0, nil
	}
	return true, remaining, nil
}
