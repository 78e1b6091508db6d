package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// PayoutRepository implements ports.PayoutRepository over a map.
type PayoutRepository struct {
	mu      sync.RWMutex
	payouts map[uuid.UUID]*domain.Payout
}

var _ ports.PayoutRepository = (*PayoutRepository)(nil) // Ensure compliance

// NewPayoutRepository creates an empty repo.
func NewPayoutRepository() *PayoutRepository {
	return &PayoutRepository{payouts: make(map[uuid.UUID]*domain.Payout)}
}

// Put seeds or replaces a payout. Used by dev fixtures and tests.
func (r *PayoutRepository) Put(p domain.Payout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := p
	r.payouts[p.ID] = &cp
}

// Get returns a copy of a payout, for assertions.
func (r *PayoutRepository) Get(id uuid.UUID) (domain.Payout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payouts[id]
	if !ok {
		return domain.Payout{}, false
	}
	return *p, true
}

func (r *PayoutRepository) HoldPending(ctx context.Context, userID uuid.UUID, reason domain.StatusReason) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.payouts {
		if p.UserID == userID && p.Status == domain.PayoutPending {
			p.Status = domain.PayoutHeld
			p.HoldReason = reason
			p.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *PayoutRepository) RefundReviewPendingAndHeld(ctx context.Context, userID uuid.UUID, reason domain.StatusReason) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.payouts {
		if p.UserID == userID && (p.Status == domain.PayoutPending || p.Status == domain.PayoutHeld) {
			p.Status = domain.PayoutRefundReview
			p.HoldReason = reason
			p.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *PayoutRepository) ReleaseVerificationHeld(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.payouts {
		if p.UserID == userID && p.Status == domain.PayoutHeld && p.HoldReason.IsVerificationCaused() {
			p.Status = domain.PayoutPending
			p.HoldReason = domain.StatusReason{}
			p.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *PayoutRepository) SumPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total int64
	for _, p := range r.payouts {
		if p.UserID == userID && p.Status == domain.PayoutPending {
			total += p.Amount
		}
	}
	return total, nil
}
