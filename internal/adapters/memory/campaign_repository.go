package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// CampaignRepository implements ports.CampaignRepository over a map,
// with the same status-scoped bulk semantics as the SQL driver.
type CampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[uuid.UUID]*domain.Campaign
}

var _ ports.CampaignRepository = (*CampaignRepository)(nil) // Ensure compliance

// NewCampaignRepository creates an empty repo.
func NewCampaignRepository() *CampaignRepository {
	return &CampaignRepository{campaigns: make(map[uuid.UUID]*domain.Campaign)}
}

// Put seeds or replaces a campaign. Used by dev fixtures and tests.
func (r *CampaignRepository) Put(c domain.Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := c
	r.campaigns[c.ID] = &cp
}

// Get returns a copy of a campaign, for assertions.
func (r *CampaignRepository) Get(id uuid.UUID) (domain.Campaign, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.campaigns[id]
	if !ok {
		return domain.Campaign{}, false
	}
	return *c, true
}

func (r *CampaignRepository) SuspendActive(ctx context.Context, ownerID uuid.UUID, reason domain.StatusReason) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.campaigns {
		if c.OwnerID == ownerID && c.Status == domain.CampaignActive {
			c.Status = domain.CampaignSuspended
			c.StatusReason = reason
			c.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *CampaignRepository) CancelActiveAndSuspended(ctx context.Context, ownerID uuid.UUID, reason domain.StatusReason) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.campaigns {
		if c.OwnerID == ownerID && (c.Status == domain.CampaignActive || c.Status == domain.CampaignSuspended) {
			c.Status = domain.CampaignCancelled
			c.StatusReason = reason
			c.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *CampaignRepository) ResumeVerificationSuspended(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, c := range r.campaigns {
		if c.OwnerID == ownerID && c.Status == domain.CampaignSuspended && c.StatusReason.IsVerificationCaused() {
			c.Status = domain.CampaignActive
			c.StatusReason = domain.StatusReason{}
			c.UpdatedAt = time.Now().UTC()
			n++
		}
	}
	return n, nil
}

func (r *CampaignRepository) CountActive(ctx context.Context, ownerID uuid.UUID) (int64, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var count, raised int64
	for _, c := range r.campaigns {
		if c.OwnerID == ownerID && c.Status == domain.CampaignActive {
			count++
			raised += c.RaisedAmount
		}
	}
	return count, raised, nil
}

func (r *CampaignRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Campaign
	for _, c := range r.campaigns {
		if c.OwnerID == ownerID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}
