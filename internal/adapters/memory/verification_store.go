// Package memory implements the storage ports with in-process maps. It
// is the dev/test storage driver; the postgres package is the durable
// one. Both sit behind the same ports, so the core cannot tell them
// apart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// VerificationStore implements ports.VerificationStore with a mutex and
// a map. Copies go in and out; callers never see shared pointers.
type VerificationStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.Verification
	newID   func() string // event ID source, swappable in tests
}

var _ ports.VerificationStore = (*VerificationStore)(nil) // Ensure compliance

// NewVerificationStore creates an empty store.
func NewVerificationStore(newEventID func() string) *VerificationStore {
	return &VerificationStore{
		records: make(map[uuid.UUID]*domain.Verification),
		newID:   newEventID,
	}
}

func cloneVerification(v *domain.Verification) *domain.Verification {
	out := *v
	out.RiskFlags = append([]string(nil), v.RiskFlags...)
	out.Documents = append([]domain.VerificationDoc(nil), v.Documents...)
	out.Events = append([]domain.VerificationEvent(nil), v.Events...)
	out.Notes = append([]domain.InternalNote(nil), v.Notes...)
	if v.SubmittedAt != nil {
		t := *v.SubmittedAt
		out.SubmittedAt = &t
	}
	return &out
}

func isClosed(s domain.VerificationStatus) bool {
	return domain.IsTerminal(s) || s == domain.StatusAbandoned
}

// CreateDraft enforces the one-active-record invariant.
func (s *VerificationStore) CreateDraft(ctx context.Context, userID uuid.UUID, profile domain.StudentProfile) (*domain.Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.records {
		if v.UserID == userID && !isClosed(v.Status) {
			return nil, domain.ErrAlreadyExists
		}
	}

	now := time.Now().UTC()
	v := &domain.Verification{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.StatusDraft,
		Profile:   profile,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	s.records[v.ID] = v
	return cloneVerification(v), nil
}

func (s *VerificationStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneVerification(v), nil
}

// GetByIDForUser applies the ownership rule: absent and not-owned are
// the same outcome through the same branch.
func (s *VerificationStore) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[id]
	if !ok || v.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return cloneVerification(v), nil
}

func (s *VerificationStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.records {
		if v.UserID == userID && !isClosed(v.Status) {
			return cloneVerification(v), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *VerificationStore) ListReviewQueue(ctx context.Context, sortBy ports.QueueSort, limit int) ([]*domain.Verification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Verification
	for _, v := range s.records {
		if v.Status == domain.StatusPendingReview || v.Status == domain.StatusUnderInvestigation {
			out = append(out, cloneVerification(v))
		}
	}

	submittedBefore := func(a, b *domain.Verification) bool {
		switch {
		case a.SubmittedAt == nil:
			return false
		case b.SubmittedAt == nil:
			return true
		default:
			return a.SubmittedAt.Before(*b.SubmittedAt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if sortBy == ports.QueueSortRisk && out[i].RiskScore != out[j].RiskScore {
			return out[i].RiskScore > out[j].RiskScore
		}
		return submittedBefore(out[i], out[j])
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *VerificationStore) ListInStatusOlderThan(ctx context.Context, status domain.VerificationStatus, cutoff time.Time, limit int) ([]*domain.Verification, error) {
	if limit <= 0 {
		limit = 100
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Verification
	for _, v := range s.records {
		if v.Status == status && v.UpdatedAt.Before(cutoff) {
			out = append(out, cloneVerification(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ApplyStatusUpdate is the compare-and-swap: the version check and both
// writes happen under one lock, so concurrent callers with the same read
// version produce exactly one winner.
func (s *VerificationStore) ApplyStatusUpdate(ctx context.Context, id uuid.UUID, upd ports.StatusUpdate) (*domain.VerificationEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if v.Version != upd.ExpectedVersion {
		return nil, domain.ErrConcurrentModification
	}

	// Reopening a closed record counts against the one-open-record rule,
	// same as CreateDraft. Mirrors the partial unique index in SQL.
	if isClosed(v.Status) && !isClosed(upd.ToStatus) {
		for _, other := range s.records {
			if other.UserID == v.UserID && other.ID != v.ID && !isClosed(other.Status) {
				return nil, domain.ErrAlreadyExists
			}
		}
	}

	now := time.Now().UTC()
	ev := domain.VerificationEvent{
		ID:         s.newID(),
		Actor:      upd.Actor,
		FromStatus: v.Status,
		ToStatus:   upd.ToStatus,
		Reason:     upd.Reason,
		Message:    upd.Message,
		CreatedAt:  now,
	}

	v.Status = upd.ToStatus
	v.Version++
	v.UpdatedAt = now
	if upd.ToStatus == domain.StatusPendingReview && v.SubmittedAt == nil {
		v.SubmittedAt = &now
	}
	for _, f := range upd.RiskFlags {
		if !containsString(v.RiskFlags, f) {
			v.RiskFlags = append(v.RiskFlags, f)
		}
	}
	v.Events = append(v.Events, ev)

	out := ev
	return &out, nil
}

func containsString(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func (s *VerificationStore) AppendDocument(ctx context.Context, id uuid.UUID, doc domain.VerificationDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Documents = append(v.Documents, doc)
	v.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *VerificationStore) SetDocumentVerified(ctx context.Context, id, docID uuid.UUID, verified bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	for i := range v.Documents {
		if v.Documents[i].ID == docID {
			v.Documents[i].IsVerified = verified
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *VerificationStore) AppendNote(ctx context.Context, id uuid.UUID, note domain.InternalNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.records[id]
	if !ok {
		return domain.ErrNotFound
	}
	v.Notes = append(v.Notes, note)
	return nil
}
