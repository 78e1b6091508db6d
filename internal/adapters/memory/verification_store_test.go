package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

func newTestStore() *VerificationStore {
	n := 0
	return NewVerificationStore(func() string {
		n++
		return fmt.Sprintf("ev-%03d", n)
	})
}

func TestVerificationStore_OneActiveRecordPerUser(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	userID := uuid.New()

	v, err := store.CreateDraft(ctx, userID, domain.StudentProfile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("first CreateDraft failed: %v", err)
	}
	if _, err := store.CreateDraft(ctx, userID, domain.StudentProfile{FullName: "Ada"}); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second CreateDraft = %v, want ErrAlreadyExists", err)
	}

	// Close the record; a new draft is allowed again.
	if _, err := store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
		ToStatus: domain.StatusAbandoned, Actor: domain.ActorUser, ExpectedVersion: v.Version,
	}); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	if _, err := store.CreateDraft(ctx, userID, domain.StudentProfile{FullName: "Ada"}); err != nil {
		t.Fatalf("CreateDraft after close failed: %v", err)
	}
}

// Two writers who read the same version: exactly one wins.
func TestVerificationStore_ConcurrentStatusUpdates(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	v, err := store.CreateDraft(ctx, uuid.New(), domain.StudentProfile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
				ToStatus:        domain.StatusPendingReview,
				Actor:           domain.ActorUser,
				ExpectedVersion: v.Version,
			})
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConcurrentModification):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != writers-1 {
		t.Fatalf("wins = %d, losses = %d, want 1 and %d", wins, losses, writers-1)
	}

	stored, _ := store.GetByID(ctx, v.ID)
	if stored.Version != v.Version+1 {
		t.Errorf("version = %d, want %d", stored.Version, v.Version+1)
	}
	if len(stored.Events) != 1 {
		t.Errorf("events = %d, want exactly 1", len(stored.Events))
	}
}

// Reopening a closed record is refused while the user holds another
// open one, so abandon -> new draft -> restart-the-old-one cannot leave
// two open records behind.
func TestVerificationStore_ReopenBlockedByOpenRecord(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	userID := uuid.New()

	old, err := store.CreateDraft(ctx, userID, domain.StudentProfile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("CreateDraft failed: %v", err)
	}
	if _, err := store.ApplyStatusUpdate(ctx, old.ID, ports.StatusUpdate{
		ToStatus: domain.StatusAbandoned, Actor: domain.ActorUser, ExpectedVersion: old.Version,
	}); err != nil {
		t.Fatalf("abandon failed: %v", err)
	}
	fresh, err := store.CreateDraft(ctx, userID, domain.StudentProfile{FullName: "Ada"})
	if err != nil {
		t.Fatalf("second CreateDraft failed: %v", err)
	}

	_, err = store.ApplyStatusUpdate(ctx, old.ID, ports.StatusUpdate{
		ToStatus: domain.StatusDraft, Actor: domain.ActorUser, ExpectedVersion: old.Version + 1,
	})
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("reopen with open record = %v, want ErrAlreadyExists", err)
	}

	// Close the fresh record; the old one may reopen again.
	if _, err := store.ApplyStatusUpdate(ctx, fresh.ID, ports.StatusUpdate{
		ToStatus: domain.StatusAbandoned, Actor: domain.ActorUser, ExpectedVersion: fresh.Version,
	}); err != nil {
		t.Fatalf("abandoning fresh record failed: %v", err)
	}
	if _, err := store.ApplyStatusUpdate(ctx, old.ID, ports.StatusUpdate{
		ToStatus: domain.StatusDraft, Actor: domain.ActorUser, ExpectedVersion: old.Version + 1,
	}); err != nil {
		t.Fatalf("reopen after close failed: %v", err)
	}

	var open int
	for _, id := range []uuid.UUID{old.ID, fresh.ID} {
		v, err := store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("re-fetch failed: %v", err)
		}
		if v.Status != domain.StatusAbandoned {
			open++
		}
	}
	if open != 1 {
		t.Errorf("open records = %d, want exactly 1", open)
	}
}

func TestVerificationStore_StatusUpdateRecordsEverything(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	v, _ := store.CreateDraft(ctx, uuid.New(), domain.StudentProfile{FullName: "Ada"})

	ev, err := store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
		ToStatus:        domain.StatusPendingReview,
		Actor:           domain.ActorUser,
		Reason:          "initial submission",
		ExpectedVersion: v.Version,
		RiskFlags:       []string{"new_account", "new_account", "vpn_ip"},
	})
	if err != nil {
		t.Fatalf("ApplyStatusUpdate failed: %v", err)
	}
	if ev.FromStatus != domain.StatusDraft || ev.ToStatus != domain.StatusPendingReview {
		t.Errorf("event = %+v", ev)
	}

	stored, _ := store.GetByID(ctx, v.ID)
	if stored.SubmittedAt == nil {
		t.Error("SubmittedAt not set on first entry into PENDING_REVIEW")
	}
	if len(stored.RiskFlags) != 2 {
		t.Errorf("risk flags = %v, want deduplicated pair", stored.RiskFlags)
	}

	// SubmittedAt is first-entry-only.
	first := *stored.SubmittedAt
	if _, err := store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
		ToStatus: domain.StatusNeedsMoreInfo, Actor: domain.ActorAdmin, ExpectedVersion: stored.Version,
	}); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	stored, _ = store.GetByID(ctx, v.ID)
	if _, err := store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
		ToStatus: domain.StatusPendingReview, Actor: domain.ActorUser, ExpectedVersion: stored.Version,
	}); err != nil {
		t.Fatalf("third update failed: %v", err)
	}
	stored, _ = store.GetByID(ctx, v.ID)
	if !stored.SubmittedAt.Equal(first) {
		t.Errorf("SubmittedAt moved from %v to %v on re-entry", first, stored.SubmittedAt)
	}
	if len(stored.Events) != 3 {
		t.Errorf("events = %d, want 3", len(stored.Events))
	}
}

func TestVerificationStore_ReviewQueueOrdering(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	submit := func(risk float64) uuid.UUID {
		v, err := store.CreateDraft(ctx, uuid.New(), domain.StudentProfile{FullName: "Q"})
		if err != nil {
			t.Fatalf("CreateDraft failed: %v", err)
		}
		if _, err := store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
			ToStatus: domain.StatusPendingReview, Actor: domain.ActorUser, ExpectedVersion: v.Version,
		}); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
		store.mu.Lock()
		store.records[v.ID].RiskScore = risk
		store.mu.Unlock()
		// Keep submission times strictly increasing.
		time.Sleep(2 * time.Millisecond)
		return v.ID
	}

	first := submit(0.1)
	second := submit(0.9)
	third := submit(0.5)

	fifo, err := store.ListReviewQueue(ctx, ports.QueueSortFIFO, 10)
	if err != nil {
		t.Fatalf("ListReviewQueue failed: %v", err)
	}
	if len(fifo) != 3 || fifo[0].ID != first || fifo[1].ID != second || fifo[2].ID != third {
		t.Errorf("fifo order wrong: %v", idsOf(fifo))
	}

	risk, err := store.ListReviewQueue(ctx, ports.QueueSortRisk, 10)
	if err != nil {
		t.Fatalf("ListReviewQueue failed: %v", err)
	}
	if len(risk) != 3 || risk[0].ID != second || risk[1].ID != third || risk[2].ID != first {
		t.Errorf("risk order wrong: %v", idsOf(risk))
	}
}

func idsOf(vs []*domain.Verification) []uuid.UUID {
	out := make([]uuid.UUID, len(vs))
	for i, v := range vs {
		out[i] = v.ID
	}
	return out
}

// Mutating a returned record must not leak back into the store.
func TestVerificationStore_ReturnsCopies(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	v, _ := store.CreateDraft(ctx, uuid.New(), domain.StudentProfile{FullName: "Ada"})

	got, _ := store.GetByID(ctx, v.ID)
	got.Status = domain.StatusApproved
	got.Documents = append(got.Documents, domain.VerificationDoc{ID: uuid.New()})

	again, _ := store.GetByID(ctx, v.ID)
	if again.Status != domain.StatusDraft {
		t.Errorf("status leaked: %s", again.Status)
	}
	if len(again.Documents) != 0 {
		t.Errorf("documents leaked: %d", len(again.Documents))
	}
}

func TestVerificationStore_SetDocumentVerified(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()
	v, _ := store.CreateDraft(ctx, uuid.New(), domain.StudentProfile{FullName: "Ada"})
	doc := domain.VerificationDoc{ID: uuid.New(), DocumentType: domain.DocTranscript, FileRef: "uploads/tr"}
	if err := store.AppendDocument(ctx, v.ID, doc); err != nil {
		t.Fatalf("AppendDocument failed: %v", err)
	}

	if err := store.SetDocumentVerified(ctx, v.ID, doc.ID, true); err != nil {
		t.Fatalf("SetDocumentVerified failed: %v", err)
	}
	got, _ := store.GetByID(ctx, v.ID)
	if !got.Documents[0].IsVerified {
		t.Error("verified flag not set")
	}

	if err := store.SetDocumentVerified(ctx, v.ID, uuid.New(), true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown doc = %v, want ErrNotFound", err)
	}
}
