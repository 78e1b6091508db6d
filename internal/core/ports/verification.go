package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
)

// QueueSort selects the review-queue ordering. FIFO by submission time is
// the default; risk puts higher scores first, submission time second.
type QueueSort string

const (
	QueueSortFIFO QueueSort = "fifo"
	QueueSortRisk QueueSort = "risk"
)

// StatusUpdate is one validated transition to persist. The status write
// and the event append must land atomically: an event-less status change
// breaks the audit trail, and an event with no status change is equally
// forbidden.
type StatusUpdate struct {
	ToStatus domain.VerificationStatus
	Actor    domain.Actor
	Reason   string
	Message  string

	// ExpectedVersion is the version the caller read. The write fails
	// with domain.ErrConcurrentModification when it no longer matches.
	ExpectedVersion int64

	// RiskFlags, when non-nil, are appended to the record's flag set in
	// the same write.
	RiskFlags []string
}

// VerificationStore defines the persistence operations for Verifications
// and their append-only sub-collections.
type VerificationStore interface {
	// CreateDraft saves a new DRAFT record for the user. Fails with
	// domain.ErrAlreadyExists when the user already has a non-terminal
	// record.
	CreateDraft(ctx context.Context, userID uuid.UUID, profile domain.StudentProfile) (*domain.Verification, error)

	// GetByID fetches a record with no ownership scoping (admin path).
	// Returns domain.ErrNotFound when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error)

	// GetByIDForUser fetches a record only if it belongs to userID.
	// Absent and not-owned both return domain.ErrNotFound.
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Verification, error)

	// GetActiveByUser returns the user's non-terminal record, or
	// domain.ErrNotFound.
	GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Verification, error)

	// ListReviewQueue lists records in PENDING_REVIEW or
	// UNDER_INVESTIGATION, ordered per sort, oldest submissions first.
	ListReviewQueue(ctx context.Context, sort QueueSort, limit int) ([]*domain.Verification, error)

	// ListInStatusOlderThan lists records sitting in the given status
	// with no update since the cutoff. Used by the system sweeps.
	ListInStatusOlderThan(ctx context.Context, status domain.VerificationStatus, cutoff time.Time, limit int) ([]*domain.Verification, error)

	// ApplyStatusUpdate moves the record to upd.ToStatus and appends the
	// matching event in one atomic operation, returning the stored event.
	ApplyStatusUpdate(ctx context.Context, id uuid.UUID, upd StatusUpdate) (*domain.VerificationEvent, error)

	// AppendDocument appends a validated document reference.
	AppendDocument(ctx context.Context, id uuid.UUID, doc domain.VerificationDoc) error

	// SetDocumentVerified flips the verified flag on an existing doc.
	// The doc itself is never edited or removed.
	SetDocumentVerified(ctx context.Context, id, docID uuid.UUID, verified bool) error

	// AppendNote appends an admin-authored internal note.
	AppendNote(ctx context.Context, id uuid.UUID, note domain.InternalNote) error
}
