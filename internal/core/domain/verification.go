package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationStatus is a custom type for our ENUM
type VerificationStatus string

const (
	StatusDraft              VerificationStatus = "DRAFT"
	StatusPendingReview      VerificationStatus = "PENDING_REVIEW"
	StatusApproved           VerificationStatus = "APPROVED"
	StatusRejected           VerificationStatus = "REJECTED"
	StatusNeedsMoreInfo      VerificationStatus = "NEEDS_MORE_INFO"
	StatusUnderInvestigation VerificationStatus = "UNDER_INVESTIGATION"
	StatusSuspended          VerificationStatus = "SUSPENDED"
	StatusExpired            VerificationStatus = "EXPIRED"
	StatusRevoked            VerificationStatus = "REVOKED"
	StatusPermanentlyBanned  VerificationStatus = "PERMANENTLY_BANNED"
	StatusAbandoned          VerificationStatus = "ABANDONED"
)

// AllStatuses lists every status, mostly useful for exhaustive checks.
var AllStatuses = []VerificationStatus{
	StatusDraft, StatusPendingReview, StatusApproved, StatusRejected,
	StatusNeedsMoreInfo, StatusUnderInvestigation, StatusSuspended,
	StatusExpired, StatusRevoked, StatusPermanentlyBanned, StatusAbandoned,
}

// DocumentType is a custom type for the fixed document-type ENUM
type DocumentType string

const (
	DocStudentID        DocumentType = "student_id"
	DocEnrollmentLetter DocumentType = "enrollment_letter"
	DocTranscript       DocumentType = "transcript"
	DocGovernmentID     DocumentType = "government_id"
	DocTuitionInvoice   DocumentType = "tuition_invoice"
)

// VerificationDoc is a reference to an already-validated upload.
// Later entries may flip IsVerified on an earlier doc, never remove it.
type VerificationDoc struct {
	ID           uuid.UUID
	DocumentType DocumentType
	FileRef      string
	IsVerified   bool
	UploadedAt   time.Time
}

// VerificationEvent is one entry of the append-only audit trail.
// It is immutable once written: every successful status change produces
// exactly one event, and events are never edited or removed.
type VerificationEvent struct {
	ID         string // ULID, sortable by creation time
	Actor      Actor
	FromStatus VerificationStatus
	ToStatus   VerificationStatus
	Reason     string
	Message    string
	CreatedAt  time.Time
}

// InternalNote is an admin-authored note, append-only.
type InternalNote struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Body      string
	CreatedAt time.Time
}

// StudentProfile carries the personal/academic attributes. The core treats
// it as an opaque payload; DateOfBirth and GovernmentIDNumber are encrypted
// at rest by the storage adapter.
type StudentProfile struct {
	FullName           string
	DateOfBirth        string
	Country            string
	Institution        string
	DegreeProgram      string
	ExpectedGradYear   int
	GovernmentIDNumber string
}

// Verification is the eligibility record, one per user.
type Verification struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Status      VerificationStatus
	Profile     StudentProfile
	RiskScore   float64
	RiskFlags   []string
	Documents   []VerificationDoc
	Events      []VerificationEvent
	Notes       []InternalNote
	SubmittedAt *time.Time // set when the record first enters PENDING_REVIEW
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Version is a monotonic counter. Every write is conditioned on it,
	// so a concurrent admin's decision is never silently overwritten.
	Version int64
}

// Document returns the doc with the given id, or nil.
func (v *Verification) Document(docID uuid.UUID) *VerificationDoc {
	for i := range v.Documents {
		if v.Documents[i].ID == docID {
			return &v.Documents[i]
		}
	}
	return nil
}

// HasDocument reports whether at least one doc of the given type exists.
func (v *Verification) HasDocument(t DocumentType) bool {
	for i := range v.Documents {
		if v.Documents[i].DocumentType == t {
			return true
		}
	}
	return false
}
