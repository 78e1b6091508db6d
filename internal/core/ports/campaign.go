package ports

import (
	"context"

	"github.com/google/uuid"

	"scholarfund/internal/core/domain"
)

// CampaignRepository defines the campaign operations the cascade needs.
// Every mutation is a bulk conditional update scoped by current status,
// so re-running a cascade converges instead of double-applying.
type CampaignRepository interface {
	// SuspendActive moves the owner's active campaigns to suspended with
	// the given reason. Returns the number of rows changed.
	SuspendActive(ctx context.Context, ownerID uuid.UUID, reason domain.StatusReason) (int64, error)

	// CancelActiveAndSuspended moves the owner's active and suspended
	// campaigns to cancelled with the given reason.
	CancelActiveAndSuspended(ctx context.Context, ownerID uuid.UUID, reason domain.StatusReason) (int64, error)

	// ResumeVerificationSuspended moves the owner's suspended campaigns
	// back to active, but only those whose reason cause is verification.
	// The reason is cleared on the way back.
	ResumeVerificationSuspended(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// CountActive returns the owner's active-campaign count and the total
	// raised across them.
	CountActive(ctx context.Context, ownerID uuid.UUID) (count int64, raised int64, err error)

	// ListByOwner returns the owner's campaigns, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Campaign, error)
}

// PayoutRepository is the payout counterpart, same bulk discipline.
type PayoutRepository interface {
	// HoldPending moves the user's pending payouts to held.
	HoldPending(ctx context.Context, userID uuid.UUID, reason domain.StatusReason) (int64, error)

	// RefundReviewPendingAndHeld moves the user's pending and held
	// payouts to refund_review.
	RefundReviewPendingAndHeld(ctx context.Context, userID uuid.UUID, reason domain.StatusReason) (int64, error)

	// ReleaseVerificationHeld moves held payouts back to pending, only
	// where the hold cause is verification, clearing the reason.
	ReleaseVerificationHeld(ctx context.Context, userID uuid.UUID) (int64, error)

	// SumPending returns the total amount of the user's pending payouts.
	SumPending(ctx context.Context, userID uuid.UUID) (int64, error)
}
