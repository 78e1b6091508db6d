package domain

import (
	"time"

	"github.com/google/uuid"
)

// CampaignStatus is a custom type for the campaign ENUM. Campaigns are
// owned by the surrounding system; this core only flips their status in
// response to verification changes.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignSuspended CampaignStatus = "suspended"
	CampaignCancelled CampaignStatus = "cancelled"
	CampaignCompleted CampaignStatus = "completed"
	CampaignDraft     CampaignStatus = "draft"
)

// PayoutStatus is a custom type for the payout ENUM.
type PayoutStatus string

const (
	PayoutPending      PayoutStatus = "pending"
	PayoutHeld         PayoutStatus = "held"
	PayoutRefundReview PayoutStatus = "refund_review"
	PayoutPaid         PayoutStatus = "paid"
)

// ReasonCause identifies who put a campaign or payout into its current
// hold state. A resume only reverts records this core paused, so the
// match is a field equality on the cause, never a pattern on free text.
type ReasonCause string

const (
	CauseVerification ReasonCause = "verification"
	CausePolicy       ReasonCause = "policy"
	CauseManual       ReasonCause = "manual"
)

// StatusReason is the structured tagged reason stored alongside a
// campaign or payout status. A zero value means no reason is recorded.
type StatusReason struct {
	Cause  ReasonCause
	Detail string
}

// IsVerificationCaused reports whether this core set the reason.
func (r StatusReason) IsVerificationCaused() bool {
	return r.Cause == CauseVerification
}

// Campaign is the slice of a fundraising campaign this core reads and
// writes. Amounts are minor units.
type Campaign struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Title        string
	Status       CampaignStatus
	StatusReason StatusReason
	RaisedAmount int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Payout is the slice of a payout record this core reads and writes.
type Payout struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Status     PayoutStatus
	HoldReason StatusReason
	Amount     int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CascadeAction names the branch the campaign-fate policy took.
type CascadeAction string

const (
	CascadePaused    CascadeAction = "paused"
	CascadeCancelled CascadeAction = "cancelled"
	CascadeResumed   CascadeAction = "resumed"
	CascadeNone      CascadeAction = "none"
)

// CascadeResult summarizes one cascade run.
type CascadeResult struct {
	CampaignsAffected int64         `json:"campaignsAffected"`
	PayoutsAffected   int64         `json:"payoutsAffected"`
	Action            CascadeAction `json:"action"`
}

// CampaignStats is the pre-action summary shown to admins before an
// irreversible decision. It warns; it enforces nothing.
type CampaignStats struct {
	ActiveCampaigns    int64 `json:"activeCampaigns"`
	TotalRaised        int64 `json:"totalRaised"`
	PendingPayoutTotal int64 `json:"pendingPayoutTotal"`
}
