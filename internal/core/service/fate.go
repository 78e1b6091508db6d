package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// FateOrchestrator applies the campaign/payout side effects of a
// verification status change. Every mutation is a bulk update scoped by
// current status, so a re-run after a partial failure converges to the
// same end state: a campaign already suspended is not re-suspended, and
// the resume branch never touches one that is already active.
type FateOrchestrator struct {
	campaigns ports.CampaignRepository
	payouts   ports.PayoutRepository
	log       zerolog.Logger
}

// NewFateOrchestrator creates the cascade orchestrator.
func NewFateOrchestrator(campaigns ports.CampaignRepository, payouts ports.PayoutRepository, baseLogger *zerolog.Logger) *FateOrchestrator {
	return &FateOrchestrator{
		campaigns: campaigns,
		payouts:   payouts,
		log:       baseLogger.With().Str("component", "campaign_fate").Logger(),
	}
}

// HandleStatusChange runs the fate policy for one transition. On error
// the returned result still reports whatever was applied before the
// failure; the caller decides how to surface the partial state.
func (o *FateOrchestrator) HandleStatusChange(ctx context.Context, userID uuid.UUID, oldStatus, newStatus domain.VerificationStatus) (domain.CascadeResult, error) {
	log := o.log.With().Str("user_id", userID.String()).
		Str("from", string(oldStatus)).Str("to", string(newStatus)).Logger()

	res := domain.CascadeResult{Action: domain.CascadeNone}

	switch {
	case newStatus == domain.StatusSuspended || newStatus == domain.StatusExpired:
		res.Action = domain.CascadePaused
		reason := domain.StatusReason{
			Cause:  domain.CauseVerification,
			Detail: fmt.Sprintf("verification %s", newStatus),
		}
		n, err := o.campaigns.SuspendActive(ctx, userID, reason)
		res.CampaignsAffected = n
		if err != nil {
			log.Error().Err(err).Msg("Failed to suspend active campaigns")
			return res, err
		}
		n, err = o.payouts.HoldPending(ctx, userID, reason)
		res.PayoutsAffected = n
		if err != nil {
			log.Error().Err(err).Msg("Failed to hold pending payouts")
			return res, err
		}

	case newStatus == domain.StatusRevoked || newStatus == domain.StatusPermanentlyBanned:
		res.Action = domain.CascadeCancelled
		reason := domain.StatusReason{
			Cause:  domain.CauseVerification,
			Detail: fmt.Sprintf("verification %s", newStatus),
		}
		n, err := o.campaigns.CancelActiveAndSuspended(ctx, userID, reason)
		res.CampaignsAffected = n
		if err != nil {
			log.Error().Err(err).Msg("Failed to cancel campaigns")
			return res, err
		}
		n, err = o.payouts.RefundReviewPendingAndHeld(ctx, userID, reason)
		res.PayoutsAffected = n
		if err != nil {
			log.Error().Err(err).Msg("Failed to move payouts to refund review")
			return res, err
		}

	case newStatus == domain.StatusApproved && oldStatus == domain.StatusSuspended:
		// Only records this core paused come back. A campaign suspended
		// for a policy violation keeps its suspension.
		res.Action = domain.CascadeResumed
		n, err := o.campaigns.ResumeVerificationSuspended(ctx, userID)
		res.CampaignsAffected = n
		if err != nil {
			log.Error().Err(err).Msg("Failed to resume suspended campaigns")
			return res, err
		}
		n, err = o.payouts.ReleaseVerificationHeld(ctx, userID)
		res.PayoutsAffected = n
		if err != nil {
			log.Error().Err(err).Msg("Failed to release held payouts")
			return res, err
		}

	default:
		return res, nil
	}

	log.Info().
		Str("action", string(res.Action)).
		Int64("campaigns", res.CampaignsAffected).
		Int64("payouts", res.PayoutsAffected).
		Msg("Cascade applied")
	return res, nil
}

// UserCampaignStats summarizes the user's live fundraising exposure for
// the pre-action confirmation UI. It warns; nothing is enforced here.
func (o *FateOrchestrator) UserCampaignStats(ctx context.Context, userID uuid.UUID) (domain.CampaignStats, error) {
	count, raised, err := o.campaigns.CountActive(ctx, userID)
	if err != nil {
		return domain.CampaignStats{}, err
	}
	pending, err := o.payouts.SumPending(ctx, userID)
	if err != nil {
		return domain.CampaignStats{}, err
	}
	return domain.CampaignStats{
		ActiveCampaigns:    count,
		TotalRaised:        raised,
		PendingPayoutTotal: pending,
	}, nil
}
