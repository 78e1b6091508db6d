package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/adapters/memory"
	"scholarfund/internal/core/domain"
)

func seedCampaign(repo *memory.CampaignRepository, owner uuid.UUID, status domain.CampaignStatus, raised int64) uuid.UUID {
	id := uuid.New()
	repo.Put(domain.Campaign{ID: id, OwnerID: owner, Status: status, RaisedAmount: raised})
	return id
}

func seedPayout(repo *memory.PayoutRepository, user uuid.UUID, status domain.PayoutStatus, amount int64) uuid.UUID {
	id := uuid.New()
	repo.Put(domain.Payout{ID: id, UserID: user, Status: status, Amount: amount})
	return id
}

func TestFateOrchestrator_SuspensionPausesAndIsIdempotent(t *testing.T) {
	nopLogger := zerolog.Nop()
	campaigns := memory.NewCampaignRepository()
	payouts := memory.NewPayoutRepository()
	fate := NewFateOrchestrator(campaigns, payouts, &nopLogger)

	owner := uuid.New()
	other := uuid.New()
	activeID := seedCampaign(campaigns, owner, domain.CampaignActive, 5000)
	completedID := seedCampaign(campaigns, owner, domain.CampaignCompleted, 9000)
	otherID := seedCampaign(campaigns, other, domain.CampaignActive, 100)
	pendingID := seedPayout(payouts, owner, domain.PayoutPending, 2500)
	paidID := seedPayout(payouts, owner, domain.PayoutPaid, 1000)

	res, err := fate.HandleStatusChange(context.Background(), owner, domain.StatusApproved, domain.StatusSuspended)
	if err != nil {
		t.Fatalf("HandleStatusChange failed: %v", err)
	}
	if res.Action != domain.CascadePaused {
		t.Errorf("action = %s, want %s", res.Action, domain.CascadePaused)
	}
	if res.CampaignsAffected != 1 || res.PayoutsAffected != 1 {
		t.Errorf("affected = (%d, %d), want (1, 1)", res.CampaignsAffected, res.PayoutsAffected)
	}

	c, _ := campaigns.Get(activeID)
	if c.Status != domain.CampaignSuspended || !c.StatusReason.IsVerificationCaused() {
		t.Errorf("active campaign = %s (%+v), want suspended with verification cause", c.Status, c.StatusReason)
	}
	if c, _ := campaigns.Get(completedID); c.Status != domain.CampaignCompleted {
		t.Errorf("completed campaign was touched: %s", c.Status)
	}
	if c, _ := campaigns.Get(otherID); c.Status != domain.CampaignActive {
		t.Errorf("another user's campaign was touched: %s", c.Status)
	}
	if p, _ := payouts.Get(pendingID); p.Status != domain.PayoutHeld {
		t.Errorf("pending payout = %s, want %s", p.Status, domain.PayoutHeld)
	}
	if p, _ := payouts.Get(paidID); p.Status != domain.PayoutPaid {
		t.Errorf("paid payout was touched: %s", p.Status)
	}

	// Re-running the same cascade finds nothing left in scope.
	res, err = fate.HandleStatusChange(context.Background(), owner, domain.StatusApproved, domain.StatusSuspended)
	if err != nil {
		t.Fatalf("second HandleStatusChange failed: %v", err)
	}
	if res.CampaignsAffected != 0 || res.PayoutsAffected != 0 {
		t.Errorf("re-run affected = (%d, %d), want (0, 0)", res.CampaignsAffected, res.PayoutsAffected)
	}
}

func TestFateOrchestrator_RevocationCancels(t *testing.T) {
	nopLogger := zerolog.Nop()
	campaigns := memory.NewCampaignRepository()
	payouts := memory.NewPayoutRepository()
	fate := NewFateOrchestrator(campaigns, payouts, &nopLogger)

	owner := uuid.New()
	activeID := seedCampaign(campaigns, owner, domain.CampaignActive, 100)
	suspendedID := seedCampaign(campaigns, owner, domain.CampaignSuspended, 200)
	heldID := seedPayout(payouts, owner, domain.PayoutHeld, 300)
	pendingID := seedPayout(payouts, owner, domain.PayoutPending, 400)

	res, err := fate.HandleStatusChange(context.Background(), owner, domain.StatusApproved, domain.StatusRevoked)
	if err != nil {
		t.Fatalf("HandleStatusChange failed: %v", err)
	}
	if res.Action != domain.CascadeCancelled {
		t.Errorf("action = %s, want %s", res.Action, domain.CascadeCancelled)
	}
	if res.CampaignsAffected != 2 || res.PayoutsAffected != 2 {
		t.Errorf("affected = (%d, %d), want (2, 2)", res.CampaignsAffected, res.PayoutsAffected)
	}
	for _, id := range []uuid.UUID{activeID, suspendedID} {
		if c, _ := campaigns.Get(id); c.Status != domain.CampaignCancelled {
			t.Errorf("campaign %s = %s, want cancelled", id, c.Status)
		}
	}
	for _, id := range []uuid.UUID{heldID, pendingID} {
		if p, _ := payouts.Get(id); p.Status != domain.PayoutRefundReview {
			t.Errorf("payout %s = %s, want refund review", id, p.Status)
		}
	}
}

// The resume branch must only undo what this cascade did: a suspension
// tagged with any other cause stays put.
func TestFateOrchestrator_ResumeHonorsCauseTags(t *testing.T) {
	nopLogger := zerolog.Nop()
	campaigns := memory.NewCampaignRepository()
	payouts := memory.NewPayoutRepository()
	fate := NewFateOrchestrator(campaigns, payouts, &nopLogger)

	owner := uuid.New()
	verifID := seedCampaign(campaigns, owner, domain.CampaignActive, 100)
	policyID := uuid.New()
	campaigns.Put(domain.Campaign{
		ID: policyID, OwnerID: owner, Status: domain.CampaignSuspended,
		StatusReason: domain.StatusReason{Cause: domain.CausePolicy, Detail: "prohibited content"},
	})
	payoutID := seedPayout(payouts, owner, domain.PayoutPending, 100)

	if _, err := fate.HandleStatusChange(context.Background(), owner, domain.StatusApproved, domain.StatusSuspended); err != nil {
		t.Fatalf("suspend cascade failed: %v", err)
	}

	res, err := fate.HandleStatusChange(context.Background(), owner, domain.StatusSuspended, domain.StatusApproved)
	if err != nil {
		t.Fatalf("resume cascade failed: %v", err)
	}
	if res.Action != domain.CascadeResumed {
		t.Errorf("action = %s, want %s", res.Action, domain.CascadeResumed)
	}
	if res.CampaignsAffected != 1 || res.PayoutsAffected != 1 {
		t.Errorf("affected = (%d, %d), want (1, 1)", res.CampaignsAffected, res.PayoutsAffected)
	}
	if c, _ := campaigns.Get(verifID); c.Status != domain.CampaignActive {
		t.Errorf("verification-suspended campaign = %s, want active again", c.Status)
	}
	if c, _ := campaigns.Get(policyID); c.Status != domain.CampaignSuspended {
		t.Errorf("policy-suspended campaign = %s, must stay suspended", c.Status)
	}
	if p, _ := payouts.Get(payoutID); p.Status != domain.PayoutPending {
		t.Errorf("payout = %s, want released to pending", p.Status)
	}
}

// A transition with no fate policy, like DRAFT -> PENDING_REVIEW, must
// leave everything alone.
func TestFateOrchestrator_NoActionOnNeutralTransitions(t *testing.T) {
	nopLogger := zerolog.Nop()
	campaigns := memory.NewCampaignRepository()
	payouts := memory.NewPayoutRepository()
	fate := NewFateOrchestrator(campaigns, payouts, &nopLogger)

	owner := uuid.New()
	campaignID := seedCampaign(campaigns, owner, domain.CampaignActive, 100)

	res, err := fate.HandleStatusChange(context.Background(), owner, domain.StatusDraft, domain.StatusPendingReview)
	if err != nil {
		t.Fatalf("HandleStatusChange failed: %v", err)
	}
	if res.Action != domain.CascadeNone || res.CampaignsAffected != 0 || res.PayoutsAffected != 0 {
		t.Errorf("neutral transition produced a cascade: %+v", res)
	}
	if c, _ := campaigns.Get(campaignID); c.Status != domain.CampaignActive {
		t.Errorf("campaign was touched: %s", c.Status)
	}
}

func TestFateOrchestrator_UserCampaignStats(t *testing.T) {
	nopLogger := zerolog.Nop()
	campaigns := memory.NewCampaignRepository()
	payouts := memory.NewPayoutRepository()
	fate := NewFateOrchestrator(campaigns, payouts, &nopLogger)

	owner := uuid.New()
	seedCampaign(campaigns, owner, domain.CampaignActive, 5000)
	seedCampaign(campaigns, owner, domain.CampaignActive, 1500)
	seedCampaign(campaigns, owner, domain.CampaignCancelled, 9999)
	seedPayout(payouts, owner, domain.PayoutPending, 700)
	seedPayout(payouts, owner, domain.PayoutPaid, 9999)

	stats, err := fate.UserCampaignStats(context.Background(), owner)
	if err != nil {
		t.Fatalf("UserCampaignStats failed: %v", err)
	}
	if stats.ActiveCampaigns != 2 {
		t.Errorf("active campaigns = %d, want 2", stats.ActiveCampaigns)
	}
	if stats.TotalRaised != 6500 {
		t.Errorf("total raised = %d, want 6500", stats.TotalRaised)
	}
	if stats.PendingPayoutTotal != 700 {
		t.Errorf("pending payout total = %d, want 700", stats.PendingPayoutTotal)
	}
}
