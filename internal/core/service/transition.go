package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

// TransitionRequest is one status-change attempt. For ActorUser the
// record is resolved under the ownership rule using OwnerID; admins and
// the system resolve unscoped.
type TransitionRequest struct {
	VerificationID uuid.UUID
	OwnerID        uuid.UUID // who the caller claims to be; ignored for ADMIN/SYSTEM
	Actor          domain.Actor
	To             domain.VerificationStatus
	Reason         string
	Message        string
	RiskFlags      []string
}

// TransitionResult is returned once the status change committed.
type TransitionResult struct {
	Status         domain.VerificationStatus `json:"status"`
	Cascade        domain.CascadeResult      `json:"cascade"`
	EventID        string                    `json:"eventId"`
	CascadePartial bool                      `json:"cascadePartial,omitempty"`
}

// TransitionHandler is the one path every status change takes, whether
// it came from a student, an admin, or a system sweep: validate against
// the transition table, commit status+event atomically, cascade to
// campaigns and payouts, then notify best-effort.
type TransitionHandler struct {
	store    ports.VerificationStore
	fate     *FateOrchestrator
	notifier *NotificationDispatcher
	bus      ports.EventBus
	log      zerolog.Logger
}

// NewTransitionHandler creates the orchestrator.
func NewTransitionHandler(store ports.VerificationStore, fate *FateOrchestrator, notifier *NotificationDispatcher, bus ports.EventBus, baseLogger *zerolog.Logger) *TransitionHandler {
	return &TransitionHandler{
		store:    store,
		fate:     fate,
		notifier: notifier,
		bus:      bus,
		log:      baseLogger.With().Str("component", "transition_handler").Logger(),
	}
}

// Execute runs one transition end to end. Validation failures return a
// *domain.TransitionError before any write. A lost optimistic-lock race
// surfaces domain.ErrConcurrentModification; we never retry it here,
// because the caller's reason may no longer fit the record they'd find.
// Once the commit lands, the remaining steps run to completion: a
// cascade failure is reported, dead-lettered, and left for reconciliation
// rather than rolled back.
func (h *TransitionHandler) Execute(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	log := h.log.With().
		Str("verification_id", req.VerificationID.String()).
		Str("actor", string(req.Actor)).
		Str("to", string(req.To)).Logger()

	// 1. Resolve the record. User callers go through the ownership rule.
	var (
		v   *domain.Verification
		err error
	)
	if req.Actor == domain.ActorUser {
		v, err = h.store.GetByIDForUser(ctx, req.VerificationID, req.OwnerID)
	} else {
		v, err = h.store.GetByID(ctx, req.VerificationID)
	}
	if err != nil {
		return nil, err
	}

	// 2. Validate. No writes on failure.
	if terr := domain.ValidateTransition(v.Status, req.To, req.Actor); terr != nil {
		log.Info().Str("from", string(v.Status)).Str("kind", string(terr.Kind)).Msg("Transition refused")
		return nil, terr
	}

	// 3. Commit the status change and its audit event atomically.
	ev, err := h.store.ApplyStatusUpdate(ctx, v.ID, ports.StatusUpdate{
		ToStatus:        req.To,
		Actor:           req.Actor,
		Reason:          req.Reason,
		Message:         req.Message,
		ExpectedVersion: v.Version,
		RiskFlags:       req.RiskFlags,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			log.Info().Int64("expected_version", v.Version).Msg("Lost optimistic-lock race")
		}
		return nil, err
	}

	res := &TransitionResult{Status: req.To, EventID: ev.ID}

	// 4. Cascade. The status change is the source of truth; if part of
	// the cascade fails we keep the commit, record the partial state and
	// let a re-run converge (the bulk updates are idempotent).
	cascade, cerr := h.fate.HandleStatusChange(ctx, v.UserID, v.Status, req.To)
	res.Cascade = cascade
	if cerr != nil {
		res.CascadePartial = true
		log.Error().Err(cerr).Str("event_id", ev.ID).Msg("Cascade partially failed; leaving for reconciliation")
		if perr := h.bus.Publish(ctx, ports.TopicCascadePartialFailure, res); perr != nil {
			log.Error().Err(perr).Msg("Failed to publish cascade partial failure")
		}
	}

	// 5. Notify, ignoring the outcome.
	h.notifier.Notify(ctx, v.UserID, req.To, NotifyContext{
		FullName: v.Profile.FullName,
		Reason:   req.Reason,
		Message:  req.Message,
	})

	if perr := h.bus.Publish(ctx, ports.TopicVerificationDecided, res); perr != nil {
		log.Error().Err(perr).Msg("Failed to publish decision event")
	}

	log.Info().Str("from", string(v.Status)).Str("event_id", ev.ID).Msg("Transition committed")
	return res, nil
}
