package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

const sweepBatchSize = 100

// Sweeper drives the SYSTEM-actor transitions: approvals expire after a
// validity window, and stale drafts or info requests are abandoned. Each
// record goes through the same TransitionHandler as everything else, so
// the audit trail and cascades hold for system moves too.
type Sweeper struct {
	store     ports.VerificationStore
	handler   *TransitionHandler
	validity  time.Duration
	staleness time.Duration
	log       zerolog.Logger
}

// NewSweeper creates the background sweeper.
func NewSweeper(store ports.VerificationStore, handler *TransitionHandler, validity, staleness time.Duration, baseLogger *zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:     store,
		handler:   handler,
		validity:  validity,
		staleness: staleness,
		log:       baseLogger.With().Str("component", "sweeper").Logger(),
	}
}

// Start runs sweeps on the interval until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.RunOnce(ctx)
			}
		}
	}()
	s.log.Info().Dur("interval", interval).Msg("Sweeper started")
}

// RunOnce performs one pass of both sweeps. Individual failures are
// logged and skipped; the next pass picks the record up again.
func (s *Sweeper) RunOnce(ctx context.Context) {
	s.sweep(ctx, domain.StatusApproved, s.validity, domain.StatusExpired, "verification validity window elapsed")
	s.sweep(ctx, domain.StatusDraft, s.staleness, domain.StatusAbandoned, "draft inactive past staleness window")
	s.sweep(ctx, domain.StatusNeedsMoreInfo, s.staleness, domain.StatusAbandoned, "no response to information request")
}

func (s *Sweeper) sweep(ctx context.Context, from domain.VerificationStatus, window time.Duration, to domain.VerificationStatus, reason string) {
	cutoff := time.Now().UTC().Add(-window)
	records, err := s.store.ListInStatusOlderThan(ctx, from, cutoff, sweepBatchSize)
	if err != nil {
		s.log.Error().Err(err).Str("status", string(from)).Msg("Failed to list records for sweep")
		return
	}

	for _, v := range records {
		_, err := s.handler.Execute(ctx, TransitionRequest{
			VerificationID: v.ID,
			Actor:          domain.ActorSystem,
			To:             to,
			Reason:         reason,
		})
		if err != nil {
			// Concurrent admin action wins; the record simply leaves the
			// sweep's view.
			s.log.Warn().Err(err).Str("verification_id", v.ID.String()).Msg("Sweep transition skipped")
		}
	}

	if len(records) > 0 {
		s.log.Info().Int("count", len(records)).Str("from", string(from)).Str("to", string(to)).Msg("Sweep pass complete")
	}
}
