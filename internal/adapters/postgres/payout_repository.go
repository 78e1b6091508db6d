package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

type payoutRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.PayoutRepository = (*payoutRepository)(nil) // Ensure compliance

// NewPayoutRepository creates the payout repo used by the cascade.
func NewPayoutRepository(db *DB, baseLogger *zerolog.Logger) ports.PayoutRepository {
	return &payoutRepository{
		db:  db,
		log: baseLogger.With().Str("component", "payout_repo").Logger(),
	}
}

// HoldPending holds the user's pending payouts, status-scoped like the
// campaign updates so re-runs converge.
func (r *payoutRepository) HoldPending(ctx context.Context, userID uuid.UUID, reason domain.StatusReason) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE payouts
		SET status = 'held', hold_cause = $2, hold_detail = $3, updated_at = now()
		WHERE user_id = $1 AND status = 'pending'`,
		userID, reason.Cause, reason.Detail)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to hold pending payouts")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// RefundReviewPendingAndHeld routes everything not yet paid to refund
// review.
func (r *payoutRepository) RefundReviewPendingAndHeld(ctx context.Context, userID uuid.UUID, reason domain.StatusReason) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE payouts
		SET status = 'refund_review', hold_cause = $2, hold_detail = $3, updated_at = now()
		WHERE user_id = $1 AND status IN ('pending', 'held')`,
		userID, reason.Cause, reason.Detail)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to move payouts to refund review")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ReleaseVerificationHeld releases only holds this core placed.
func (r *payoutRepository) ReleaseVerificationHeld(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE payouts
		SET status = 'pending', hold_cause = NULL, hold_detail = NULL, updated_at = now()
		WHERE user_id = $1 AND status = 'held' AND hold_cause = $2`,
		userID, domain.CauseVerification)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to release held payouts")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SumPending totals the user's pending payout amounts.
func (r *payoutRepository) SumPending(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM payouts
		WHERE user_id = $1 AND status = 'pending'`, userID).Scan(&total)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to sum pending payouts")
		return 0, err
	}
	return total, nil
}
