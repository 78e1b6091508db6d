package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

type campaignRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.CampaignRepository = (*campaignRepository)(nil) // Ensure compliance

// NewCampaignRepository creates the campaign repo used by the cascade.
func NewCampaignRepository(db *DB, baseLogger *zerolog.Logger) ports.CampaignRepository {
	return &campaignRepository{
		db:  db,
		log: baseLogger.With().Str("component", "campaign_repo").Logger(),
	}
}

// SuspendActive pauses the owner's active campaigns. Scoping the UPDATE
// by current status makes a re-run a no-op on rows already moved.
func (r *campaignRepository) SuspendActive(ctx context.Context, ownerID uuid.UUID, reason domain.StatusReason) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE campaigns
		SET status = 'suspended', reason_cause = $2, reason_detail = $3, updated_at = now()
		WHERE owner_id = $1 AND status = 'active'`,
		ownerID, reason.Cause, reason.Detail)
	if err != nil {
		r.log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to suspend active campaigns")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CancelActiveAndSuspended cancels everything still standing, whatever
// previously paused it.
func (r *campaignRepository) CancelActiveAndSuspended(ctx context.Context, ownerID uuid.UUID, reason domain.StatusReason) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE campaigns
		SET status = 'cancelled', reason_cause = $2, reason_detail = $3, updated_at = now()
		WHERE owner_id = $1 AND status IN ('active', 'suspended')`,
		ownerID, reason.Cause, reason.Detail)
	if err != nil {
		r.log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to cancel campaigns")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ResumeVerificationSuspended reactivates only the campaigns this core
// paused: the cause match is a column equality, so a policy suspension
// stays put.
func (r *campaignRepository) ResumeVerificationSuspended(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE campaigns
		SET status = 'active', reason_cause = NULL, reason_detail = NULL, updated_at = now()
		WHERE owner_id = $1 AND status = 'suspended' AND reason_cause = $2`,
		ownerID, domain.CauseVerification)
	if err != nil {
		r.log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to resume suspended campaigns")
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CountActive returns the active-campaign count and total raised.
func (r *campaignRepository) CountActive(ctx context.Context, ownerID uuid.UUID) (int64, int64, error) {
	var count, raised int64
	err := r.db.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(raised_amount), 0)
		FROM campaigns WHERE owner_id = $1 AND status = 'active'`, ownerID).
		Scan(&count, &raised)
	if err != nil {
		r.log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to count active campaigns")
		return 0, 0, err
	}
	return count, raised, nil
}

// ListByOwner returns the owner's campaigns, newest first.
func (r *campaignRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Campaign, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, owner_id, title, status, reason_cause, reason_detail,
		       raised_amount, created_at, updated_at
		FROM campaigns WHERE owner_id = $1
		ORDER BY created_at DESC`, ownerID)
	if err != nil {
		r.log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to query campaigns")
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var cause, detail *string
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Status, &cause, &detail,
			&c.RaisedAmount, &c.CreatedAt, &c.UpdatedAt); err != nil {
			r.log.Error().Err(err).Msg("Failed to scan campaign row")
			return nil, err
		}
		if cause != nil {
			c.StatusReason.Cause = domain.ReasonCause(*cause)
		}
		if detail != nil {
			c.StatusReason.Detail = *detail
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
