package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
)

type userDirectory struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.UserDirectory = (*userDirectory)(nil) // Ensure compliance

// NewUserDirectory resolves notification recipients from the platform's
// users table.
func NewUserDirectory(db *DB, baseLogger *zerolog.Logger) ports.UserDirectory {
	return &userDirectory{
		db:  db,
		log: baseLogger.With().Str("component", "user_directory").Logger(),
	}
}

func (d *userDirectory) EmailFor(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := d.db.pool.QueryRow(ctx,
		`SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		d.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to look up user email")
		return "", err
	}
	return email, nil
}
