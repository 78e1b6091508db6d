package postgres

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"scholarfund/internal/core/domain"
	"scholarfund/internal/core/ports"
	"scholarfund/internal/shared/ids"
)

type verificationRepository struct {
	db     *DB
	secSvc ports.SecurityPort // encrypts DOB and government-ID at rest
	log    zerolog.Logger
}

var _ ports.VerificationStore = (*verificationRepository)(nil) // Ensure compliance

// NewVerificationRepository creates the postgres-backed store.
func NewVerificationRepository(db *DB, secSvc ports.SecurityPort, baseLogger *zerolog.Logger) ports.VerificationStore {
	return &verificationRepository{
		db:     db,
		secSvc: secSvc,
		log:    baseLogger.With().Str("component", "verification_repo").Logger(),
	}
}

const verificationQueryCols = `
	id, user_id, status, full_name, date_of_birth, country, institution,
	degree_program, expected_grad_year, government_id_number,
	risk_score, risk_flags, submitted_at, created_at, updated_at, version
`

// terminalStatuses is the SQL-side mirror of domain.IsTerminal plus
// ABANDONED: a user with only logically-closed records may start over.
const nonTerminalFilter = `status NOT IN ('REVOKED', 'PERMANENTLY_BANNED', 'ABANDONED')`

func (r *verificationRepository) encryptField(plain string) (*string, error) {
	if plain == "" {
		return nil, nil
	}
	encBytes, err := r.secSvc.Encrypt([]byte(plain))
	if err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(encBytes)
	return &enc, nil
}

func (r *verificationRepository) decryptField(enc *string) (string, error) {
	if enc == nil {
		return "", nil
	}
	decBytes, err := base64.StdEncoding.DecodeString(*enc)
	if err != nil {
		return "", err
	}
	dec, err := r.secSvc.Decrypt(decBytes)
	if err != nil {
		return "", err
	}
	return string(dec), nil
}

// CreateDraft inserts a new DRAFT record, encrypting PII fields first.
// The partial unique index on (user_id) WHERE non-terminal enforces the
// one-active-record invariant at the database.
func (r *verificationRepository) CreateDraft(ctx context.Context, userID uuid.UUID, profile domain.StudentProfile) (*domain.Verification, error) {
	encDOB, err := r.encryptField(profile.DateOfBirth)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt date of birth")
		return nil, err
	}
	encGovID, err := r.encryptField(profile.GovernmentIDNumber)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to encrypt government ID number")
		return nil, err
	}

	v := &domain.Verification{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.StatusDraft,
		Profile:   profile,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Version:   1,
	}

	query := `
		INSERT INTO verifications (
			id, user_id, status, full_name, date_of_birth, country,
			institution, degree_program, expected_grad_year,
			government_id_number, risk_score, risk_flags, created_at,
			updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, '{}', $11, $12, 1)
	`
	_, err = r.db.pool.Exec(ctx, query,
		v.ID, v.UserID, v.Status,
		profile.FullName, encDOB, profile.Country,
		profile.Institution, profile.DegreeProgram, profile.ExpectedGradYear,
		encGovID, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.log.Error().Err(err).Str("user_id", userID.String()).Msg("Failed to insert draft verification")
		return nil, err
	}
	return v, nil
}

func isUniqueViolation(err error) bool {
	// 23505 is the postgres unique_violation code.
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}

func (r *verificationRepository) scanVerification(row pgx.Row) (*domain.Verification, error) {
	var v domain.Verification
	var encDOB, encGovID *string

	err := row.Scan(
		&v.ID, &v.UserID, &v.Status,
		&v.Profile.FullName, &encDOB, &v.Profile.Country,
		&v.Profile.Institution, &v.Profile.DegreeProgram, &v.Profile.ExpectedGradYear,
		&encGovID, &v.RiskScore, &v.RiskFlags,
		&v.SubmittedAt, &v.CreatedAt, &v.UpdatedAt, &v.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.log.Error().Err(err).Msg("Failed to scan verification row")
		return nil, err
	}

	if v.Profile.DateOfBirth, err = r.decryptField(encDOB); err != nil {
		r.log.Error().Err(err).Str("verification_id", v.ID.String()).Msg("Failed to decrypt date of birth")
		return nil, err
	}
	if v.Profile.GovernmentIDNumber, err = r.decryptField(encGovID); err != nil {
		r.log.Error().Err(err).Str("verification_id", v.ID.String()).Msg("Failed to decrypt government ID number")
		return nil, err
	}
	return &v, nil
}

// loadCollections attaches documents, events and notes to the record.
func (r *verificationRepository) loadCollections(ctx context.Context, v *domain.Verification) error {
	rows, err := r.db.pool.Query(ctx, `
		SELECT id, document_type, file_ref, is_verified, uploaded_at
		FROM verification_documents WHERE verification_id = $1
		ORDER BY uploaded_at ASC`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var d domain.VerificationDoc
		if err := rows.Scan(&d.ID, &d.DocumentType, &d.FileRef, &d.IsVerified, &d.UploadedAt); err != nil {
			return err
		}
		v.Documents = append(v.Documents, d)
	}
	if rows.Err() != nil {
		return rows.Err()
	}

	rows, err = r.db.pool.Query(ctx, `
		SELECT id, actor, from_status, to_status, reason, message, created_at
		FROM verification_events WHERE verification_id = $1
		ORDER BY id ASC`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var e domain.VerificationEvent
		if err := rows.Scan(&e.ID, &e.Actor, &e.FromStatus, &e.ToStatus, &e.Reason, &e.Message, &e.CreatedAt); err != nil {
			return err
		}
		v.Events = append(v.Events, e)
	}
	if rows.Err() != nil {
		return rows.Err()
	}

	rows, err = r.db.pool.Query(ctx, `
		SELECT id, author_id, body, created_at
		FROM verification_notes WHERE verification_id = $1
		ORDER BY created_at ASC`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var n domain.InternalNote
		if err := rows.Scan(&n.ID, &n.AuthorID, &n.Body, &n.CreatedAt); err != nil {
			return err
		}
		v.Notes = append(v.Notes, n)
	}
	return rows.Err()
}

// GetByID fetches a record unscoped (admin path).
func (r *verificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Verification, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT `+verificationQueryCols+` FROM verifications WHERE id = $1`, id)
	v, err := r.scanVerification(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadCollections(ctx, v); err != nil {
		r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to load sub-collections")
		return nil, err
	}
	return v, nil
}

// GetByIDForUser fetches a record only when it belongs to userID. The
// ownership predicate is part of the WHERE clause, so "not yours" and
// "does not exist" are the same zero-row outcome all the way down.
func (r *verificationRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Verification, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT `+verificationQueryCols+` FROM verifications WHERE id = $1 AND user_id = $2`, id, userID)
	v, err := r.scanVerification(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadCollections(ctx, v); err != nil {
		r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to load sub-collections")
		return nil, err
	}
	return v, nil
}

// GetActiveByUser returns the user's non-terminal record.
func (r *verificationRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*domain.Verification, error) {
	row := r.db.pool.QueryRow(ctx,
		`SELECT `+verificationQueryCols+` FROM verifications WHERE user_id = $1 AND `+nonTerminalFilter, userID)
	v, err := r.scanVerification(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadCollections(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ListReviewQueue returns the records waiting on an admin, oldest
// submission first. Risk sort puts high scores first for triage and
// falls back to submission order inside a score.
func (r *verificationRepository) ListReviewQueue(ctx context.Context, sort ports.QueueSort, limit int) ([]*domain.Verification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	order := `submitted_at ASC NULLS LAST`
	if sort == ports.QueueSortRisk {
		order = `risk_score DESC, submitted_at ASC NULLS LAST`
	}

	rows, err := r.db.pool.Query(ctx,
		`SELECT `+verificationQueryCols+` FROM verifications
		 WHERE status IN ('PENDING_REVIEW', 'UNDER_INVESTIGATION')
		 ORDER BY `+order+` LIMIT $1`, limit)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query review queue")
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Verification
	for rows.Next() {
		v, err := r.scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListInStatusOlderThan feeds the system sweeps.
func (r *verificationRepository) ListInStatusOlderThan(ctx context.Context, status domain.VerificationStatus, cutoff time.Time, limit int) ([]*domain.Verification, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.pool.Query(ctx,
		`SELECT `+verificationQueryCols+` FROM verifications
		 WHERE status = $1 AND updated_at < $2
		 ORDER BY updated_at ASC LIMIT $3`, status, cutoff, limit)
	if err != nil {
		r.log.Error().Err(err).Str("status", string(status)).Msg("Failed to query stale records")
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Verification
	for rows.Next() {
		v, err := r.scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ApplyStatusUpdate commits the status change and its audit event in one
// transaction. The row is locked, the version compared against what the
// caller read, and both writes land or neither does.
func (r *verificationRepository) ApplyStatusUpdate(ctx context.Context, id uuid.UUID, upd ports.StatusUpdate) (*domain.VerificationEvent, error) {
	tx, err := r.db.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var current domain.VerificationStatus
	var version int64
	err = tx.QueryRow(ctx,
		`SELECT status, version FROM verifications WHERE id = $1 FOR UPDATE`, id).
		Scan(&current, &version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if version != upd.ExpectedVersion {
		return nil, domain.ErrConcurrentModification
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `
		UPDATE verifications
		SET status = $2,
		    version = version + 1,
		    updated_at = $3,
		    submitted_at = CASE
		        WHEN $2 = 'PENDING_REVIEW' AND submitted_at IS NULL THEN $3
		        ELSE submitted_at
		    END
		WHERE id = $1`, id, upd.ToStatus, now)
	if err != nil {
		// Reopening a closed record trips the partial unique index when
		// the user already holds another open one.
		if isUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to update verification status")
		return nil, err
	}

	if len(upd.RiskFlags) > 0 {
		_, err = tx.Exec(ctx, `
			UPDATE verifications
			SET risk_flags = (
				SELECT array_agg(DISTINCT f) FROM unnest(risk_flags || $2::text[]) AS f
			)
			WHERE id = $1`, id, upd.RiskFlags)
		if err != nil {
			r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to append risk flags")
			return nil, err
		}
	}

	ev := &domain.VerificationEvent{
		ID:         ids.New(),
		Actor:      upd.Actor,
		FromStatus: current,
		ToStatus:   upd.ToStatus,
		Reason:     upd.Reason,
		Message:    upd.Message,
		CreatedAt:  now,
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO verification_events (
			id, verification_id, actor, from_status, to_status, reason, message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ev.ID, id, ev.Actor, ev.FromStatus, ev.ToStatus, ev.Reason, ev.Message, ev.CreatedAt)
	if err != nil {
		r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to append verification event")
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return ev, nil
}

// AppendDocument appends a validated document reference.
func (r *verificationRepository) AppendDocument(ctx context.Context, id uuid.UUID, doc domain.VerificationDoc) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO verification_documents (
			id, verification_id, document_type, file_ref, is_verified, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		doc.ID, id, doc.DocumentType, doc.FileRef, doc.IsVerified, doc.UploadedAt)
	if err != nil {
		r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to append document")
	}
	return err
}

// SetDocumentVerified flips the verified flag; the doc row is otherwise
// immutable.
func (r *verificationRepository) SetDocumentVerified(ctx context.Context, id, docID uuid.UUID, verified bool) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE verification_documents SET is_verified = $3
		WHERE id = $2 AND verification_id = $1`, id, docID, verified)
	if err != nil {
		r.log.Error().Err(err).Str("doc_id", docID.String()).Msg("Failed to update document verified flag")
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendNote appends an admin note.
func (r *verificationRepository) AppendNote(ctx context.Context, id uuid.UUID, note domain.InternalNote) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO verification_notes (id, verification_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		note.ID, id, note.AuthorID, note.Body, note.CreatedAt)
	if err != nil {
		r.log.Error().Err(err).Str("verification_id", id.String()).Msg("Failed to append note")
	}
	return err
}
