package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

const codeColumns = `id, subject_id, purpose, email, code_hash, issued_at, expires_at, attempts, resend_count`

// UpsertCode replaces the live code of (subject, purpose) in one statement.
// When resend is true the previous resend counter is carried over and incremented.
func (r *Repository) UpsertCode(ctx context.Context, code entity.VerificationCode, resend bool) (entity.VerificationCode, error) {
	q := `
	INSERT INTO verification_codes (` + codeColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0)
	ON CONFLICT (subject_id, purpose) DO UPDATE SET
		id = EXCLUDED.id,
		email = EXCLUDED.email,
		code_hash = EXCLUDED.code_hash,
		issued_at = EXCLUDED.issued_at,
		expires_at = EXCLUDED.expires_at,
		attempts = 0,
		resend_count = CASE WHEN $8 THEN verification_codes.resend_count + 1 ELSE 0 END
	RETURNING ` + codeColumns

	row := r.conn(ctx).QueryRow(
		ctx, q,
		code.ID, code.SubjectID, code.Purpose, code.Email, code.CodeHash, code.IssuedAt, code.ExpiresAt,
		resend,
	)

	return scanCode(row)
}

// ConsumeCode deletes and returns the live code matching codeHash if it has
// not expired at now and has fewer than maxAttempts failed attempts.
func (r *Repository) ConsumeCode(
	ctx context.Context,
	subjectID uuid.UUID,
	purpose entity.Purpose,
	codeHash string,
	now time.Time,
	maxAttempts int,
) (entity.VerificationCode, error) {
	q := `
	DELETE FROM verification_codes
	WHERE subject_id = $1 AND purpose = $2 AND code_hash = $3 AND expires_at >= $4 AND attempts < $5
	RETURNING ` + codeColumns

	code, err := scanCode(r.conn(ctx).QueryRow(ctx, q, subjectID, purpose, codeHash, now, maxAttempts))
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.VerificationCode{}, entity.ErrInvalidOrExpiredCode
		}

		return entity.VerificationCode{}, err
	}

	return code, nil
}

func (r *Repository) RegisterFailedAttempt(ctx context.Context, subjectID uuid.UUID, purpose entity.Purpose) error {
	q := `UPDATE verification_codes SET attempts = attempts + 1 WHERE subject_id = $1 AND purpose = $2`

	_, err := r.conn(ctx).Exec(ctx, q, subjectID, purpose)
	if err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	q := `DELETE FROM verification_codes WHERE expires_at < $1`

	result, err := r.conn(ctx).Exec(ctx, q, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected(), nil
}

func scanCode(row pgx.Row) (entity.VerificationCode, error) {
	var code entity.VerificationCode

	err := row.Scan(
		&code.ID, &code.SubjectID, &code.Purpose, &code.Email, &code.CodeHash,
		&code.IssuedAt, &code.ExpiresAt, &code.Attempts, &code.ResendCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.VerificationCode{}, entity.ErrNotFound
		}

		return entity.VerificationCode{}, err
	}

	return code, nil
}
