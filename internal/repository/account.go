package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

const accountColumns = `id, name, lastname, job_title, telephone, email, password_hash,
	entity_name, entity_type, is_email_verified, entity_id, created_at, updated_at`

func (r *Repository) CreateAccount(ctx context.Context, a entity.Account) error {
	q := `
	INSERT INTO accounts (` + accountColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.conn(ctx).Exec(
		ctx, q,
		a.ID, a.Name, a.Lastname, a.JobTitle, a.Telephone, a.Email, a.PasswordHash,
		a.EntityName, a.EntityType, a.IsEmailVerified, a.EntityID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrEmailInUse
		}

		return err
	}

	return nil
}

func (r *Repository) AccountByID(ctx context.Context, id uuid.UUID) (entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	return scanAccount(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *Repository) AccountByEmail(ctx context.Context, email string) (entity.Account, error) {
	q := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`

	return scanAccount(r.conn(ctx).QueryRow(ctx, q, email))
}

func (r *Repository) MarkEmailVerified(ctx context.Context, id uuid.UUID, now time.Time) error {
	q := `UPDATE accounts SET is_email_verified = TRUE, updated_at = $2 WHERE id = $1`

	return r.execAccount(ctx, q, id, now)
}

func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string, now time.Time) error {
	q := `UPDATE accounts SET password_hash = $2, updated_at = $3 WHERE id = $1`

	return r.execAccount(ctx, q, id, passwordHash, now)
}

func (r *Repository) LinkAccountToEntity(ctx context.Context, accountID, entityID uuid.UUID, now time.Time) error {
	q := `UPDATE accounts SET entity_id = $2, updated_at = $3 WHERE id = $1`

	return r.execAccount(ctx, q, accountID, entityID, now)
}

func (r *Repository) execAccount(ctx context.Context, q string, args ...any) error {
	result, err := r.conn(ctx).Exec(ctx, q, args...)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return entity.ErrAccountNotFound
	}

	return nil
}

func scanAccount(row pgx.Row) (entity.Account, error) {
	var a entity.Account

	err := row.Scan(
		&a.ID, &a.Name, &a.Lastname, &a.JobTitle, &a.Telephone, &a.Email, &a.PasswordHash,
		&a.EntityName, &a.EntityType, &a.IsEmailVerified, &a.EntityID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Account{}, entity.ErrAccountNotFound
		}

		return entity.Account{}, err
	}

	return a, nil
}
