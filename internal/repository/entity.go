package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

const entityColumns = `id, name, type, onboarding, profile, document_image, version, created_at, updated_at`

const defaultListLimit = 50

// GetOrCreateEntity inserts e unless an entity with the same (name, type)
// exists, and returns the stored row. created reports whether e was inserted.
// A concurrent insert of the same pair resolves to the row that won.
func (r *Repository) GetOrCreateEntity(ctx context.Context, e entity.Entity) (entity.Entity, bool, error) {
	q := `
	INSERT INTO entities (` + entityColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8)
	ON CONFLICT (name, type) DO NOTHING
	RETURNING ` + entityColumns

	stored, err := scanEntity(r.conn(ctx).QueryRow(
		ctx, q,
		e.ID, e.Name, e.Type, e.Onboarding, e.Profile, e.DocumentImage, e.CreatedAt, e.UpdatedAt,
	))
	if err == nil {
		return stored, true, nil
	}

	if !errors.Is(err, entity.ErrEntityNotFound) {
		return entity.Entity{}, false, err
	}

	stored, err = r.EntityByNameAndType(ctx, e.Name, e.Type)
	if err != nil {
		return entity.Entity{}, false, fmt.Errorf("lookup after conflict: %w", err)
	}

	return stored, false, nil
}

func (r *Repository) EntityByID(ctx context.Context, id uuid.UUID) (entity.Entity, error) {
	q := `SELECT ` + entityColumns + ` FROM entities WHERE id = $1`

	return scanEntity(r.conn(ctx).QueryRow(ctx, q, id))
}

func (r *Repository) EntityByNameAndType(ctx context.Context, name string, entityType entity.EntityType) (entity.Entity, error) {
	q := `SELECT ` + entityColumns + ` FROM entities WHERE name = $1 AND type = $2`

	return scanEntity(r.conn(ctx).QueryRow(ctx, q, name, entityType))
}

// UpdateOnboarding stores state if the entity is still at version and
// returns the new version. entity.ErrVersionConflict means another writer
// got there first.
func (r *Repository) UpdateOnboarding(
	ctx context.Context,
	id uuid.UUID,
	state entity.OnboardingState,
	version int64,
	now time.Time,
) (int64, error) {
	q := `
	UPDATE entities SET onboarding = $1, version = version + 1, updated_at = $2
	WHERE id = $3 AND version = $4
	RETURNING version
	`

	var next int64

	err := r.conn(ctx).QueryRow(ctx, q, state, now, id, version).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, r.versionMiss(ctx, id)
		}

		return 0, err
	}

	return next, nil
}

func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, profile entity.Profile, now time.Time) error {
	q := `UPDATE entities SET profile = $2, version = version + 1, updated_at = $3 WHERE id = $1`

	return r.execEntity(ctx, q, id, profile, now)
}

func (r *Repository) UpdateDocumentImage(ctx context.Context, id uuid.UUID, url string, now time.Time) error {
	q := `UPDATE entities SET document_image = $2, version = version + 1, updated_at = $3 WHERE id = $1`

	return r.execEntity(ctx, q, id, url, now)
}

func (r *Repository) ListEntities(ctx context.Context, filter entity.EntityFilter) ([]entity.Entity, int, error) {
	countStmt := applyEntityFilter(sq.Select("count(*)").From("entities"), filter).PlaceholderFormat(sq.Dollar)

	sqlQuery, args, err := countStmt.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var count int

	err = r.conn(ctx).QueryRow(ctx, sqlQuery, args...).Scan(&count)
	if err != nil {
		return nil, 0, err
	}

	if count == 0 {
		return []entity.Entity{}, 0, nil
	}

	limit := filter.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	stmt := sq.Select(entityColumns).From("entities").PlaceholderFormat(sq.Dollar)
	stmt = applyEntityFilter(stmt, filter).
		OrderBy("created_at DESC", "id").
		Limit(limit).
		Offset(filter.Offset)

	sqlQuery, args, err = stmt.ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	entities := make([]entity.Entity, 0, limit)

	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, 0, err
		}

		entities = append(entities, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entities, count, nil
}

func applyEntityFilter(stmt sq.SelectBuilder, filter entity.EntityFilter) sq.SelectBuilder {
	if filter.Type != nil {
		stmt = stmt.Where(sq.Eq{"type": *filter.Type})
	}

	if filter.Status != nil {
		stmt = stmt.Where(sq.Eq{"onboarding ->> 'onboardingStatus'": *filter.Status})
	}

	if filter.Name != "" {
		stmt = stmt.Where(sq.ILike{"name": "%" + filter.Name + "%"})
	}

	return stmt
}

func (r *Repository) versionMiss(ctx context.Context, id uuid.UUID) error {
	var exists bool

	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM entities WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return err
	}

	if !exists {
		return entity.ErrEntityNotFound
	}

	return entity.ErrVersionConflict
}

func (r *Repository) execEntity(ctx context.Context, q string, args ...any) error {
	result, err := r.conn(ctx).Exec(ctx, q, args...)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return entity.ErrEntityNotFound
	}

	return nil
}

func scanEntity(row pgx.Row) (entity.Entity, error) {
	var e entity.Entity

	err := row.Scan(
		&e.ID, &e.Name, &e.Type, &e.Onboarding, &e.Profile, &e.DocumentImage,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Entity{}, entity.ErrEntityNotFound
		}

		return entity.Entity{}, err
	}

	return e, nil
}
