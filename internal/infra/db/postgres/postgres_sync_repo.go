package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/repository"
)

var _ repository.SyncRepository = (*syncRepo)(nil)

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

type syncRepo struct {
	pool *pgxpool.Pool
}

func NewSyncRepo(pool *pgxpool.Pool) repository.SyncRepository {
	return &syncRepo{pool: pool}
}

// Push stores the newest copy of the user's session. An older write that
// arrives late never replaces a newer one, and never revives a tombstone
// with the same stamp.
func (r *syncRepo) Push(ctx context.Context, rec *repository.SyncRecord) error {
	if rec == nil || rec.UserID == "" {
		return domain.ErrInvalidArgument
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO act_sessions (user_id, session_id, payload, encrypted, updated_at, deleted)
VALUES ($1, $2, $3, $4, $5, FALSE)
ON CONFLICT (user_id) DO UPDATE
SET session_id = EXCLUDED.session_id,
    payload    = EXCLUDED.payload,
    encrypted  = EXCLUDED.encrypted,
    updated_at = EXCLUDED.updated_at,
    deleted    = FALSE
WHERE act_sessions.updated_at < EXCLUDED.updated_at
   OR (NOT act_sessions.deleted AND act_sessions.updated_at = EXCLUDED.updated_at)`
	return r.withTx(ctx, func(q2 querier) error {
		_, err := q2.Exec(ctx, q, rec.UserID, rec.SessionID, rec.Payload, rec.Encrypted, rec.UpdatedAt)
		return err
	})
}

func (r *syncRepo) Pull(ctx context.Context, userID string) (*repository.SyncRecord, error) {
	const q = `
SELECT user_id, session_id, payload, encrypted, updated_at
FROM act_sessions WHERE user_id = $1 AND NOT deleted`
	var rec repository.SyncRecord
	err := r.pool.QueryRow(ctx, q, userID).
		Scan(&rec.UserID, &rec.SessionID, &rec.Payload, &rec.Encrypted, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete replaces the row with a tombstone stamped at. A row written after
// at is left alone.
func (r *syncRepo) Delete(ctx context.Context, userID string, at time.Time) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	const q = `
INSERT INTO act_sessions (user_id, session_id, payload, encrypted, updated_at, deleted)
VALUES ($1, '', ''::bytea, FALSE, $2, TRUE)
ON CONFLICT (user_id) DO UPDATE
SET session_id = '',
    payload    = ''::bytea,
    encrypted  = FALSE,
    updated_at = EXCLUDED.updated_at,
    deleted    = TRUE
WHERE act_sessions.updated_at <= EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, q, userID, at)
	return err
}

// withTx runs fn in a transaction, rolling back when fn fails.
func (r *syncRepo) withTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
