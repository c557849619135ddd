// Package supabase stores synced sessions in a Supabase (PostgREST) table.
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"

	"act-companion/internal/config"
	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/repository"
)

var _ repository.SyncRepository = (*SyncRepo)(nil)

// row mirrors the act_sessions table.
type row struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Payload   string    `json:"payload"`
	Encrypted bool      `json:"encrypted"`
	UpdatedAt time.Time `json:"updated_at"`
	Deleted   bool      `json:"deleted"`
}

type SyncRepo struct {
	client *supabase.Client
	table  string
}

// New creates a Supabase-backed sync repository.
func New(cfg config.SupabaseConfig) (*SyncRepo, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = "act_sessions"
	}
	return &SyncRepo{client: client, table: table}, nil
}

// Push upserts the user's row unless the stored one is newer. PostgREST
// has no conditional upsert, so this reads first; the per-user sync lock
// keeps the read and the write together across instances.
func (r *SyncRepo) Push(_ context.Context, rec *repository.SyncRecord) error {
	if rec == nil || rec.UserID == "" {
		return domain.ErrInvalidArgument
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	cur, err := r.current(rec.UserID)
	if err != nil {
		return err
	}
	if !supersedes(cur, rec.UpdatedAt, false) {
		return nil
	}
	return r.upsert(row{
		UserID:    rec.UserID,
		SessionID: rec.SessionID,
		Payload:   string(rec.Payload),
		Encrypted: rec.Encrypted,
		UpdatedAt: rec.UpdatedAt,
	})
}

func (r *SyncRepo) Pull(_ context.Context, userID string) (*repository.SyncRecord, error) {
	var rows []row
	_, err := r.client.From(r.table).
		Select("*", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(rows) == 0 || rows[0].Deleted {
		return nil, domain.ErrNotFound
	}
	return toRecord(rows[0]), nil
}

// Delete overwrites the row with a tombstone stamped at.
func (r *SyncRepo) Delete(_ context.Context, userID string, at time.Time) error {
	if userID == "" {
		return domain.ErrInvalidArgument
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	cur, err := r.current(userID)
	if err != nil {
		return err
	}
	if !supersedes(cur, at, true) {
		return nil
	}
	return r.upsert(row{UserID: userID, UpdatedAt: at, Deleted: true})
}

func (r *SyncRepo) current(userID string) (*row, error) {
	var rows []row
	_, err := r.client.From(r.table).
		Select("user_id,updated_at,deleted", "", false).
		Eq("user_id", userID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read session stamp: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *SyncRepo) upsert(v row) error {
	_, _, err := r.client.From(r.table).
		Upsert(v, "user_id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}
	return nil
}

// supersedes reports whether a write stamped at may replace cur. On a tie
// a tombstone wins over a payload.
func supersedes(cur *row, at time.Time, tombstone bool) bool {
	switch {
	case cur == nil, at.After(cur.UpdatedAt):
		return true
	case at.Equal(cur.UpdatedAt):
		return tombstone || !cur.Deleted
	default:
		return false
	}
}

func toRecord(r row) *repository.SyncRecord {
	return &repository.SyncRecord{
		UserID:    r.UserID,
		SessionID: r.SessionID,
		Payload:   []byte(r.Payload),
		Encrypted: r.Encrypted,
		UpdatedAt: r.UpdatedAt,
	}
}
