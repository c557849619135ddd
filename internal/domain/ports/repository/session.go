package repository

import (
	"context"

	"act-companion/internal/domain/model"
)

// -----------------------------
// Active session
// -----------------------------

// SessionRepository persists the single active session. Implementations
// absorb storage and parse failures: Load yields nil for a missing,
// corrupted or expired record, and Save only logs write errors.
type SessionRepository interface {
	Load(ctx context.Context) *model.Session
	Save(ctx context.Context, s *model.Session)
	Delete(ctx context.Context)
}

// -----------------------------
// Completed sessions
// -----------------------------

type HistoryRepository interface {
	Load(ctx context.Context) []model.CompletedSession
	// Save projects s into the history and returns the updated list.
	Save(ctx context.Context, s *model.Session, mode model.SummaryMode) []model.CompletedSession
	Delete(ctx context.Context, id string) []model.CompletedSession
	Search(ctx context.Context, query string) []model.CompletedSession
}
