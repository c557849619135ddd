package storage

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
)

// MaxHistory caps the completed-session list; the oldest entry goes first.
const MaxHistory = 50

var _ repository.HistoryRepository = (*HistoryStore)(nil)

type HistoryStore struct {
	kv  repository.StateStore
	log *zerolog.Logger
	now func() time.Time
}

func NewHistoryStore(kv repository.StateStore, logger *zerolog.Logger) *HistoryStore {
	l := logger.With().Str("component", "HistoryStore").Logger()
	return &HistoryStore{kv: kv, log: &l, now: time.Now}
}

// Load returns the history, newest first. A malformed record is dropped.
func (h *HistoryStore) Load(ctx context.Context) []model.CompletedSession {
	raw, err := h.kv.Get(ctx, HistoryKey)
	if errors.Is(err, domain.ErrNotFound) {
		return []model.CompletedSession{}
	}
	log := logging.With(ctx, h.log)
	if err != nil {
		log.Error().Err(err).Msg("read history failed")
		metrics.IncStorageOp("history", "load", "error")
		return []model.CompletedSession{}
	}
	list, err := model.ParseHistory([]byte(raw))
	if err != nil {
		log.Warn().Err(err).Msg("stored history is corrupted; discarding")
		metrics.IncStorageOp("history", "load", "corrupt")
		if err := h.kv.Delete(ctx, HistoryKey); err != nil {
			log.Error().Err(err).Msg("delete history failed")
		}
		return []model.CompletedSession{}
	}
	return list
}

// Save prepends the projection of s, replacing an older entry with the same
// id. Sessions without profile or diagnosis, and private sessions, leave the
// history unchanged.
func (h *HistoryStore) Save(ctx context.Context, s *model.Session, mode model.SummaryMode) []model.CompletedSession {
	list := h.Load(ctx)
	if s == nil || !s.PrivacyMode.ShouldStore() {
		return list
	}
	entry, ok := model.ProjectCompleted(s, mode, h.now())
	if !ok {
		return list
	}
	list = slices.DeleteFunc(list, func(c model.CompletedSession) bool { return c.ID == entry.ID })
	list = append([]model.CompletedSession{entry}, list...)
	if len(list) > MaxHistory {
		list = list[:MaxHistory]
	}
	h.write(ctx, list)
	return list
}

func (h *HistoryStore) Delete(ctx context.Context, id string) []model.CompletedSession {
	list := h.Load(ctx)
	n := len(list)
	list = slices.DeleteFunc(list, func(c model.CompletedSession) bool { return c.ID == id })
	if len(list) != n {
		h.write(ctx, list)
	}
	return list
}

// Search matches query case-insensitively against core belief, primary
// emotion and tags. An empty query returns everything.
func (h *HistoryStore) Search(ctx context.Context, query string) []model.CompletedSession {
	list := h.Load(ctx)
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]model.CompletedSession, 0, len(list))
	for _, c := range list {
		if matches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c model.CompletedSession, q string) bool {
	if strings.Contains(strings.ToLower(c.CoreBelief), q) ||
		strings.Contains(strings.ToLower(c.PrimaryEmotion), q) {
		return true
	}
	return slices.ContainsFunc(c.Tags, func(t string) bool {
		return strings.Contains(strings.ToLower(t), q)
	})
}

func (h *HistoryStore) write(ctx context.Context, list []model.CompletedSession) {
	log := logging.With(ctx, h.log)
	b, err := json.Marshal(list)
	if err != nil {
		log.Error().Err(err).Msg("encode history failed")
		metrics.IncStorageOp("history", "save", "error")
		return
	}
	if err := h.kv.Set(ctx, HistoryKey, string(b)); err != nil {
		log.Error().Err(err).Msg("write history failed")
		metrics.IncStorageOp("history", "save", "error")
		return
	}
	metrics.IncStorageOp("history", "save", "ok")
}
