package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
)

const (
	SessionKey = "act_session"
	HistoryKey = "act_history"
)

var _ repository.SessionRepository = (*SessionStore)(nil)

// SessionStore loads, migrates and saves the single active session.
// Nothing it does returns an error: a record that cannot be read is treated
// as absent and removed.
type SessionStore struct {
	kv    repository.StateStore
	log   *zerolog.Logger
	now   func() time.Time
	steps []MigrationStep
}

func NewSessionStore(kv repository.StateStore, logger *zerolog.Logger) *SessionStore {
	l := logger.With().Str("component", "SessionStore").Logger()
	return &SessionStore{kv: kv, log: &l, now: time.Now, steps: Migrations}
}

// WithClock replaces the time source; tests use it to pin expiry checks.
func (s *SessionStore) WithClock(now func() time.Time) *SessionStore {
	s.now = now
	return s
}

func (s *SessionStore) Load(ctx context.Context) *model.Session {
	log := logging.With(ctx, s.log)

	raw, err := s.kv.Get(ctx, SessionKey)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.IncStorageOp("session", "load", "absent")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("read session failed")
		metrics.IncStorageOp("session", "load", "error")
		return nil
	}

	now := s.now()
	data, migrated, err := migrate([]byte(raw), s.steps, now)
	if err == nil {
		var sess *model.Session
		if sess, err = model.ParseSession(data); err == nil {
			return s.afterLoad(ctx, sess, migrated, now)
		}
	}

	log.Warn().Err(err).Msg("stored session is corrupted; discarding")
	metrics.IncStorageOp("session", "load", "corrupt")
	s.delete(ctx)
	return nil
}

func (s *SessionStore) afterLoad(ctx context.Context, sess *model.Session, migrated bool, now time.Time) *model.Session {
	if sess.IsExpired(now) {
		logging.With(ctx, s.log).Info().Str("session_id", sess.ID).Msg("stored session expired; discarding")
		metrics.IncStorageOp("session", "load", "expired")
		s.delete(ctx)
		return nil
	}
	if migrated {
		metrics.IncStorageOp("session", "load", "migrated")
		s.Save(ctx, sess)
		return sess
	}
	metrics.IncStorageOp("session", "load", "ok")
	return sess
}

// Save overwrites the stored record. Private sessions never reach the store.
func (s *SessionStore) Save(ctx context.Context, sess *model.Session) {
	if sess == nil || !sess.PrivacyMode.ShouldStore() {
		return
	}
	log := logging.With(ctx, s.log)
	b, err := json.Marshal(sess)
	if err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("encode session failed")
		metrics.IncStorageOp("session", "save", "error")
		return
	}
	if err := s.kv.Set(ctx, SessionKey, string(b)); err != nil {
		log.Error().Err(err).Str("session_id", sess.ID).Msg("write session failed")
		metrics.IncStorageOp("session", "save", "error")
		return
	}
	metrics.IncStorageOp("session", "save", "ok")
}

func (s *SessionStore) Delete(ctx context.Context) {
	s.delete(ctx)
}

func (s *SessionStore) delete(ctx context.Context) {
	if err := s.kv.Delete(ctx, SessionKey); err != nil {
		logging.With(ctx, s.log).Error().Err(err).Msg("delete session failed")
		metrics.IncStorageOp("session", "delete", "error")
		return
	}
	metrics.IncStorageOp("session", "delete", "ok")
}
