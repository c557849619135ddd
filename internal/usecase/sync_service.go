// File: internal/usecase/sync_service.go
package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
)

// Submitter runs background tasks; *worker.Pool satisfies it.
type Submitter interface {
	Submit(task func(ctx context.Context) error) error
}

// Locker serializes pushes for one user across instances.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Cipher encrypts payloads bound to a user id.
type Cipher interface {
	Seal(plaintext []byte, userID string) ([]byte, error)
	Open(sealed []byte, userID string) ([]byte, error)
}

type SyncConfig struct {
	Backend string // label for metrics and logs
	LockTTL time.Duration
	LockKey func(userID string) string
	Now     func() time.Time
}

var _ SyncScheduler = (*SyncService)(nil)

// SyncService mirrors sessions to the optional cloud backend. Uploads are
// fire-and-forget: local state never waits for, or fails because of, the cloud.
type SyncService struct {
	repo   repository.SyncRepository
	pool   Submitter
	locker Locker
	cipher Cipher
	cfg    SyncConfig
	now    func() time.Time
	log    *zerolog.Logger
}

// NewSyncService accepts a nil locker and a nil cipher.
func NewSyncService(repo repository.SyncRepository, pool Submitter, locker Locker, cipher Cipher, cfg SyncConfig, logger *zerolog.Logger) *SyncService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	if cfg.LockKey == nil {
		cfg.LockKey = func(id string) string { return "lock:sync:" + id }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "SyncService").Str("backend", cfg.Backend).Logger()
	return &SyncService{repo: repo, pool: pool, locker: locker, cipher: cipher, cfg: cfg, now: cfg.Now, log: &l}
}

// Schedule queues an upload of s. Private sessions are never uploaded.
func (y *SyncService) Schedule(ctx context.Context, userID string, s *model.Session) {
	if s == nil || !s.PrivacyMode.ShouldStore() {
		return
	}
	log := logging.With(ctx, y.log)
	rec, err := y.record(userID, s)
	if err != nil {
		log.Error().Err(err).Msg("encode sync record failed")
		metrics.IncSync(y.cfg.Backend, "push", "error")
		return
	}
	err = y.pool.Submit(func(ctx context.Context) error {
		return y.push(logging.WithUserID(ctx, userID), rec)
	})
	if err != nil {
		log.Warn().Err(err).Msg("sync push dropped")
		metrics.IncSync(y.cfg.Backend, "push", "dropped")
	}
}

// Push uploads s synchronously.
func (y *SyncService) Push(ctx context.Context, userID string, s *model.Session) error {
	if s == nil {
		return fmt.Errorf("session: %w", domain.ErrInvalidArgument)
	}
	if !s.PrivacyMode.ShouldStore() {
		return fmt.Errorf("private sessions are not synced: %w", domain.ErrInvalidArgument)
	}
	rec, err := y.record(userID, s)
	if err != nil {
		return err
	}
	return y.push(ctx, rec)
}

func (y *SyncService) push(ctx context.Context, rec *repository.SyncRecord) error {
	log := logging.With(ctx, y.log)
	unlock, err := y.lock(ctx, rec.UserID)
	if err != nil {
		metrics.IncSync(y.cfg.Backend, "push", "locked")
		return err
	}
	defer unlock()
	if err := y.repo.Push(ctx, rec); err != nil {
		log.Error().Err(err).Str("session_id", rec.SessionID).Msg("sync push failed")
		metrics.IncSync(y.cfg.Backend, "push", "error")
		return err
	}
	log.Debug().Str("session_id", rec.SessionID).Bool("encrypted", rec.Encrypted).Msg("session pushed")
	metrics.IncSync(y.cfg.Backend, "push", "ok")
	return nil
}

// lock takes the per-user sync lock. Without a locker it is a no-op.
func (y *SyncService) lock(ctx context.Context, userID string) (func(), error) {
	if y.locker == nil {
		return func() {}, nil
	}
	key := y.cfg.LockKey(userID)
	token, err := y.locker.TryLock(ctx, key, y.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	return func() {
		if err := y.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			logging.With(ctx, y.log).Warn().Err(err).Msg("release sync lock failed")
		}
	}, nil
}

func (y *SyncService) record(userID string, s *model.Session) (*repository.SyncRecord, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	rec := &repository.SyncRecord{UserID: userID, SessionID: s.ID, Payload: payload, UpdatedAt: y.now().UTC()}
	if y.cipher != nil {
		sealed, err := y.cipher.Seal(payload, userID)
		if err != nil {
			return nil, fmt.Errorf("encrypt session: %w", err)
		}
		rec.Payload = sealed
		rec.Encrypted = true
	}
	return rec, nil
}

// Pull fetches the remote copy. It returns domain.ErrNotFound when the user has none.
func (y *SyncService) Pull(ctx context.Context, userID string) (*model.Session, error) {
	rec, err := y.repo.Pull(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			metrics.IncSync(y.cfg.Backend, "pull", "error")
		}
		return nil, err
	}
	payload := rec.Payload
	if rec.Encrypted {
		if y.cipher == nil {
			metrics.IncSync(y.cfg.Backend, "pull", "error")
			return nil, fmt.Errorf("remote session is encrypted but no key is configured: %w", domain.ErrSyncNotConfigured)
		}
		if payload, err = y.cipher.Open(payload, userID); err != nil {
			metrics.IncSync(y.cfg.Backend, "pull", "error")
			return nil, fmt.Errorf("decrypt session: %w", err)
		}
	}
	s, err := model.ParseSession(payload)
	if err != nil {
		metrics.IncSync(y.cfg.Backend, "pull", "corrupt")
		return nil, err
	}
	metrics.IncSync(y.cfg.Backend, "pull", "ok")
	return s, nil
}

// Forget removes the remote copy. The tombstone is stamped here, so an
// upload scheduled before the call loses to it whichever runs last. When
// the queue is full the delete runs inline rather than being dropped.
func (y *SyncService) Forget(ctx context.Context, userID string) {
	at := y.now().UTC()
	err := y.pool.Submit(func(ctx context.Context) error {
		return y.forget(logging.WithUserID(ctx, userID), userID, at)
	})
	if err != nil {
		logging.With(ctx, y.log).Warn().Err(err).Msg("sync queue unavailable, deleting inline")
		_ = y.forget(context.WithoutCancel(ctx), userID, at)
	}
}

func (y *SyncService) forget(ctx context.Context, userID string, at time.Time) error {
	log := logging.With(ctx, y.log)
	unlock, err := y.lock(ctx, userID)
	if err != nil {
		// the stamp still orders the tombstone against pushes
		log.Warn().Err(err).Msg("deleting remote copy without the sync lock")
		unlock = func() {}
	}
	defer unlock()
	if err := y.repo.Delete(ctx, userID, at); err != nil {
		log.Error().Err(err).Msg("sync delete failed")
		metrics.IncSync(y.cfg.Backend, "delete", "error")
		return err
	}
	metrics.IncSync(y.cfg.Backend, "delete", "ok")
	return nil
}
