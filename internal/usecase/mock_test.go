//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/i18n"
	"act-companion/internal/infra/storage"
	"act-companion/internal/usecase"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

// callLog records the order of side effects across mocks.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.calls = append(l.calls, s)
	l.mu.Unlock()
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// =============================
// Repositories
// =============================

// ---- Session repository (real store over memory, with call recording) ----

type MockSessionRepo struct {
	inner   *storage.SessionStore
	log     *callLog
	mu      sync.Mutex
	saves   int
	deletes int
}

func NewMockSessionRepo(log *callLog) *MockSessionRepo {
	return &MockSessionRepo{inner: storage.NewSessionStore(storage.NewMemoryKV(), newTestLogger()), log: log}
}

func (m *MockSessionRepo) Load(ctx context.Context) *model.Session { return m.inner.Load(ctx) }

func (m *MockSessionRepo) Save(ctx context.Context, s *model.Session) {
	m.mu.Lock()
	m.saves++
	m.mu.Unlock()
	m.log.add("save")
	m.inner.Save(ctx, s)
}

func (m *MockSessionRepo) Delete(ctx context.Context) {
	m.mu.Lock()
	m.deletes++
	m.mu.Unlock()
	m.log.add("delete")
	m.inner.Delete(ctx)
}

func (m *MockSessionRepo) counts() (saves, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves, m.deletes
}

func newHistory() repository.HistoryRepository {
	return storage.NewHistoryStore(storage.NewMemoryKV(), newTestLogger())
}

// ---- Sync repository ----

type MockSyncRepo struct {
	mu         sync.Mutex
	records    map[string]*repository.SyncRecord
	tombstones map[string]time.Time
	pushes     int
	PushErr    error
}

func NewMockSyncRepo() *MockSyncRepo {
	return &MockSyncRepo{records: map[string]*repository.SyncRecord{}, tombstones: map[string]time.Time{}}
}

// Push follows the backend rules: a stale write, or one that ties a
// tombstone, is ignored.
func (m *MockSyncRepo) Push(ctx context.Context, rec *repository.SyncRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes++
	if m.PushErr != nil {
		return m.PushErr
	}
	if at, ok := m.tombstones[rec.UserID]; ok && !rec.UpdatedAt.After(at) {
		return nil
	}
	if cur, ok := m.records[rec.UserID]; ok && cur.UpdatedAt.After(rec.UpdatedAt) {
		return nil
	}
	cp := *rec
	m.records[rec.UserID] = &cp
	delete(m.tombstones, rec.UserID)
	return nil
}

func (m *MockSyncRepo) Pull(ctx context.Context, userID string) (*repository.SyncRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *MockSyncRepo) Delete(ctx context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.records[userID]; ok && cur.UpdatedAt.After(at) {
		return nil
	}
	delete(m.records, userID)
	m.tombstones[userID] = at
	return nil
}

func (m *MockSyncRepo) get(userID string) (*repository.SyncRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	return rec, ok
}

// =============================
// Adapters
// =============================

// ---- Telemetry ----

type MockTelemetry struct {
	mu     sync.Mutex
	events []adapter.Event
	log    *callLog
}

func (m *MockTelemetry) Track(ctx context.Context, ev adapter.Event) {
	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()
	m.log.add("track:" + ev.Name)
}

func (m *MockTelemetry) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Name
	}
	return out
}

func (m *MockTelemetry) count(name string) int {
	n := 0
	for _, got := range m.names() {
		if got == name {
			n++
		}
	}
	return n
}

// ---- Notifier ----

type MockNotifier struct {
	mu   sync.Mutex
	sent []adapter.Notification
}

func (m *MockNotifier) Notify(ctx context.Context, n adapter.Notification) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
}

func (m *MockNotifier) last() adapter.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return adapter.Notification{}
	}
	return m.sent[len(m.sent)-1]
}

// ---- Sync scheduler ----

type MockScheduler struct {
	mu        sync.Mutex
	scheduled []*model.Session
	forgotten []string
	log       *callLog
}

func (m *MockScheduler) Schedule(ctx context.Context, userID string, s *model.Session) {
	m.mu.Lock()
	m.scheduled = append(m.scheduled, s)
	m.mu.Unlock()
	m.log.add("sync")
}

func (m *MockScheduler) Forget(ctx context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forgotten = append(m.forgotten, userID)
}

// ---- Question provider ----

// MockQuestionProvider returns Err when set, otherwise Text.
type MockQuestionProvider struct {
	mu        sync.Mutex
	Text      string
	Summary   string
	Err       error
	questions int
	summaries int
}

func (m *MockQuestionProvider) GenerateQuestion(ctx context.Context, req adapter.QuestionRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}

func (m *MockQuestionProvider) GenerateSummary(ctx context.Context, req adapter.SummaryRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Summary, nil
}

func (m *MockQuestionProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.questions
}

// ---- Rate limiter ----

type MockRateLimiter struct {
	mu   sync.Mutex
	keys []string
	Deny bool
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return !m.Deny, nil
}

// ---- In-memory Locker (implements redis.Locker port) ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrLocked
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

// ---- Inline submitter: runs tasks synchronously ----

type inlineSubmitter struct {
	Err error
}

func (s inlineSubmitter) Submit(task func(ctx context.Context) error) error {
	if s.Err != nil {
		return s.Err
	}
	_ = task(context.Background())
	return nil
}

// ---- Queued submitter: tasks run only when the test says so ----

type queuedSubmitter struct {
	mu    sync.Mutex
	tasks []func(ctx context.Context) error
}

func (s *queuedSubmitter) Submit(task func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	return nil
}

// run executes the queued tasks in the given order.
func (s *queuedSubmitter) run(order ...int) {
	s.mu.Lock()
	tasks := s.tasks
	s.mu.Unlock()
	for _, i := range order {
		_ = tasks[i](context.Background())
	}
}

// =============================
// Fixtures
// =============================

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func newTestTranslator() *i18n.Translator {
	tr, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		panic(err)
	}
	return tr
}

// fixedClock is a settable clock shared by a controller under test.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	log       *callLog
	clock     *fixedClock
	sessions  *MockSessionRepo
	histories repository.HistoryRepository
	telemetry *MockTelemetry
	notifier  *MockNotifier
	sync      *MockScheduler
	ctrl      *usecase.FlowController
}

func newHarness(mode model.PrivacyMode) *harness {
	h := &harness{log: &callLog{}, clock: newFixedClock()}
	h.sessions = NewMockSessionRepo(h.log)
	h.histories = newHistory()
	h.telemetry = &MockTelemetry{log: h.log}
	h.notifier = &MockNotifier{}
	h.sync = &MockScheduler{log: h.log}
	h.ctrl = usecase.NewFlowController(context.Background(), "user-1", h.sessions, h.histories, h.deps(mode))
	h.log.calls = nil
	return h
}

func (h *harness) deps(mode model.PrivacyMode) usecase.FlowDeps {
	return usecase.FlowDeps{
		Telemetry:   h.telemetry,
		Notifier:    h.notifier,
		Translator:  newTestTranslator(),
		Sync:        h.sync,
		DefaultMode: mode,
		Now:         h.clock.Now,
		Logger:      newTestLogger(),
	}
}

func validProfile() model.ACTProfile {
	return model.ACTProfile{
		Primary: model.ProfileA,
		Scores:  map[model.ProfileCategory]float64{model.ProfileA: 9, model.ProfileB: 3},
	}
}

func validDiagnosis() model.Diagnosis {
	return model.Diagnosis{
		CoreBelief:       "I am not good enough",
		EmotionalHistory: []string{"shame"},
		Triggers:         []string{"feedback at work"},
		Intensity:        8,
	}
}

// readyForRitual drives the controller up to a started ritual.
func (h *harness) readyForRitual(aiMode bool) {
	ctx := context.Background()
	if err := h.ctrl.SetActProfile(ctx, validProfile()); err != nil {
		panic(err)
	}
	if t, err := h.ctrl.SetDiagnosis(ctx, validDiagnosis()); err != nil || !t.Allowed {
		panic("diagnosis rejected")
	}
	if t, err := h.ctrl.StartRitual(ctx, aiMode); err != nil || !t.Allowed {
		panic("ritual rejected")
	}
}
