// File: internal/usecase/flow_controller.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/flow"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/domain/ports/repository"
	"act-companion/internal/infra/i18n"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
)

// Telemetry event names, one per controller action.
const (
	EventProfileSet          = "profile_set"
	EventDiagnosisSet        = "diagnosis_set"
	EventRitualStarted       = "ritual_started"
	EventDialogueEntryAdded  = "dialogue_entry_added"
	EventRitualPhaseUpdated  = "ritual_phase_updated"
	EventRitualPaused        = "ritual_paused"
	EventRitualResumed       = "ritual_resumed"
	EventBreakerTripped      = "ai_circuit_breaker_tripped"
	EventAIFailureRecorded   = "ai_failure_recorded"
	EventMetricsAdded        = "metrics_added"
	EventSomaticBreak        = "somatic_break_taken"
	EventRitualCompleted     = "ritual_completed"
	EventSessionReset        = "session_reset"
	EventPrivacyModeChanged  = "privacy_mode_changed"
	EventTagAdded            = "tag_added"
	EventTagRemoved          = "tag_removed"
	EventStageChanged        = "stage_changed"
	EventTransitionDenied    = "transition_denied"
	EventHistoryEntryDeleted = "history_entry_deleted"
	EventSessionAdopted      = "session_adopted"
	EventSessionExpired      = "session_expired"
)

// SyncScheduler receives every persisted session for best-effort upload.
type SyncScheduler interface {
	Schedule(ctx context.Context, userID string, s *model.Session)
	Forget(ctx context.Context, userID string)
}

// FlowDeps are the collaborators shared by every controller.
type FlowDeps struct {
	Telemetry   adapter.Telemetry
	Notifier    adapter.Notifier
	Translator  *i18n.Translator
	Sync        SyncScheduler // nil disables cloud sync
	DefaultMode model.PrivacyMode
	Now         func() time.Time
	Logger      *zerolog.Logger
}

// View is what clients read: the session plus everything derived from it.
type View struct {
	Session                *model.Session `json:"session"`
	Stage                  flow.Stage     `json:"stage"`
	CurrentStage           flow.Stage     `json:"currentStage"`
	AvailableTransitions   []flow.Stage   `json:"availableTransitions"`
	ProgressPercentage     float64        `json:"progressPercentage"`
	HasSignificantProgress bool           `json:"hasSignificantProgress"`
}

// FlowController owns one user's session. All mutation goes through its
// actions, and every action ends in commit, which emits the telemetry
// event, swaps in the new state and persists it.
type FlowController struct {
	mu sync.Mutex

	userID    string
	session   *model.Session
	stage     flow.Stage
	pending   *pendingQuestion
	lastUsed  time.Time
	sessions  repository.SessionRepository
	histories repository.HistoryRepository
	deps      FlowDeps
	log       *zerolog.Logger
}

// NewFlowController loads the stored session, or starts a fresh one when
// nothing usable is stored.
func NewFlowController(ctx context.Context, userID string, sessions repository.SessionRepository, histories repository.HistoryRepository, deps FlowDeps) *FlowController {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if !deps.DefaultMode.Valid() {
		deps.DefaultMode = model.PrivacyPersist
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Telemetry == nil {
		deps.Telemetry = nopTelemetry{}
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	l := deps.Logger.With().Str("component", "FlowController").Str("user_id", userID).Logger()
	c := &FlowController{
		userID:    userID,
		sessions:  sessions,
		histories: histories,
		deps:      deps,
		log:       &l,
	}
	s := sessions.Load(ctx)
	if s == nil {
		s = model.NewSession(deps.DefaultMode, deps.Now())
		sessions.Save(ctx, s)
	}
	c.session = s
	c.stage = flow.CurrentStage(s)
	c.lastUsed = deps.Now()
	return c
}

func (c *FlowController) UserID() string { return c.userID }

// --- reads ---

func (c *FlowController) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
	return c.viewLocked()
}

func (c *FlowController) viewLocked() View {
	s := c.session
	return View{
		Session:                s.Clone(),
		Stage:                  c.stage,
		CurrentStage:           flow.CurrentStage(s),
		AvailableTransitions:   flow.AvailableTransitions(s),
		ProgressPercentage:     flow.ProgressPercentage(s),
		HasSignificantProgress: flow.HasSignificantProgress(s),
	}
}

// Session returns a copy of the current session.
func (c *FlowController) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

func (c *FlowController) History(ctx context.Context) []model.CompletedSession {
	return c.histories.Load(c.ctx(ctx))
}

func (c *FlowController) SearchHistory(ctx context.Context, query string) []model.CompletedSession {
	return c.histories.Search(c.ctx(ctx), query)
}

// --- actions ---

func (c *FlowController) SetActProfile(ctx context.Context, p model.ACTProfile) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(ctx); err != nil {
		return err
	}
	if !p.Primary.Valid() || (p.Secondary != nil && !p.Secondary.Valid()) {
		c.notify(ctx, adapter.NotifyError, "notify.invalid_input")
		return fmt.Errorf("profile category: %w", domain.ErrInvalidArgument)
	}
	c.commit(ctx, EventProfileSet, map[string]any{"category": string(p.Primary), "mixed": p.IsMixed}, func(s *model.Session) {
		s.ACTProfile = p.Clone()
	})
	c.notify(ctx, adapter.NotifySuccess, "notify.profile_saved", string(p.Primary))
	return nil
}

// SetDiagnosis records the diagnosis and its intensity as the initial
// metrics. It needs a profile, and an invalid diagnosis is rejected whole.
func (c *FlowController) SetDiagnosis(ctx context.Context, d model.Diagnosis) (flow.Transition, error) {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(ctx); err != nil {
		return flow.Transition{}, err
	}
	if t := c.guardLocked(ctx, flow.StageDiagnosis); !t.Allowed {
		return t, nil
	}
	if !d.IsValid() {
		c.notify(ctx, adapter.NotifyError, "notify.diagnosis_invalid")
		return flow.Transition{}, fmt.Errorf("diagnosis: %w", domain.ErrInvalidArgument)
	}
	now := c.deps.Now()
	c.commit(ctx, EventDiagnosisSet, map[string]any{"intensity": d.Intensity, "emotions": len(d.EmotionalHistory)}, func(s *model.Session) {
		s.Diagnosis = d.Clone()
		s.InitialMetrics = &model.MetricsSnapshot{Intensity: d.Intensity, Timestamp: now}
	})
	c.stage = flow.StageDiagnosis
	c.notify(ctx, adapter.NotifySuccess, "notify.diagnosis_saved")
	return flow.Transition{Allowed: true}, nil
}

// StartRitual opens the ritual after re-checking the guard. A ritual that
// is already running is kept as is.
func (c *FlowController) StartRitual(ctx context.Context, aiMode bool) (flow.Transition, error) {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(ctx); err != nil {
		return flow.Transition{}, err
	}
	if t := c.guardLocked(ctx, flow.StageRitual); !t.Allowed {
		return t, nil
	}
	c.stage = flow.StageRitual
	if c.session.RitualState != nil {
		return flow.Transition{Allowed: true}, nil
	}
	c.commit(ctx, EventRitualStarted, map[string]any{"ai_mode": aiMode}, func(s *model.Session) {
		rs := model.NewRitualState()
		rs.IsAIMode = aiMode
		s.RitualState = &rs
	})
	c.notify(ctx, adapter.NotifyInfo, "notify.ritual_started")
	return flow.Transition{Allowed: true}, nil
}

func (c *FlowController) AddDialogueEntry(ctx context.Context, e model.DialogueEntry) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.activeRitualLocked(ctx); err != nil {
		return err
	}
	if e.PhaseID < 0 || e.PhaseID > model.LastPhaseIndex || strings.TrimSpace(e.Answer) == "" {
		return fmt.Errorf("dialogue entry: %w", domain.ErrInvalidArgument)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = c.deps.Now()
	}
	c.commit(ctx, EventDialogueEntryAdded, map[string]any{"phase": e.PhaseID, "ai": e.IsAIGenerated}, func(s *model.Session) {
		s.Dialogue = append(s.Dialogue, e)
	})
	return nil
}

// UpdateRitualPhase stores the answer and advances exactly one phase.
func (c *FlowController) UpdateRitualPhase(ctx context.Context, answer string) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.activeRitualLocked(ctx); err != nil {
		return err
	}
	from := c.session.RitualState.CurrentPhaseIndex
	c.commit(ctx, EventRitualPhaseUpdated, map[string]any{"from_phase": from}, func(s *model.Session) {
		rs := s.RitualState.UpdatePhase(answer)
		s.RitualState = &rs
	})
	c.pending = nil
	return nil
}

// RecordAnswer appends the dialogue entry for q and advances the phase in
// one step. q must be the question of the phase the ritual is on; an
// answer that lost a race to another one gets ErrLocked.
func (c *FlowController) RecordAnswer(ctx context.Context, q Question, answer string) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.activeRitualLocked(ctx); err != nil {
		return err
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("answer: %w", domain.ErrInvalidArgument)
	}
	rs := c.session.RitualState
	if len(rs.Answers) >= model.RitualPhaseCount {
		return fmt.Errorf("all phases answered: %w", domain.ErrInvalidArgument)
	}
	if q.sessionID != c.session.ID || q.PhaseIndex != rs.CurrentPhaseIndex {
		return fmt.Errorf("phase %d already answered: %w", q.PhaseIndex, domain.ErrLocked)
	}
	e := model.DialogueEntry{
		PhaseID:       q.PhaseIndex,
		PhaseName:     q.PhaseName,
		Question:      q.Text,
		Answer:        answer,
		IsAIGenerated: q.IsAIGenerated,
		Timestamp:     c.deps.Now(),
	}
	c.deps.Telemetry.Track(ctx, adapter.Event{
		Name: EventDialogueEntryAdded, SessionID: c.session.ID,
		Props: map[string]any{"phase": e.PhaseID, "ai": e.IsAIGenerated},
	})
	c.commit(ctx, EventRitualPhaseUpdated, map[string]any{"from_phase": rs.CurrentPhaseIndex}, func(s *model.Session) {
		s.Dialogue = append(s.Dialogue, e)
		next := s.RitualState.UpdatePhase(answer)
		s.RitualState = &next
	})
	c.pending = nil
	return nil
}

func (c *FlowController) PauseCurrentRitual(ctx context.Context) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ritualLocked(ctx); err != nil {
		return err
	}
	now := c.deps.Now()
	c.commit(ctx, EventRitualPaused, map[string]any{"phase": c.session.RitualState.CurrentPhaseIndex}, func(s *model.Session) {
		rs := s.RitualState.Pause(now)
		s.RitualState = &rs
	})
	c.notify(ctx, adapter.NotifyInfo, "notify.ritual_paused")
	return nil
}

func (c *FlowController) ResumeCurrentRitual(ctx context.Context) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ritualLocked(ctx); err != nil {
		return err
	}
	c.commit(ctx, EventRitualResumed, map[string]any{"phase": c.session.RitualState.CurrentPhaseIndex}, func(s *model.Session) {
		rs := s.RitualState.Resume()
		s.RitualState = &rs
	})
	c.notify(ctx, adapter.NotifyInfo, "notify.ritual_resumed")
	return nil
}

// TripAICircuitBreaker switches the ritual to static questions for good.
// Tripping an already tripped breaker changes nothing.
func (c *FlowController) TripAICircuitBreaker(ctx context.Context) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ritualLocked(ctx); err != nil {
		return err
	}
	if c.session.RitualState.AICircuitBreakerTripped {
		return nil
	}
	c.commit(ctx, EventBreakerTripped, map[string]any{"retries": c.session.RitualState.RetryCount}, func(s *model.Session) {
		rs := s.RitualState.TripCircuitBreaker()
		s.RitualState = &rs
	})
	metrics.IncBreakerTrip()
	c.notify(ctx, adapter.NotifyWarning, "notify.ai_unavailable")
	return nil
}

// RecordAIFailure counts a failed provider call and returns the new retry count.
func (c *FlowController) RecordAIFailure(ctx context.Context) (int, error) {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ritualLocked(ctx); err != nil {
		return 0, err
	}
	c.commit(ctx, EventAIFailureRecorded, nil, func(s *model.Session) {
		rs := s.RitualState.RecordAIFailure()
		s.RitualState = &rs
	})
	return c.session.RitualState.RetryCount, nil
}

func (c *FlowController) AddMetrics(ctx context.Context, m model.MetricsSnapshot) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ritualLocked(ctx); err != nil {
		return err
	}
	if m.Intensity < model.MinIntensity || m.Intensity > model.MaxIntensity ||
		(m.Fusion != nil && (*m.Fusion < 0 || *m.Fusion > model.MaxIntensity)) ||
		(m.Avoidance != nil && (*m.Avoidance < 0 || *m.Avoidance > model.MaxIntensity)) {
		return fmt.Errorf("metrics: %w", domain.ErrInvalidArgument)
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = c.deps.Now()
	}
	c.commit(ctx, EventMetricsAdded, map[string]any{"intensity": m.Intensity}, func(s *model.Session) {
		rs := s.RitualState.AddMetrics(m)
		s.RitualState = &rs
	})
	return nil
}

func (c *FlowController) TakeSomaticBreak(ctx context.Context) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ritualLocked(ctx); err != nil {
		return err
	}
	c.commit(ctx, EventSomaticBreak, map[string]any{"phase": c.session.RitualState.CurrentPhaseIndex}, func(s *model.Session) {
		rs := s.RitualState.TakeSomaticBreak()
		s.RitualState = &rs
	})
	c.notify(ctx, adapter.NotifyInfo, "notify.somatic_break")
	return nil
}

// CompleteRitual finalizes the session and records it in the history, in
// one step from the caller's point of view.
func (c *FlowController) CompleteRitual(ctx context.Context, finalIntensity int, mode model.SummaryMode) (flow.Transition, error) {
	ctx = c.ctx(ctx)
	defer logging.TraceDuration(c.log, "FlowController.CompleteRitual")()
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.mutableLocked(ctx); err != nil {
		return flow.Transition{}, err
	}
	if t := c.guardLocked(ctx, flow.StageComplete); !t.Allowed {
		return t, nil
	}
	if finalIntensity < model.MinIntensity || finalIntensity > model.MaxIntensity {
		return flow.Transition{}, fmt.Errorf("final intensity: %w", domain.ErrInvalidArgument)
	}
	if mode == "" {
		mode = model.SummaryNone
	}
	now := c.deps.Now()
	initial := c.session.Diagnosis.Intensity
	if c.session.InitialMetrics != nil {
		initial = c.session.InitialMetrics.Intensity
	}
	c.commit(ctx, EventRitualCompleted, map[string]any{
		"final_intensity": finalIntensity, "initial_intensity": initial, "summary_mode": string(mode),
	}, func(s *model.Session) {
		s.FinalMetrics = &model.MetricsSnapshot{Intensity: finalIntensity, Timestamp: now}
		s.CompletedAt = &now
	})
	c.histories.Save(ctx, c.session, mode)
	c.stage = flow.StageComplete
	c.pending = nil
	c.notify(ctx, adapter.NotifySuccess, "notify.ritual_completed", initial, finalIntensity)
	return flow.Transition{Allowed: true}, nil
}

// ResetSession discards the current session and starts a fresh one in the same privacy mode.
func (c *FlowController) ResetSession(ctx context.Context) {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resetLocked(ctx, EventSessionReset, "notify.session_reset")
}

func (c *FlowController) resetLocked(ctx context.Context, event, msgKey string) {
	mode := c.session.PrivacyMode
	old := c.session.ID
	c.sessions.Delete(ctx)
	fresh := model.NewSession(mode, c.deps.Now())
	c.commit(ctx, event, map[string]any{"previous_session_id": old}, func(s *model.Session) {
		*s = *fresh
	})
	c.stage = flow.StageIdle
	c.pending = nil
	c.notify(ctx, adapter.NotifyInfo, msgKey)
}

// SetPrivacyMode switches the mode. Going private removes whatever was
// already stored, locally and in the cloud.
func (c *FlowController) SetPrivacyMode(ctx context.Context, mode model.PrivacyMode) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if !mode.Valid() {
		return fmt.Errorf("privacy mode %q: %w", mode, domain.ErrInvalidArgument)
	}
	from := c.session.PrivacyMode
	if mode == model.PrivacyPrivate {
		c.sessions.Delete(ctx)
		if c.deps.Sync != nil {
			c.deps.Sync.Forget(ctx, c.userID)
		}
	}
	now := c.deps.Now()
	c.commit(ctx, EventPrivacyModeChanged, map[string]any{"from": string(from), "to": string(mode)}, func(s *model.Session) {
		s.PrivacyMode = mode
		switch {
		case mode == model.PrivacySession:
			s.ExpiresAt = nil
		case s.ExpiresAt == nil:
			s.ExpiresAt = mode.ExpiryFrom(now)
		}
	})
	if mode == model.PrivacyPrivate {
		c.notify(ctx, adapter.NotifyInfo, "notify.privacy_private")
	} else {
		c.notify(ctx, adapter.NotifyInfo, "notify.privacy_changed", string(mode))
	}
	return nil
}

func (c *FlowController) AddTag(ctx context.Context, tag string) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	tag = strings.TrimSpace(tag)
	if tag == "" {
		return fmt.Errorf("tag: %w", domain.ErrInvalidArgument)
	}
	c.commit(ctx, EventTagAdded, map[string]any{"tag": tag}, func(s *model.Session) {
		s.AddTags(tag)
	})
	c.refreshHistoryLocked(ctx)
	return nil
}

func (c *FlowController) RemoveTag(ctx context.Context, tag string) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.commit(ctx, EventTagRemoved, map[string]any{"tag": tag}, func(s *model.Session) {
		s.RemoveTag(tag)
	})
	c.refreshHistoryLocked(ctx)
	return nil
}

// refreshHistoryLocked keeps the history entry of a completed session in
// step with its tags. An entry the user deleted stays deleted.
func (c *FlowController) refreshHistoryLocked(ctx context.Context) {
	if !c.session.IsCompleted() {
		return
	}
	for _, h := range c.histories.Load(ctx) {
		if h.ID == c.session.ID {
			c.histories.Save(ctx, c.session, h.SummaryMode)
			return
		}
	}
}

// GoToStage moves the client to target when the guard allows it. The
// stage is navigation state, so nothing is persisted.
func (c *FlowController) GoToStage(ctx context.Context, target flow.Stage) flow.Transition {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	t := c.guardLocked(ctx, target)
	if !t.Allowed {
		return t
	}
	from := c.stage
	c.deps.Telemetry.Track(ctx, adapter.Event{
		Name: EventStageChanged, SessionID: c.session.ID,
		Props: map[string]any{"from": string(from), "to": string(target)},
	})
	c.stage = target
	return t
}

func (c *FlowController) DeleteHistoryEntry(ctx context.Context, id string) []model.CompletedSession {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.deps.Telemetry.Track(ctx, adapter.Event{
		Name: EventHistoryEntryDeleted, SessionID: c.session.ID, Props: map[string]any{"entry_id": id},
	})
	list := c.histories.Delete(ctx, id)
	c.notify(ctx, adapter.NotifyInfo, "notify.history_deleted")
	return list
}

// AdoptSession replaces the local session with s, typically a copy pulled
// from the cloud. s must pass the same validation as a stored record.
func (c *FlowController) AdoptSession(ctx context.Context, s *model.Session) error {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := model.Validate(s); err != nil {
		return err
	}
	if s.IsExpired(c.deps.Now()) {
		return fmt.Errorf("session expired: %w", domain.ErrInvalidArgument)
	}
	adopted := s.Clone()
	c.commit(ctx, EventSessionAdopted, map[string]any{"previous_session_id": c.session.ID}, func(cur *model.Session) {
		*cur = *adopted
	})
	c.stage = flow.CurrentStage(c.session)
	c.pending = nil
	c.notify(ctx, adapter.NotifySuccess, "notify.session_restored")
	return nil
}

// ExpireIfDue replaces an expired in-memory session with a fresh one. It
// reports whether anything expired.
func (c *FlowController) ExpireIfDue(ctx context.Context) bool {
	ctx = c.ctx(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsExpired(c.deps.Now()) {
		return false
	}
	c.resetLocked(ctx, EventSessionExpired, "notify.session_expired")
	return true
}

// IdleSince reports when the controller was last used.
func (c *FlowController) IdleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// --- plumbing ---

// commit is the only place session state changes: telemetry first, then
// the new state, then persistence and the sync hook.
func (c *FlowController) commit(ctx context.Context, event string, props map[string]any, mutate func(s *model.Session)) {
	c.touch()
	c.deps.Telemetry.Track(ctx, adapter.Event{Name: event, SessionID: c.session.ID, Props: props})

	next := c.session.Clone()
	mutate(next)
	c.session = next

	c.sessions.Save(ctx, next)
	if c.deps.Sync != nil && next.PrivacyMode.ShouldStore() {
		c.deps.Sync.Schedule(ctx, c.userID, next.Clone())
	}
}

// guardLocked asks the flow guard and turns a denial into user feedback.
func (c *FlowController) guardLocked(ctx context.Context, target flow.Stage) flow.Transition {
	t := flow.CanTransitionTo(target, c.session)
	if t.Allowed {
		return t
	}
	if key := "flow." + string(t.Reason); c.deps.Translator != nil && c.deps.Translator.Has(key) {
		t.Suggestion = c.deps.Translator.T(key)
	}
	metrics.IncTransitionDenied(string(target), string(t.Reason))
	c.deps.Telemetry.Track(ctx, adapter.Event{
		Name: EventTransitionDenied, SessionID: c.session.ID,
		Props: map[string]any{"target": string(target), "reason": string(t.Reason)},
	})
	c.deps.Notifier.Notify(ctx, adapter.Notification{Level: adapter.NotifyWarning, Message: t.Suggestion})
	return t
}

func (c *FlowController) mutableLocked(ctx context.Context) error {
	if c.session.IsCompleted() {
		c.notify(ctx, adapter.NotifyWarning, "notify.already_completed")
		return domain.ErrSessionCompleted
	}
	return nil
}

func (c *FlowController) ritualLocked(ctx context.Context) error {
	if err := c.mutableLocked(ctx); err != nil {
		return err
	}
	if c.session.RitualState == nil {
		c.notify(ctx, adapter.NotifyWarning, "notify.ritual_not_started")
		return domain.ErrNoRitual
	}
	return nil
}

func (c *FlowController) activeRitualLocked(ctx context.Context) error {
	if err := c.ritualLocked(ctx); err != nil {
		return err
	}
	if c.session.RitualState.IsPaused {
		c.notify(ctx, adapter.NotifyWarning, "notify.ritual_is_paused")
		return domain.ErrRitualPaused
	}
	return nil
}

func (c *FlowController) notify(ctx context.Context, level adapter.NotificationLevel, key string, args ...any) {
	msg := key
	if c.deps.Translator != nil {
		msg = c.deps.Translator.T(key, args...)
	}
	c.deps.Notifier.Notify(ctx, adapter.Notification{Level: level, Message: msg})
}

func (c *FlowController) ctx(ctx context.Context) context.Context {
	if _, ok := logging.UserID(ctx); ok {
		return ctx
	}
	return logging.WithUserID(ctx, c.userID)
}

func (c *FlowController) touch() { c.lastUsed = c.deps.Now() }

type pendingQuestion struct {
	sessionID string
	q         Question
}

// pendingQuestion returns the question already shown for this phase, if any.
func (c *FlowController) pendingQuestion(sessionID string, phase int) (Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pending
	if p == nil || p.sessionID != sessionID || p.q.PhaseIndex != phase {
		return Question{}, false
	}
	return p.q, true
}

func (c *FlowController) setPending(sessionID string, q Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.ID != sessionID {
		return
	}
	c.pending = &pendingQuestion{sessionID: sessionID, q: q}
}

type nopTelemetry struct{}

func (nopTelemetry) Track(context.Context, adapter.Event) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, adapter.Notification) {}
