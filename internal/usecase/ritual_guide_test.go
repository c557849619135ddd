//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"act-companion/internal/domain"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/usecase"
)

var errProviderDown = errors.New("provider down")

func newGuide(ai *MockQuestionProvider, limiter *MockRateLimiter) *usecase.RitualGuide {
	cfg := usecase.RitualGuideConfig{MaxFailures: 3, RateLimit: 10}
	var l usecase.RateLimiter
	if limiter != nil {
		l = limiter
	}
	if ai == nil {
		return usecase.NewRitualGuide(nil, l, newTestTranslator(), cfg, newTestLogger())
	}
	return usecase.NewRitualGuide(ai, l, newTestTranslator(), cfg, newTestLogger())
}

func TestRitualGuide_StaticQuestions(t *testing.T) {
	ctx := context.Background()
	tr := newTestTranslator()

	t.Run("should serve the phase table when AI mode is off", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(false)
		ai := &MockQuestionProvider{Text: "generated"}
		g := newGuide(ai, nil)

		q, err := g.NextQuestion(ctx, h.ctrl)
		if err != nil {
			t.Fatalf("NextQuestion: %v", err)
		}
		if q.Text != tr.T("ritual.phase.0.question") || q.PhaseName != "Anchor" || q.IsAIGenerated {
			t.Errorf("question = %+v", q)
		}
		if ai.calls() != 0 {
			t.Errorf("provider must not be called, got %d calls", ai.calls())
		}
	})

	t.Run("should quote the belief in the defusion phase", func(t *testing.T) {
		g := newGuide(nil, nil)
		p := g.Phase(2, "I am not good enough")
		if !strings.Contains(p.Question, "I am not good enough") || p.Name != "Defuse" {
			t.Errorf("phase = %+v", p)
		}
	})

	t.Run("should walk all six phases and then report done", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(false)
		g := newGuide(nil, nil)

		for i := 0; i < model.RitualPhaseCount; i++ {
			q, err := g.NextQuestion(ctx, h.ctrl)
			if err != nil || q.PhaseIndex != i || q.Done {
				t.Fatalf("phase %d: %+v, %v", i, q, err)
			}
			if err := g.Answer(ctx, h.ctrl, "answer"); err != nil {
				t.Fatalf("answer %d: %v", i, err)
			}
		}
		q, err := g.NextQuestion(ctx, h.ctrl)
		if err != nil || !q.Done {
			t.Fatalf("expected done, got %+v, %v", q, err)
		}
		if err := g.Answer(ctx, h.ctrl, "one more"); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument after the last phase, got %v", err)
		}
		s := h.ctrl.Session()
		if len(s.Dialogue) != model.RitualPhaseCount || s.PhasesCompleted() != model.RitualPhaseCount {
			t.Errorf("dialogue = %+v", s.Dialogue)
		}
	})

	t.Run("should reject empty answers", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(false)
		if err := newGuide(nil, nil).Answer(ctx, h.ctrl, "   "); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should refuse questions while paused or before the ritual", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		g := newGuide(nil, nil)
		if _, err := g.NextQuestion(ctx, h.ctrl); !errors.Is(err, domain.ErrNoRitual) {
			t.Errorf("expected ErrNoRitual, got %v", err)
		}
		h.readyForRitual(false)
		_ = h.ctrl.PauseCurrentRitual(ctx)
		if _, err := g.NextQuestion(ctx, h.ctrl); !errors.Is(err, domain.ErrRitualPaused) {
			t.Errorf("expected ErrRitualPaused, got %v", err)
		}
	})
}

func TestRitualGuide_AIQuestions(t *testing.T) {
	ctx := context.Background()

	t.Run("should use the provider and ask it once per phase", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(true)
		ai := &MockQuestionProvider{Text: "What do you notice?"}
		g := newGuide(ai, nil)

		q1, _ := g.NextQuestion(ctx, h.ctrl)
		q2, _ := g.NextQuestion(ctx, h.ctrl)
		if !q1.IsAIGenerated || q1.Text != "What do you notice?" || q1 != q2 {
			t.Errorf("questions = %+v / %+v", q1, q2)
		}
		if ai.calls() != 1 {
			t.Errorf("expected one provider call, got %d", ai.calls())
		}

		if err := g.Answer(ctx, h.ctrl, "tight chest"); err != nil {
			t.Fatalf("Answer: %v", err)
		}
		s := h.ctrl.Session()
		if len(s.Dialogue) != 1 || !s.Dialogue[0].IsAIGenerated || s.RitualState.CurrentPhaseIndex != 1 {
			t.Errorf("session after answer = %+v", s)
		}
	})

	t.Run("should trip the breaker after repeated failures", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(true)
		ai := &MockQuestionProvider{Err: errProviderDown}
		g := newGuide(ai, nil)

		for i := 0; i < 3; i++ {
			q, err := g.NextQuestion(ctx, h.ctrl)
			if err != nil || q.IsAIGenerated {
				t.Fatalf("round %d: expected static fallback, got %+v, %v", i, q, err)
			}
			_ = g.Answer(ctx, h.ctrl, "answer")
		}

		rs := h.ctrl.Session().RitualState
		if !rs.AICircuitBreakerTripped || rs.IsAIMode || rs.RetryCount != 3 {
			t.Fatalf("ritual state = %+v", rs)
		}
		_, _ = g.NextQuestion(ctx, h.ctrl)
		if ai.calls() != 3 {
			t.Errorf("provider called after the breaker tripped: %d calls", ai.calls())
		}
		if h.telemetry.count(usecase.EventBreakerTripped) != 1 {
			t.Errorf("events = %v", h.telemetry.names())
		}
	})

	t.Run("should not count fallbacks as failures", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(true)
		g := newGuide(&MockQuestionProvider{Err: domain.ErrUseFallback}, nil)

		q, err := g.NextQuestion(ctx, h.ctrl)
		if err != nil || q.IsAIGenerated {
			t.Fatalf("expected static question, got %+v, %v", q, err)
		}
		if rs := h.ctrl.Session().RitualState; rs.RetryCount != 0 || rs.AICircuitBreakerTripped {
			t.Errorf("ritual state = %+v", rs)
		}
	})

	t.Run("should fall back when rate limited", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(true)
		ai := &MockQuestionProvider{Text: "generated"}
		limiter := &MockRateLimiter{Deny: true}
		g := newGuide(ai, limiter)

		q, _ := g.NextQuestion(ctx, h.ctrl)
		if q.IsAIGenerated || ai.calls() != 0 {
			t.Errorf("expected static question without provider call, got %+v", q)
		}
		if len(limiter.keys) != 1 || limiter.keys[0] != "ai:"+h.ctrl.Session().ID {
			t.Errorf("limiter keys = %v", limiter.keys)
		}
	})
}

func TestRitualGuide_Finish(t *testing.T) {
	ctx := context.Background()

	t.Run("should write a static summary and complete", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(false)
		g := newGuide(nil, nil)

		text, tn, err := g.Finish(ctx, h.ctrl, 4)
		if err != nil || !tn.Allowed {
			t.Fatalf("Finish: %+v, %v", tn, err)
		}
		if !strings.Contains(text, "I am not good enough") {
			t.Errorf("summary = %q", text)
		}
		list := h.ctrl.History(ctx)
		if len(list) != 1 || list[0].SummaryMode != model.SummaryStatic || list[0].FinalIntensity != 4 {
			t.Errorf("history = %+v", list)
		}
	})

	t.Run("should use the provider summary in AI mode", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(true)
		g := newGuide(&MockQuestionProvider{Summary: "You did well."}, nil)

		text, _, err := g.Finish(ctx, h.ctrl, 5)
		if err != nil || text != "You did well." {
			t.Fatalf("Finish: %q, %v", text, err)
		}
		if list := h.ctrl.History(ctx); list[0].SummaryMode != model.SummaryAI {
			t.Errorf("summary mode = %q", list[0].SummaryMode)
		}
	})

	t.Run("should reject an out of range intensity", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(false)
		if _, _, err := newGuide(nil, nil).Finish(ctx, h.ctrl, 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

// gatedProvider holds every question request until release is closed.
type gatedProvider struct {
	MockQuestionProvider
	arrived sync.WaitGroup
	release chan struct{}
}

func (p *gatedProvider) GenerateQuestion(ctx context.Context, req adapter.QuestionRequest) (string, error) {
	p.arrived.Done()
	<-p.release
	return p.MockQuestionProvider.GenerateQuestion(ctx, req)
}

func TestRitualGuide_ConcurrentAnswers(t *testing.T) {
	ctx := context.Background()

	t.Run("should keep only one answer when two race for the same phase", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(true)
		ai := &gatedProvider{MockQuestionProvider: MockQuestionProvider{Text: "What do you notice?"}, release: make(chan struct{})}
		ai.arrived.Add(2)
		g := usecase.NewRitualGuide(ai, nil, newTestTranslator(), usecase.RitualGuideConfig{MaxFailures: 3}, newTestLogger())

		errs := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() { errs <- g.Answer(ctx, h.ctrl, "tight chest") }()
		}
		ai.arrived.Wait()
		close(ai.release)

		var ok, locked int
		for i := 0; i < 2; i++ {
			switch err := <-errs; {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrLocked):
				locked++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if ok != 1 || locked != 1 {
			t.Fatalf("ok=%d locked=%d", ok, locked)
		}

		s := h.ctrl.Session()
		if s.RitualState.CurrentPhaseIndex != 1 || len(s.RitualState.Answers) != 1 {
			t.Errorf("ritual state = %+v", s.RitualState)
		}
		if len(s.Dialogue) != 1 || s.Dialogue[0].PhaseID != 0 {
			t.Errorf("dialogue = %+v", s.Dialogue)
		}
	})

	t.Run("should reject a question from a previous phase", func(t *testing.T) {
		h := newHarness(model.PrivacyPersist)
		h.readyForRitual(false)
		g := newGuide(nil, nil)

		q, _ := g.NextQuestion(ctx, h.ctrl)
		if err := h.ctrl.RecordAnswer(ctx, q, "first"); err != nil {
			t.Fatalf("RecordAnswer: %v", err)
		}
		if err := h.ctrl.RecordAnswer(ctx, q, "again"); !errors.Is(err, domain.ErrLocked) {
			t.Errorf("expected ErrLocked, got %v", err)
		}
		if n := len(h.ctrl.Session().Dialogue); n != 1 {
			t.Errorf("dialogue length = %d", n)
		}
	})
}
