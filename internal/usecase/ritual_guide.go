// File: internal/usecase/ritual_guide.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/flow"
	"act-companion/internal/domain/model"
	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/infra/i18n"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
)

// defusionPhase is the one phase whose static question quotes the belief.
const defusionPhase = 2

// Question is what the client shows next. Done means all six phases are answered.
type Question struct {
	PhaseIndex    int    `json:"phaseIndex"`
	PhaseName     string `json:"phaseName"`
	Text          string `json:"text"`
	IsAIGenerated bool   `json:"isAiGenerated"`
	Done          bool   `json:"done"`

	sessionID string
}

// Phase is the static content of one ritual phase.
type Phase struct {
	Name     string
	Goal     string
	Question string
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type RitualGuideConfig struct {
	MaxFailures int
	RateLimit   int
	RateWindow  time.Duration
	RateKey     func(sessionID string) string
}

// RitualGuide decides where each ritual question comes from: the AI
// provider while it is available, the static phase table otherwise.
type RitualGuide struct {
	ai      adapter.QuestionProvider
	limiter RateLimiter
	tr      *i18n.Translator
	cfg     RitualGuideConfig
	log     *zerolog.Logger
}

// NewRitualGuide accepts a nil provider and a nil limiter; without a
// provider every question is static.
func NewRitualGuide(ai adapter.QuestionProvider, limiter RateLimiter, tr *i18n.Translator, cfg RitualGuideConfig, logger *zerolog.Logger) *RitualGuide {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.RateKey == nil {
		cfg.RateKey = func(id string) string { return "ai:" + id }
	}
	if logger == nil {
		logger = logging.Nop()
	}
	l := logger.With().Str("component", "RitualGuide").Logger()
	return &RitualGuide{ai: ai, limiter: limiter, tr: tr, cfg: cfg, log: &l}
}

// Phase returns the static content of phase i, with the belief quoted where the phase needs it.
func (g *RitualGuide) Phase(i int, belief string) Phase {
	base := fmt.Sprintf("ritual.phase.%d.", i)
	p := Phase{Name: g.tr.T(base + "name"), Goal: g.tr.T(base + "goal")}
	if i == defusionPhase {
		p.Question = g.tr.T(base+"question", belief)
	} else {
		p.Question = g.tr.T(base + "question")
	}
	return p
}

// NextQuestion returns the question for the current phase. Asking twice
// without answering returns the same question.
func (g *RitualGuide) NextQuestion(ctx context.Context, c *FlowController) (Question, error) {
	ctx = c.ctx(ctx)
	s := c.Session()
	rs, err := ritualOf(s)
	if err != nil {
		return Question{}, err
	}
	if len(rs.Answers) >= model.RitualPhaseCount {
		return Question{PhaseIndex: model.LastPhaseIndex, Done: true}, nil
	}
	if q, ok := c.pendingQuestion(s.ID, rs.CurrentPhaseIndex); ok {
		return q, nil
	}

	phase := g.Phase(rs.CurrentPhaseIndex, s.Diagnosis.CoreBelief)
	q := Question{PhaseIndex: rs.CurrentPhaseIndex, PhaseName: phase.Name, Text: phase.Question, sessionID: s.ID}

	if text, ok := g.generate(ctx, c, s, phase); ok {
		q.Text = text
		q.IsAIGenerated = true
	}
	c.setPending(s.ID, q)
	return q, nil
}

func (g *RitualGuide) generate(ctx context.Context, c *FlowController, s *model.Session, phase Phase) (string, bool) {
	rs := s.RitualState
	if !rs.AIAvailable() || g.ai == nil {
		if rs.AICircuitBreakerTripped {
			metrics.IncAIFallback("question", "disabled")
		}
		return "", false
	}
	if !g.allow(ctx, s.ID) {
		metrics.IncAIFallback("question", "rate_limited")
		return "", false
	}

	log := logging.With(ctx, g.log)
	text, err := g.ai.GenerateQuestion(ctx, adapter.QuestionRequest{
		PhaseIndex:   rs.CurrentPhaseIndex,
		PhaseName:    phase.Name,
		PhaseGoal:    phase.Goal,
		CoreBelief:   s.Diagnosis.CoreBelief,
		Profile:      string(s.ACTProfile.Primary),
		Emotions:     s.Diagnosis.EmotionalHistory,
		Triggers:     s.Diagnosis.Triggers,
		PriorAnswers: rs.Answers,
	})
	switch {
	case errors.Is(err, domain.ErrUseFallback):
		metrics.IncAIFallback("question", "fallback")
		return "", false
	case err != nil:
		log.Warn().Err(err).Int("phase", rs.CurrentPhaseIndex).Msg("question generation failed")
		metrics.IncAIFallback("question", "error")
		g.recordFailure(ctx, c)
		return "", false
	}
	return text, true
}

// recordFailure counts the failure and trips the breaker once the limit is reached.
func (g *RitualGuide) recordFailure(ctx context.Context, c *FlowController) {
	n, err := c.RecordAIFailure(ctx)
	if err != nil {
		return
	}
	if n >= g.cfg.MaxFailures {
		_ = c.TripAICircuitBreaker(ctx)
	}
}

func (g *RitualGuide) allow(ctx context.Context, sessionID string) bool {
	if g.limiter == nil || g.cfg.RateLimit <= 0 {
		return true
	}
	ok, err := g.limiter.Allow(ctx, g.cfg.RateKey(sessionID), g.cfg.RateLimit, g.cfg.RateWindow)
	if err != nil {
		logging.With(ctx, g.log).Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

// Answer records the answer to the pending question and advances one phase.
// Of two answers racing for the same phase only the first is kept.
func (g *RitualGuide) Answer(ctx context.Context, c *FlowController, answer string) error {
	if strings.TrimSpace(answer) == "" {
		return fmt.Errorf("answer: %w", domain.ErrInvalidArgument)
	}
	q, err := g.NextQuestion(ctx, c)
	if err != nil {
		return err
	}
	if q.Done {
		return fmt.Errorf("all phases answered: %w", domain.ErrInvalidArgument)
	}
	return c.RecordAnswer(ctx, q, answer)
}

// Summary produces the closing text for a ritual that ends at finalIntensity.
func (g *RitualGuide) Summary(ctx context.Context, c *FlowController, finalIntensity int) (string, model.SummaryMode) {
	ctx = c.ctx(ctx)
	s := c.Session()
	if s.Diagnosis == nil {
		return "", model.SummaryNone
	}
	initial := s.Diagnosis.Intensity
	if s.InitialMetrics != nil {
		initial = s.InitialMetrics.Intensity
	}
	static := g.tr.T("ritual.summary.static", s.Diagnosis.CoreBelief, initial, finalIntensity)

	rs := s.RitualState
	if rs == nil || !rs.AIAvailable() || g.ai == nil || s.ACTProfile == nil {
		return static, model.SummaryStatic
	}
	if !g.allow(ctx, s.ID) {
		metrics.IncAIFallback("summary", "rate_limited")
		return static, model.SummaryStatic
	}
	text, err := g.ai.GenerateSummary(ctx, adapter.SummaryRequest{
		CoreBelief:       s.Diagnosis.CoreBelief,
		Profile:          string(s.ACTProfile.Primary),
		Emotions:         s.Diagnosis.EmotionalHistory,
		Answers:          rs.Answers,
		InitialIntensity: initial,
		FinalIntensity:   finalIntensity,
	})
	if err != nil {
		reason := "error"
		if errors.Is(err, domain.ErrUseFallback) {
			reason = "fallback"
		} else {
			logging.With(ctx, g.log).Warn().Err(err).Msg("summary generation failed")
		}
		metrics.IncAIFallback("summary", reason)
		return static, model.SummaryStatic
	}
	return text, model.SummaryAI
}

// Finish writes the summary and completes the ritual.
func (g *RitualGuide) Finish(ctx context.Context, c *FlowController, finalIntensity int) (string, flow.Transition, error) {
	if finalIntensity < model.MinIntensity || finalIntensity > model.MaxIntensity {
		return "", flow.Transition{}, fmt.Errorf("final intensity: %w", domain.ErrInvalidArgument)
	}
	text, mode := g.Summary(ctx, c, finalIntensity)
	t, err := c.CompleteRitual(ctx, finalIntensity, mode)
	if err != nil || !t.Allowed {
		return "", t, err
	}
	return text, t, nil
}

func ritualOf(s *model.Session) (*model.RitualState, error) {
	switch {
	case s.IsCompleted():
		return nil, domain.ErrSessionCompleted
	case s.RitualState == nil, s.Diagnosis == nil, s.ACTProfile == nil:
		return nil, domain.ErrNoRitual
	case s.RitualState.IsPaused:
		return nil, domain.ErrRitualPaused
	}
	return s.RitualState, nil
}
