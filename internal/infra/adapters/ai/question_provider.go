package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"act-companion/internal/domain"
	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/infra/logging"
	"act-companion/internal/infra/metrics"
)

var _ adapter.QuestionProvider = (*QuestionService)(nil)

const (
	questionSystemPrompt = "You guide an Acceptance and Commitment Therapy exercise. " +
		"Ask exactly one short, open Socratic question for the given phase. No advice, no diagnosis."
	summarySystemPrompt = "You close an Acceptance and Commitment Therapy exercise. " +
		"Write a brief, warm summary of what the person explored, in the second person."
)

// QuestionService turns ritual requests into chat prompts. Prior answers are
// dropped oldest-first until the prompt fits the token budget.
type QuestionService struct {
	ai       adapter.ChatProvider
	provider string
	model    string
	budget   int
	log      *zerolog.Logger
}

func NewQuestionService(ai adapter.ChatProvider, provider, model string, tokenBudget int, logger *zerolog.Logger) *QuestionService {
	l := logger.With().Str("component", "QuestionService").Logger()
	return &QuestionService{ai: ai, provider: provider, model: model, budget: tokenBudget, log: &l}
}

func (q *QuestionService) GenerateQuestion(ctx context.Context, req adapter.QuestionRequest) (string, error) {
	build := func(answers []string) []adapter.Message {
		var b strings.Builder
		fmt.Fprintf(&b, "Phase %d of 6: %s.\nGoal: %s\n", req.PhaseIndex+1, req.PhaseName, req.PhaseGoal)
		fmt.Fprintf(&b, "Core belief: %q\nProfile: %s\n", req.CoreBelief, req.Profile)
		if len(req.Emotions) > 0 {
			fmt.Fprintf(&b, "Emotions: %s\n", strings.Join(req.Emotions, ", "))
		}
		if len(req.Triggers) > 0 {
			fmt.Fprintf(&b, "Triggers: %s\n", strings.Join(req.Triggers, ", "))
		}
		writeAnswers(&b, answers)
		return []adapter.Message{
			{Role: "system", Content: questionSystemPrompt},
			{Role: "user", Content: b.String()},
		}
	}
	return q.complete(ctx, "question", build, req.PriorAnswers)
}

func (q *QuestionService) GenerateSummary(ctx context.Context, req adapter.SummaryRequest) (string, error) {
	build := func(answers []string) []adapter.Message {
		var b strings.Builder
		fmt.Fprintf(&b, "Core belief: %q\nProfile: %s\n", req.CoreBelief, req.Profile)
		if len(req.Emotions) > 0 {
			fmt.Fprintf(&b, "Emotions: %s\n", strings.Join(req.Emotions, ", "))
		}
		fmt.Fprintf(&b, "Intensity before: %d/10, after: %d/10\n", req.InitialIntensity, req.FinalIntensity)
		writeAnswers(&b, answers)
		return []adapter.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: b.String()},
		}
	}
	return q.complete(ctx, "summary", build, req.Answers)
}

func writeAnswers(b *strings.Builder, answers []string) {
	if len(answers) == 0 {
		return
	}
	b.WriteString("Previous answers:\n")
	for _, a := range answers {
		fmt.Fprintf(b, "- %s\n", a)
	}
}

func (q *QuestionService) complete(ctx context.Context, kind string, build func([]string) []adapter.Message, answers []string) (string, error) {
	log := logging.With(ctx, q.log)

	msgs := build(answers)
	if q.budget > 0 {
		for len(answers) > 0 {
			n, err := q.ai.CountTokens(ctx, q.model, msgs)
			if err != nil || n <= q.budget {
				break
			}
			answers = answers[1:]
			msgs = build(answers)
		}
	}

	start := time.Now()
	text, usage, err := q.ai.ChatWithUsage(ctx, q.model, msgs)
	metrics.ObserveChatUsage(q.provider, q.model, usage.PromptTokens, usage.CompletionTokens,
		int(time.Since(start).Milliseconds()), err == nil)
	if err != nil {
		log.Warn().Err(err).Str("kind", kind).Msg("ai generation failed")
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.ErrUseFallback
	}
	return text, nil
}
