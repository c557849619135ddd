package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatProvider is one LLM backend the question service talks to.
type ChatProvider interface {
	// CountTokens returns the prompt tokens for messages, estimated when the
	// provider cannot count exactly.
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	ChatWithUsage(ctx context.Context, model string, messages []Message) (string, Usage, error)
}

// QuestionRequest is what the ritual hands to the question provider.
type QuestionRequest struct {
	PhaseIndex   int
	PhaseName    string
	PhaseGoal    string
	CoreBelief   string
	Profile      string
	Emotions     []string
	Triggers     []string
	PriorAnswers []string
}

// SummaryRequest asks for the closing summary of a finished ritual.
type SummaryRequest struct {
	CoreBelief       string
	Profile          string
	Emotions         []string
	Answers          []string
	InitialIntensity int
	FinalIntensity   int
}

// QuestionProvider generates ritual questions and summaries. Returning
// domain.ErrUseFallback (or any error) tells the caller to use static content.
type QuestionProvider interface {
	GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error)
	GenerateSummary(ctx context.Context, req SummaryRequest) (string, error)
}
