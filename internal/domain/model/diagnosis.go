package model

import (
	"slices"
	"time"
	"unicode/utf8"
)

const (
	MinCoreBeliefLength = 5
	MinIntensity        = 1
	MaxIntensity        = 10
)

// Diagnosis captures the belief the ritual works on.
type Diagnosis struct {
	CoreBelief       string   `json:"coreBelief"`
	EmotionalHistory []string `json:"emotionalHistory"`
	Triggers         []string `json:"triggers"`
	Narrative        string   `json:"narrative"`
	Origin           string   `json:"origin"`
	Intensity        int      `json:"intensity"`
}

// IsValid is the minimum-field check the flow guard relies on.
func (d *Diagnosis) IsValid() bool {
	return d != nil && len(d.issues()) == 0
}

// PrimaryEmotion is the first recorded emotion, or "".
func (d *Diagnosis) PrimaryEmotion() string {
	if d == nil || len(d.EmotionalHistory) == 0 {
		return ""
	}
	return d.EmotionalHistory[0]
}

func (d *Diagnosis) issues() []Issue {
	var out []Issue
	if utf8.RuneCountInString(d.CoreBelief) < MinCoreBeliefLength {
		out = append(out, Issue{Field: "diagnosis.coreBelief", Constraint: "min length 5"})
	}
	if len(d.EmotionalHistory) < 1 {
		out = append(out, Issue{Field: "diagnosis.emotionalHistory", Constraint: "non-empty"})
	}
	if len(d.Triggers) < 1 {
		out = append(out, Issue{Field: "diagnosis.triggers", Constraint: "non-empty"})
	}
	if d.Intensity < MinIntensity || d.Intensity > MaxIntensity {
		out = append(out, Issue{Field: "diagnosis.intensity", Constraint: "range [1,10]"})
	}
	return out
}

func (d *Diagnosis) Clone() *Diagnosis {
	if d == nil {
		return nil
	}
	cp := *d
	cp.EmotionalHistory = slices.Clone(d.EmotionalHistory)
	cp.Triggers = slices.Clone(d.Triggers)
	return &cp
}

// MetricsSnapshot is one intensity reading with optional sub-metrics.
type MetricsSnapshot struct {
	Intensity int       `json:"intensity"`
	Fusion    *int      `json:"fusion,omitempty"`
	Avoidance *int      `json:"avoidance,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *MetricsSnapshot) Clone() *MetricsSnapshot {
	if m == nil {
		return nil
	}
	cp := m.copy()
	return &cp
}

func (m MetricsSnapshot) copy() MetricsSnapshot {
	if m.Fusion != nil {
		f := *m.Fusion
		m.Fusion = &f
	}
	if m.Avoidance != nil {
		a := *m.Avoidance
		m.Avoidance = &a
	}
	return m
}

func (m *MetricsSnapshot) issues(field string) []Issue {
	var out []Issue
	if m.Intensity < MinIntensity || m.Intensity > MaxIntensity {
		out = append(out, Issue{Field: field + ".intensity", Constraint: "range [1,10]"})
	}
	if m.Fusion != nil && (*m.Fusion < 0 || *m.Fusion > MaxIntensity) {
		out = append(out, Issue{Field: field + ".fusion", Constraint: "range [0,10]"})
	}
	if m.Avoidance != nil && (*m.Avoidance < 0 || *m.Avoidance > MaxIntensity) {
		out = append(out, Issue{Field: field + ".avoidance", Constraint: "range [0,10]"})
	}
	return out
}

// DialogueEntry is one question/answer exchange of the ritual.
type DialogueEntry struct {
	PhaseID       int       `json:"phaseId"`
	PhaseName     string    `json:"phaseName"`
	Question      string    `json:"question"`
	Answer        string    `json:"answer"`
	Timestamp     time.Time `json:"timestamp"`
	IsAIGenerated bool      `json:"isAiGenerated"`
}
