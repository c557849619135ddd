package model

import (
	"slices"
	"time"
)

const (
	RitualPhaseCount = 6
	LastPhaseIndex   = RitualPhaseCount - 1
)

// RitualState tracks progress through the 6-phase ritual.
// All transitions are pure: they return a new value and leave the receiver untouched.
type RitualState struct {
	CurrentPhaseIndex       int               `json:"currentPhaseIndex"`
	Answers                 []string          `json:"answers"`
	IsPaused                bool              `json:"isPaused"`
	PausedAt                *time.Time        `json:"pausedAt,omitempty"`
	IsAIMode                bool              `json:"isAiMode"`
	AICircuitBreakerTripped bool              `json:"aiCircuitBreakerTripped"`
	RetryCount              int               `json:"retryCount"`
	MetricsHistory          []MetricsSnapshot `json:"metricsHistory"`
	SomaticBreaksTaken      int               `json:"somaticBreaksTaken"`
}

// NewRitualState returns the initial all-zero state.
func NewRitualState() RitualState {
	return RitualState{
		Answers:        []string{},
		MetricsHistory: []MetricsSnapshot{},
	}
}

func (r RitualState) clone() RitualState {
	r.Answers = slices.Clone(r.Answers)
	if r.MetricsHistory != nil {
		h := make([]MetricsSnapshot, len(r.MetricsHistory))
		for i, m := range r.MetricsHistory {
			h[i] = m.copy()
		}
		r.MetricsHistory = h
	}
	if r.PausedAt != nil {
		t := *r.PausedAt
		r.PausedAt = &t
	}
	return r
}

func (r *RitualState) Clone() *RitualState {
	if r == nil {
		return nil
	}
	cp := r.clone()
	return &cp
}

// UpdatePhase records the answer for the current phase and moves forward by
// exactly one phase. The index never leaves [0, LastPhaseIndex].
func (r RitualState) UpdatePhase(answer string) RitualState {
	next := r.clone()
	next.Answers = append(next.Answers, answer)
	if next.CurrentPhaseIndex < LastPhaseIndex {
		next.CurrentPhaseIndex++
	}
	return next
}

// IsLastPhase reports whether the ritual sits on its final phase.
func (r RitualState) IsLastPhase() bool {
	return r.CurrentPhaseIndex >= LastPhaseIndex
}

// Pause is idempotent: pausing a paused ritual keeps the original timestamp.
func (r RitualState) Pause(now time.Time) RitualState {
	next := r.clone()
	if next.IsPaused {
		return next
	}
	next.IsPaused = true
	next.PausedAt = &now
	return next
}

func (r RitualState) Resume() RitualState {
	next := r.clone()
	next.IsPaused = false
	next.PausedAt = nil
	return next
}

// TripCircuitBreaker disables AI questions for the rest of the session.
// There is no inverse operation.
func (r RitualState) TripCircuitBreaker() RitualState {
	next := r.clone()
	next.AICircuitBreakerTripped = true
	next.IsAIMode = false
	return next
}

// RecordAIFailure bumps the retry counter after a failed provider call.
func (r RitualState) RecordAIFailure() RitualState {
	next := r.clone()
	next.RetryCount++
	return next
}

// AIAvailable reports whether questions may still be generated by the provider.
func (r RitualState) AIAvailable() bool {
	return r.IsAIMode && !r.AICircuitBreakerTripped
}

// AddMetrics appends a snapshot; history is append-only.
func (r RitualState) AddMetrics(m MetricsSnapshot) RitualState {
	next := r.clone()
	next.MetricsHistory = append(next.MetricsHistory, m.copy())
	return next
}

func (r RitualState) TakeSomaticBreak() RitualState {
	next := r.clone()
	next.SomaticBreaksTaken++
	return next
}

func (r *RitualState) issues() []Issue {
	var out []Issue
	if r.CurrentPhaseIndex < 0 || r.CurrentPhaseIndex > LastPhaseIndex {
		out = append(out, Issue{Field: "ritualState.currentPhaseIndex", Constraint: "range [0,5]"})
	}
	if r.RetryCount < 0 {
		out = append(out, Issue{Field: "ritualState.retryCount", Constraint: "non-negative"})
	}
	if r.SomaticBreaksTaken < 0 {
		out = append(out, Issue{Field: "ritualState.somaticBreaksTaken", Constraint: "non-negative"})
	}
	if r.AICircuitBreakerTripped && r.IsAIMode {
		out = append(out, Issue{Field: "ritualState.isAiMode", Constraint: "false once circuit breaker tripped"})
	}
	for i := range r.MetricsHistory {
		out = append(out, r.MetricsHistory[i].issues("ritualState.metricsHistory")...)
	}
	return out
}
