// Package flow holds the stage guard of the ACT journey. Everything here is
// pure: derived state is recomputed from the session instead of being stored.
package flow

import (
	"math"

	"act-companion/internal/domain/model"
)

type Stage string

const (
	StageIdle      Stage = "IDLE"
	StageTest      Stage = "TEST"
	StageDiagnosis Stage = "DIAGNOSIS"
	StageRitual    Stage = "RITUAL"
	StageComplete  Stage = "COMPLETE"
)

// Stages in journey order.
var Stages = []Stage{StageIdle, StageTest, StageDiagnosis, StageRitual, StageComplete}

func ParseStage(s string) (Stage, bool) {
	for _, st := range Stages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Reason is the machine-readable cause of a denied transition.
type Reason string

const (
	ReasonProfileRequired   Reason = "profile_required"
	ReasonDiagnosisRequired Reason = "diagnosis_required"
	ReasonSessionIncomplete Reason = "session_incomplete"
	ReasonUnknownStage      Reason = "unknown_stage"
)

// Transition is the guard verdict. Suggestion is user feedback only.
type Transition struct {
	Allowed    bool   `json:"allowed"`
	Reason     Reason `json:"reason,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

var allowed = Transition{Allowed: true}

var suggestions = map[Reason]string{
	ReasonProfileRequired:   "Complete the profile questionnaire first.",
	ReasonDiagnosisRequired: "Fill in your belief, at least one emotion and one trigger, and rate its intensity from 1 to 10.",
	ReasonSessionIncomplete: "Finish the profile and the diagnosis before completing the session.",
	ReasonUnknownStage:      "This step does not exist.",
}

func deny(r Reason) Transition {
	return Transition{Reason: r, Suggestion: suggestions[r]}
}

// CanTransitionTo decides whether the session may move to target. It never
// mutates the session; callers must honour the verdict.
func CanTransitionTo(target Stage, s *model.Session) Transition {
	switch target {
	case StageIdle, StageTest:
		return allowed
	case StageDiagnosis:
		if s == nil || s.ACTProfile == nil {
			return deny(ReasonProfileRequired)
		}
		return allowed
	case StageRitual:
		if s == nil || s.ACTProfile == nil {
			return deny(ReasonProfileRequired)
		}
		if !s.Diagnosis.IsValid() {
			return deny(ReasonDiagnosisRequired)
		}
		return allowed
	case StageComplete:
		if s == nil || s.ACTProfile == nil || s.Diagnosis == nil {
			return deny(ReasonSessionIncomplete)
		}
		return allowed
	default:
		return deny(ReasonUnknownStage)
	}
}

// CurrentStage infers the effective stage. A ritual still on phase 0 reports
// DIAGNOSIS, not RITUAL.
func CurrentStage(s *model.Session) Stage {
	switch {
	case s == nil:
		return StageIdle
	case s.CompletedAt != nil:
		return StageComplete
	case s.RitualState != nil && s.RitualState.CurrentPhaseIndex > 0:
		return StageRitual
	case s.Diagnosis != nil:
		return StageDiagnosis
	case s.ACTProfile != nil:
		return StageTest
	default:
		return StageIdle
	}
}

// AvailableTransitions lists the stages the guard currently allows, in journey order.
func AvailableTransitions(s *model.Session) []Stage {
	out := make([]Stage, 0, len(Stages))
	for _, st := range Stages {
		if CanTransitionTo(st, s).Allowed {
			out = append(out, st)
		}
	}
	return out
}

// HasSignificantProgress tells whether a reset would lose user work.
func HasSignificantProgress(s *model.Session) bool {
	if s == nil {
		return false
	}
	return s.ACTProfile != nil ||
		(s.Diagnosis != nil && s.Diagnosis.CoreBelief != "") ||
		len(s.Dialogue) > 0
}

const (
	profileWeight   = 25.0
	diagnosisWeight = 25.0
	dialogueWeight  = 40.0
)

// ProgressPercentage weighs profile (25), diagnosis (25) and dialogue (up to
// 40 over six phases). A completed session is always 100.
func ProgressPercentage(s *model.Session) float64 {
	if s == nil {
		return 0
	}
	if s.CompletedAt != nil {
		return 100
	}
	var p float64
	if s.ACTProfile != nil {
		p += profileWeight
	}
	if s.Diagnosis != nil {
		p += diagnosisWeight
	}
	p += math.Min(dialogueWeight, float64(len(s.Dialogue))/model.RitualPhaseCount*dialogueWeight)
	return p
}
