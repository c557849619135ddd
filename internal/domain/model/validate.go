package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"act-companion/internal/domain"
)

// Issue is one violated constraint.
type Issue struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

// ValidationError lists every constraint a record violates.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Field+": "+is.Constraint)
	}
	return "invalid session: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidArgument }

// ParseSession decodes and validates a stored session. Validation is
// all-or-nothing: on failure no session is returned.
func ParseSession(raw []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	if s.Dialogue == nil {
		s.Dialogue = []DialogueEntry{}
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

// Validate checks a session against the current schema.
func Validate(s *Session) error {
	if s == nil {
		return &ValidationError{Issues: []Issue{{Field: "session", Constraint: "required"}}}
	}
	var out []Issue
	if s.SchemaVersion != CurrentSchemaVersion {
		out = append(out, Issue{Field: "schemaVersion", Constraint: fmt.Sprintf("equals %d", CurrentSchemaVersion)})
	}
	if strings.TrimSpace(s.ID) == "" {
		out = append(out, Issue{Field: "id", Constraint: "required"})
	}
	if s.CreatedAt.IsZero() {
		out = append(out, Issue{Field: "createdAt", Constraint: "required"})
	}
	if !s.PrivacyMode.Valid() {
		out = append(out, Issue{Field: "privacyMode", Constraint: "one of persist|session|private"})
	}
	if p := s.ACTProfile; p != nil {
		if !p.Primary.Valid() {
			out = append(out, Issue{Field: "actProfile.primary", Constraint: "one of A|B|C|D"})
		}
		if p.Secondary != nil && !p.Secondary.Valid() {
			out = append(out, Issue{Field: "actProfile.secondary", Constraint: "one of A|B|C|D"})
		}
		for c := range p.Scores {
			if !c.Valid() {
				out = append(out, Issue{Field: "actProfile.scores", Constraint: "keys A|B|C|D"})
				break
			}
		}
	}
	if s.Diagnosis != nil {
		out = append(out, s.Diagnosis.issues()...)
	}
	for i, e := range s.Dialogue {
		if e.Timestamp.IsZero() {
			out = append(out, Issue{Field: fmt.Sprintf("dialogue[%d].timestamp", i), Constraint: "required"})
		}
		if e.PhaseID < 0 || e.PhaseID > LastPhaseIndex {
			out = append(out, Issue{Field: fmt.Sprintf("dialogue[%d].phaseId", i), Constraint: "range [0,5]"})
		}
	}
	if s.RitualState != nil {
		out = append(out, s.RitualState.issues()...)
	}
	if s.InitialMetrics != nil {
		out = append(out, s.InitialMetrics.issues("initialMetrics")...)
	}
	if s.FinalMetrics != nil {
		out = append(out, s.FinalMetrics.issues("finalMetrics")...)
	}
	if len(out) > 0 {
		return &ValidationError{Issues: out}
	}
	return nil
}

// ParseHistory decodes the stored history list, dropping nothing: a single
// malformed entry invalidates the whole record.
func ParseHistory(raw []byte) ([]CompletedSession, error) {
	var list []CompletedSession
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	var out []Issue
	for i, c := range list {
		if strings.TrimSpace(c.ID) == "" {
			out = append(out, Issue{Field: fmt.Sprintf("history[%d].id", i), Constraint: "required"})
		}
		if c.Tags == nil {
			list[i].Tags = []string{}
		}
	}
	if len(out) > 0 {
		return nil, &ValidationError{Issues: out}
	}
	if list == nil {
		list = []CompletedSession{}
	}
	return list, nil
}
