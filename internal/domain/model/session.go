package model

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CurrentSchemaVersion is the on-disk shape produced by this package.
const CurrentSchemaVersion = 2

// Session is the root aggregate for one user's journey.
type Session struct {
	SchemaVersion  int              `json:"schemaVersion"`
	ID             string           `json:"id"`
	ACTProfile     *ACTProfile      `json:"actProfile"`
	Diagnosis      *Diagnosis       `json:"diagnosis"`
	Dialogue       []DialogueEntry  `json:"dialogue"`
	RitualState    *RitualState     `json:"ritualState"`
	InitialMetrics *MetricsSnapshot `json:"initialMetrics"`
	FinalMetrics   *MetricsSnapshot `json:"finalMetrics"`
	CreatedAt      time.Time        `json:"createdAt"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
	ExpiresAt      *time.Time       `json:"expiresAt,omitempty"`
	PrivacyMode    PrivacyMode      `json:"privacyMode"`
	Tags           []string         `json:"tags"`
}

// NewSession builds a fresh session. Sessions in PrivacySession mode get no expiry.
func NewSession(mode PrivacyMode, now time.Time) *Session {
	if !mode.Valid() {
		mode = PrivacyPersist
	}
	return &Session{
		SchemaVersion: CurrentSchemaVersion,
		ID:            uuid.NewString(),
		Dialogue:      []DialogueEntry{},
		CreatedAt:     now,
		ExpiresAt:     mode.ExpiryFrom(now),
		PrivacyMode:   mode,
		Tags:          []string{},
	}
}

// IsExpired reports whether the session carries an expiry that has elapsed.
func (s *Session) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

func (s *Session) IsCompleted() bool {
	return s.CompletedAt != nil
}

// AddTags inserts labels, dropping blanks and duplicates.
func (s *Session) AddTags(tags ...string) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || slices.Contains(s.Tags, t) {
			continue
		}
		s.Tags = append(s.Tags, t)
	}
}

func (s *Session) RemoveTag(tag string) {
	s.Tags = slices.DeleteFunc(s.Tags, func(t string) bool { return t == tag })
}

// UsedAI reports whether any dialogue entry came from the AI provider.
func (s *Session) UsedAI() bool {
	return slices.ContainsFunc(s.Dialogue, func(e DialogueEntry) bool { return e.IsAIGenerated })
}

// PhasesCompleted counts distinct ritual phases that received an answer.
func (s *Session) PhasesCompleted() int {
	seen := make(map[int]struct{}, RitualPhaseCount)
	for _, e := range s.Dialogue {
		seen[e.PhaseID] = struct{}{}
	}
	return len(seen)
}

// Clone returns a deep copy, so callers can hand sessions out without
// sharing mutable state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.ACTProfile = s.ACTProfile.Clone()
	cp.Diagnosis = s.Diagnosis.Clone()
	cp.Dialogue = slices.Clone(s.Dialogue)
	cp.RitualState = s.RitualState.Clone()
	cp.InitialMetrics = s.InitialMetrics.Clone()
	cp.FinalMetrics = s.FinalMetrics.Clone()
	cp.Tags = slices.Clone(s.Tags)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		cp.CompletedAt = &t
	}
	if s.ExpiresAt != nil {
		t := *s.ExpiresAt
		cp.ExpiresAt = &t
	}
	return &cp
}
