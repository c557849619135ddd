package model

import (
	"slices"
	"time"
)

// SummaryMode tells how the closing summary of a ritual was produced.
type SummaryMode string

const (
	SummaryAI     SummaryMode = "ai"
	SummaryStatic SummaryMode = "static"
	SummaryNone   SummaryMode = "none"
)

// CompletedSession is the immutable history record written when a ritual ends.
type CompletedSession struct {
	ID               string          `json:"id"`
	CoreBelief       string          `json:"coreBelief"`
	PrimaryEmotion   string          `json:"primaryEmotion"`
	ProfileCategory  ProfileCategory `json:"profileCategory"`
	InitialIntensity int             `json:"initialIntensity"`
	FinalIntensity   int             `json:"finalIntensity"`
	Tags             []string        `json:"tags"`
	PhasesCompleted  int             `json:"phasesCompleted"`
	UsedAI           bool            `json:"usedAi"`
	SummaryMode      SummaryMode     `json:"summaryMode"`
	CompletedAt      time.Time       `json:"completedAt"`
}

// ProjectCompleted summarises a session for the history list. It returns
// false when the session has no profile or no diagnosis to summarise.
func ProjectCompleted(s *Session, mode SummaryMode, now time.Time) (CompletedSession, bool) {
	if s == nil || s.ACTProfile == nil || s.Diagnosis == nil {
		return CompletedSession{}, false
	}
	if mode == "" {
		mode = SummaryNone
	}
	c := CompletedSession{
		ID:               s.ID,
		CoreBelief:       s.Diagnosis.CoreBelief,
		PrimaryEmotion:   s.Diagnosis.PrimaryEmotion(),
		ProfileCategory:  s.ACTProfile.Primary,
		InitialIntensity: s.Diagnosis.Intensity,
		FinalIntensity:   s.Diagnosis.Intensity,
		Tags:             slices.Clone(s.Tags),
		PhasesCompleted:  s.PhasesCompleted(),
		UsedAI:           s.UsedAI(),
		SummaryMode:      mode,
		CompletedAt:      now,
	}
	if s.InitialMetrics != nil {
		c.InitialIntensity = s.InitialMetrics.Intensity
	}
	if s.FinalMetrics != nil {
		c.FinalIntensity = s.FinalMetrics.Intensity
	}
	if s.CompletedAt != nil {
		c.CompletedAt = *s.CompletedAt
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	return c, true
}
