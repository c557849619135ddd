package model

import (
	"fmt"

	"act-companion/internal/domain"
)

// ProfileCategory is one of the four questionnaire outcomes.
type ProfileCategory string

const (
	ProfileA ProfileCategory = "A"
	ProfileB ProfileCategory = "B"
	ProfileC ProfileCategory = "C"
	ProfileD ProfileCategory = "D"
)

// ProfileCategories lists the categories in tie-break order.
var ProfileCategories = []ProfileCategory{ProfileA, ProfileB, ProfileC, ProfileD}

// MixedProfileRatio is the share of the primary score a secondary
// category needs to qualify as a mixed profile.
const MixedProfileRatio = 0.85

func (c ProfileCategory) Valid() bool {
	switch c {
	case ProfileA, ProfileB, ProfileC, ProfileD:
		return true
	}
	return false
}

// ACTProfile is the result of the profiling questionnaire.
type ACTProfile struct {
	Primary   ProfileCategory             `json:"primary"`
	Scores    map[ProfileCategory]float64 `json:"scores"`
	Secondary *ProfileCategory            `json:"secondary,omitempty"`
	IsMixed   bool                        `json:"isMixed"`
}

// ScoreProfile derives a profile from per-category questionnaire scores.
// Ties go to the earlier category. The primary score must be positive.
func ScoreProfile(scores map[ProfileCategory]float64) (*ACTProfile, error) {
	for c, v := range scores {
		if !c.Valid() {
			return nil, fmt.Errorf("unknown profile category %q: %w", c, domain.ErrInvalidArgument)
		}
		if v < 0 {
			return nil, fmt.Errorf("negative score for %s: %w", c, domain.ErrInvalidArgument)
		}
	}

	var primary, second ProfileCategory
	for _, c := range ProfileCategories {
		v := scores[c]
		switch {
		case primary == "" || v > scores[primary]:
			second = primary
			primary = c
		case second == "" || v > scores[second]:
			second = c
		}
	}
	if scores[primary] <= 0 {
		return nil, fmt.Errorf("questionnaire has no positive score: %w", domain.ErrInvalidArgument)
	}

	p := &ACTProfile{
		Primary: primary,
		Scores:  make(map[ProfileCategory]float64, len(ProfileCategories)),
	}
	for _, c := range ProfileCategories {
		p.Scores[c] = scores[c]
	}
	if second != "" && scores[second] > 0 && scores[second] >= scores[primary]*MixedProfileRatio {
		s := second
		p.Secondary = &s
		p.IsMixed = true
	}
	return p, nil
}

func (p *ACTProfile) Clone() *ACTProfile {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Scores != nil {
		cp.Scores = make(map[ProfileCategory]float64, len(p.Scores))
		for k, v := range p.Scores {
			cp.Scores[k] = v
		}
	}
	if p.Secondary != nil {
		s := *p.Secondary
		cp.Secondary = &s
	}
	return &cp
}
