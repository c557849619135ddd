package model

import (
	"fmt"
	"time"

	"act-companion/internal/domain"
)

// PrivacyMode controls whether a session is ever written to storage and
// whether it carries an expiry.
type PrivacyMode string

const (
	PrivacyPersist PrivacyMode = "persist" // default: stored, expires after SessionRetention
	PrivacySession PrivacyMode = "session" // stored without expiry; lifetime owned by the client session
	PrivacyPrivate PrivacyMode = "private" // never written to storage
)

// SessionRetention is how long a persisted session survives without completion.
const SessionRetention = 7 * 24 * time.Hour

func ParsePrivacyMode(s string) (PrivacyMode, error) {
	switch m := PrivacyMode(s); m {
	case PrivacyPersist, PrivacySession, PrivacyPrivate:
		return m, nil
	case "":
		return PrivacyPersist, nil
	default:
		return "", fmt.Errorf("privacy mode %q: %w", s, domain.ErrInvalidArgument)
	}
}

func (m PrivacyMode) Valid() bool {
	return m == PrivacyPersist || m == PrivacySession || m == PrivacyPrivate
}

// ShouldStore reports whether sessions in this mode may touch durable storage.
func (m PrivacyMode) ShouldStore() bool {
	return m != PrivacyPrivate
}

// ExpiryFrom returns the expiry a session created (or switched) at now gets,
// or nil when the mode carries none.
func (m PrivacyMode) ExpiryFrom(now time.Time) *time.Time {
	if m == PrivacySession {
		return nil
	}
	exp := now.Add(SessionRetention)
	return &exp
}
