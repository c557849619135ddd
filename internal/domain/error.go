package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound          = errors.New("entity not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNoRitual          = errors.New("no ritual in progress")
	ErrRitualPaused      = errors.New("ritual is paused")
	ErrSessionCompleted  = errors.New("session already completed")
	ErrUseFallback       = errors.New("ai provider asked for static fallback")
	ErrSyncNotConfigured = errors.New("cloud sync not configured")
	ErrLocked            = errors.New("resource is locked")
)
