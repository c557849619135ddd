package repository

import (
	"context"
	"time"
)

// SyncRecord is the canonical session payload exchanged with the cloud backend.
type SyncRecord struct {
	UserID    string
	SessionID string
	Payload   []byte // serialized model.Session, possibly encrypted
	Encrypted bool
	UpdatedAt time.Time
}

// SyncRepository is the port for the optional cloud backend. Pull returns
// domain.ErrNotFound when the user has nothing stored remotely.
//
// Delete leaves a tombstone stamped at: the payload is gone and any push
// stamped at or before it is ignored, so a late upload cannot bring the
// copy back. A write stamped after the tombstone replaces it.
type SyncRepository interface {
	Push(ctx context.Context, rec *SyncRecord) error
	Pull(ctx context.Context, userID string) (*SyncRecord, error)
	Delete(ctx context.Context, userID string, at time.Time) error
}
