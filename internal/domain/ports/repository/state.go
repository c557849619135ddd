package repository

import (
	"context"
)

// StateStore is the port for the local key-value string store holding the
// serialized session and history records. Get returns domain.ErrNotFound
// for a missing key.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
