// Package notify buffers user-facing notifications until the client fetches them.
package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/infra/logging"
)

// perUserCap bounds how many unread notifications are kept for one user.
const perUserCap = 20

var _ adapter.Notifier = (*Inbox)(nil)

// Inbox keeps notifications per user; the user id comes from the context.
type Inbox struct {
	mu    sync.Mutex
	boxes map[string][]adapter.Notification
	log   *zerolog.Logger
}

func NewInbox(logger *zerolog.Logger) *Inbox {
	l := logger.With().Str("component", "Inbox").Logger()
	return &Inbox{boxes: make(map[string][]adapter.Notification), log: &l}
}

func (i *Inbox) Notify(ctx context.Context, n adapter.Notification) {
	userID, ok := logging.UserID(ctx)
	if !ok {
		logging.With(ctx, i.log).Debug().Str("level", string(n.Level)).Msg("notification without user dropped")
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	box := append(i.boxes[userID], n)
	if len(box) > perUserCap {
		box = box[len(box)-perUserCap:]
	}
	i.boxes[userID] = box
}

// Drain returns and clears the pending notifications of userID, oldest first.
func (i *Inbox) Drain(userID string) []adapter.Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := i.boxes[userID]
	delete(i.boxes, userID)
	if out == nil {
		out = []adapter.Notification{}
	}
	return out
}
