//go:build !integration

package notify

import (
	"context"
	"fmt"
	"testing"

	"act-companion/internal/domain/ports/adapter"
	"act-companion/internal/infra/logging"
)

func TestInbox(t *testing.T) {
	in := NewInbox(logging.Nop())
	alice := logging.WithUserID(context.Background(), "alice")

	t.Run("should drop notifications without a user", func(t *testing.T) {
		in.Notify(context.Background(), adapter.Notification{Level: adapter.NotifyInfo, Message: "x"})
		if got := in.Drain(""); len(got) != 0 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("should drain once in order", func(t *testing.T) {
		in.Notify(alice, adapter.Notification{Level: adapter.NotifyInfo, Message: "one"})
		in.Notify(alice, adapter.Notification{Level: adapter.NotifyWarning, Message: "two"})
		got := in.Drain("alice")
		if len(got) != 2 || got[0].Message != "one" || got[1].Message != "two" {
			t.Fatalf("got %+v", got)
		}
		if again := in.Drain("alice"); len(again) != 0 {
			t.Errorf("expected empty inbox, got %+v", again)
		}
	})

	t.Run("should keep only the newest entries", func(t *testing.T) {
		for i := 0; i < perUserCap+5; i++ {
			in.Notify(alice, adapter.Notification{Level: adapter.NotifyInfo, Message: fmt.Sprint(i)})
		}
		got := in.Drain("alice")
		if len(got) != perUserCap || got[0].Message != "5" {
			t.Errorf("len=%d first=%q", len(got), got[0].Message)
		}
	})
}
