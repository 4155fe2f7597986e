package subscriber

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

func collectEmails(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case email := <-ch:
		return email
	case <-time.After(time.Second):
		t.Fatal("observer never received the event")
		return ""
	}
}

func TestWatcherFansOutToAllObservers(t *testing.T) {
	w := NewWatcher("", zap.NewNop().Sugar())
	first := make(chan string, 1)
	second := make(chan string, 1)
	w.Observe(func(email string) { first <- email })
	w.Observe(func(email string) { second <- email })

	notify := make(chan *pq.Notification, 2)
	if err := w.begin(context.Background(), notify); err != nil {
		t.Fatalf("begin returned %v", err)
	}

	// a nil notification is the driver's reconnect marker, not an event
	notify <- nil
	notify <- &pq.Notification{Channel: notifyChannel, Extra: "alice@example.com"}

	if got := collectEmails(t, first); got != "alice@example.com" {
		t.Errorf("first observer got %q", got)
	}
	if got := collectEmails(t, second); got != "alice@example.com" {
		t.Errorf("second observer got %q", got)
	}

	close(notify)
	w.Stop()
}

func TestWatcherBeginRefusesSecondStart(t *testing.T) {
	w := NewWatcher("", zap.NewNop().Sugar())
	notify := make(chan *pq.Notification)

	if err := w.begin(context.Background(), notify); err != nil {
		t.Fatalf("begin returned %v", err)
	}
	if err := w.begin(context.Background(), notify); err == nil {
		t.Fatal("second begin should fail")
	}

	close(notify)
	w.Stop()
}
