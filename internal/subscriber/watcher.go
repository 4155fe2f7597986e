package subscriber

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// notifyChannel is the Postgres NOTIFY channel the insert trigger fires on.
const notifyChannel = "subscriber_inserted"

// EnsureTrigger installs the AFTER INSERT trigger that publishes each new
// subscriber email on the notify channel. Idempotent.
func EnsureTrigger(ctx context.Context, db *sqlx.DB) error {
	const fn = `
	CREATE OR REPLACE FUNCTION notify_subscriber_inserted() RETURNS trigger AS $$
	BEGIN
		PERFORM pg_notify('subscriber_inserted', NEW.email);
		RETURN NEW;
	END;
	$$ LANGUAGE plpgsql;
	`
	if _, err := db.ExecContext(ctx, fn); err != nil {
		return err
	}
	const trg = `
	DROP TRIGGER IF EXISTS trg_subscribers_notify ON subscribers;
	CREATE TRIGGER trg_subscribers_notify
		AFTER INSERT ON subscribers
		FOR EACH ROW EXECUTE FUNCTION notify_subscriber_inserted();
	`
	_, err := db.ExecContext(ctx, trg)
	return err
}

// Watcher observes subscriber inserts through LISTEN/NOTIFY and fans each
// event out to registered observers. It is diagnostic instrumentation: a
// hook point for future consumers, not a delivery guarantee. Construct one
// per process in main; Start refuses to run twice.
type Watcher struct {
	dsn    string
	logger *zap.SugaredLogger

	mu        sync.Mutex
	observers []func(email string)
	started   bool

	listener *pq.Listener
	done     chan struct{}
}

func NewWatcher(dsn string, logger *zap.SugaredLogger) *Watcher {
	return &Watcher{dsn: dsn, logger: logger}
}

// Observe registers a consumer for insert events. Must be called before
// Start.
func (w *Watcher) Observe(fn func(email string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observers = append(w.observers, fn)
}

// Start establishes the listener and begins consuming events in the
// background. Errors here are for the caller to log and swallow: the
// watcher must never block the subscription endpoint.
func (w *Watcher) Start(ctx context.Context) error {
	l := pq.NewListener(w.dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			w.logger.Warnw("subscriber watcher connection event", "event", ev, "err", err)
		}
	})
	if err := l.Listen(notifyChannel); err != nil {
		l.Close()
		return err
	}
	if err := w.begin(ctx, l.Notify); err != nil {
		l.Close()
		return err
	}
	w.mu.Lock()
	w.listener = l
	w.mu.Unlock()
	w.logger.Info("subscriber watcher started")
	return nil
}

// begin flips the start-once guard and launches the event loop over the
// given notification channel.
func (w *Watcher) begin(ctx context.Context, notify <-chan *pq.Notification) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("watcher already started")
	}
	w.started = true
	w.mu.Unlock()

	w.done = make(chan struct{})
	go w.run(ctx, notify)
	return nil
}

func (w *Watcher) run(ctx context.Context, notify <-chan *pq.Notification) {
	defer close(w.done)
	for {
		select {
		case n, ok := <-notify:
			if !ok {
				// listener closed
				return
			}
			if n == nil {
				// reconnect notification from the driver
				continue
			}
			w.logger.Infow("new subscription detected", "email", n.Extra)
			w.mu.Lock()
			obs := make([]func(string), len(w.observers))
			copy(obs, w.observers)
			w.mu.Unlock()
			for _, fn := range obs {
				fn(n.Extra)
			}
		case <-time.After(90 * time.Second):
			// keep the connection honest during quiet stretches
			w.mu.Lock()
			l := w.listener
			w.mu.Unlock()
			if l != nil {
				if err := l.Ping(); err != nil {
					w.logger.Warnw("subscriber watcher ping failed", "err", err)
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

// Stop closes the listener and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	started := w.started
	l := w.listener
	w.mu.Unlock()
	if !started {
		return
	}
	if l != nil {
		l.Close()
	}
	<-w.done
	w.logger.Info("subscriber watcher stopped")
}
