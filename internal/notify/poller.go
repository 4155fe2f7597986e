package notify

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchDispatcher is the trigger target of the poller.
type BatchDispatcher interface {
	Dispatch(ctx context.Context) error
}

// PollInterval reads NOTIFY_POLL_INTERVAL (Go duration syntax) with a 5s
// default.
func PollInterval() time.Duration {
	if v := os.Getenv("NOTIFY_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 5 * time.Second
}

// Poller watches the blog collection's modification time and triggers a
// dispatch whenever it advances. The first successful check after startup
// always dispatches, so a process restart re-sends the latest post to all
// subscribers.
//
// One poller per process; Start refuses to run twice.
type Poller struct {
	posts      PostSource
	dispatcher BatchDispatcher
	interval   time.Duration
	logger     *zap.SugaredLogger

	mu       sync.Mutex
	started  bool
	lastSeen time.Time
	primed   bool

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(posts PostSource, dispatcher BatchDispatcher, interval time.Duration, logger *zap.SugaredLogger) *Poller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Poller{posts: posts, dispatcher: dispatcher, interval: interval, logger: logger}
}

// Start launches the polling loop in the background.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return errors.New("poller already started")
	}
	p.started = true
	p.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(runCtx)
	p.logger.Infow("blog update poller started", "interval", p.interval)
	return nil
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ticker.C:
			p.Tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Tick performs one check. Exported so tests can drive the poller without
// a running loop. The tick deadline bounds the modification check only;
// the dispatch runs on the caller's context so each recipient gets its
// own send budget regardless of how long the batch takes.
func (p *Poller) Tick(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, p.interval+5*time.Second)
	defer cancel()

	modified, err := p.posts.LastModified(tickCtx)
	if err != nil {
		p.logger.Errorw("blog modification check failed", "err", err)
		return
	}

	p.mu.Lock()
	trigger := !p.primed || modified.After(p.lastSeen)
	if trigger {
		p.primed = true
		p.lastSeen = modified
	}
	p.mu.Unlock()

	if !trigger {
		return
	}

	p.logger.Info("detected blog update, sending notifications")
	if err := p.dispatcher.Dispatch(ctx); err != nil {
		p.logger.Errorw("notification dispatch failed", "err", err)
	}
}

// Stop halts the loop and waits for the current tick to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started || p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
	p.logger.Info("blog update poller stopped")
}
