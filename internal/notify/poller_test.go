package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/digitalindian/service-site-api/internal/blog/entity"
)

type countingDispatcher struct {
	calls int
	err   error
}

func (c *countingDispatcher) Dispatch(ctx context.Context) error {
	c.calls++
	return c.err
}

func newTestPoller(posts PostSource, d BatchDispatcher) *Poller {
	return NewPoller(posts, d, time.Second, zap.NewNop().Sugar())
}

func TestFirstTickAlwaysDispatches(t *testing.T) {
	// fresh process, content unchanged since long before startup
	posts := &fakePosts{
		posts:    []entity.Post{{Title: "A", Slug: "a"}},
		modified: time.Now().Add(-24 * time.Hour),
	}
	d := &countingDispatcher{}
	p := newTestPoller(posts, d)

	p.Tick(context.Background())
	if d.calls != 1 {
		t.Fatalf("first tick dispatched %d times, want exactly 1", d.calls)
	}
}

func TestUnchangedContentDoesNotRedispatch(t *testing.T) {
	posts := &fakePosts{
		posts:    []entity.Post{{Title: "A", Slug: "a"}},
		modified: time.Now(),
	}
	d := &countingDispatcher{}
	p := newTestPoller(posts, d)

	p.Tick(context.Background())
	p.Tick(context.Background())
	p.Tick(context.Background())
	if d.calls != 1 {
		t.Fatalf("dispatched %d times for unchanged content, want 1", d.calls)
	}
}

func TestNewerModificationTriggersDispatch(t *testing.T) {
	posts := &fakePosts{
		posts:    []entity.Post{{Title: "A", Slug: "a"}},
		modified: time.Now(),
	}
	d := &countingDispatcher{}
	p := newTestPoller(posts, d)

	p.Tick(context.Background())
	posts.modified = posts.modified.Add(time.Minute)
	p.Tick(context.Background())
	if d.calls != 2 {
		t.Fatalf("dispatched %d times, want 2 after a content change", d.calls)
	}
}

func TestFailedCheckDoesNotPrime(t *testing.T) {
	posts := &fakePosts{err: errors.New("store down")}
	d := &countingDispatcher{}
	p := newTestPoller(posts, d)

	p.Tick(context.Background())
	if d.calls != 0 {
		t.Fatalf("dispatched despite a failed modification check")
	}

	// the store recovers; this now counts as the first successful tick
	posts.err = nil
	posts.posts = []entity.Post{{Title: "A", Slug: "a"}}
	posts.modified = time.Now()
	p.Tick(context.Background())
	if d.calls != 1 {
		t.Fatalf("dispatched %d times after recovery, want 1", d.calls)
	}
}

type deadlineRecordingDispatcher struct {
	hadDeadline bool
}

func (d *deadlineRecordingDispatcher) Dispatch(ctx context.Context) error {
	_, d.hadDeadline = ctx.Deadline()
	return nil
}

func TestTickDispatchesOutsideTickDeadline(t *testing.T) {
	// the per-tick timeout bounds the modification check; the batch itself
	// must not inherit it or slow sends starve the tail of the list
	posts := &fakePosts{posts: []entity.Post{{Title: "A", Slug: "a"}}, modified: time.Now()}
	d := &deadlineRecordingDispatcher{}
	p := newTestPoller(posts, d)

	p.Tick(context.Background())
	if d.hadDeadline {
		t.Fatal("dispatch ran under the tick deadline")
	}
}

func TestStartRefusesSecondInstance(t *testing.T) {
	posts := &fakePosts{posts: []entity.Post{{Title: "A", Slug: "a"}}, modified: time.Now()}
	p := newTestPoller(posts, &countingDispatcher{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start returned %v", err)
	}
	defer p.Stop()
	if err := p.Start(ctx); err == nil {
		t.Fatal("second Start should fail")
	}
}
