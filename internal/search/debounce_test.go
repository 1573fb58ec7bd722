package search

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	terms []string
}

func (r *recorder) search(ctx context.Context, term string) {
	r.mu.Lock()
	r.terms = append(r.terms, term)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.terms...)
}

func TestBurstFiresOnceWithLastTerm(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(rec.search, 30*time.Millisecond)
	defer d.Stop()

	ctx := context.Background()
	for _, term := range []string{"s", "sn", "sne", "sneakers"} {
		d.Trigger(ctx, term)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "sneakers" {
		t.Fatalf("searches = %v, want exactly [sneakers]", got)
	}
}

func TestSeparateBurstsFireSeparately(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(rec.search, 20*time.Millisecond)
	defer d.Stop()

	ctx := context.Background()
	d.Trigger(ctx, "shoes")
	time.Sleep(60 * time.Millisecond)
	d.Trigger(ctx, "watch")
	time.Sleep(60 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 2 || got[0] != "shoes" || got[1] != "watch" {
		t.Fatalf("searches = %v, want [shoes watch]", got)
	}
}

func TestFlushFiresImmediately(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(rec.search, time.Hour)
	defer d.Stop()

	ctx := context.Background()
	d.Trigger(ctx, "sneakers")
	d.Flush(ctx)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "sneakers" {
		t.Fatalf("searches = %v, want [sneakers]", got)
	}

	// A second flush has nothing pending.
	d.Flush(ctx)
	if got := rec.snapshot(); len(got) != 1 {
		t.Fatalf("searches after second flush = %v, want one entry", got)
	}
}

func TestStopCancelsPending(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(rec.search, 20*time.Millisecond)

	ctx := context.Background()
	d.Trigger(ctx, "sneakers")
	d.Stop()

	time.Sleep(60 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("searches = %v, want none after Stop", got)
	}

	// Triggers after Stop are ignored.
	d.Trigger(ctx, "watch")
	time.Sleep(60 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("searches = %v, want none after Stop", got)
	}
}

func TestCancelledContextSuppressesFire(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(rec.search, 20*time.Millisecond)
	defer d.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	d.Trigger(ctx, "sneakers")
	cancel()

	time.Sleep(60 * time.Millisecond)

	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("searches = %v, want none with cancelled context", got)
	}
}

func TestDefaultDelay(t *testing.T) {
	d := NewDebouncer(func(context.Context, string) {}, 0)
	defer d.Stop()
	if d.delay != DefaultDelay {
		t.Fatalf("delay = %v, want %v", d.delay, DefaultDelay)
	}
}

func TestExpiredTimerCallbackFromSupersededTriggerIsDiscarded(t *testing.T) {
	rec := &recorder{}
	d := NewDebouncer(rec.search, time.Hour)
	defer d.Stop()

	ctx := context.Background()
	d.Trigger(ctx, "pho")
	stale := d.gen
	d.Trigger(ctx, "phone")

	// A timer whose Stop raced with its own expiry runs its callback
	// after the newer Trigger rearmed. It must not fire the new term
	// early, and must leave the new timer armed.
	d.fire(ctx, stale)
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("searches = %v, want none from a superseded timer", got)
	}

	d.Flush(ctx)
	got := rec.snapshot()
	if len(got) != 1 || got[0] != "phone" {
		t.Fatalf("searches = %v, want exactly [phone]", got)
	}
}
