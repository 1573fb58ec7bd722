// Package search debounces rapid search input so only the final term
// in a burst reaches the backend.
package search

import (
	"context"
	"sync"
	"time"
)

// DefaultDelay is the quiet period after the last keystroke before a
// search fires.
const DefaultDelay = 500 * time.Millisecond

// Func performs the actual search for a term.
type Func func(ctx context.Context, term string)

// Debouncer coalesces a burst of Trigger calls into a single Func
// invocation carrying the last term. Each Trigger cancels the pending
// timer and arms a new one.
type Debouncer struct {
	fn    Func
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	gen     uint64
	armed   bool
	stopped bool
}

// NewDebouncer creates a debouncer around fn. A non-positive delay
// uses DefaultDelay.
func NewDebouncer(fn Func, delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{fn: fn, delay: delay}
}

// Trigger schedules a search for term, superseding any search still
// pending. The context is captured for the eventual invocation.
func (d *Debouncer) Trigger(ctx context.Context, term string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = term
	d.armed = true
	// Stop is best-effort: a timer that already expired may still run
	// its callback, so each scheduling carries a generation and fire
	// discards callbacks from superseded timers.
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { d.fire(ctx, gen) })
}

// Flush fires the pending search immediately, if any.
func (d *Debouncer) Flush(ctx context.Context) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.mu.Unlock()
	d.fire(ctx, gen)
}

// Stop cancels any pending search. The debouncer accepts no further
// triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.armed = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire(ctx context.Context, gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.armed || d.stopped {
		d.mu.Unlock()
		return
	}
	term := d.pending
	d.armed = false
	d.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	d.fn(ctx, term)
}
