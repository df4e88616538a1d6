package limiter

import (
	"time"

	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/channel"
)

// slidingWindow tracks flushes within a time window.
type slidingWindow struct {
	events     []time.Time
	windowSize time.Duration
	maxEvents  int
}

func newSlidingWindow(windowSize time.Duration, maxEvents int) *slidingWindow {
	return &slidingWindow{
		windowSize: windowSize,
		maxEvents:  maxEvents,
	}
}

// prune drops events that left the window.
func (w *slidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.windowSize)
	validIdx := 0
	for _, t := range w.events {
		if t.After(cutoff) {
			w.events[validIdx] = t
			validIdx++
		}
	}
	w.events = w.events[:validIdx]
}

// tryAdd records an event at now if the window has room.
func (w *slidingWindow) tryAdd(now time.Time) bool {
	if w.maxEvents <= 0 {
		return true
	}
	w.prune(now)
	if len(w.events) >= w.maxEvents {
		return false
	}
	w.events = append(w.events, now)
	return true
}

// retryIn returns how long until the oldest event leaves the window.
func (w *slidingWindow) retryIn(now time.Time) time.Duration {
	if len(w.events) == 0 {
		return 0
	}
	d := w.events[0].Add(w.windowSize).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type budget struct {
	o      *options
	window *slidingWindow
	flush  channel.FlushFunc

	deferred bool
}

// Budget flushes immediately while fewer than max flushes happened within
// window. Past the budget, one flush is deferred until the window has room
// again and carries everything queued meanwhile. max <= 0 means no limit.
func Budget(window time.Duration, max int, opts ...Option) channel.LimiterFactory {
	o := buildOptions(opts)
	if window <= 0 {
		window = time.Second
	}
	return func(flush channel.FlushFunc) channel.GatedDispatch {
		b := &budget{o: o, window: newSlidingWindow(window, max), flush: flush}
		return b.dispatch
	}
}

func (b *budget) dispatch(action.Message) {
	if b.deferred {
		return
	}
	now := b.o.now()
	if b.window.tryAdd(now) {
		b.o.run("budget", b.flush)
		return
	}
	b.schedule(now)
}

func (b *budget) schedule(now time.Time) {
	b.deferred = true
	b.o.after(b.window.retryIn(now), b.retry)
}

func (b *budget) retry() {
	now := b.o.now()
	if !b.window.tryAdd(now) {
		b.schedule(now)
		return
	}
	b.deferred = false
	b.o.run("budget", b.flush)
}
