package limiter

import (
	"time"

	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/channel"
)

type throttler struct {
	o        *options
	interval time.Duration
	flush    channel.FlushFunc

	open     bool
	trailing bool
}

// Throttle flushes on the first enqueue, then at most once per interval.
// Enqueues during an open window are flushed together when it closes.
func Throttle(interval time.Duration, opts ...Option) channel.LimiterFactory {
	o := buildOptions(opts)
	return func(flush channel.FlushFunc) channel.GatedDispatch {
		t := &throttler{o: o, interval: interval, flush: flush}
		return t.dispatch
	}
}

func (t *throttler) dispatch(action.Message) {
	if t.open {
		t.trailing = true
		return
	}
	t.open = true
	t.o.after(t.interval, t.tick)
	t.o.run("throttle", t.flush)
}

func (t *throttler) tick() {
	if !t.trailing {
		t.open = false
		return
	}
	t.trailing = false
	t.o.after(t.interval, t.tick)
	t.o.run("throttle", t.flush)
}
