package limiter

import (
	"time"

	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/channel"
)

type debouncer struct {
	o     *options
	wait  time.Duration
	flush channel.FlushFunc

	pending  bool
	gen      uint64
	maxGen   uint64
	timer    Timer
	maxTimer Timer
}

// Debounce flushes once no enqueue happened for wait. With WithMaxWait the
// flush is postponed at most that long after the first pending enqueue.
func Debounce(wait time.Duration, opts ...Option) channel.LimiterFactory {
	o := buildOptions(opts)
	return func(flush channel.FlushFunc) channel.GatedDispatch {
		d := &debouncer{o: o, wait: wait, flush: flush}
		return d.dispatch
	}
}

func (d *debouncer) dispatch(action.Message) {
	d.pending = true

	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.o.after(d.wait, func() {
		if gen == d.gen {
			d.fire()
		}
	})

	if d.o.maxWait > 0 && d.maxTimer == nil {
		maxGen := d.maxGen
		d.maxTimer = d.o.after(d.o.maxWait, func() {
			if maxGen == d.maxGen {
				d.fire()
			}
		})
	}
}

func (d *debouncer) fire() {
	if !d.pending {
		return
	}
	d.pending = false

	// Invalidate both timers so a late callback is ignored.
	d.gen++
	d.maxGen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.maxTimer != nil {
		d.maxTimer.Stop()
		d.maxTimer = nil
	}

	d.o.run("debounce", d.flush)
}
