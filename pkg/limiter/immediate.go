package limiter

import (
	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/channel"
)

// Immediate flushes on every enqueue.
func Immediate(opts ...Option) channel.LimiterFactory {
	o := buildOptions(opts)
	return func(flush channel.FlushFunc) channel.GatedDispatch {
		return func(action.Message) {
			o.run("immediate", flush)
		}
	}
}

// Manual is a limiter that only flushes when Trigger is called.
type Manual struct {
	flush    channel.FlushFunc
	attempts int
}

// NewManual returns a Manual limiter.
func NewManual() *Manual {
	return &Manual{}
}

// Factory returns the LimiterFactory bound to m.
func (m *Manual) Factory() channel.LimiterFactory {
	return func(flush channel.FlushFunc) channel.GatedDispatch {
		m.flush = flush
		return func(action.Message) {
			m.attempts++
		}
	}
}

// Trigger fires the flush and returns its error.
func (m *Manual) Trigger() error {
	if m.flush == nil {
		return nil
	}
	return m.flush()
}

// Attempts returns how many enqueues the limiter was informed of.
func (m *Manual) Attempts() int {
	return m.attempts
}
