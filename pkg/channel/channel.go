// Package channel implements named, rate-limited delivery paths.
//
// Each channel owns a queue of pending messages and a gated dispatch built
// by a caller-supplied LimiterFactory. Enqueue appends to the queue and
// informs the limiter; the limiter decides when to call the flush it was
// given, and a flush delivers the whole queue as one ordered batch.
//
// The queue is detached before delivery starts, so messages enqueued while a
// flush is running (from a listener, for instance) land in a fresh queue and
// are never delivered twice. A message leaves its queue only through a flush
// or an explicit Clear.
package channel

import (
	"sort"

	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/action"
)

// FlushFunc delivers a channel's pending queue. It reports the delivery error,
// if any; the queue is already empty when it returns.
type FlushFunc func() error

// GatedDispatch is informed of every enqueued message. It decides when, if
// ever, to call the FlushFunc its factory received.
type GatedDispatch func(m action.Message)

// LimiterFactory builds the gated dispatch of one channel.
type LimiterFactory func(flush FlushFunc) GatedDispatch

// DeliverFunc delivers a flushed batch. In a store this is the batch
// unwrapper's Dispatch.
type DeliverFunc func(m action.Message) (any, error)

// Hooks observe queue activity. Any field may be nil.
type Hooks struct {
	Enqueued func(channel string, depth int)
	Flushed  func(channel string, size int, err error)
	Cleared  func(channel string, dropped int)
}

type lane struct {
	name    string
	pending []action.Message
	gated   GatedDispatch
}

// Queue holds the channels of one store. It is not safe for concurrent use.
type Queue struct {
	lanes   map[string]*lane
	deliver DeliverFunc
	hooks   Hooks
}

// New builds one channel per factory. A nil factory fails with
// ErrInvalidArgument naming the channel.
func New(factories map[string]LimiterFactory, deliver DeliverFunc, hooks Hooks) (*Queue, error) {
	q := &Queue{
		lanes:   make(map[string]*lane, len(factories)),
		deliver: deliver,
		hooks:   hooks,
	}

	for _, name := range sortedKeys(factories) {
		factory := factories[name]
		if factory == nil {
			return nil, errors.Newf("E002", "expected the limiter factory of channel %q to be a function", name)
		}
		l := &lane{name: name}
		l.gated = factory(func() error {
			return q.flush(l)
		})
		if l.gated == nil {
			return nil, errors.Newf("E002", "limiter factory of channel %q returned no dispatch", name)
		}
		q.lanes[name] = l
	}
	return q, nil
}

func (q *Queue) lookup(name string) (*lane, error) {
	l, ok := q.lanes[name]
	if !ok {
		return nil, unknownChannel(name)
	}
	return l, nil
}

func unknownChannel(name string) error {
	return errors.Newf("E010", "invalid channel %q", name).
		WithSuggestion("declare a limiter factory with key " + "\"" + name + "\" when creating the store")
}

// Check returns an UnknownChannel error when name was not declared.
func (q *Queue) Check(name string) error {
	_, err := q.lookup(name)
	return err
}

// Has reports whether name was declared.
func (q *Queue) Has(name string) bool {
	_, ok := q.lanes[name]
	return ok
}

// Enqueue appends m to the channel's queue and passes it to the channel's
// gated dispatch. Unknown channels fail with ErrUnknownChannel and nothing
// is queued.
func (q *Queue) Enqueue(name string, m action.Message) error {
	l, err := q.lookup(name)
	if err != nil {
		return err
	}
	if err := action.Validate(m); err != nil {
		return err
	}

	l.pending = append(l.pending, m)
	if q.hooks.Enqueued != nil {
		q.hooks.Enqueued(name, len(l.pending))
	}

	l.gated(m)
	return nil
}

// flush detaches the pending queue and delivers it as a single Sequence.
// An empty queue is a no-op.
func (q *Queue) flush(l *lane) error {
	if len(l.pending) == 0 {
		return nil
	}

	batch := action.Sequence(l.pending)
	l.pending = nil

	_, err := q.deliver(batch)
	if q.hooks.Flushed != nil {
		q.hooks.Flushed(l.name, len(batch), err)
	}
	return err
}

// Flush delivers the channel's queue now, bypassing its limiter.
func (q *Queue) Flush(name string) error {
	l, err := q.lookup(name)
	if err != nil {
		return err
	}
	return q.flush(l)
}

// Clear discards the pending messages of the named channels, or of every
// channel when no names are given. Limiter timers are not affected; a later
// flush finds an empty queue.
func (q *Queue) Clear(names ...string) error {
	if len(names) == 0 {
		names = q.Channels()
	}

	lanes := make([]*lane, 0, len(names))
	for _, name := range names {
		l, err := q.lookup(name)
		if err != nil {
			return err
		}
		lanes = append(lanes, l)
	}

	for _, l := range lanes {
		dropped := len(l.pending)
		l.pending = nil
		if q.hooks.Cleared != nil {
			q.hooks.Cleared(l.name, dropped)
		}
	}
	return nil
}

// Pending returns a copy of the channel's queue.
func (q *Queue) Pending(name string) ([]action.Message, error) {
	l, err := q.lookup(name)
	if err != nil {
		return nil, err
	}
	return append([]action.Message(nil), l.pending...), nil
}

// Channels returns the declared channel names in sorted order.
func (q *Queue) Channels() []string {
	names := make([]string, 0, len(q.lanes))
	for name := range q.lanes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]LimiterFactory) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
