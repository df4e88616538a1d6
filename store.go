package batchstore

import (
	"log/slog"

	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/action"
	"github.com/vango-dev/batchstore/pkg/batch"
	"github.com/vango-dev/batchstore/pkg/channel"
	"github.com/vango-dev/batchstore/pkg/container"
	"github.com/vango-dev/batchstore/pkg/listener"
	"github.com/vango-dev/batchstore/pkg/observable"
)

// Store is a container decorated with batched dispatch and channels.
type Store[S any] struct {
	container  container.Container[S]
	guard      listener.Guard
	listeners  *listener.Registry
	unwrapper  *batch.Unwrapper
	queue      *channel.Queue
	observable *observable.Observable[S]

	logger     *slog.Logger
	instrument Instrument
}

// New decorates c. It fails with ErrInvalidArgument when a channel has a
// nil limiter factory.
func New[S any](c container.Container[S], cfg Config) (*Store[S], error) {
	if c == nil {
		return nil, errors.Newf("E004", "container must not be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	instrument := cfg.Instrument
	if instrument == nil {
		instrument = nopInstrument{}
	}

	s := &Store[S]{
		container:  c,
		logger:     logger,
		instrument: instrument,
	}
	s.listeners = listener.NewRegistry(&s.guard)
	s.unwrapper = batch.New(c, s.listeners, &s.guard)
	s.observable = observable.New[S](s.listeners, c.GetState)

	queue, err := channel.New(cfg.Channels, s.unwrapper.Dispatch, channel.Hooks{
		Enqueued: instrument.Enqueued,
		Flushed:  s.flushed,
		Cleared:  s.cleared,
	})
	if err != nil {
		return nil, err
	}
	s.queue = queue

	return s, nil
}

func (s *Store[S]) flushed(ch string, size int, err error) {
	s.instrument.Flushed(ch, size, err)
	if err != nil {
		s.logger.Warn("channel flush failed", "channel", ch, "size", size, "error", err)
		return
	}
	s.logger.Debug("channel flushed", "channel", ch, "size", size)
}

func (s *Store[S]) cleared(ch string, dropped int) {
	s.instrument.Cleared(ch, dropped)
	if dropped > 0 {
		s.logger.Debug("channel queue cleared", "channel", ch, "dropped", dropped)
	}
}

// Dispatch delivers m. Envelopes are routed to the channel they carry;
// anything else is delivered directly and notifies subscribers once.
//
// The result of a direct dispatch is the container's result for a single
// action, or a []any of the same shape for a Sequence. Channeled dispatches
// return a nil result: delivery happens when the channel flushes.
func (s *Store[S]) Dispatch(m action.Message) (any, error) {
	return s.DispatchChannel("", m)
}

// DispatchChannel delivers m through the named channel. A non-empty ch
// overrides the channel of an envelope; an empty ch falls back to it, and
// when neither names a channel m is delivered directly.
func (s *Store[S]) DispatchChannel(ch string, m action.Message) (any, error) {
	if env, ok := m.(action.Envelope); ok {
		if ch == "" {
			ch = env.Channel
		}
		m = env.Payload
	}
	if m == nil {
		return nil, errors.Newf("E004", "message must not be nil")
	}

	if ch != "" {
		if err := s.queue.Check(ch); err != nil {
			return nil, err
		}
	}

	leaves := action.Count(m)
	end := s.instrument.StartDispatch(ch, leaves)

	if ch == "" {
		result, err := s.unwrapper.Dispatch(m)
		end(err)
		if err != nil {
			s.logger.Debug("dispatch failed", "leaves", leaves, "error", err)
			return nil, err
		}
		return result, nil
	}

	err := s.queue.Enqueue(ch, m)
	end(err)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("action queued", "channel", ch, "leaves", leaves)
	return nil, nil
}

// Subscribe registers l to run once after every completed dispatch.
func (s *Store[S]) Subscribe(l listener.Listener) (listener.Unsubscribe, error) {
	return s.listeners.Subscribe(l)
}

// GetState returns the container's state.
func (s *Store[S]) GetState() S {
	return s.container.GetState()
}

// ReplaceReducer swaps the container's reducer.
func (s *Store[S]) ReplaceReducer(r container.Reducer[S]) error {
	return s.container.ReplaceReducer(r)
}

// ClearActionQueue discards the pending actions of the named channels, or of
// every channel when called without arguments.
func (s *Store[S]) ClearActionQueue(channels ...string) error {
	return s.queue.Clear(channels...)
}

// ActionQueue returns a copy of the channel's pending actions.
func (s *Store[S]) ActionQueue(ch string) ([]action.Message, error) {
	return s.queue.Pending(ch)
}

// Flush delivers the pending actions of the named channels now, bypassing
// their limiters. Without arguments every channel is flushed. It stops at
// the first delivery error.
func (s *Store[S]) Flush(channels ...string) error {
	if len(channels) == 0 {
		channels = s.queue.Channels()
	}
	for _, ch := range channels {
		if err := s.queue.Flush(ch); err != nil {
			return err
		}
	}
	return nil
}

// Channels returns the declared channel names in sorted order.
func (s *Store[S]) Channels() []string {
	return s.queue.Channels()
}

// Observable returns a push stream of the store's state.
func (s *Store[S]) Observable() *observable.Observable[S] {
	return s.observable
}
