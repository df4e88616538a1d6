package batchstore

import (
	"log/slog"

	"github.com/vango-dev/batchstore/pkg/channel"
)

// Config configures a Store.
type Config struct {
	// Channels declares the rate-limited channels by name. Each factory is
	// called once, when the Store is created.
	Channels map[string]channel.LimiterFactory

	// Logger is the structured logger for the store.
	// If nil, slog.Default() is used.
	Logger *slog.Logger

	// Instrument observes dispatches and channel activity.
	// If nil, nothing is recorded.
	Instrument Instrument
}

// Instrument receives store activity for metrics and tracing.
type Instrument interface {
	// StartDispatch is called when a dispatch is routed. channel is empty for
	// direct dispatches. The returned func is called with the outcome.
	StartDispatch(channel string, leaves int) (end func(err error))

	// Enqueued is called after a message joined a channel queue.
	Enqueued(channel string, depth int)

	// Flushed is called after a channel delivered its queue.
	Flushed(channel string, size int, err error)

	// Cleared is called after a channel queue was discarded.
	Cleared(channel string, dropped int)
}

type nopInstrument struct{}

func (nopInstrument) StartDispatch(string, int) func(error) { return func(error) {} }
func (nopInstrument) Enqueued(string, int)                  {}
func (nopInstrument) Flushed(string, int, error)            {}
func (nopInstrument) Cleared(string, int)                   {}
