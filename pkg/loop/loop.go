// Package loop runs functions one at a time on a single goroutine.
//
// A Store is not safe for concurrent use. HTTP handlers, websocket readers
// and limiter timers all reach it through a Loop: Post queues a function
// without waiting, Do queues it and waits for its error.
package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrClosed is returned by Do once the loop has stopped.
var ErrClosed = errors.New("loop: closed")

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger for dropped functions and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// Loop is a serial executor.
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// New returns a Loop that buffers up to size pending functions.
func New(size int, opts ...Option) *Loop {
	if size <= 0 {
		size = 1
	}
	l := &Loop{
		queue:  make(chan func(), size),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Post queues fn without waiting. When the loop is closed or the queue is
// full, fn is discarded and logged.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}
	select {
	case l.queue <- fn:
	case <-l.done:
	default:
		l.logger.Warn("loop queue full, discarding callback")
	}
}

// Do runs fn on the loop and returns its error. It blocks until fn has run,
// ctx is done, or the loop stops. A panic in fn is returned as an error.
func (l *Loop) Do(ctx context.Context, fn func() error) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}

	result := make(chan error, 1)
	task := func() {
		defer func() {
			if r := recover(); r != nil {
				result <- fmt.Errorf("loop: panic: %v", r)
				panic(r)
			}
		}()
		result <- fn()
	}

	select {
	case l.queue <- task:
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued functions until ctx is done or Close is called.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.queue:
			l.execute(fn)
		case <-l.done:
			return nil
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		}
	}
}

// Close stops the loop. Pending functions are dropped.
func (l *Loop) Close() {
	l.once.Do(func() {
		close(l.done)
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}
