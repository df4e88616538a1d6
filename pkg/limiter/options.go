package limiter

import (
	"log/slog"
	"time"

	"github.com/vango-dev/batchstore/pkg/channel"
)

// Timer is the part of *time.Timer the limiters use.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a limiter.
type Option func(*options)

type options struct {
	executor  func(func())
	afterFunc AfterFunc
	now       func() time.Time
	onError   func(error)
	logger    *slog.Logger
	maxWait   time.Duration
}

func buildOptions(opts []Option) *options {
	o := &options{
		executor:  func(fn func()) { fn() },
		afterFunc: realAfterFunc,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithExecutor runs timer callbacks through post instead of on the timer's
// goroutine.
func WithExecutor(post func(func())) Option {
	return func(o *options) {
		if post != nil {
			o.executor = post
		}
	}
}

// WithAfterFunc replaces time.AfterFunc, mainly for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.afterFunc = fn
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithErrorHandler receives flush errors. Errors are logged either way.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithLogger sets the logger flush errors are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxWait bounds how long Debounce may postpone a flush.
func WithMaxWait(d time.Duration) Option {
	return func(o *options) {
		o.maxWait = d
	}
}

// run calls flush and reports its error.
func (o *options) run(kind string, flush channel.FlushFunc) {
	if err := flush(); err != nil {
		o.logger.Error("limiter flush failed", "limiter", kind, "error", err)
		if o.onError != nil {
			o.onError(err)
		}
	}
}

// after schedules fn through the executor.
func (o *options) after(d time.Duration, fn func()) Timer {
	return o.afterFunc(d, func() {
		o.executor(fn)
	})
}
