package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Saver uploads a state. *S3Store implements it.
type Saver interface {
	Save(ctx context.Context, state any) (string, error)
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	logger  *slog.Logger
	timeout time.Duration
	onSaved func(error)
}

// WithLogger sets the logger for upload results.
func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) {
		c.logger = logger
	}
}

// WithTimeout bounds a single upload. Zero means no bound.
func WithTimeout(d time.Duration) WriterOption {
	return func(c *writerConfig) {
		c.timeout = d
	}
}

// WithOnSaved is called after every upload attempt.
func WithOnSaved(fn func(error)) WriterOption {
	return func(c *writerConfig) {
		c.onSaved = fn
	}
}

// Writer uploads the latest notified state in the background.
type Writer[S any] struct {
	saver  Saver
	config writerConfig

	mu      sync.Mutex
	pending *S
	wake    chan struct{}
}

// NewWriter returns a Writer uploading through saver.
func NewWriter[S any](saver Saver, opts ...WriterOption) *Writer[S] {
	config := writerConfig{
		logger:  slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Writer[S]{
		saver:  saver,
		config: config,
		wake:   make(chan struct{}, 1),
	}
}

// Notify records state as the next one to upload, replacing any state not
// yet uploaded. It never blocks.
func (w *Writer[S]) Notify(state S) {
	w.mu.Lock()
	w.pending = &state
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Run uploads notified states until ctx is done. A pending state is
// uploaded once more before Run returns.
func (w *Writer[S]) Run(ctx context.Context) {
	for {
		select {
		case <-w.wake:
			w.saveLatest(ctx)
		case <-ctx.Done():
			w.saveLatest(context.WithoutCancel(ctx))
			return
		}
	}
}

func (w *Writer[S]) take() *S {
	w.mu.Lock()
	defer w.mu.Unlock()
	state := w.pending
	w.pending = nil
	return state
}

func (w *Writer[S]) saveLatest(ctx context.Context) {
	state := w.take()
	if state == nil {
		return
	}

	if w.config.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.config.timeout)
		defer cancel()
	}

	key, err := w.saver.Save(ctx, *state)
	if err != nil {
		w.config.logger.Error("snapshot upload failed", "error", err)
	} else {
		w.config.logger.Debug("snapshot uploaded", "key", key)
	}
	if w.config.onSaved != nil {
		w.config.onSaved(err)
	}
}
