package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/batchstore"
)

const defaultTracerName = "batchstore"

// TracerConfig configures the OpenTelemetry recorder.
type TracerConfig struct {
	// TracerName is the name of the tracer (default: "batchstore").
	TracerName string

	// Provider is the tracer provider. If nil, the global provider is used.
	Provider trace.TracerProvider

	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// TracerOption configures the OpenTelemetry recorder.
type TracerOption func(*TracerConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) TracerOption {
	return func(c *TracerConfig) {
		c.TracerName = name
	}
}

// WithTracerProvider sets the tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracerOption {
	return func(c *TracerConfig) {
		c.Provider = tp
	}
}

// WithAttributes adds attributes to every span.
func WithAttributes(attrs ...attribute.KeyValue) TracerOption {
	return func(c *TracerConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// Tracer records store activity as spans. Dispatches get a span covering
// routing and delivery; flushes and clears are recorded as short spans of
// their own.
type Tracer struct {
	tracer trace.Tracer
	attrs  []attribute.KeyValue
}

var _ batchstore.Instrument = (*Tracer)(nil)

// NewTracer resolves the tracer from the configured provider.
func NewTracer(opts ...TracerOption) *Tracer {
	config := TracerConfig{TracerName: defaultTracerName}
	for _, opt := range opts {
		opt(&config)
	}

	tp := config.Provider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer: tp.Tracer(config.TracerName),
		attrs:  config.Attributes,
	}
}

// StartDispatch implements batchstore.Instrument.
func (t *Tracer) StartDispatch(channel string, leaves int) func(error) {
	_, span := t.tracer.Start(context.Background(), "batchstore.dispatch",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.attributes(
			attribute.String("batchstore.channel", channelLabel(channel)),
			attribute.Int("batchstore.actions", leaves),
		)...),
	)

	return func(err error) {
		end(span, err)
	}
}

// Enqueued implements batchstore.Instrument. The dispatch span already
// covers enqueueing.
func (t *Tracer) Enqueued(string, int) {}

// Flushed implements batchstore.Instrument.
func (t *Tracer) Flushed(channel string, size int, err error) {
	_, span := t.tracer.Start(context.Background(), "batchstore.flush",
		trace.WithAttributes(t.attributes(
			attribute.String("batchstore.channel", channel),
			attribute.Int("batchstore.flush_size", size),
		)...),
	)
	end(span, err)
}

// Cleared implements batchstore.Instrument.
func (t *Tracer) Cleared(channel string, dropped int) {
	_, span := t.tracer.Start(context.Background(), "batchstore.clear",
		trace.WithAttributes(t.attributes(
			attribute.String("batchstore.channel", channel),
			attribute.Int("batchstore.dropped", dropped),
		)...),
	)
	span.End()
}

func (t *Tracer) attributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	return append(attrs, t.attrs...)
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
