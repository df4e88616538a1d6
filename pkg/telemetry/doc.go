// Package telemetry records batchstore activity as Prometheus metrics and
// OpenTelemetry spans.
//
// Both recorders implement batchstore.Instrument and are passed to the store
// through Config.Instrument. Multi combines them:
//
//	metrics := telemetry.NewMetrics(telemetry.WithNamespace("todos"))
//	tracer := telemetry.NewTracer()
//	store, err := batchstore.New(base, batchstore.Config{
//	    Channels:   channels,
//	    Instrument: telemetry.Multi(metrics, tracer),
//	})
//
// # Prometheus Metrics
//
// Metrics collected (with the default "batchstore" namespace):
//   - batchstore_dispatches_total: dispatches by channel and status
//   - batchstore_dispatch_duration_seconds: routing and delivery time by channel
//   - batchstore_dispatch_actions: actions per dispatch
//   - batchstore_queue_depth: pending messages by channel
//   - batchstore_flushes_total: channel flushes by channel and status
//   - batchstore_flush_size: messages per flush
//   - batchstore_cleared_total: messages discarded by ClearActionQueue
//   - batchstore_websocket_connections: open websocket subscribers
//   - batchstore_snapshots_total: snapshot uploads by status
//
// Expose them with promhttp.HandlerFor on the registry passed to
// WithRegistry, or promhttp.Handler() for the default registry.
//
// # OpenTelemetry
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it in
// main() before creating the store:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
package telemetry
