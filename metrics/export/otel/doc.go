// Package otel exports authcore engine metrics as OpenTelemetry observable
// instruments.
//
// [NewExporter] registers one Int64ObservableCounter per engine counter and,
// per latency histogram, a bucket gauge keyed by an "le" attribute plus a
// count gauge. A single callback reads Engine.MetricsSnapshot on each
// collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
