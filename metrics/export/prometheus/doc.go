// Package prometheus exports authcore engine metrics through
// prometheus/client_golang.
//
// [Exporter] implements prometheus.Collector over Engine.MetricsSnapshot.
// Counter names are authcore_*_total; latency histograms are
// authcore_login_latency_seconds and authcore_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Handler uses a
//     private registry; callers may also register the Exporter themselves.
//   - Mutate engine state.
package prometheus
