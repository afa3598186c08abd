// Package emitter routes service metric events to registered Prometheus
// collectors and pushes the collector registry to a Pushgateway on a fixed
// cadence.
//
// Routing resolves each event's (metric name, service) pair against the
// lookup table built by pkg/metrics, constructs the label vector in
// registration order from sanitized user dimensions, and dispatches by
// collector kind: counters increment, gauges set, histograms observe the
// value divided by the configured conversion factor.
//
// The flush scheduler runs one dedicated worker; a failed push is logged and
// skipped, never retried and never fatal. Metrics reporting must never take
// down the service it instruments.
package emitter
