// Package metrics builds the collector lookup table from a metric map
// resource and sanitizes untrusted dimension values into valid label values.
//
// The metric map is a YAML (or JSON) document keyed by metric name, each
// entry naming a collector type (count, gauge, timer), its label dimensions
// in registration order, and for timers a conversion factor dividing raw
// event values into the unit the histogram buckets expect. A key may be
// service-qualified as "<service>_<metric>" to give one service its own
// collector for a shared metric name.
//
// The resulting Registry maps (metric name, service) pairs to collectors,
// implements prometheus.Gatherer for pushing and exposition, and supports
// atomic reload of the whole table (optionally driven by a file watcher).
package metrics
