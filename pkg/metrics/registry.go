package metrics

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// DimensionsAndCollector couples a registered collector with the label names
// it was registered with. Dimensions are in registration order; the label
// vector built for an event must align with them positionally. Exactly one of
// Counter, Gauge or Histogram is set, selected by Kind.
type DimensionsAndCollector struct {
	Kind       Kind
	Dimensions []string

	// ConversionFactor divides raw event values before a histogram
	// observation. Always 1 for counters and gauges.
	ConversionFactor float64

	Counter   *prometheus.CounterVec
	Gauge     *prometheus.GaugeVec
	Histogram *prometheus.HistogramVec
}

// registryState is the immutable product of one metric map load: the lookup
// table and the Prometheus registry holding its collectors. Reload builds a
// fresh state and swaps the pointer; readers never see a partial table.
type registryState struct {
	byName map[string]*DimensionsAndCollector
	prom   *prometheus.Registry
}

// Registry is the collector lookup table. It is built once from the metric
// map resource and read-only for routing; Reload atomically replaces the
// whole table. Registry implements prometheus.Gatherer by delegating to the
// current underlying registry, so pushers and exposition handlers follow
// reloads automatically.
type Registry struct {
	namespace   string
	mapPath     string
	extraLabels prometheus.Labels
	logger      *slog.Logger

	state atomic.Pointer[registryState]
}

// NewRegistry builds the lookup table from the metric map at mapPath (the
// embedded default map when empty). Every collector is named
// "<namespace>_<sanitized metric name>" and carries extraLabels as constant
// labels.
func NewRegistry(namespace, mapPath string, extraLabels map[string]string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default().With("component", "metrics.registry")
	}

	r := &Registry{
		namespace:   namespace,
		mapPath:     mapPath,
		extraLabels: prometheus.Labels(extraLabels),
		logger:      logger,
	}

	state, err := r.buildState()
	if err != nil {
		return nil, err
	}
	r.state.Store(state)

	logger.Info("metric map loaded",
		"path", displayPath(mapPath),
		"metric_count", len(state.byName),
	)

	return r, nil
}

// GetByName resolves the collector for a (metric name, service) pair. The
// exact metric name is tried first, then the service-qualified key
// "<service>_<metric>". A nil result means the metric is unmapped, which is a
// valid state, not an error.
func (r *Registry) GetByName(metric, service string) *DimensionsAndCollector {
	byName := r.state.Load().byName
	if dc, ok := byName[metric]; ok {
		return dc
	}
	return byName[service+"_"+metric]
}

// Gather implements prometheus.Gatherer over the current collector set.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	return r.state.Load().prom.Gather()
}

// Reload re-reads the metric map and swaps in a freshly built collector set.
// On failure the previous set stays in place. All collector values reset.
func (r *Registry) Reload() error {
	state, err := r.buildState()
	if err != nil {
		return err
	}
	r.state.Store(state)

	r.logger.Warn("metric map reloaded, collector values reset",
		"path", displayPath(r.mapPath),
		"metric_count", len(state.byName),
	)
	return nil
}

// Path returns the configured metric map path, empty for the embedded map.
func (r *Registry) Path() string {
	return r.mapPath
}

// buildState loads the metric map and registers one collector per entry in a
// new Prometheus registry.
func (r *Registry) buildState() (*registryState, error) {
	m, err := loadMetricMap(r.mapPath)
	if err != nil {
		return nil, err
	}

	state := &registryState{
		byName: make(map[string]*DimensionsAndCollector, len(m)),
		prom:   prometheus.NewRegistry(),
	}

	for name, entry := range m {
		dc, err := r.newCollector(name, entry)
		if err != nil {
			return nil, err
		}
		state.byName[name] = dc

		var collector prometheus.Collector
		switch dc.Kind {
		case KindCounter:
			collector = dc.Counter
		case KindGauge:
			collector = dc.Gauge
		case KindHistogram:
			collector = dc.Histogram
		}
		if err := state.prom.Register(collector); err != nil {
			return nil, fmt.Errorf("failed to register collector for metric %q: %w", name, err)
		}
	}

	return state, nil
}

// newCollector builds the collector for one metric map entry.
func (r *Registry) newCollector(name string, entry mapEntry) (*DimensionsAndCollector, error) {
	fullName := r.namespace + "_" + Sanitize(name)
	help := entry.Help
	if help == "" {
		help = "Metric " + name
	}

	dc := &DimensionsAndCollector{
		Dimensions:       entry.Dimensions,
		ConversionFactor: 1,
	}

	switch entry.Type {
	case "count":
		dc.Kind = KindCounter
		dc.Counter = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        fullName,
			Help:        help,
			ConstLabels: r.extraLabels,
		}, entry.Dimensions)
	case "gauge":
		dc.Kind = KindGauge
		dc.Gauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        fullName,
			Help:        help,
			ConstLabels: r.extraLabels,
		}, entry.Dimensions)
	case "timer":
		dc.Kind = KindHistogram
		if entry.ConversionFactor != 0 {
			dc.ConversionFactor = entry.ConversionFactor
		}
		buckets := entry.Buckets
		if len(buckets) == 0 {
			buckets = prometheus.DefBuckets
		}
		dc.Histogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        fullName,
			Help:        help,
			ConstLabels: r.extraLabels,
			Buckets:     buckets,
		}, entry.Dimensions)
	default:
		return nil, fmt.Errorf("metric %q: unknown type %q", name, entry.Type)
	}

	return dc, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<embedded default>"
	}
	return path
}
