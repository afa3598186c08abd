package metrics

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Kind tags the collector variant a metric map entry resolves to.
type Kind int

const (
	// KindCounter is a monotonically increasing counter.
	KindCounter Kind = iota + 1
	// KindGauge is a last-set value.
	KindGauge
	// KindHistogram is a distribution of observations into buckets.
	KindHistogram
)

// String returns the metric map spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindCounter:
		return "count"
	case KindGauge:
		return "gauge"
	case KindHistogram:
		return "timer"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// mapEntry is one metric map record. Keys of the map file are metric names,
// optionally service-qualified as "<service>_<metric>" to give one service
// its own collector for a shared metric name.
type mapEntry struct {
	// Type is "count", "gauge" or "timer".
	Type string `yaml:"type"`

	// Dimensions are the label names, in registration order. The literal
	// name "service" is filled from the event's service field.
	Dimensions []string `yaml:"dimensions"`

	// ConversionFactor divides raw event values before a histogram
	// observation (e.g. 1000 records milliseconds as seconds). Only
	// meaningful for timers; defaults to 1.
	ConversionFactor float64 `yaml:"conversionFactor"`

	// Help is the collector help string.
	Help string `yaml:"help"`

	// Buckets overrides the default histogram buckets.
	Buckets []float64 `yaml:"buckets"`
}

type metricMap map[string]mapEntry

//go:embed defaultmap.yaml
var defaultMetricMap []byte

// parseMetricMap parses the metric map resource. YAML is a superset of JSON,
// so JSON map files parse as well.
func parseMetricMap(data []byte) (metricMap, error) {
	var m metricMap
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse metric map: %w", err)
	}

	for name, entry := range m {
		switch entry.Type {
		case "count", "gauge", "timer":
		default:
			return nil, fmt.Errorf("metric %q: unknown type %q (want count, gauge or timer)", name, entry.Type)
		}
		if entry.ConversionFactor < 0 {
			return nil, fmt.Errorf("metric %q: conversionFactor must not be negative", name)
		}
		if entry.ConversionFactor != 0 && entry.Type != "timer" {
			return nil, fmt.Errorf("metric %q: conversionFactor is only valid for timers", name)
		}
	}

	return m, nil
}

// loadMetricMap reads and parses the metric map at path. An empty path means
// the embedded default map.
func loadMetricMap(path string) (metricMap, error) {
	if path == "" {
		return parseMetricMap(defaultMetricMap)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metric map %q: %w", path, err)
	}

	m, err := parseMetricMap(data)
	if err != nil {
		return nil, fmt.Errorf("metric map %q: %w", path, err)
	}
	return m, nil
}
