package config

import "fmt"

// Strategy selects how collected metrics leave the process.
type Strategy string

const (
	// StrategyPushgateway pushes the collector registry to a remote
	// Pushgateway on a fixed cadence.
	StrategyPushgateway Strategy = "pushgateway"
	// StrategyExporter exposes the collector registry for scraping
	// at an HTTP endpoint instead of pushing.
	StrategyExporter Strategy = "exporter"
)

// Config is the root configuration for the emitter.
type Config struct {
	// Namespace is prefixed to every registered metric name.
	Namespace string `yaml:"namespace"`

	// Strategy is either "pushgateway" or "exporter".
	Strategy Strategy `yaml:"strategy"`

	// MetricMapPath points to the YAML metric map resource. Empty means
	// the embedded default map.
	MetricMapPath string `yaml:"metricMapPath"`

	// WatchMetricMap enables hot reload of the metric map file.
	WatchMetricMap bool `yaml:"watchMetricMap"`

	// ExtraLabels are constant labels attached to every collector.
	ExtraLabels map[string]string `yaml:"extraLabels"`

	PushGateway PushGatewayConfig `yaml:"pushGateway"`
	Exporter    ExporterConfig    `yaml:"exporter"`
	Ingest      IngestConfig      `yaml:"ingest"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// PushGatewayConfig configures the periodic push to a Pushgateway.
type PushGatewayConfig struct {
	// Host is the gateway host, with or without a scheme.
	Host string `yaml:"host"`

	// Port is the gateway port. 0 means the host carries no port suffix.
	Port int `yaml:"port"`

	// FlushDelaySeconds is the delay before the first push.
	FlushDelaySeconds int `yaml:"flushDelaySeconds"`

	// FlushPeriodSeconds is the fixed period between pushes.
	FlushPeriodSeconds int `yaml:"flushPeriodSeconds"`

	// PushTimeoutSeconds bounds a single push so a stalled gateway
	// delays, but never wedges, the flush worker.
	PushTimeoutSeconds int `yaml:"pushTimeoutSeconds"`

	// DeleteOnShutdown deletes the pushed group from the gateway when
	// the emitter closes.
	DeleteOnShutdown bool `yaml:"deleteOnShutdown"`
}

// Address returns the gateway address, omitting the port suffix when the
// configured port is zero.
func (c PushGatewayConfig) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ExporterConfig configures the scrape endpoint used by the exporter
// strategy.
type ExporterConfig struct {
	ListenAddress string `yaml:"listenAddress"`
}

// IngestConfig configures the HTTP event ingest endpoint.
type IngestConfig struct {
	ListenAddress string `yaml:"listenAddress"`

	// ShutdownTimeoutSeconds bounds graceful shutdown of the server.
	ShutdownTimeoutSeconds int `yaml:"shutdownTimeoutSeconds"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}
