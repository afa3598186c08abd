package config

// Default values applied to zero-valued configuration fields.
const (
	DefaultNamespace          = "druid"
	DefaultGatewayHost        = "localhost"
	DefaultGatewayPort        = 9091
	DefaultFlushDelaySeconds  = 10
	DefaultFlushPeriodSeconds = 15
	DefaultPushTimeoutSeconds = 10
	DefaultExporterListen     = ":19091"
	DefaultIngestListen       = ":8418"
	DefaultShutdownSeconds    = 10
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
)

// ApplyDefaults fills in defaults for any field left at its zero value.
// A zero gateway port is a valid explicit setting (host-only address), so it
// is only defaulted when the host is also unset.
func ApplyDefaults(cfg *Config) {
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.Strategy == "" {
		cfg.Strategy = StrategyPushgateway
	}
	if cfg.PushGateway.Host == "" {
		cfg.PushGateway.Host = DefaultGatewayHost
		if cfg.PushGateway.Port == 0 {
			cfg.PushGateway.Port = DefaultGatewayPort
		}
	}
	if cfg.PushGateway.FlushDelaySeconds == 0 {
		cfg.PushGateway.FlushDelaySeconds = DefaultFlushDelaySeconds
	}
	if cfg.PushGateway.FlushPeriodSeconds == 0 {
		cfg.PushGateway.FlushPeriodSeconds = DefaultFlushPeriodSeconds
	}
	if cfg.PushGateway.PushTimeoutSeconds == 0 {
		cfg.PushGateway.PushTimeoutSeconds = DefaultPushTimeoutSeconds
	}
	if cfg.Exporter.ListenAddress == "" {
		cfg.Exporter.ListenAddress = DefaultExporterListen
	}
	if cfg.Ingest.ListenAddress == "" {
		cfg.Ingest.ListenAddress = DefaultIngestListen
	}
	if cfg.Ingest.ShutdownTimeoutSeconds == 0 {
		cfg.Ingest.ShutdownTimeoutSeconds = DefaultShutdownSeconds
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}
}

// NewDefault returns a configuration with all defaults applied.
func NewDefault() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
