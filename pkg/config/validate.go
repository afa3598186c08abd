package config

import (
	"fmt"
	"regexp"
)

// namespacePattern is the Prometheus metric name rule; the namespace becomes
// the first segment of every registered metric name.
var namespacePattern = regexp.MustCompile(`^[a-zA-Z_:][a-zA-Z0-9_:]*$`)

// Validate checks the configuration for contradictions and values the rest of
// the system cannot work with. It assumes defaults have been applied.
func Validate(cfg *Config) error {
	if !namespacePattern.MatchString(cfg.Namespace) {
		return fmt.Errorf("namespace %q is not a valid metric name prefix", cfg.Namespace)
	}

	switch cfg.Strategy {
	case StrategyPushgateway:
		if cfg.PushGateway.Host == "" {
			return fmt.Errorf("pushGateway.host is required for the pushgateway strategy")
		}
		if cfg.PushGateway.Port < 0 || cfg.PushGateway.Port > 65535 {
			return fmt.Errorf("pushGateway.port %d is out of range", cfg.PushGateway.Port)
		}
		if cfg.PushGateway.FlushDelaySeconds < 0 {
			return fmt.Errorf("pushGateway.flushDelaySeconds must not be negative")
		}
		if cfg.PushGateway.FlushPeriodSeconds <= 0 {
			return fmt.Errorf("pushGateway.flushPeriodSeconds must be positive")
		}
		if cfg.PushGateway.PushTimeoutSeconds <= 0 {
			return fmt.Errorf("pushGateway.pushTimeoutSeconds must be positive")
		}
	case StrategyExporter:
		if cfg.Exporter.ListenAddress == "" {
			return fmt.Errorf("exporter.listenAddress is required for the exporter strategy")
		}
	default:
		return fmt.Errorf("unknown strategy %q (want %q or %q)",
			cfg.Strategy, StrategyPushgateway, StrategyExporter)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Logging.Format)
	}

	for name := range cfg.ExtraLabels {
		if !namespacePattern.MatchString(name) {
			return fmt.Errorf("extra label name %q is not a valid label name", name)
		}
	}

	return nil
}
