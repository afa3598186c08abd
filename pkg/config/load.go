package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// DRUID_EMITTER_* environment variable overrides. Environment variables take
// precedence over the file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides overwrites configuration fields from DRUID_EMITTER_*
// environment variables.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("DRUID_EMITTER_NAMESPACE"); val != "" {
		cfg.Namespace = val
	}
	if val := os.Getenv("DRUID_EMITTER_STRATEGY"); val != "" {
		cfg.Strategy = Strategy(val)
	}
	if val := os.Getenv("DRUID_EMITTER_METRIC_MAP_PATH"); val != "" {
		cfg.MetricMapPath = val
	}
	if val := os.Getenv("DRUID_EMITTER_PUSHGATEWAY_HOST"); val != "" {
		cfg.PushGateway.Host = val
	}
	if val := os.Getenv("DRUID_EMITTER_PUSHGATEWAY_PORT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.PushGateway.Port = i
		}
	}
	if val := os.Getenv("DRUID_EMITTER_FLUSH_DELAY_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.PushGateway.FlushDelaySeconds = i
		}
	}
	if val := os.Getenv("DRUID_EMITTER_FLUSH_PERIOD_SECONDS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.PushGateway.FlushPeriodSeconds = i
		}
	}
	if val := os.Getenv("DRUID_EMITTER_EXPORTER_LISTEN"); val != "" {
		cfg.Exporter.ListenAddress = val
	}
	if val := os.Getenv("DRUID_EMITTER_INGEST_LISTEN"); val != "" {
		cfg.Ingest.ListenAddress = val
	}
	if val := os.Getenv("DRUID_EMITTER_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
}
