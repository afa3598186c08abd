// Package config defines the emitter configuration surface and loads it from
// YAML with defaults, validation and DRUID_EMITTER_* environment overrides.
package config
