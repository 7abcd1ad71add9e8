package config

import (
	"fmt"
	"time"
)

// ObservabilityConfig groups all configuration related to telemetry and runtime visibility:
//   - logging settings (format, level, slow query threshold)
//   - New Relic APM settings
//   - Sentry error reporting
//
// The block is flat so every key maps to a single COHORTS_OBSERVABILITY_* variable.
type ObservabilityConfig struct {
	// ServiceName identifies this service in logs/traces/APM dashboards.
	// Always overwritten by Load.
	ServiceName string `koanf:"service_name"`

	// Environment splits telemetry by environment. Mirrors primary.env.
	Environment string `koanf:"environment"`

	// LogLevel is the verbosity threshold (debug/info/warn/error).
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "json" or "console" output.
	LogFormat string `koanf:"log_format"`

	// SlowQueryThreshold marks queries slower than this as slow in logs.
	// Env values must be duration strings like "100ms" or "1s".
	SlowQueryThreshold time.Duration `koanf:"slow_query_threshold"`

	// NewRelicLicenseKey enables New Relic when non-empty.
	NewRelicLicenseKey string `koanf:"new_relic_license_key"`

	NewRelicLogForwarding      bool `koanf:"new_relic_log_forwarding"`
	NewRelicDistributedTracing bool `koanf:"new_relic_distributed_tracing"`

	// NewRelicDebug enables agent debug output. Off by default to avoid mixed log formats.
	NewRelicDebug bool `koanf:"new_relic_debug"`

	// SentryDSN enables Sentry error reporting when non-empty.
	SentryDSN string `koanf:"sentry_dsn"`

	// Release is reported to Sentry. Usually a git sha injected at build time.
	Release string `koanf:"release"`
}

// DefaultObservabilityConfig provides the defaults used when nothing is configured.
func DefaultObservabilityConfig() *ObservabilityConfig {
	return &ObservabilityConfig{
		ServiceName:                "cohorts-heatmap",
		Environment:                "development",
		LogLevel:                   "info",
		LogFormat:                  "json",
		SlowQueryThreshold:         100 * time.Millisecond,
		NewRelicLogForwarding:      true,
		NewRelicDistributedTracing: true,
	}
}

// Validate applies rules that go beyond struct tags.
func (c *ObservabilityConfig) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if c.LogLevel != "" && !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid logging level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != "json" && c.LogFormat != "console" {
		return fmt.Errorf("invalid logging format: %s (must be json or console)", c.LogFormat)
	}

	if c.SlowQueryThreshold < 0 {
		return fmt.Errorf("logging slow_query_threshold must be non-negative")
	}

	return nil
}

// GetLogLevel returns the effective log level to use at runtime.
//
// An empty level defaults by environment: "info" in production, "debug" elsewhere.
func (c *ObservabilityConfig) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	if c.IsProduction() {
		return "info"
	}
	return "debug"
}

// IsProduction reports whether the application is running in production mode.
func (c *ObservabilityConfig) IsProduction() bool {
	return c.Environment == "production"
}
