// Package config manages environment variables.
//
// It reads variables from the `.env` file and the process environment,
// loads them into structured Go types (struct), and validates that
// required values are present so they can be reused across the
// application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad/missing config.
//   - Provide sane defaults for optional values (ports, pool sizes, observability).
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists, it gets loaded into the
	// process env before any variable is read.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the prefix COHORTS_.

	The prefix is removed, the key is lowercased and the FIRST underscore
	becomes the koanf nesting delimiter. Everything after that stays as is:

	  COHORTS_DATABASE_HOST         -> database.host
	  COHORTS_SERVER_READ_TIMEOUT   -> server.read_timeout
	  COHORTS_OBSERVABILITY_LOG_LEVEL -> observability.log_level
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "COHORTS_"

// Config is the root configuration object for the application.
//
// The `koanf:"..."` tags specify where koanf maps values from.
// The `validate:"..."` tags are enforced by go-playground/validator.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability" validate:"required"`
}

// Primary holds top-level information about the runtime environment.
// Used to tag logs/traces and to switch behavior based on env.
type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"min=1"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"min=1"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"min=1"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required,min=1"`

	// RedactErrors replaces backend error text in 5xx response bodies with
	// the generic status text. The detailed message is still logged.
	RedactErrors bool `koanf:"redact_errors"`
}

// Supported values for DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DatabaseConfig contains connection parameters and pool tuning.
//
// Port 0 means "driver default" (5432 for postgres, 3306 for mysql).
// Lifetimes are expressed in seconds.
type DatabaseConfig struct {
	Driver          string `koanf:"driver" validate:"required,oneof=postgres mysql"`
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"min=0,max=65535"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode"`
	MaxConns        int    `koanf:"max_conns" validate:"min=1"`
	MinConns        int    `koanf:"min_conns" validate:"min=0,ltefield=MaxConns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"min=0"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"min=0"`

	// AutoMigrate applies the embedded migrations at boot. Postgres only.
	AutoMigrate bool `koanf:"auto_migrate"`
}

// EffectivePort returns the configured port or the driver default.
func (d DatabaseConfig) EffectivePort() int {
	if d.Port != 0 {
		return d.Port
	}
	if d.Driver == DriverMySQL {
		return 3306
	}
	return 5432
}

// Default returns a Config with every optional value populated.
// Connection credentials are left empty on purpose: they must come from env.
func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "8000",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			SSLMode:         "disable",
			MaxConns:        10,
			ConnMaxLifetime: 300,
			ConnMaxIdleTime: 60,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// envKey maps a raw env var name into a koanf key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// listKeys are read as comma separated lists.
var listKeys = map[string]bool{
	"server.cors_allowed_origins": true,
}

// envValue maps a raw env var into a koanf key and value, splitting list keys.
func envValue(name, value string) (string, any) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	return key, splitList(value)
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	items := make([]string, 0, strings.Count(value, ",")+1)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Load reads configuration from the environment, applies defaults,
// validates it and returns the resulting config.
//
// Behavior summary:
//   - Loads env vars with prefix COHORTS_ (list keys are comma separated)
//   - Unmarshals them on top of Default(), so unset keys keep their default
//   - Validates struct tags and the observability block
//   - Forces observability service name + environment
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()

	// Unmarshal decodes onto the pre-populated struct; only keys that are
	// present in the environment overwrite a default.
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Service naming stays consistent in logs/traces regardless of env.
	mainConfig.Observability.ServiceName = "cohorts-heatmap"
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
