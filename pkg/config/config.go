package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Relational store; scheme selects the driver.
	DatabaseURL string

	// RabbitMQ; events are disabled when empty.
	RabbitMQURL string

	// API
	APIPort string

	// Logging
	LogLevel  string
	LogFormat string

	// OpenTelemetry exporter: none or stdout.
	TelemetryExporter string
}

const (
	KeyDatabaseURL = "database_url"
	KeyRabbitMQURL = "rabbitmq_url"
	KeyAPIPort     = "api_port"
	KeyLogLevel    = "log_level"
	KeyLogFormat   = "log_format"

	KeyTelemetryExporter = "telemetry_exporter"
)

// New returns a viper instance bound to the environment with the defaults
// applied. DATABASE_URL, RABBITMQ_URL, API_PORT, LOG_LEVEL, LOG_FORMAT and
// TELEMETRY_EXPORTER are read.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDatabaseURL, "sqlite3://app.db")
	v.SetDefault(KeyRabbitMQURL, "")
	v.SetDefault(KeyAPIPort, "5001")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyTelemetryExporter, "none")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return FromViper(New())
}

// FromViper builds a Config from an already populated viper instance, so
// command line flags bound to it take precedence over the environment.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		DatabaseURL: v.GetString(KeyDatabaseURL),
		RabbitMQURL: v.GetString(KeyRabbitMQURL),
		APIPort:     v.GetString(KeyAPIPort),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   v.GetString(KeyLogFormat),

		TelemetryExporter: v.GetString(KeyTelemetryExporter),
	}
}

// LoadForService returns config with a service-specific DATABASE_URL override,
// e.g. ACTIVITY_DATABASE_URL.
func LoadForService(service string) *Config {
	v := New()
	cfg := FromViper(v)
	if url := v.GetString(fmt.Sprintf("%s_%s", strings.ToLower(service), KeyDatabaseURL)); url != "" {
		cfg.DatabaseURL = url
	}
	return cfg
}

// Addr is the listen address for the API server.
func (c *Config) Addr() string {
	return ":" + c.APIPort
}
