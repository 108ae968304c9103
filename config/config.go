// Package config loads the health server configuration from flags,
// environment variables, an optional config file and a .env file.
//
// Environment variables use the JWEB_ prefix with dashes replaced by
// underscores, e.g. JWEB_LOG_LEVEL for the log-level key. The database URL is
// also read from DATABASE_URL.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jwebframework/jweb/observe"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "JWEB"

// Configuration keys. Each key is also the name of the matching flag.
const (
	KeyConfigFile      = "config"
	KeyAddr            = "addr"
	KeyPrefix          = "prefix"
	KeyServiceName     = "service-name"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyTracingExporter = "tracing-exporter"
	KeyTracingSample   = "tracing-sample"
	KeyMetricsExporter = "metrics-exporter"
	KeyMetricsPath     = "metrics-path"
	KeyDatabaseURL     = "database-url"
	KeyDependencies    = "dependency"
	KeyCheckTimeout    = "check-timeout"
	KeyMemoryWarning   = "memory-warning"
	KeyMemoryCritical  = "memory-critical"
	KeyBreakerFailures = "breaker-failures"
	KeyBreakerReset    = "breaker-reset"
)

// Defaults.
const (
	DefaultAddr            = ":8080"
	DefaultServiceName     = "jweb"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultMetricsExporter = "prometheus"
	DefaultMetricsPath     = "/metrics"
	DefaultCheckTimeout    = 5 * time.Second
	DefaultMemoryWarning   = 0.8
	DefaultMemoryCritical  = 0.95
	DefaultBreakerFailures = 5
	DefaultBreakerReset    = 30 * time.Second
)

var (
	// ErrInvalidAddr indicates an empty listen address.
	ErrInvalidAddr = errors.New("config: listen address is required")

	// ErrInvalidTimeout indicates a non-positive check timeout.
	ErrInvalidTimeout = errors.New("config: check timeout must be positive")

	// ErrInvalidThreshold indicates memory thresholds outside (0, 1) or a
	// warning threshold above the critical one.
	ErrInvalidThreshold = errors.New("config: invalid memory thresholds")

	// ErrInvalidBreaker indicates invalid circuit breaker settings.
	ErrInvalidBreaker = errors.New("config: invalid circuit breaker settings")
)

// Config holds the health server configuration.
type Config struct {
	Addr        string
	Prefix      string
	ServiceName string
	Version     string

	LogLevel  string
	LogFormat string

	TracingExporter string
	TracingSample   float64
	MetricsExporter string
	MetricsPath     string

	// DatabaseURL is the PostgreSQL connection string. Empty disables the
	// database check.
	DatabaseURL string

	// Dependencies are URLs probed by HTTP readiness checks.
	Dependencies []string

	CheckTimeout time.Duration

	MemoryWarning  float64
	MemoryCritical float64

	BreakerFailures int
	BreakerReset    time.Duration
}

// BindFlags registers the configuration flags on flags.
func BindFlags(flags *pflag.FlagSet) {
	flags.String(KeyConfigFile, "", "Path to a configuration file (yaml, json or toml)")
	flags.String(KeyAddr, DefaultAddr, "Address to serve HTTP traffic on")
	flags.String(KeyPrefix, "", "Path prefix for the health endpoints")
	flags.String(KeyServiceName, DefaultServiceName, "Service name reported in telemetry")
	flags.String(KeyLogLevel, DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.String(KeyLogFormat, DefaultLogFormat, "Log format (json, console)")
	flags.String(KeyTracingExporter, "none", "Tracing exporter (otlp, jaeger, stdout, none)")
	flags.Float64(KeyTracingSample, 1.0, "Fraction of health check spans to sample")
	flags.String(KeyMetricsExporter, DefaultMetricsExporter, "Metrics exporter (otlp, prometheus, stdout, none)")
	flags.String(KeyMetricsPath, DefaultMetricsPath, "Path serving prometheus metrics")
	flags.String(KeyDatabaseURL, "", "PostgreSQL connection string for the database readiness check")
	flags.StringSlice(KeyDependencies, nil, "URL of a dependency to probe for readiness (repeatable)")
	flags.Duration(KeyCheckTimeout, DefaultCheckTimeout, "Maximum duration of a single dependency check")
	flags.Float64(KeyMemoryWarning, DefaultMemoryWarning, "Heap usage ratio reported as DEGRADED")
	flags.Float64(KeyMemoryCritical, DefaultMemoryCritical, "Heap usage ratio reported as DOWN")
	flags.Int(KeyBreakerFailures, DefaultBreakerFailures, "Consecutive failures before a dependency check circuit opens")
	flags.Duration(KeyBreakerReset, DefaultBreakerReset, "Time an open circuit waits before probing again")
}

// Load reads the configuration. Values are taken, in decreasing precedence,
// from changed flags, environment variables, the config file and defaults.
// A .env file in the working directory is loaded into the environment first
// if present. flags may be nil.
func Load(flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.BindEnv(KeyDatabaseURL, EnvPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: binding flags: %w", err)
		}
	}

	if path := v.GetString(KeyConfigFile); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := &Config{
		Addr:            v.GetString(KeyAddr),
		Prefix:          v.GetString(KeyPrefix),
		ServiceName:     v.GetString(KeyServiceName),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		TracingExporter: v.GetString(KeyTracingExporter),
		TracingSample:   v.GetFloat64(KeyTracingSample),
		MetricsExporter: v.GetString(KeyMetricsExporter),
		MetricsPath:     v.GetString(KeyMetricsPath),
		DatabaseURL:     v.GetString(KeyDatabaseURL),
		Dependencies:    splitList(v.GetStringSlice(KeyDependencies)),
		CheckTimeout:    v.GetDuration(KeyCheckTimeout),
		MemoryWarning:   v.GetFloat64(KeyMemoryWarning),
		MemoryCritical:  v.GetFloat64(KeyMemoryCritical),
		BreakerFailures: v.GetInt(KeyBreakerFailures),
		BreakerReset:    v.GetDuration(KeyBreakerReset),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, DefaultAddr)
	v.SetDefault(KeyServiceName, DefaultServiceName)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFormat, DefaultLogFormat)
	v.SetDefault(KeyTracingExporter, "none")
	v.SetDefault(KeyTracingSample, 1.0)
	v.SetDefault(KeyMetricsExporter, DefaultMetricsExporter)
	v.SetDefault(KeyMetricsPath, DefaultMetricsPath)
	v.SetDefault(KeyCheckTimeout, DefaultCheckTimeout)
	v.SetDefault(KeyMemoryWarning, DefaultMemoryWarning)
	v.SetDefault(KeyMemoryCritical, DefaultMemoryCritical)
	v.SetDefault(KeyBreakerFailures, DefaultBreakerFailures)
	v.SetDefault(KeyBreakerReset, DefaultBreakerReset)
}

// splitList flattens comma-separated entries, which is how lists arrive from
// environment variables.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return ErrInvalidAddr
	}
	if c.CheckTimeout <= 0 {
		return fmt.Errorf("%w, got: %s", ErrInvalidTimeout, c.CheckTimeout)
	}
	if c.MemoryWarning <= 0 || c.MemoryCritical >= 1 || c.MemoryWarning > c.MemoryCritical {
		return fmt.Errorf("%w: warning %.2f, critical %.2f", ErrInvalidThreshold, c.MemoryWarning, c.MemoryCritical)
	}
	if c.BreakerFailures < 1 || c.BreakerReset <= 0 {
		return fmt.Errorf("%w: failures %d, reset %s", ErrInvalidBreaker, c.BreakerFailures, c.BreakerReset)
	}

	obs := c.Observe()
	return obs.Validate()
}

// Observe returns the telemetry configuration.
func (c *Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Version:     c.Version,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "" && c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.TracingSample,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "" && c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
			Format:  c.LogFormat,
		},
	}
}
