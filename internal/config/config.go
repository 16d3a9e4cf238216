// Package config loads engine settings from defaults, an optional settings file and
// TASKPLANE_* environment variables, and loads project files.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Setting keys. The environment variable for a key is TASKPLANE_<KEY>.
const (
	KeyProjectFile         = "project_file"
	KeyMaxParallelism      = "max_parallelism"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyCleanupAfterFailure = "cleanup_after_failure"
	KeyCleanupAfterSuccess = "cleanup_after_success"
	KeyStopTimeout         = "stop_timeout"
	KeyHealthPollInterval  = "health_poll_interval"
	KeyNetworkDriver       = "network_driver"
	KeyDockerHost          = "docker_host"
	KeyOTELEndpoint        = "otel_endpoint"
	KeyMetricsAddr         = "metrics_addr"
)

// EnvPrefix prefixes every setting's environment variable.
const EnvPrefix = "TASKPLANE"

// Config holds all configuration values for the application.
type Config struct {
	// Path of the project file describing containers and tasks
	ProjectFile string

	// Maximum number of steps running at once
	MaxParallelism int

	LogLevel  string
	LogFormat string

	CleanupAfterFailure bool
	CleanupAfterSuccess bool

	// Grace period given to a container between SIGTERM and SIGKILL
	StopTimeout time.Duration

	// Minimum time between two health status checks of a container
	HealthPollInterval time.Duration

	// Driver of the per-task network
	NetworkDriver string

	// Docker daemon address; empty uses DOCKER_HOST
	DockerHost string

	// OTLP gRPC collector address; empty disables tracing
	OTELEndpoint string

	// Listen address of the Prometheus endpoint; empty disables it
	MetricsAddr string
}

// SetDefaults registers the default of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProjectFile, "taskplane.yml")
	v.SetDefault(KeyMaxParallelism, runtime.NumCPU())
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyCleanupAfterFailure, true)
	v.SetDefault(KeyCleanupAfterSuccess, true)
	v.SetDefault(KeyStopTimeout, "10s")
	v.SetDefault(KeyHealthPollInterval, "500ms")
	v.SetDefault(KeyNetworkDriver, "bridge")
	v.SetDefault(KeyDockerHost, "")
	v.SetDefault(KeyOTELEndpoint, "")
	v.SetDefault(KeyMetricsAddr, "")
}

// Load reads configuration from defaults, the settings file at path (if not empty) and
// environment variables.
func Load(path string) (*Config, error) {
	return FromViper(viper.New(), path)
}

// FromViper reads configuration from v, which may already have flags bound to it.
func FromViper(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		ProjectFile:   v.GetString(KeyProjectFile),
		LogLevel:      strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat:     strings.ToLower(v.GetString(KeyLogFormat)),
		NetworkDriver: v.GetString(KeyNetworkDriver),
		DockerHost:    v.GetString(KeyDockerHost),
		OTELEndpoint:  v.GetString(KeyOTELEndpoint),
		MetricsAddr:   v.GetString(KeyMetricsAddr),
	}

	var err error
	if cfg.MaxParallelism, err = parseInt(v, KeyMaxParallelism); err != nil {
		return nil, err
	}
	if cfg.MaxParallelism <= 0 {
		return nil, invalid(KeyMaxParallelism, fmt.Errorf("must be greater than zero, got %d", cfg.MaxParallelism))
	}

	if cfg.CleanupAfterFailure, err = parseBool(v, KeyCleanupAfterFailure); err != nil {
		return nil, err
	}
	if cfg.CleanupAfterSuccess, err = parseBool(v, KeyCleanupAfterSuccess); err != nil {
		return nil, err
	}

	if cfg.StopTimeout, err = parseDuration(v, KeyStopTimeout); err != nil {
		return nil, err
	}
	if cfg.HealthPollInterval, err = parseDuration(v, KeyHealthPollInterval); err != nil {
		return nil, err
	}
	if cfg.HealthPollInterval <= 0 {
		return nil, invalid(KeyHealthPollInterval, fmt.Errorf("must be greater than zero, got %s", cfg.HealthPollInterval))
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, invalid(KeyLogLevel, fmt.Errorf("must be one of debug, info, warn or error, got %q", cfg.LogLevel))
	}
	switch cfg.LogFormat {
	case "json", "text":
	default:
		return nil, invalid(KeyLogFormat, fmt.Errorf("must be json or text, got %q", cfg.LogFormat))
	}

	if cfg.ProjectFile == "" {
		return nil, invalid(KeyProjectFile, fmt.Errorf("must not be empty"))
	}
	if cfg.NetworkDriver == "" {
		return nil, invalid(KeyNetworkDriver, fmt.Errorf("must not be empty"))
	}

	return cfg, nil
}

func parseInt(v *viper.Viper, key string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, invalid(key, err)
	}
	return n, nil
}

func parseBool(v *viper.Viper, key string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return false, invalid(key, err)
	}
	return b, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		return 0, invalid(key, err)
	}
	if d < 0 {
		return 0, invalid(key, fmt.Errorf("must not be negative, got %s", d))
	}
	return d, nil
}

func invalid(key string, err error) error {
	return fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
}
