package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectFile != "taskplane.yml" {
		t.Errorf("expected ProjectFile taskplane.yml, got %s", cfg.ProjectFile)
	}
	if cfg.MaxParallelism != runtime.NumCPU() {
		t.Errorf("expected MaxParallelism %d, got %d", runtime.NumCPU(), cfg.MaxParallelism)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected LogLevel info, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" {
		t.Errorf("expected LogFormat text, got %s", cfg.LogFormat)
	}
	if !cfg.CleanupAfterFailure || !cfg.CleanupAfterSuccess {
		t.Errorf("expected cleanup after failure and success by default, got %v/%v", cfg.CleanupAfterFailure, cfg.CleanupAfterSuccess)
	}
	if cfg.StopTimeout != 10*time.Second {
		t.Errorf("expected StopTimeout 10s, got %v", cfg.StopTimeout)
	}
	if cfg.HealthPollInterval != 500*time.Millisecond {
		t.Errorf("expected HealthPollInterval 500ms, got %v", cfg.HealthPollInterval)
	}
	if cfg.NetworkDriver != "bridge" {
		t.Errorf("expected NetworkDriver bridge, got %s", cfg.NetworkDriver)
	}
	if cfg.OTELEndpoint != "" || cfg.MetricsAddr != "" {
		t.Errorf("expected telemetry disabled by default, got %q/%q", cfg.OTELEndpoint, cfg.MetricsAddr)
	}
}

func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("TASKPLANE_PROJECT_FILE", "ci/tasks.yml")
	t.Setenv("TASKPLANE_MAX_PARALLELISM", "3")
	t.Setenv("TASKPLANE_LOG_LEVEL", "DEBUG")
	t.Setenv("TASKPLANE_LOG_FORMAT", "json")
	t.Setenv("TASKPLANE_CLEANUP_AFTER_FAILURE", "false")
	t.Setenv("TASKPLANE_STOP_TIMEOUT", "30s")
	t.Setenv("TASKPLANE_NETWORK_DRIVER", "overlay")
	t.Setenv("TASKPLANE_OTEL_ENDPOINT", "otel-collector:4317")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ProjectFile != "ci/tasks.yml" {
		t.Errorf("expected ProjectFile from env, got %s", cfg.ProjectFile)
	}
	if cfg.MaxParallelism != 3 {
		t.Errorf("expected MaxParallelism 3, got %d", cfg.MaxParallelism)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel debug, got %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("expected LogFormat json, got %s", cfg.LogFormat)
	}
	if cfg.CleanupAfterFailure {
		t.Error("expected CleanupAfterFailure false")
	}
	if !cfg.CleanupAfterSuccess {
		t.Error("expected CleanupAfterSuccess to keep its default")
	}
	if cfg.StopTimeout != 30*time.Second {
		t.Errorf("expected StopTimeout 30s, got %v", cfg.StopTimeout)
	}
	if cfg.NetworkDriver != "overlay" {
		t.Errorf("expected NetworkDriver overlay, got %s", cfg.NetworkDriver)
	}
	if cfg.OTELEndpoint != "otel-collector:4317" {
		t.Errorf("expected OTELEndpoint from env, got %s", cfg.OTELEndpoint)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := "max_parallelism: 2\nhealth_poll_interval: 1s\nmetrics_addr: \":9464\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("TASKPLANE_MAX_PARALLELISM", "6")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxParallelism != 6 {
		t.Errorf("expected env to win over the file, got %d", cfg.MaxParallelism)
	}
	if cfg.HealthPollInterval != time.Second {
		t.Errorf("expected HealthPollInterval 1s from file, got %v", cfg.HealthPollInterval)
	}
	if cfg.MetricsAddr != ":9464" {
		t.Errorf("expected MetricsAddr from file, got %s", cfg.MetricsAddr)
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for a missing config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
		want  string
	}{
		{env: "TASKPLANE_MAX_PARALLELISM", value: "many", want: "invalid MAX_PARALLELISM"},
		{env: "TASKPLANE_MAX_PARALLELISM", value: "0", want: "invalid MAX_PARALLELISM: must be greater than zero"},
		{env: "TASKPLANE_STOP_TIMEOUT", value: "soon", want: "invalid STOP_TIMEOUT"},
		{env: "TASKPLANE_STOP_TIMEOUT", value: "-1s", want: "invalid STOP_TIMEOUT: must not be negative"},
		{env: "TASKPLANE_HEALTH_POLL_INTERVAL", value: "0s", want: "invalid HEALTH_POLL_INTERVAL"},
		{env: "TASKPLANE_CLEANUP_AFTER_SUCCESS", value: "sometimes", want: "invalid CLEANUP_AFTER_SUCCESS"},
		{env: "TASKPLANE_LOG_LEVEL", value: "verbose", want: "invalid LOG_LEVEL"},
		{env: "TASKPLANE_LOG_FORMAT", value: "xml", want: "invalid LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.env+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)

			_, err := Load("")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.HasPrefix(err.Error(), tt.want) {
				t.Errorf("expected error starting with %q, got %v", tt.want, err)
			}
		})
	}
}
