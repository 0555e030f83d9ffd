package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file, applies defaults, and validates
// the result. Environment variables are not consulted; use LoadWithEnv for
// that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadWithEnv loads configuration from a YAML file and applies LATTICE_*
// environment overrides on top. An empty path starts from defaults only.
// Environment variables always win over file values.
func LoadWithEnv(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies LATTICE_SECTION_FIELD environment variables.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	setBool := func(key string, dst *bool) {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				*dst = b
			}
		}
	}
	setInt := func(key string, dst *int) {
		if val := os.Getenv(key); val != "" {
			if n, err := strconv.Atoi(val); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if val := os.Getenv(key); val != "" {
			if d, err := time.ParseDuration(val); err == nil {
				*dst = d
			}
		}
	}

	setString("LATTICE_INFERENCE_BASE_URL", &cfg.Inference.BaseURL)
	setString("LATTICE_INFERENCE_MODEL", &cfg.Inference.Model)
	setDuration("LATTICE_INFERENCE_TIMEOUT", &cfg.Inference.Timeout)
	setInt("LATTICE_INFERENCE_MAX_RETRIES", &cfg.Inference.MaxRetries)
	setDuration("LATTICE_INFERENCE_BASE_DELAY", &cfg.Inference.BaseDelay)
	setDuration("LATTICE_INFERENCE_MAX_DELAY", &cfg.Inference.MaxDelay)
	setBool("LATTICE_INFERENCE_JITTER", &cfg.Inference.Jitter)
	setInt("LATTICE_INFERENCE_FAILURE_THRESHOLD", &cfg.Inference.FailureThreshold)
	setDuration("LATTICE_INFERENCE_RESET_TIMEOUT", &cfg.Inference.ResetTimeout)

	setBool("LATTICE_EVALUATOR_SEMANTIC", &cfg.Evaluator.Semantic)
	setInt("LATTICE_EVALUATOR_WORKERS", &cfg.Evaluator.Workers)
	setInt("LATTICE_EVALUATOR_EXCERPT_LIMIT", &cfg.Evaluator.ExcerptLimit)

	setString("LATTICE_CATALOG_PATH", &cfg.Catalog.Path)
	setBool("LATTICE_CATALOG_AUTO_SAVE", &cfg.Catalog.AutoSave)
	setBool("LATTICE_CATALOG_WATCH", &cfg.Catalog.Watch)

	setString("LATTICE_STORAGE_BACKEND", &cfg.Storage.Backend)
	setString("LATTICE_STORAGE_PATH", &cfg.Storage.Path)
	setInt("LATTICE_STORAGE_RETENTION_DAYS", &cfg.Storage.RetentionDays)
	if val := os.Getenv("LATTICE_STORAGE_MAX_REPORTS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Storage.MaxReports = n
		}
	}
	setString("LATTICE_STORAGE_PRUNE_SCHEDULE", &cfg.Storage.PruneSchedule)

	setString("LATTICE_TELEMETRY_LOG_LEVEL", &cfg.Telemetry.LogLevel)
	setString("LATTICE_TELEMETRY_LOG_FORMAT", &cfg.Telemetry.LogFormat)
	setString("LATTICE_TELEMETRY_METRICS_ADDRESS", &cfg.Telemetry.MetricsAddress)
}
