package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for inconsistencies. It returns the first
// problem found.
func Validate(cfg *Config) error {
	if _, err := url.Parse(cfg.Inference.BaseURL); err != nil {
		return fmt.Errorf("inference.base_url: %w", err)
	}
	if cfg.Inference.Model == "" {
		return fmt.Errorf("inference.model must not be empty")
	}
	if cfg.Inference.MaxRetries < 0 {
		return fmt.Errorf("inference.max_retries must not be negative")
	}
	if cfg.Inference.BaseDelay < 0 || cfg.Inference.MaxDelay < 0 {
		return fmt.Errorf("inference backoff delays must not be negative")
	}
	if cfg.Inference.MaxDelay < cfg.Inference.BaseDelay {
		return fmt.Errorf("inference.max_delay (%s) must be >= base_delay (%s)",
			cfg.Inference.MaxDelay, cfg.Inference.BaseDelay)
	}
	if cfg.Inference.FailureThreshold < 1 {
		return fmt.Errorf("inference.failure_threshold must be at least 1")
	}

	if cfg.Evaluator.Workers < 1 {
		return fmt.Errorf("evaluator.workers must be at least 1")
	}
	if cfg.Evaluator.ExcerptLimit < 1 {
		return fmt.Errorf("evaluator.excerpt_limit must be at least 1")
	}

	switch cfg.Storage.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("storage.backend must be \"memory\" or \"sqlite\", got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "sqlite" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path must be set for the sqlite backend")
	}
	if cfg.Storage.RetentionDays < 0 {
		return fmt.Errorf("storage.retention_days must not be negative")
	}
	if cfg.Storage.MaxReports < 0 {
		return fmt.Errorf("storage.max_reports must not be negative")
	}

	switch strings.ToLower(cfg.Telemetry.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("telemetry.log_level must be one of debug, info, warn, error; got %q", cfg.Telemetry.LogLevel)
	}
	switch strings.ToLower(cfg.Telemetry.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.log_format must be \"json\" or \"text\", got %q", cfg.Telemetry.LogFormat)
	}

	return nil
}
