package config

import "time"

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every unset field with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Inference.BaseURL == "" {
		cfg.Inference.BaseURL = "http://localhost:11434"
	}
	if cfg.Inference.Model == "" {
		cfg.Inference.Model = "mistral"
	}
	if cfg.Inference.Timeout == 0 {
		cfg.Inference.Timeout = 60 * time.Second
	}
	if cfg.Inference.MaxRetries == 0 {
		cfg.Inference.MaxRetries = 3
	}
	if cfg.Inference.BaseDelay == 0 {
		cfg.Inference.BaseDelay = time.Second
	}
	if cfg.Inference.MaxDelay == 0 {
		cfg.Inference.MaxDelay = 10 * time.Second
	}
	if cfg.Inference.FailureThreshold == 0 {
		cfg.Inference.FailureThreshold = 5
	}
	if cfg.Inference.ResetTimeout == 0 {
		cfg.Inference.ResetTimeout = 60 * time.Second
	}

	if cfg.Evaluator.Workers == 0 {
		cfg.Evaluator.Workers = 4
	}
	if cfg.Evaluator.ExcerptLimit == 0 {
		cfg.Evaluator.ExcerptLimit = 2500
	}

	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "data/requirements.yaml"
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/reports.db"
	}
	if cfg.Storage.RetentionDays == 0 {
		cfg.Storage.RetentionDays = 90
	}

	if cfg.Telemetry.LogLevel == "" {
		cfg.Telemetry.LogLevel = "info"
	}
	if cfg.Telemetry.LogFormat == "" {
		cfg.Telemetry.LogFormat = "json"
	}
}
