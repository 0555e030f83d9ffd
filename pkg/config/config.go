package config

import "time"

// Config is the root configuration for the compliance engine.
type Config struct {
	Inference InferenceConfig `yaml:"inference"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// InferenceConfig configures the model backend client and its resilience
// wrapper.
type InferenceConfig struct {
	// BaseURL is the backend endpoint (e.g. http://localhost:11434).
	BaseURL string `yaml:"base_url"`

	// Model is the model name sent with every generation request.
	Model string `yaml:"model"`

	// Timeout bounds one HTTP call.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int `yaml:"max_retries"`

	// BaseDelay is the backoff delay before the first retry.
	BaseDelay time.Duration `yaml:"base_delay"`

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration `yaml:"max_delay"`

	// Jitter randomizes each backoff delay by a factor in [0.5, 1.5].
	Jitter bool `yaml:"jitter"`

	// FailureThreshold opens the circuit breaker when reached.
	FailureThreshold int `yaml:"failure_threshold"`

	// ResetTimeout is the circuit cool-down before a trial call.
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// EvaluatorConfig configures the compliance evaluator.
type EvaluatorConfig struct {
	// Semantic enables the model-backed evaluation strategy.
	Semantic bool `yaml:"semantic"`

	// Workers bounds the batch evaluation worker pool.
	Workers int `yaml:"workers"`

	// ExcerptLimit caps the document excerpt embedded in prompts, in runes.
	ExcerptLimit int `yaml:"excerpt_limit"`
}

// CatalogConfig configures the requirement catalog.
type CatalogConfig struct {
	// Path is the YAML file the catalog persists to.
	Path string `yaml:"path"`

	// AutoSave persists the catalog after every mutation.
	AutoSave bool `yaml:"auto_save"`

	// Watch reloads the catalog when the file changes on disk.
	Watch bool `yaml:"watch"`
}

// StorageConfig configures the report store and its retention policy.
type StorageConfig struct {
	// Backend selects the report store: "memory" or "sqlite".
	Backend string `yaml:"backend"`

	// Path is the SQLite database file (sqlite backend only).
	Path string `yaml:"path"`

	// RetentionDays is how many days of reports to keep. 0 disables
	// age-based pruning.
	RetentionDays int `yaml:"retention_days"`

	// MaxReports caps the number of stored reports. 0 means unlimited.
	MaxReports int64 `yaml:"max_reports"`

	// PruneSchedule is a cron expression for scheduled pruning. Empty
	// disables the scheduler.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text".
	LogFormat string `yaml:"log_format"`

	// MetricsAddress serves Prometheus metrics when non-empty
	// (e.g. ":9090").
	MetricsAddress string `yaml:"metrics_address"`
}
