package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Inference.BaseURL != "http://localhost:11434" {
		t.Errorf("BaseURL = %q", cfg.Inference.BaseURL)
	}
	if cfg.Inference.FailureThreshold != 5 {
		t.Errorf("FailureThreshold = %d, want 5", cfg.Inference.FailureThreshold)
	}
	if cfg.Inference.ResetTimeout != 60*time.Second {
		t.Errorf("ResetTimeout = %s, want 60s", cfg.Inference.ResetTimeout)
	}
	if cfg.Evaluator.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Evaluator.Workers)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.yaml")
	content := `
inference:
  base_url: http://inference.internal:11434
  model: llama3
  max_retries: 5
evaluator:
  semantic: true
  workers: 8
catalog:
  path: /var/lib/lattice/requirements.yaml
  auto_save: true
storage:
  backend: memory
telemetry:
  log_level: debug
  log_format: text
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Inference.Model != "llama3" {
		t.Errorf("Model = %q", cfg.Inference.Model)
	}
	if cfg.Inference.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d", cfg.Inference.MaxRetries)
	}
	if !cfg.Evaluator.Semantic || cfg.Evaluator.Workers != 8 {
		t.Errorf("Evaluator = %+v", cfg.Evaluator)
	}
	// Unset fields still get defaults.
	if cfg.Inference.Timeout != 60*time.Second {
		t.Errorf("Timeout = %s, want defaulted 60s", cfg.Inference.Timeout)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("Load() = nil error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LATTICE_INFERENCE_MODEL", "phi3")
	t.Setenv("LATTICE_INFERENCE_MAX_RETRIES", "7")
	t.Setenv("LATTICE_INFERENCE_BASE_DELAY", "250ms")
	t.Setenv("LATTICE_EVALUATOR_SEMANTIC", "true")
	t.Setenv("LATTICE_STORAGE_BACKEND", "memory")
	t.Setenv("LATTICE_STORAGE_MAX_REPORTS", "1000")

	cfg, err := LoadWithEnv("")
	if err != nil {
		t.Fatalf("LoadWithEnv() error: %v", err)
	}
	if cfg.Inference.Model != "phi3" {
		t.Errorf("Model = %q, want phi3", cfg.Inference.Model)
	}
	if cfg.Inference.MaxRetries != 7 {
		t.Errorf("MaxRetries = %d, want 7", cfg.Inference.MaxRetries)
	}
	if cfg.Inference.BaseDelay != 250*time.Millisecond {
		t.Errorf("BaseDelay = %s, want 250ms", cfg.Inference.BaseDelay)
	}
	if !cfg.Evaluator.Semantic {
		t.Error("Semantic = false, want env override true")
	}
	if cfg.Storage.MaxReports != 1000 {
		t.Errorf("MaxReports = %d, want 1000", cfg.Storage.MaxReports)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty model", func(c *Config) { c.Inference.Model = "" }},
		{"negative retries", func(c *Config) { c.Inference.MaxRetries = -1 }},
		{"max delay below base", func(c *Config) {
			c.Inference.BaseDelay = 5 * time.Second
			c.Inference.MaxDelay = time.Second
		}},
		{"zero failure threshold", func(c *Config) { c.Inference.FailureThreshold = 0 }},
		{"zero workers", func(c *Config) { c.Evaluator.Workers = 0 }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "postgres" }},
		{"bad log level", func(c *Config) { c.Telemetry.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.Telemetry.LogFormat = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
