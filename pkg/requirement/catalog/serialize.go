package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"veridian-hq/lattice/pkg/requirement"
)

// catalogFile is the on-disk shape of a persisted catalog.
type catalogFile struct {
	Requirements []*requirement.Requirement `yaml:"requirements" json:"requirements"`
	Metadata     fileMetadata               `yaml:"metadata" json:"metadata"`
}

type fileMetadata struct {
	LastUpdated       string         `yaml:"last_updated" json:"last_updated"`
	TotalRequirements int            `yaml:"total_requirements" json:"total_requirements"`
	RequirementTypes  map[string]int `yaml:"requirement_types,omitempty" json:"requirement_types,omitempty"`
}

// Save persists the catalog to its configured YAML path.
func (c *Catalog) Save() error {
	return c.SaveTo("")
}

// SaveTo persists the catalog to the given YAML path, or to the configured
// path when path is empty. Every requirement field round-trips, including
// relationships and metadata.
func (c *Catalog) SaveTo(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := c.pathOr(path)
	if err != nil {
		return err
	}
	return c.saveLocked(target)
}

func (c *Catalog) saveLocked(path string) error {
	data, err := yaml.Marshal(c.fileLocked())
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file %q: %w", path, err)
	}

	c.logger.Info("saved catalog", "path", path, "requirements", len(c.requirements))
	return nil
}

// Load replaces the catalog contents with the requirements persisted at its
// configured YAML path.
func (c *Catalog) Load() error {
	return c.LoadFrom("")
}

// LoadFrom replaces the catalog contents with the requirements persisted at
// the given YAML path, or the configured path when path is empty. Entries
// that fail validation are skipped and logged; they never abort the load.
func (c *Catalog) LoadFrom(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	target, err := c.pathOr(path)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("failed to read catalog file %q: %w", target, err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog file %q: %w", target, err)
	}

	// Suspend auto-save while repopulating so a load never triggers a
	// cascade of writes back to the file being read.
	autoSave := c.autoSave
	c.autoSave = false
	defer func() { c.autoSave = autoSave }()

	c.clearLocked()

	loaded := 0
	for _, req := range file.Requirements {
		if c.addLocked(req) {
			loaded++
		}
	}

	if ts, err := time.Parse(time.RFC3339, file.Metadata.LastUpdated); err == nil {
		c.lastUpdated = ts
	}

	c.logger.Info("loaded catalog", "path", target, "requirements", loaded)
	return nil
}

// ExportJSON writes the catalog to the given path as indented JSON, mirroring
// the YAML persistence shape.
func (c *Catalog) ExportJSON(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.MarshalIndent(c.fileLocked(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export file %q: %w", path, err)
	}

	c.logger.Info("exported catalog", "path", path, "requirements", len(c.requirements))
	return nil
}

func (c *Catalog) fileLocked() *catalogFile {
	reqs := make([]*requirement.Requirement, 0, len(c.order))
	for _, id := range c.order {
		reqs = append(reqs, c.requirements[id])
	}

	types := make(map[string]int, len(c.byType))
	for t, ids := range c.byType {
		types[t] = len(ids)
	}

	return &catalogFile{
		Requirements: reqs,
		Metadata: fileMetadata{
			LastUpdated:       c.lastUpdated.Format(time.RFC3339),
			TotalRequirements: len(c.requirements),
			RequirementTypes:  types,
		},
	}
}
