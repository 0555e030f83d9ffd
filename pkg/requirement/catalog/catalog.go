// Package catalog provides the in-memory requirement store with secondary
// indices and durable YAML persistence.
//
// The catalog owns every Requirement it holds: values are deep-copied on the
// way in and on the way out, so callers can never alias internal state. All
// operations take a single mutex; the expected access pattern (a handful of
// mutations, reads dominated by whole-catalog scans during evaluation) does
// not justify a read/write split. The lock is never held across I/O other
// than the optional auto-save write.
package catalog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"veridian-hq/lattice/pkg/requirement"
)

// Options configures a Catalog.
type Options struct {
	// Path is the YAML file used by Save and Load.
	Path string

	// AutoSave persists the catalog after every successful mutation.
	AutoSave bool

	// Logger receives catalog events. Defaults to slog.Default.
	Logger *slog.Logger
}

// Stats summarizes the catalog contents.
type Stats struct {
	Total       int            `json:"total"`
	ByType      map[string]int `json:"by_type"`
	ByCategory  map[string]int `json:"by_category"`
	ByPriority  map[string]int `json:"by_priority"`
	LastUpdated time.Time      `json:"last_updated"`
}

// FilterOptions selects requirements by AND-combining the non-empty fields.
type FilterOptions struct {
	Category string
	Type     requirement.Type
	Priority requirement.Priority
	Source   string
}

// Catalog is the indexed requirement store.
type Catalog struct {
	mu       sync.Mutex
	path     string
	autoSave bool
	logger   *slog.Logger

	requirements map[string]*requirement.Requirement
	order        []string // insertion order of IDs

	byCategory map[string]map[string]struct{}
	byType     map[string]map[string]struct{}
	byPriority map[string]map[string]struct{}
	bySource   map[string]map[string]struct{}

	lastUpdated time.Time
}

// New creates an empty catalog.
func New(opts Options) *Catalog {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		path:         opts.Path,
		autoSave:     opts.AutoSave,
		logger:       logger.With("component", "requirement.catalog"),
		requirements: make(map[string]*requirement.Requirement),
		byCategory:   make(map[string]map[string]struct{}),
		byType:       make(map[string]map[string]struct{}),
		byPriority:   make(map[string]map[string]struct{}),
		bySource:     make(map[string]map[string]struct{}),
		lastUpdated:  time.Now(),
	}
}

// Add inserts a new requirement. It returns false when the requirement fails
// validation or a requirement with the same ID already exists; existing
// entries are never silently overwritten.
func (c *Catalog) Add(req *requirement.Requirement) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.addLocked(req)
}

func (c *Catalog) addLocked(req *requirement.Requirement) bool {
	if err := req.Validate(); err != nil {
		c.logger.Error("rejected invalid requirement", "id", req.ID, "error", err)
		return false
	}
	if _, exists := c.requirements[req.ID]; exists {
		c.logger.Warn("requirement already exists", "id", req.ID)
		return false
	}

	c.requirements[req.ID] = req.Clone()
	c.order = append(c.order, req.ID)
	c.indexLocked(req)
	c.lastUpdated = time.Now()
	c.autoSaveLocked()

	c.logger.Debug("added requirement", "id", req.ID, "type", req.Type)
	return true
}

// Update replaces an existing requirement. It returns false when the
// requirement fails validation or no requirement with that ID exists.
// Insertion order is preserved across updates.
func (c *Catalog) Update(req *requirement.Requirement) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updateLocked(req)
}

func (c *Catalog) updateLocked(req *requirement.Requirement) bool {
	if err := req.Validate(); err != nil {
		c.logger.Error("rejected invalid requirement", "id", req.ID, "error", err)
		return false
	}
	old, exists := c.requirements[req.ID]
	if !exists {
		c.logger.Warn("requirement does not exist", "id", req.ID)
		return false
	}

	c.unindexLocked(old)
	c.requirements[req.ID] = req.Clone()
	c.indexLocked(req)
	c.lastUpdated = time.Now()
	c.autoSaveLocked()

	c.logger.Debug("updated requirement", "id", req.ID)
	return true
}

// AddAll adds each requirement, updating entries whose ID already exists.
// It returns a per-ID success map. When auto-save is disabled the catalog is
// still saved once at the end if any entry succeeded and a path is set.
func (c *Catalog) AddAll(reqs []*requirement.Requirement) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make(map[string]bool, len(reqs))
	any := false
	for _, req := range reqs {
		var ok bool
		if _, exists := c.requirements[req.ID]; exists {
			ok = c.updateLocked(req)
		} else {
			ok = c.addLocked(req)
		}
		results[req.ID] = ok
		any = any || ok
	}

	if any && !c.autoSave && c.path != "" {
		if err := c.saveLocked(c.path); err != nil {
			c.logger.Error("failed to save catalog after batch add", "error", err)
		}
	}
	return results
}

// Get returns a copy of the requirement with the given ID.
func (c *Catalog) Get(id string) (*requirement.Requirement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.requirements[id]
	if !ok {
		return nil, false
	}
	return req.Clone(), true
}

// Delete removes the requirement with the given ID. It returns false when no
// such requirement exists.
func (c *Catalog) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, exists := c.requirements[id]
	if !exists {
		c.logger.Warn("requirement does not exist", "id", id)
		return false
	}

	c.unindexLocked(req)
	delete(c.requirements, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.lastUpdated = time.Now()
	c.autoSaveLocked()

	c.logger.Debug("deleted requirement", "id", id)
	return true
}

// All returns every requirement in insertion order.
func (c *Catalog) All() []*requirement.Requirement {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*requirement.Requirement, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.requirements[id].Clone())
	}
	return out
}

// Filter returns the requirements matching every non-empty filter field,
// in insertion order.
func (c *Catalog) Filter(opts FilterOptions) []*requirement.Requirement {
	c.mu.Lock()
	defer c.mu.Unlock()

	candidate := func(id string) bool { return true }
	narrow := func(index map[string]map[string]struct{}, key string) {
		ids := index[key]
		prev := candidate
		candidate = func(id string) bool {
			if _, ok := ids[id]; !ok {
				return false
			}
			return prev(id)
		}
	}

	if opts.Category != "" {
		narrow(c.byCategory, opts.Category)
	}
	if opts.Type != "" {
		narrow(c.byType, string(opts.Type))
	}
	if opts.Priority != "" {
		narrow(c.byPriority, string(opts.Priority))
	}
	if opts.Source != "" {
		narrow(c.bySource, opts.Source)
	}

	var out []*requirement.Requirement
	for _, id := range c.order {
		if candidate(id) {
			out = append(out, c.requirements[id].Clone())
		}
	}
	return out
}

// Len returns the number of stored requirements.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requirements)
}

// Stats returns counts by type, category and priority.
func (c *Catalog) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Total:       len(c.requirements),
		ByType:      make(map[string]int, len(c.byType)),
		ByCategory:  make(map[string]int, len(c.byCategory)),
		ByPriority:  make(map[string]int, len(c.byPriority)),
		LastUpdated: c.lastUpdated,
	}
	for k, ids := range c.byType {
		s.ByType[k] = len(ids)
	}
	for k, ids := range c.byCategory {
		s.ByCategory[k] = len(ids)
	}
	for k, ids := range c.byPriority {
		s.ByPriority[k] = len(ids)
	}
	return s
}

// Clear removes every requirement and index entry.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Catalog) clearLocked() {
	c.requirements = make(map[string]*requirement.Requirement)
	c.order = nil
	c.byCategory = make(map[string]map[string]struct{})
	c.byType = make(map[string]map[string]struct{})
	c.byPriority = make(map[string]map[string]struct{})
	c.bySource = make(map[string]map[string]struct{})
	c.lastUpdated = time.Now()
}

// indexLocked adds the requirement to every secondary index. Callers hold the
// mutex; primary map and indices therefore always change together.
func (c *Catalog) indexLocked(req *requirement.Requirement) {
	addTo := func(index map[string]map[string]struct{}, key string) {
		ids := index[key]
		if ids == nil {
			ids = make(map[string]struct{})
			index[key] = ids
		}
		ids[req.ID] = struct{}{}
	}
	addTo(c.byCategory, req.Category)
	addTo(c.byType, string(req.Type))
	addTo(c.byPriority, string(req.Priority))
	addTo(c.bySource, req.Source.DocumentSection)
}

func (c *Catalog) unindexLocked(req *requirement.Requirement) {
	removeFrom := func(index map[string]map[string]struct{}, key string) {
		if ids, ok := index[key]; ok {
			delete(ids, req.ID)
			if len(ids) == 0 {
				delete(index, key)
			}
		}
	}
	removeFrom(c.byCategory, req.Category)
	removeFrom(c.byType, string(req.Type))
	removeFrom(c.byPriority, string(req.Priority))
	removeFrom(c.bySource, req.Source.DocumentSection)
}

func (c *Catalog) autoSaveLocked() {
	if !c.autoSave || c.path == "" {
		return
	}
	if err := c.saveLocked(c.path); err != nil {
		c.logger.Error("auto-save failed", "path", c.path, "error", err)
	}
}

func (c *Catalog) pathOr(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if c.path == "" {
		return "", fmt.Errorf("catalog has no configured path")
	}
	return c.path, nil
}
