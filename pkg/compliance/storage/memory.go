package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"veridian-hq/lattice/pkg/compliance"
)

// MemoryStore is an in-process Store for tests and ephemeral runs. Reports
// are treated as read-only after SaveReport; the store does not copy them.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*compliance.Report
}

// NewMemoryStore creates an empty in-memory report store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[string]*compliance.Report)}
}

func (m *MemoryStore) SaveReport(ctx context.Context, report *compliance.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[report.RunID] = report
	return nil
}

func (m *MemoryStore) GetReport(ctx context.Context, runID string) (*compliance.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report, ok := m.reports[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return report, nil
}

func (m *MemoryStore) ListReports(ctx context.Context, opts ListOptions) ([]*compliance.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*compliance.Report, 0, len(m.reports))
	for _, report := range m.reports {
		if opts.DocumentID != "" && report.DocumentID != opts.DocumentID {
			continue
		}
		out = append(out, report)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for runID, report := range m.reports {
		if report.Timestamp.Before(cutoff) {
			delete(m.reports, runID)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.reports)), nil
}

func (m *MemoryStore) Close() error { return nil }
