package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetentionConfig controls report retention.
type RetentionConfig struct {
	// RetentionDays is how many days of reports to keep. 0 keeps reports
	// forever.
	RetentionDays int

	// MaxReports caps the number of stored reports. 0 means unlimited.
	MaxReports int64

	// PruneSchedule is a cron expression driving scheduled pruning
	// (e.g. "0 3 * * *" for daily at 3 AM). Empty disables the scheduler.
	PruneSchedule string
}

// DefaultRetentionConfig returns the default retention configuration.
func DefaultRetentionConfig() *RetentionConfig {
	return &RetentionConfig{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner enforces the retention policy on a report store.
type Pruner struct {
	store  Store
	config *RetentionConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewPruner creates a pruner over the given store.
func NewPruner(store Store, config *RetentionConfig, logger *slog.Logger) *Pruner {
	if config == nil {
		config = DefaultRetentionConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:  store,
		config: config,
		logger: logger.With("component", "compliance.retention"),
		now:    time.Now,
	}
}

// Prune deletes reports in two phases: first everything older than the
// retention period, then the oldest reports beyond the count cap. It returns
// the total number of reports deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.RetentionDays > 0 {
		cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)
		deleted, err := p.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age: %w", err)
		}
		total += deleted
		if deleted > 0 {
			p.logger.Info("pruned reports by age",
				"deleted", deleted,
				"retention_days", p.config.RetentionDays,
			)
		}
	}

	if p.config.MaxReports > 0 {
		deleted, err := p.pruneByCount(ctx)
		if err != nil {
			return total, fmt.Errorf("prune by count: %w", err)
		}
		total += deleted
		if deleted > 0 {
			p.logger.Info("pruned reports by count",
				"deleted", deleted,
				"max_reports", p.config.MaxReports,
			)
		}
	}

	return total, nil
}

// pruneByCount deletes the oldest reports when the store holds more than
// MaxReports. The cutoff is just after the newest report that must go.
func (p *Pruner) pruneByCount(ctx context.Context) (int64, error) {
	count, err := p.store.Count(ctx)
	if err != nil {
		return 0, err
	}
	if count <= p.config.MaxReports {
		return 0, nil
	}

	// Reports list newest first; the tail beyond the cap is the overflow.
	reports, err := p.store.ListReports(ctx, ListOptions{})
	if err != nil {
		return 0, err
	}
	if int64(len(reports)) <= p.config.MaxReports {
		return 0, nil
	}

	oldestKept := reports[p.config.MaxReports-1]
	return p.store.DeleteBefore(ctx, oldestKept.Timestamp)
}
