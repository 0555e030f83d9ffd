package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"veridian-hq/lattice/pkg/compliance"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	config := DefaultSQLiteConfig()
	config.Path = filepath.Join(t.TempDir(), "reports.db")
	s, err := NewSQLiteStore(config, nil)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	report := testReport("run-1", "a.pdf", time.Now())
	report.Results = []*compliance.Result{
		{
			DocumentID:      "a.pdf",
			RequirementID:   "REQ001",
			Level:           compliance.LevelPartiallyCompliant,
			ConfidenceScore: 0.7,
			Justification:   "partially covered",
			MatchedKeywords: []string{"password"},
			MissingKeywords: []string{"rotation"},
			Method:          compliance.MethodKeyword,
			Timestamp:       time.Now(),
		},
	}
	report.Metadata = map[string]any{"compliance_score": 0.5}

	if err := s.SaveReport(ctx, report); err != nil {
		t.Fatalf("SaveReport() error: %v", err)
	}

	got, err := s.GetReport(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetReport() error: %v", err)
	}
	if got.DocumentID != "a.pdf" || got.OverallCompliance != compliance.LevelFullyCompliant {
		t.Errorf("report = %+v", got)
	}
	if len(got.Results) != 1 || got.Results[0].Level != compliance.LevelPartiallyCompliant {
		t.Errorf("Results = %+v, want the stored result back", got.Results)
	}
	if got.Results[0].MatchedKeywords[0] != "password" {
		t.Errorf("MatchedKeywords = %v", got.Results[0].MatchedKeywords)
	}

	if _, err := s.GetReport(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReport(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteStoreListAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	base := time.Now()

	s.SaveReport(ctx, testReport("run-1", "a.pdf", base.Add(-2*time.Hour)))
	s.SaveReport(ctx, testReport("run-2", "b.pdf", base.Add(-time.Hour)))
	s.SaveReport(ctx, testReport("run-3", "a.pdf", base))

	all, err := s.ListReports(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("ListReports() error: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "run-3" {
		t.Errorf("list = %v, want newest first", runIDs(all))
	}

	filtered, err := s.ListReports(ctx, ListOptions{DocumentID: "a.pdf"})
	if err != nil {
		t.Fatalf("ListReports(filtered) error: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("filtered = %v, want 2 for a.pdf", runIDs(filtered))
	}

	limited, err := s.ListReports(ctx, ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("ListReports(limited) error: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited = %v, want 1", runIDs(limited))
	}
}

func TestSQLiteStoreDeleteBeforeAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)
	base := time.Now()

	s.SaveReport(ctx, testReport("old", "a.pdf", base.Add(-48*time.Hour)))
	s.SaveReport(ctx, testReport("new", "a.pdf", base))

	deleted, err := s.DeleteBefore(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteBefore() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	count, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestSQLiteStoreSaveIsIdempotentPerRun(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t)

	report := testReport("run-1", "a.pdf", time.Now())
	s.SaveReport(ctx, report)
	report.Summary = "updated"
	s.SaveReport(ctx, report)

	count, _ := s.Count(ctx)
	if count != 1 {
		t.Errorf("Count() = %d after double save, want 1", count)
	}
	got, _ := s.GetReport(ctx, "run-1")
	if got.Summary != "updated" {
		t.Errorf("Summary = %q, want the second write", got.Summary)
	}
}
