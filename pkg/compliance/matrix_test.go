package compliance

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"veridian-hq/lattice/pkg/requirement"
)

// buildReports fabricates three reports over five requirements with the given
// level per (document, requirement) cell.
func buildReports(levels map[string]map[string]Level) map[string]*Report {
	reports := make(map[string]*Report, len(levels))
	for docID, cells := range levels {
		report := &Report{
			RunID:        "run-" + docID,
			DocumentID:   docID,
			DocumentType: "policy",
			DocumentName: docID,
			Timestamp:    time.Now(),
		}
		for reqID, level := range cells {
			report.Results = append(report.Results, &Result{
				DocumentID:      docID,
				RequirementID:   reqID,
				Level:           level,
				ConfidenceScore: 0.8,
				Justification:   "test cell",
				Method:          MethodKeyword,
				Timestamp:       time.Now(),
			})
		}
		report.OverallCompliance = LevelPartiallyCompliant
		reports[docID] = report
	}
	return reports
}

func matrixFixture(t *testing.T) (*Evaluator, map[string]*Report) {
	t.Helper()
	reqs := make([]*requirement.Requirement, 0, 5)
	reqIDs := []string{"REQ001", "REQ002", "REQ003", "REQ004", "REQ005"}
	categories := []string{"Authentication", "Authentication", "Network", "Data", "Data"}
	for i, id := range reqIDs {
		req := testReq(id, requirement.TypeMandatory, "kw")
		req.Category = categories[i]
		reqs = append(reqs, req)
	}
	cat := newTestCatalog(t, reqs...)
	e := NewEvaluator(cat, nil, nil, Options{})

	reports := buildReports(map[string]map[string]Level{
		"a.pdf": {
			"REQ001": LevelFullyCompliant,
			"REQ002": LevelFullyCompliant,
			"REQ003": LevelPartiallyCompliant,
			"REQ004": LevelFullyCompliant,
			"REQ005": LevelNonCompliant,
		},
		"b.pdf": {
			"REQ001": LevelFullyCompliant,
			"REQ002": LevelNonCompliant,
			"REQ003": LevelFullyCompliant,
			"REQ004": LevelIndeterminate,
			"REQ005": LevelFullyCompliant,
		},
		"c.pdf": {
			"REQ001": LevelPartiallyCompliant,
			"REQ002": LevelFullyCompliant,
			"REQ003": LevelFullyCompliant,
			"REQ004": LevelNotApplicable,
			"REQ005": LevelFullyCompliant,
		},
	})
	return e, reports
}

func TestGenerateMatrixCountsAndConsistency(t *testing.T) {
	e, reports := matrixFixture(t)
	m := e.GenerateMatrix(reports)

	if got := m.Summary.Overall.Counts.Total(); got != 15 {
		t.Fatalf("total cells = %d, want 15", got)
	}
	if len(m.Documents) != 3 || len(m.Requirements) != 5 {
		t.Errorf("documents = %d, requirements = %d, want 3 and 5", len(m.Documents), len(m.Requirements))
	}

	// Documents and requirements are ordered by ID.
	if m.Documents[0].ID != "a.pdf" || m.Documents[2].ID != "c.pdf" {
		t.Errorf("document order = %v", m.Documents)
	}
	if m.Requirements[0].ID != "REQ001" || m.Requirements[4].ID != "REQ005" {
		t.Errorf("requirement order = %v", m.Requirements)
	}

	// Per-requirement tallies must re-sum to the raw cells.
	for reqID, counts := range m.Summary.ByRequirement {
		sum := counts.Total()
		if sum != 3 {
			t.Errorf("requirement %s counts total = %d, want 3", reqID, sum)
		}
	}

	// Per-category tallies: Authentication covers REQ001+REQ002, Data covers
	// REQ004+REQ005, Network covers REQ003.
	if got := m.Summary.ByCategory["Authentication"].Total(); got != 6 {
		t.Errorf("Authentication cells = %d, want 6", got)
	}
	if got := m.Summary.ByCategory["Network"].Total(); got != 3 {
		t.Errorf("Network cells = %d, want 3", got)
	}

	// Spot-check a cell against its source result.
	cell := m.Cells["b.pdf"]["REQ002"]
	if cell == nil || cell.Level != LevelNonCompliant {
		t.Errorf("cell b.pdf/REQ002 = %+v, want non_compliant", cell)
	}

	// 9 of 15 fully (60%), 2 partial: fully < 80, fully+partial >= 60.
	if m.Summary.Overall.Level != LevelPartiallyCompliant {
		t.Errorf("overall = %q, want partially_compliant", m.Summary.Overall.Level)
	}
	if m.Summary.Overall.Counts[LevelFullyCompliant] != 9 {
		t.Errorf("fully count = %d, want 9", m.Summary.Overall.Counts[LevelFullyCompliant])
	}
	if m.Metadata.RunID == "" {
		t.Error("matrix RunID is empty")
	}
}

func TestGenerateMatrixOverallThresholds(t *testing.T) {
	tests := []struct {
		name   string
		levels []Level
		want   Level
	}{
		{
			name:   "all fully",
			levels: []Level{LevelFullyCompliant, LevelFullyCompliant, LevelFullyCompliant},
			want:   LevelFullyCompliant,
		},
		{
			name:   "fully at 80 percent",
			levels: []Level{LevelFullyCompliant, LevelFullyCompliant, LevelFullyCompliant, LevelFullyCompliant, LevelNonCompliant},
			want:   LevelFullyCompliant,
		},
		{
			name:   "fully plus partial at 60 percent",
			levels: []Level{LevelFullyCompliant, LevelPartiallyCompliant, LevelPartiallyCompliant, LevelNonCompliant, LevelNonCompliant},
			want:   LevelPartiallyCompliant,
		},
		{
			name:   "mostly failing",
			levels: []Level{LevelNonCompliant, LevelNonCompliant, LevelFullyCompliant},
			want:   LevelNonCompliant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := newLevelCounts()
			for _, l := range tt.levels {
				totals[l]++
			}
			if got := overallCompliance(totals).Level; got != tt.want {
				t.Errorf("overall = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGenerateMatrixEmpty(t *testing.T) {
	e, _ := matrixFixture(t)
	m := e.GenerateMatrix(map[string]*Report{})
	if m.Summary.Overall.Level != LevelIndeterminate {
		t.Errorf("overall = %q, want indeterminate for empty matrix", m.Summary.Overall.Level)
	}
}

func TestSaveMatrixAndReport(t *testing.T) {
	e, reports := matrixFixture(t)
	m := e.GenerateMatrix(reports)
	dir := t.TempDir()

	matrixPath := filepath.Join(dir, "matrix.json")
	if err := SaveMatrix(m, matrixPath); err != nil {
		t.Fatalf("SaveMatrix() error: %v", err)
	}
	data, err := os.ReadFile(matrixPath)
	if err != nil {
		t.Fatalf("read matrix: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("saved matrix is not valid JSON: %v", err)
	}
	if decoded["summary"] == nil {
		t.Error("saved matrix missing summary")
	}

	reportPath := filepath.Join(dir, "report.json")
	if err := SaveReport(reports["a.pdf"], reportPath); err != nil {
		t.Fatalf("SaveReport() error: %v", err)
	}
	if _, err := os.Stat(reportPath); err != nil {
		t.Errorf("report file not written: %v", err)
	}
}
