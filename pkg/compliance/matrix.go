package compliance

import (
	"time"

	"github.com/google/uuid"

	"veridian-hq/lattice/pkg/requirement"
)

// Matrix thresholds: the share of cells that must be fully compliant for an
// overall fully-compliant verdict, and the combined fully+partially share for
// an overall partially-compliant verdict.
const (
	matrixFullyThreshold   = 80.0
	matrixPartialThreshold = 60.0
)

// MatrixDocument summarizes one document's report inside a matrix.
type MatrixDocument struct {
	ID                string  `json:"id"`
	Type              string  `json:"type"`
	Name              string  `json:"name"`
	OverallCompliance Level   `json:"overall_compliance"`
	ConfidenceScore   float64 `json:"confidence_score"`
	Summary           string  `json:"summary"`
}

// MatrixRequirement summarizes one evaluated requirement inside a matrix.
type MatrixRequirement struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Type        requirement.Type     `json:"type"`
	Priority    requirement.Priority `json:"priority"`
	Category    string               `json:"category"`
	Subcategory string               `json:"subcategory,omitempty"`
}

// Cell is one document x requirement entry of the matrix.
type Cell struct {
	Level           Level   `json:"compliance_level"`
	ConfidenceScore float64 `json:"confidence_score"`
	Justification   string  `json:"justification"`
}

// OverallCompliance is the matrix-wide verdict with its supporting tallies.
type OverallCompliance struct {
	Level       Level             `json:"level"`
	Counts      LevelCounts       `json:"counts"`
	Percentages map[Level]float64 `json:"percentages"`
}

// MatrixSummary aggregates the matrix cells along every axis.
type MatrixSummary struct {
	Overall       OverallCompliance      `json:"overall_compliance"`
	ByDocument    map[string]Level       `json:"compliance_by_document"`
	ByRequirement map[string]LevelCounts `json:"compliance_by_requirement"`
	ByCategory    map[string]LevelCounts `json:"compliance_by_category"`
}

// MatrixMetadata records when and from how much input a matrix was built.
type MatrixMetadata struct {
	RunID             string    `json:"run_id"`
	GeneratedAt       time.Time `json:"generated_at"`
	TotalDocuments    int       `json:"total_documents"`
	TotalRequirements int       `json:"total_requirements"`
}

// Matrix is the cross-product of documents and requirements with aggregated
// summary statistics. It is read-only once constructed.
type Matrix struct {
	Documents    []MatrixDocument    `json:"documents"`
	Requirements []MatrixRequirement `json:"requirements"`

	// Cells maps document ID to requirement ID to the evaluated cell. Pairs
	// outside a document's relevant-requirement set have no entry.
	Cells map[string]map[string]*Cell `json:"compliance_matrix"`

	Summary  MatrixSummary  `json:"summary"`
	Metadata MatrixMetadata `json:"metadata"`
}

// GenerateMatrix builds the cross-document compliance matrix from a set of
// reports. Documents and requirements are ordered by ID so the matrix is
// deterministic regardless of evaluation order.
func (e *Evaluator) GenerateMatrix(reports map[string]*Report) *Matrix {
	m := &Matrix{
		Cells: make(map[string]map[string]*Cell, len(reports)),
		Summary: MatrixSummary{
			ByDocument:    make(map[string]Level, len(reports)),
			ByRequirement: make(map[string]LevelCounts),
			ByCategory:    make(map[string]LevelCounts),
		},
		Metadata: MatrixMetadata{
			RunID:          uuid.NewString(),
			GeneratedAt:    time.Now(),
			TotalDocuments: len(reports),
		},
	}

	// Requirement details come from the catalog; reports only carry IDs.
	reqByID := make(map[string]*requirement.Requirement)
	for _, req := range e.catalog.All() {
		reqByID[req.ID] = req
	}

	evaluated := make(map[string]struct{})
	for _, report := range reports {
		for _, res := range report.Results {
			evaluated[res.RequirementID] = struct{}{}
		}
	}
	for _, reqID := range sortedIDs(evaluated) {
		m.Summary.ByRequirement[reqID] = newLevelCounts()
		req, known := reqByID[reqID]
		if !known {
			continue
		}
		m.Requirements = append(m.Requirements, MatrixRequirement{
			ID:          req.ID,
			Description: req.Description,
			Type:        req.Type,
			Priority:    req.Priority,
			Category:    req.Category,
			Subcategory: req.Subcategory,
		})
		if _, ok := m.Summary.ByCategory[req.Category]; !ok {
			m.Summary.ByCategory[req.Category] = newLevelCounts()
		}
	}
	m.Metadata.TotalRequirements = len(m.Summary.ByRequirement)

	totals := newLevelCounts()
	for _, docID := range sortedIDs(reports) {
		report := reports[docID]
		m.Documents = append(m.Documents, MatrixDocument{
			ID:                docID,
			Type:              report.DocumentType,
			Name:              report.DocumentName,
			OverallCompliance: report.OverallCompliance,
			ConfidenceScore:   report.ConfidenceScore,
			Summary:           report.Summary,
		})
		m.Summary.ByDocument[docID] = report.OverallCompliance

		row := make(map[string]*Cell, len(report.Results))
		for _, res := range report.Results {
			row[res.RequirementID] = &Cell{
				Level:           res.Level,
				ConfidenceScore: res.ConfidenceScore,
				Justification:   res.Justification,
			}
			totals[res.Level]++
			if counts, ok := m.Summary.ByRequirement[res.RequirementID]; ok {
				counts[res.Level]++
			}
			if req, known := reqByID[res.RequirementID]; known {
				if counts, ok := m.Summary.ByCategory[req.Category]; ok {
					counts[res.Level]++
				}
			}
		}
		m.Cells[docID] = row
	}

	m.Summary.Overall = overallCompliance(totals)
	return m
}

// overallCompliance derives the matrix-wide verdict from cell tallies: at
// least 80% fully compliant cells is fully compliant, fully plus partially
// at 60% or more is partially compliant, anything else is non-compliant.
// An empty matrix is indeterminate.
func overallCompliance(totals LevelCounts) OverallCompliance {
	overall := OverallCompliance{
		Counts:      totals,
		Percentages: make(map[Level]float64, len(totals)),
	}

	total := totals.Total()
	if total == 0 {
		overall.Level = LevelIndeterminate
		for _, l := range Levels() {
			overall.Percentages[l] = 0
		}
		return overall
	}

	for _, l := range Levels() {
		overall.Percentages[l] = float64(totals[l]) / float64(total) * 100
	}

	fully := overall.Percentages[LevelFullyCompliant]
	partial := overall.Percentages[LevelPartiallyCompliant]
	switch {
	case fully >= matrixFullyThreshold:
		overall.Level = LevelFullyCompliant
	case fully+partial >= matrixPartialThreshold:
		overall.Level = LevelPartiallyCompliant
	default:
		overall.Level = LevelNonCompliant
	}
	return overall
}
