package compliance

import (
	"time"
)

// Level is a compliance verdict, ordered by strictness for aggregation:
// fully_compliant is best, non_compliant is worst, indeterminate is reserved
// for evaluation failure.
type Level string

const (
	LevelFullyCompliant     Level = "fully_compliant"
	LevelPartiallyCompliant Level = "partially_compliant"
	LevelNonCompliant       Level = "non_compliant"
	LevelNotApplicable      Level = "not_applicable"
	LevelIndeterminate      Level = "indeterminate"
)

// Levels returns every compliance level in strictness order.
func Levels() []Level {
	return []Level{
		LevelFullyCompliant,
		LevelPartiallyCompliant,
		LevelNonCompliant,
		LevelNotApplicable,
		LevelIndeterminate,
	}
}

// Valid reports whether l is one of the enumerated levels.
func (l Level) Valid() bool {
	switch l {
	case LevelFullyCompliant, LevelPartiallyCompliant, LevelNonCompliant,
		LevelNotApplicable, LevelIndeterminate:
		return true
	}
	return false
}

// Method names the evaluation strategy that produced a result.
type Method string

const (
	MethodKeyword  Method = "keyword"
	MethodSemantic Method = "semantic"
)

// Evidence is the document text a semantic verdict rests on.
type Evidence struct {
	MatchingText string `json:"matching_text"`
	Context      string `json:"context,omitempty"`
}

// Result is the outcome of evaluating one (document, requirement) pair.
// It is immutable after creation.
type Result struct {
	DocumentID      string         `json:"document_id"`
	DocumentType    string         `json:"document_type"`
	RequirementID   string         `json:"requirement_id"`
	Level           Level          `json:"compliance_level"`
	ConfidenceScore float64        `json:"confidence_score"`
	Justification   string         `json:"justification"`
	MatchedKeywords []string       `json:"matched_keywords,omitempty"`
	MissingKeywords []string       `json:"missing_keywords,omitempty"`
	Evidence        *Evidence      `json:"evidence,omitempty"`
	Method          Method         `json:"evaluation_method"`
	Timestamp       time.Time      `json:"timestamp"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

// Report is the aggregated compliance outcome for one document.
type Report struct {
	// RunID identifies the evaluation run that produced this report.
	RunID string `json:"run_id"`

	DocumentID   string `json:"document_id"`
	DocumentType string `json:"document_type"`
	DocumentName string `json:"document_name"`

	// OverallCompliance is derived from the per-requirement results by the
	// strictness rule: a blocking (mandatory or prohibited) non_compliant
	// result dominates, then partial compliance, then indeterminate.
	OverallCompliance Level `json:"overall_compliance"`

	// ConfidenceScore is the mean confidence across results.
	ConfidenceScore float64 `json:"confidence_score"`

	Summary string `json:"summary"`

	// Results are ordered by requirement evaluation order (catalog insertion
	// order), one per relevant requirement.
	Results []*Result `json:"results"`

	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Result returns the report entry for the given requirement ID.
func (r *Report) Result(requirementID string) (*Result, bool) {
	for _, res := range r.Results {
		if res.RequirementID == requirementID {
			return res, true
		}
	}
	return nil, false
}

// LevelCounts tallies results by compliance level.
type LevelCounts map[Level]int

func newLevelCounts() LevelCounts {
	counts := make(LevelCounts, len(Levels()))
	for _, l := range Levels() {
		counts[l] = 0
	}
	return counts
}

// Total sums the counts across all levels.
func (c LevelCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
