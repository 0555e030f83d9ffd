package compliance

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"veridian-hq/lattice/pkg/document"
	"veridian-hq/lattice/pkg/requirement"
)

var termPattern = regexp.MustCompile(`\b[a-z]{3,}\b`)

// stopwords excluded when deriving keywords from a requirement description.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "that": {},
	"this": {}, "from": {}, "have": {}, "are": {}, "must": {},
	"shall": {}, "should": {}, "not": {}, "all": {}, "any": {},
}

// deriveKeywords extracts candidate matching terms from a requirement
// description: lowercase words of three or more letters, minus stopwords,
// deduplicated in order of first appearance.
func deriveKeywords(description string) []string {
	terms := termPattern.FindAllString(strings.ToLower(description), -1)
	seen := make(map[string]struct{}, len(terms))
	var out []string
	for _, term := range terms {
		if _, stop := stopwords[term]; stop {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// EvaluateKeyword evaluates a requirement against a document with
// case-insensitive substring matching. Requirements without keywords fall
// back to terms derived from their description.
//
// For mandatory and recommended requirements: all keywords present means
// fully compliant, some means partially compliant, none means non-compliant.
// Prohibited requirements invert: absence of every keyword is compliance.
func (e *Evaluator) EvaluateKeyword(doc *document.Document, req *requirement.Requirement) *Result {
	content := strings.ToLower(doc.Content)

	keywords := req.Keywords
	derived := false
	if len(keywords) == 0 {
		keywords = deriveKeywords(req.Description)
		derived = true
	}

	var matched, missing []string
	for _, kw := range keywords {
		if strings.Contains(content, strings.ToLower(kw)) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	result := &Result{
		DocumentID:      doc.ID(),
		DocumentType:    doc.Classification,
		RequirementID:   req.ID,
		MatchedKeywords: matched,
		MissingKeywords: missing,
		Method:          MethodKeyword,
		Timestamp:       time.Now(),
	}
	if derived {
		result.Metadata = map[string]any{"keywords_derived_from_description": true}
	}

	if req.Type == requirement.TypeProhibited {
		if len(matched) > 0 {
			result.Level = LevelNonCompliant
			result.ConfidenceScore = 0.8
			result.Justification = fmt.Sprintf("Found prohibited elements: %s", strings.Join(matched, ", "))
		} else {
			result.Level = LevelFullyCompliant
			result.ConfidenceScore = 0.7
			result.Justification = "No prohibited elements found."
		}
		return result
	}

	switch {
	case len(keywords) == 0:
		result.Level = LevelIndeterminate
		result.ConfidenceScore = 0.5
		result.Justification = "Requirement provides no keywords and no derivable terms."
	case len(matched) == len(keywords):
		result.Level = LevelFullyCompliant
		result.ConfidenceScore = 0.85
		result.Justification = fmt.Sprintf("All %d required keywords found in document.", len(keywords))
	case len(matched) > 0:
		ratio := float64(len(matched)) / float64(len(keywords))
		result.Level = LevelPartiallyCompliant
		result.ConfidenceScore = 0.7 * ratio
		result.Justification = fmt.Sprintf("Found %d of %d required keywords.", len(matched), len(keywords))
	default:
		result.Level = LevelNonCompliant
		result.ConfidenceScore = 0.6
		result.Justification = "No relevant keywords found in document content."
	}
	return result
}
