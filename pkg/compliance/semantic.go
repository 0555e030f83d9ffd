package compliance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"veridian-hq/lattice/pkg/document"
	"veridian-hq/lattice/pkg/parsing"
	"veridian-hq/lattice/pkg/requirement"
)

// EvaluateSemantic asks the model backend for a structured verdict on one
// (document, requirement) pair. It returns an error when the inference call
// or the response parse fails; callers dispatch to the keyword fallback on
// error rather than receiving a fabricated verdict.
func (e *Evaluator) EvaluateSemantic(ctx context.Context, doc *document.Document, req *requirement.Requirement) (*Result, error) {
	prompt := buildSemanticPrompt(doc, req, e.excerptLimit)

	text, err := e.client.Generate(ctx, prompt, semanticSystemPrompt)
	if err != nil {
		return nil, fmt.Errorf("inference call: %w", err)
	}

	payload, md, err := e.parser.Parse(text, parsing.SchemaComplianceEvaluation)
	if err != nil {
		return nil, fmt.Errorf("verdict parse: %w", err)
	}

	level, warn := verdictLevel(payload, req)

	result := &Result{
		DocumentID:      doc.ID(),
		DocumentType:    doc.Classification,
		RequirementID:   req.ID,
		Level:           level,
		ConfidenceScore: verdictConfidence(payload, md),
		Justification:   stringField(payload, "justification"),
		MatchedKeywords: stringsField(payload, "matched_keywords"),
		MissingKeywords: stringsField(payload, "missing_keywords"),
		Evidence:        verdictEvidence(payload),
		Method:          MethodSemantic,
		Timestamp:       time.Now(),
	}
	if warn != "" || len(md.Warnings) > 0 {
		result.Metadata = map[string]any{}
		if warn != "" {
			result.Metadata["level_derivation"] = warn
		}
		if len(md.Warnings) > 0 {
			result.Metadata["parse_warnings"] = md.Warnings
		}
	}
	return result, nil
}

// verdictLevel resolves the compliance level of a parsed verdict. The
// explicit compliance_level field wins when valid; otherwise the level is
// derived from the YES/NO determination. The prompt instructs the model to
// apply prohibited-requirement inversion itself, so NO always maps to
// non-compliance.
func verdictLevel(payload map[string]any, req *requirement.Requirement) (Level, string) {
	if raw := stringField(payload, "compliance_level"); raw != "" {
		level := Level(raw)
		if level.Valid() {
			return level, ""
		}
		return levelFromDetermination(payload), fmt.Sprintf("invalid compliance_level %q, derived from determination", raw)
	}
	return levelFromDetermination(payload), "compliance_level absent, derived from determination"
}

func levelFromDetermination(payload map[string]any) Level {
	switch strings.ToUpper(stringField(payload, "yes_no_determination")) {
	case "YES":
		return LevelFullyCompliant
	case "NO":
		return LevelNonCompliant
	case "PARTIAL":
		return LevelPartiallyCompliant
	default:
		return LevelIndeterminate
	}
}

// verdictConfidence takes the model-reported confidence, bounded above by the
// parser's derived confidence.
func verdictConfidence(payload map[string]any, md *parsing.Metadata) float64 {
	confidence := md.ConfidenceScore
	if reported, ok := payload["confidence_score"].(float64); ok && reported < confidence {
		confidence = reported
	}
	return confidence
}

func verdictEvidence(payload map[string]any) *Evidence {
	obj, ok := payload["evidence"].(map[string]any)
	if !ok {
		return nil
	}
	ev := &Evidence{
		MatchingText: stringField(obj, "matching_text"),
		Context:      stringField(obj, "context"),
	}
	if ev.MatchingText == "" && ev.Context == "" {
		return nil
	}
	return ev
}

func stringField(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func stringsField(payload map[string]any, key string) []string {
	items, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
