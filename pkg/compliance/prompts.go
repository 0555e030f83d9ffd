package compliance

import (
	"fmt"
	"strings"

	"veridian-hq/lattice/pkg/document"
	"veridian-hq/lattice/pkg/requirement"
)

// defaultExcerptLimit bounds how much document text is embedded in a prompt.
const defaultExcerptLimit = 2500

const semanticSystemPrompt = `You are an expert compliance auditor evaluating whether documents satisfy specific requirements.
Make a clear YES/NO/PARTIAL/UNCERTAIN determination with concrete supporting evidence.
Base your determination solely on the document content, not assumptions.
Quote the document text that supports your determination.
If evidence is unclear or contradictory, acknowledge the limitation.
Respond with valid JSON containing all required fields and nothing else.`

// buildSemanticPrompt renders the evaluation prompt for one (document,
// requirement) pair. Document content is truncated to excerptLimit runes so
// prompts stay within the backend's context window.
func buildSemanticPrompt(doc *document.Document, req *requirement.Requirement, excerptLimit int) string {
	if excerptLimit <= 0 {
		excerptLimit = defaultExcerptLimit
	}
	content := doc.Content
	truncated := ""
	if runes := []rune(content); len(runes) > excerptLimit {
		content = string(runes[:excerptLimit])
		truncated = " [truncated]"
	}

	keywords := "no specific keywords"
	if len(req.Keywords) > 0 {
		keywords = strings.Join(req.Keywords, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "QUESTION: Does the following document satisfy this compliance requirement?\n")
	fmt.Fprintf(&b, "Answer YES, NO, PARTIAL, or UNCERTAIN with a thorough justification.\n\n")
	fmt.Fprintf(&b, "DOCUMENT:\nID: %s\nType: %s\nContent: %s%s\n\n", doc.ID(), doc.Classification, content, truncated)
	fmt.Fprintf(&b, "REQUIREMENT:\nID: %s\nDescription: %s\nType: %s\nPriority: %s\nCategory: %s\nKeywords to look for: %s\n\n",
		req.ID, req.Description, req.Type, req.Priority, req.Category, keywords)
	b.WriteString(`Respond in JSON with exactly these fields:
{
  "yes_no_determination": "YES|NO|PARTIAL|UNCERTAIN",
  "compliance_level": "fully_compliant|partially_compliant|non_compliant|not_applicable|indeterminate",
  "confidence_score": 0.0,
  "justification": "explanation supporting the determination",
  "matched_keywords": ["found", "keywords"],
  "missing_keywords": ["missing", "keywords"],
  "evidence": {
    "matching_text": "exact text from the document addressing the requirement",
    "context": "surrounding context of the matching text"
  }
}

DECISION CRITERIA:
- YES when the document fully satisfies the requirement.
- NO when the document fails to satisfy the requirement.
- PARTIAL when the document addresses the requirement but has gaps.
- UNCERTAIN when no determination can be made.

For "prohibited" requirements the semantics invert:
- YES (fully compliant) when the prohibited elements are NOT found.
- NO (non-compliant) when the prohibited elements ARE found.
`)
	return b.String()
}
