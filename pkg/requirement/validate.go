package requirement

import (
	"fmt"
	"strings"
)

// ValidationError reports every problem found while validating a requirement.
type ValidationError struct {
	// RequirementID is the ID of the offending requirement (may be empty).
	RequirementID string

	// Problems lists each validation failure.
	Problems []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("requirement %q is invalid: %s",
		e.RequirementID, strings.Join(e.Problems, "; "))
}

// Validate checks the requirement's invariants: non-empty ID, description and
// category, enumerated type and priority, confidence score in [0,1], source
// section present, and complete relationship links.
//
// It returns nil when the requirement is valid, or a *ValidationError listing
// every problem found.
func (r *Requirement) Validate() error {
	var problems []string

	if r.ID == "" {
		problems = append(problems, "id is required")
	}
	if r.Description == "" {
		problems = append(problems, "description is required")
	}
	if !r.Type.Valid() {
		problems = append(problems, fmt.Sprintf("invalid type %q", r.Type))
	}
	if !r.Priority.Valid() {
		problems = append(problems, fmt.Sprintf("invalid priority %q", r.Priority))
	}
	if r.Category == "" {
		problems = append(problems, "category is required")
	}
	if r.Source.DocumentSection == "" {
		problems = append(problems, "source document section is required")
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 1 {
		problems = append(problems, fmt.Sprintf("confidence score %v outside [0,1]", r.ConfidenceScore))
	}
	for i, rel := range r.Relationships {
		if rel.TargetID == "" {
			problems = append(problems, fmt.Sprintf("relationship %d: target id is required", i))
		}
		if rel.Kind == "" {
			problems = append(problems, fmt.Sprintf("relationship %d: kind is required", i))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{RequirementID: r.ID, Problems: problems}
	}
	return nil
}
