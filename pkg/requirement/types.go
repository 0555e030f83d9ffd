// Package requirement defines the compliance requirement domain model shared
// by the catalog and the evaluator.
package requirement

// Type classifies how a requirement binds the evaluated document.
type Type string

const (
	// TypeMandatory requirements must be satisfied.
	TypeMandatory Type = "mandatory"

	// TypeRecommended requirements should be satisfied but do not block
	// overall compliance on their own.
	TypeRecommended Type = "recommended"

	// TypeProhibited requirements invert match semantics: the described
	// content must be absent from the document.
	TypeProhibited Type = "prohibited"
)

// Valid reports whether t is one of the enumerated requirement types.
func (t Type) Valid() bool {
	switch t {
	case TypeMandatory, TypeRecommended, TypeProhibited:
		return true
	}
	return false
}

// Priority ranks the importance of a requirement.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is one of the enumerated priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Weight returns the aggregation weight for priority-weighted compliance
// scoring (critical=4 down to low=1). Unknown priorities weigh 1.
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Source records where in the originating policy document a requirement was
// extracted from.
type Source struct {
	// DocumentSection is the section or heading the requirement came from.
	DocumentSection string `json:"document_section" yaml:"document_section"`

	// PageNumber is the page the requirement was found on, when known.
	PageNumber *int `json:"page_number,omitempty" yaml:"page_number,omitempty"`

	// LineNumber is the line the requirement was found on, when known.
	LineNumber *int `json:"line_number,omitempty" yaml:"line_number,omitempty"`

	// Context is the surrounding policy text, when captured.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Relationship is a directed link from one requirement to another.
type Relationship struct {
	// TargetID is the ID of the related requirement.
	TargetID string `json:"target_id" yaml:"target_id"`

	// Kind names the relationship (e.g. "depends_on", "conflicts_with",
	// "related_to").
	Kind string `json:"kind" yaml:"kind"`

	// Description optionally explains the relationship.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Requirement is a single compliance requirement extracted from policy text.
type Requirement struct {
	// ID uniquely identifies the requirement within a catalog.
	ID string `json:"id" yaml:"id"`

	// Description is the requirement text.
	Description string `json:"description" yaml:"description"`

	// Type classifies the requirement (mandatory, recommended, prohibited).
	Type Type `json:"type" yaml:"type"`

	// Priority ranks the requirement (critical, high, medium, low).
	Priority Priority `json:"priority" yaml:"priority"`

	// Category groups requirements by topic (e.g. "Authentication").
	Category string `json:"category" yaml:"category"`

	// Subcategory optionally refines the category.
	Subcategory string `json:"subcategory,omitempty" yaml:"subcategory,omitempty"`

	// Source records where the requirement was extracted from.
	Source Source `json:"source" yaml:"source"`

	// ConfidenceScore is the extractor's confidence in [0,1].
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// Keywords drive the keyword evaluation strategy. Order is preserved
	// for reporting but irrelevant for matching.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Relationships links this requirement to others.
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`

	// Metadata carries open key/value annotations.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Clone returns a deep copy of the requirement. The catalog clones on both
// ingress and egress so callers can never alias its internal state.
func (r *Requirement) Clone() *Requirement {
	c := *r
	if r.Keywords != nil {
		c.Keywords = append([]string(nil), r.Keywords...)
	}
	if r.Relationships != nil {
		c.Relationships = append([]Relationship(nil), r.Relationships...)
	}
	if r.Metadata != nil {
		c.Metadata = make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}
