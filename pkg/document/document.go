// Package document defines the normalized document representation consumed by
// the compliance evaluator. Text extraction and document-type classification
// happen upstream; by the time a Document reaches this module it carries plain
// text content and a classification label.
package document

import "strings"

// Document is a normalized input document.
//
// Evaluators rely on exactly these fields and never probe for alternative
// shapes: a caller that has only raw bytes must run them through the loader
// before evaluation.
type Document struct {
	// Filename identifies the document. It doubles as the document ID in
	// reports and matrices.
	Filename string `json:"filename" yaml:"filename"`

	// Content is the extracted plain-text content.
	Content string `json:"content" yaml:"content"`

	// Classification is the document-type label assigned by the upstream
	// classifier (e.g. "security_policy", "audit_rfi").
	Classification string `json:"classification" yaml:"classification"`

	// Metadata carries open key/value annotations from the loader.
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// SourcePath is the original file location, when known.
	SourcePath string `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// ID returns the document identifier used in reports.
func (d *Document) ID() string {
	return d.Filename
}

// Empty reports whether the document has no usable text content.
func (d *Document) Empty() bool {
	return strings.TrimSpace(d.Content) == ""
}
