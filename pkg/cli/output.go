package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// FormatText renders results as plain text.
	FormatText OutputFormat = "text"
	// FormatJSON renders results as indented JSON.
	FormatJSON OutputFormat = "json"
)

// Formatter renders command output.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// TextFormatter prints data with its default Go formatting, one value per
// line. Types that want readable text output implement fmt.Stringer.
type TextFormatter struct{}

// FormatTo writes data to w as text.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	_, err := fmt.Fprintf(w, "%v\n", data)
	return err
}

// JSONFormatter prints data as indented JSON.
type JSONFormatter struct{}

// FormatTo writes data to w as JSON.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// NewFormatter returns the formatter for format, defaulting to text for
// unknown values.
func NewFormatter(format OutputFormat) Formatter {
	if format == FormatJSON {
		return &JSONFormatter{}
	}
	return &TextFormatter{}
}
