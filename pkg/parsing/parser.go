package parsing

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Extraction methods recorded in Metadata.
const (
	// ExtractionDirect means the cleaned text was itself a valid JSON
	// document.
	ExtractionDirect = "direct"

	// ExtractionRegex means the payload had to be located inside
	// surrounding prose.
	ExtractionRegex = "regex"
)

// ParseError describes why a model response could not be parsed.
type ParseError struct {
	// Stage is one of "extract", "decode", or "validate".
	Stage   string
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("parse %s: %s", e.Stage, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// Metadata describes how a payload was obtained and how much to trust it.
type Metadata struct {
	Schema           SchemaKind    `json:"schema"`
	ConfidenceScore  float64       `json:"confidence_score"`
	ExtractionMethod string        `json:"extraction_method"`
	Duration         time.Duration `json:"duration"`
	Warnings         []string      `json:"warnings,omitempty"`
}

// Parser extracts and validates structured payloads from model output.
// The zero value is not usable; construct with NewParser.
type Parser struct {
	logger *slog.Logger
}

func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With("component", "parsing")}
}

// Parse extracts a JSON object from text and validates it against the named
// schema. It fails with *ParseError when no payload can be located, the
// payload is malformed, or a required schema field is missing or mistyped.
// Optional-field problems are demoted to warnings, which lower the derived
// confidence score.
func (p *Parser) Parse(text string, kind SchemaKind) (map[string]any, *Metadata, error) {
	start := time.Now()

	sch, known := schemas[kind]
	if !known {
		return nil, nil, &ParseError{Stage: "validate", Message: fmt.Sprintf("unknown schema %q", kind)}
	}

	payload, method, err := p.decode(text)
	if err != nil {
		p.logger.Warn("response parse failed", "schema", kind, "error", err)
		return nil, nil, err
	}

	warnings, err := sch.validate(payload)
	if err != nil {
		p.logger.Warn("response failed schema validation", "schema", kind, "error", err)
		return nil, nil, &ParseError{Stage: "validate", Message: "schema validation failed", Cause: err}
	}

	md := &Metadata{
		Schema:           kind,
		ConfidenceScore:  deriveConfidence(payload, warnings),
		ExtractionMethod: method,
		Duration:         time.Since(start),
		Warnings:         warnings,
	}
	return payload, md, nil
}

// decode tries a direct decode of the raw text first. Anything that needs
// fence stripping or a balanced-region scan counts as regex extraction.
func (p *Parser) decode(text string) (map[string]any, string, error) {
	if obj, ok := decodeObject(text); ok {
		return obj, ExtractionDirect, nil
	}

	cleaned := stripFences(text)
	if obj, ok := decodeObject(cleaned); ok {
		return obj, ExtractionRegex, nil
	}

	region, found := extractBalanced(cleaned)
	if !found {
		return nil, "", &ParseError{Stage: "extract", Message: "no JSON payload found in response"}
	}
	obj, ok := decodeObject(region)
	if !ok {
		return nil, "", &ParseError{Stage: "decode", Message: "extracted region is not a valid JSON object"}
	}
	return obj, ExtractionRegex, nil
}

// decodeObject decodes text as a single JSON object. Arrays and scalars are
// rejected: every schema expects an object payload.
func decodeObject(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// deriveConfidence starts from 1.0, subtracts 0.1 per warning, clamps to the
// model-reported confidence_score when present and numeric, then clamps to
// [0, 1].
func deriveConfidence(data map[string]any, warnings []string) float64 {
	confidence := 1.0 - 0.1*float64(len(warnings))
	if reported, ok := data["confidence_score"].(float64); ok && reported < confidence {
		confidence = reported
	}
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
