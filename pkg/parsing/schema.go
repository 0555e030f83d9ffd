package parsing

import "fmt"

// SchemaKind names a validation schema for a class of model responses.
type SchemaKind string

const (
	// SchemaCompletenessCheck validates a yes/no completeness verdict with
	// keyword evidence.
	SchemaCompletenessCheck SchemaKind = "completeness_check"

	// SchemaRequiredFields validates a field-presence analysis.
	SchemaRequiredFields SchemaKind = "required_fields"

	// SchemaTypeSpecific validates a combined keyword and field analysis for
	// one document type.
	SchemaTypeSpecific SchemaKind = "type_specific"

	// SchemaComplianceEvaluation validates the semantic compliance verdict
	// for a single (document, requirement) pair.
	SchemaComplianceEvaluation SchemaKind = "compliance_evaluation"
)

// fieldCheck reports a type problem with a field value, or nil.
type fieldCheck func(v any) error

// fieldSpec describes one top-level field of a schema. Required fields that
// are missing or mistyped fail validation; optional fields only produce
// warnings. warnIfMissing flags optional fields whose absence is worth a
// warning (they degrade the derived confidence).
type fieldSpec struct {
	name          string
	required      bool
	warnIfMissing bool
	check         fieldCheck
}

type schema struct {
	kind   SchemaKind
	fields []fieldSpec
}

var schemas = map[SchemaKind]schema{
	SchemaCompletenessCheck: {
		kind: SchemaCompletenessCheck,
		fields: []fieldSpec{
			{name: "satisfied", required: true, check: isBool},
			{name: "explanation", required: true, check: isString},
			{name: "found_keywords", required: true, check: isStringArray},
			{name: "missing_keywords", required: true, check: isStringArray},
			{name: "confidence_score", required: true, check: isUnitNumber},
			{name: "suggestions", check: isStringArray},
		},
	},
	SchemaRequiredFields: {
		kind: SchemaRequiredFields,
		fields: []fieldSpec{
			{name: "missing_fields", required: true, check: isStringArray},
			{name: "present_fields", required: true, check: isStringArray},
			{name: "field_details", required: true, check: isObjectArray(
				"field_name", "is_present", "value", "confidence",
			)},
			{name: "overall_completeness", required: true, check: isUnitNumber},
			{name: "suggestions", check: isStringArray},
		},
	},
	SchemaTypeSpecific: {
		kind: SchemaTypeSpecific,
		fields: []fieldSpec{
			{name: "satisfied", required: true, check: isBool},
			{name: "completeness_score", required: true, check: isUnitNumber},
			{name: "keyword_analysis", required: true, check: isObjectWith("found", "missing")},
			{name: "field_analysis", required: true, check: isObjectArray(
				"field_name", "is_present", "value", "format_valid", "confidence",
			)},
			{name: "suggestions", check: isObjectArray("field", "issue", "recommendation")},
		},
	},
	SchemaComplianceEvaluation: {
		kind: SchemaComplianceEvaluation,
		fields: []fieldSpec{
			{name: "yes_no_determination", required: true, check: isString},
			{name: "confidence_score", required: true, check: isUnitNumber},
			{name: "justification", required: true, check: isString},
			{name: "compliance_level", warnIfMissing: true, check: isString},
			{name: "matched_keywords", check: isStringArray},
			{name: "missing_keywords", check: isStringArray},
			{name: "evidence", check: isObjectWith("matching_text", "context")},
		},
	},
}

// validate checks data against the schema. Problems with required fields are
// returned as errors; problems with optional fields come back as warnings.
func (s schema) validate(data map[string]any) (warnings []string, err error) {
	for _, f := range s.fields {
		v, present := data[f.name]
		if !present {
			if f.required {
				return warnings, fmt.Errorf("missing required field %q", f.name)
			}
			if f.warnIfMissing {
				warnings = append(warnings, fmt.Sprintf("optional field %q absent", f.name))
			}
			continue
		}
		if f.check == nil {
			continue
		}
		if cerr := f.check(v); cerr != nil {
			if f.required {
				return warnings, fmt.Errorf("field %q: %w", f.name, cerr)
			}
			warnings = append(warnings, fmt.Sprintf("field %q: %v", f.name, cerr))
		}
	}
	return warnings, nil
}

func isBool(v any) error {
	if _, ok := v.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", v)
	}
	return nil
}

func isString(v any) error {
	if _, ok := v.(string); !ok {
		return fmt.Errorf("expected string, got %T", v)
	}
	return nil
}

// isUnitNumber accepts a JSON number within [0, 1].
func isUnitNumber(v any) error {
	n, ok := v.(float64)
	if !ok {
		return fmt.Errorf("expected number, got %T", v)
	}
	if n < 0 || n > 1 {
		return fmt.Errorf("expected value in [0,1], got %v", n)
	}
	return nil
}

func isStringArray(v any) error {
	items, ok := v.([]any)
	if !ok {
		return fmt.Errorf("expected array, got %T", v)
	}
	for i, item := range items {
		if _, ok := item.(string); !ok {
			return fmt.Errorf("element %d: expected string, got %T", i, item)
		}
	}
	return nil
}

// isObjectArray checks for an array of objects each carrying the named keys.
func isObjectArray(keys ...string) fieldCheck {
	return func(v any) error {
		items, ok := v.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", v)
		}
		for i, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return fmt.Errorf("element %d: expected object, got %T", i, item)
			}
			for _, key := range keys {
				if _, present := obj[key]; !present {
					return fmt.Errorf("element %d: missing key %q", i, key)
				}
			}
		}
		return nil
	}
}

// isObjectWith checks for an object carrying the named keys.
func isObjectWith(keys ...string) fieldCheck {
	return func(v any) error {
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", v)
		}
		for _, key := range keys {
			if _, present := obj[key]; !present {
				return fmt.Errorf("missing key %q", key)
			}
		}
		return nil
	}
}
