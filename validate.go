package llm

import (
	"fmt"
	"math"
	"reflect"
)

// Validate checks candidate data against the schema and returns a
// *SchemaValidationError describing every violation, or nil when the data
// adheres.
func (s OutputSchema) Validate(data map[string]any) error {
	var violations []FieldViolation
	validateObject("", map[string]SchemaField(s), nil, data, &violations)
	if len(violations) > 0 {
		return &SchemaValidationError{
			Reason:     "validation failed",
			Schema:     s,
			Data:       data,
			Violations: violations,
		}
	}
	return nil
}

// validateObject checks one object level. A nil required list means every
// property is required.
func validateObject(path string, properties map[string]SchemaField, required []string, data map[string]any, violations *[]FieldViolation) {
	requiredSet := make(map[string]bool, len(properties))
	if required == nil {
		for name := range properties {
			requiredSet[name] = true
		}
	} else {
		for _, name := range required {
			requiredSet[name] = true
		}
	}

	for name, field := range properties {
		fieldPath := name
		if path != "" {
			fieldPath = path + "." + name
		}

		value, present := data[name]
		if !present {
			if requiredSet[name] {
				*violations = append(*violations, FieldViolation{Field: fieldPath, Reason: "required field missing"})
			}
			continue
		}
		validateValue(fieldPath, field, value, violations)
	}
}

func validateValue(path string, field SchemaField, value any, violations *[]FieldViolation) {
	if len(field.Enum) > 0 && !enumContains(field.Enum, value) {
		*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("value %v not in enum", value)})
		return
	}

	switch field.Type {
	case "":
		// Untyped field: any value adheres.

	case "string":
		if _, ok := value.(string); !ok {
			*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("expected string, got %T", value)})
		}

	case "boolean":
		if _, ok := value.(bool); !ok {
			*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("expected boolean, got %T", value)})
		}

	case "number":
		if !isJSONNumber(value) {
			*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("expected number, got %T", value)})
		}

	case "integer":
		f, ok := asFloat(value)
		if !ok || f != math.Trunc(f) {
			*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("expected integer, got %v", value)})
		}

	case "array":
		items, ok := value.([]any)
		if !ok {
			*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("expected array, got %T", value)})
			return
		}
		if field.Items != nil {
			for i, item := range items {
				validateValue(fmt.Sprintf("%s[%d]", path, i), *field.Items, item, violations)
			}
		}

	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			*violations = append(*violations, FieldViolation{Field: path, Reason: fmt.Sprintf("expected object, got %T", value)})
			return
		}
		if len(field.Properties) > 0 {
			validateObject(path, field.Properties, field.Required, obj, violations)
		}
	}
}

func isJSONNumber(value any) bool {
	_, ok := asFloat(value)
	return ok
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func enumContains(enum []any, value any) bool {
	for _, candidate := range enum {
		if reflect.DeepEqual(candidate, value) {
			return true
		}
	}
	return false
}
