package llm

import (
	"fmt"
	"sort"
)

// SchemaField is a JSON-Schema-like field definition.
type SchemaField struct {
	// Type is one of "string", "number", "integer", "boolean", "array",
	// "object", or empty to accept any value.
	Type string `json:"type,omitempty"`

	Description string `json:"description,omitempty"`

	// Properties defines nested object fields (Type "object").
	Properties map[string]SchemaField `json:"properties,omitempty"`

	// Items defines the element schema for arrays (Type "array").
	Items *SchemaField `json:"items,omitempty"`

	// Enum restricts the value to one of the listed literals.
	Enum []any `json:"enum,omitempty"`

	// Required lists required nested property names. Unlike standard JSON
	// Schema, a nil list means every property is required.
	Required []string `json:"required,omitempty"`
}

// OutputSchema maps top-level field names to their definitions. All top-level
// fields are required.
type OutputSchema map[string]SchemaField

var schemaTypes = map[string]bool{
	"":        true,
	"string":  true,
	"number":  true,
	"integer": true,
	"boolean": true,
	"array":   true,
	"object":  true,
}

// Check verifies the schema can be compiled into a validator. Failures are
// configuration errors, surfaced before any network call.
func (s OutputSchema) Check() error {
	if s == nil {
		return nil
	}
	if len(s) == 0 {
		return &ConfigError{Field: "output_schema", Reason: "schema has no fields"}
	}
	for name, field := range s {
		if err := field.check(name); err != nil {
			return &ConfigError{Field: "output_schema", Reason: err.Error()}
		}
	}
	return nil
}

func (f SchemaField) check(path string) error {
	if !schemaTypes[f.Type] {
		return fmt.Errorf("field %s: unknown type %q", path, f.Type)
	}
	for name, nested := range f.Properties {
		if err := nested.check(path + "." + name); err != nil {
			return err
		}
	}
	if f.Items != nil {
		if err := f.Items.check(path + "[]"); err != nil {
			return err
		}
	}
	return nil
}

// JSONSchema renders the schema as a standard JSON-Schema object document,
// expanding the all-fields-required default into explicit required lists.
func (s OutputSchema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s))
	required := make([]string, 0, len(s))
	for name, field := range s {
		properties[name] = field.jsonSchema()
		required = append(required, name)
	}
	sort.Strings(required)

	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func (f SchemaField) jsonSchema() map[string]any {
	out := make(map[string]any)
	if f.Type != "" {
		out["type"] = f.Type
	}
	if f.Description != "" {
		out["description"] = f.Description
	}
	if len(f.Enum) > 0 {
		out["enum"] = f.Enum
	}
	if f.Items != nil {
		out["items"] = f.Items.jsonSchema()
	}
	if len(f.Properties) > 0 {
		properties := make(map[string]any, len(f.Properties))
		for name, nested := range f.Properties {
			properties[name] = nested.jsonSchema()
		}
		out["properties"] = properties

		required := f.Required
		if required == nil {
			required = make([]string, 0, len(f.Properties))
			for name := range f.Properties {
				required = append(required, name)
			}
		}
		sort.Strings(required)
		out["required"] = required
	}
	return out
}
