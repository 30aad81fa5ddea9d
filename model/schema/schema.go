// Package schema reflects JSON schemas from Go types and validates documents
// against them.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// Of reflects the JSON schema of T as a plain map. Nested structs are inlined
// and required fields come from `jsonschema:"required"` tags.
func Of[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		Anonymous:                  true,
	}
	return toMap(reflector.Reflect(new(T)))
}

func toMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema: %w", err)
	}
	var ret map[string]any
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to decode schema: %w", err)
	}
	delete(ret, "$schema")
	delete(ret, "$id")
	return ret, nil
}

// ValidationError lists schema violations of a document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "schema validation failed: " + strings.Join(e.Violations, "; ")
}

// Validate checks data (a Go value or decoded JSON) against schema.
func Validate(schema map[string]any, data any) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate document: %w", err)
	}
	if result.Valid() {
		return nil
	}
	ret := &ValidationError{}
	for _, desc := range result.Errors() {
		ret.Violations = append(ret.Violations, desc.String())
	}
	return ret
}

// Required returns the top level required property names of schema.
func Required(schema map[string]any) []string {
	var ret []string
	switch actual := schema["required"].(type) {
	case []any:
		for _, item := range actual {
			if name, ok := item.(string); ok {
				ret = append(ret, name)
			}
		}
	case []string:
		ret = append(ret, actual...)
	}
	return ret
}

// Properties returns the top level properties of schema.
func Properties(schema map[string]any) map[string]map[string]any {
	props, _ := schema["properties"].(map[string]any)
	ret := make(map[string]map[string]any, len(props))
	for name, prop := range props {
		if m, ok := prop.(map[string]any); ok {
			ret[name] = m
		}
	}
	return ret
}
