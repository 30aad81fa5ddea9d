package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/viant/crewflow/model/schema"
)

// Schema validates and (de)serialises workflow states of type S. Constraints
// come from two sources: `jsonschema` tags (required, enum, minimum ...)
// checked against the reflected JSON schema, and `validate` tags checked by
// go-playground/validator.
type Schema[S any] struct {
	document map[string]any
	validate *validator.Validate
}

// NewSchema reflects the schema of S.
func NewSchema[S any]() (*Schema[S], error) {
	doc, err := schema.Of[S]()
	if err != nil {
		return nil, err
	}
	return &Schema[S]{
		document: doc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// MustSchema is NewSchema panicking on error, for package level variables.
func MustSchema[S any]() *Schema[S] {
	ret, err := NewSchema[S]()
	if err != nil {
		panic(err)
	}
	return ret
}

// Document returns the JSON schema document.
func (s *Schema[S]) Document() map[string]any {
	return s.document
}

// MarshalIndent returns the JSON schema document as indented JSON.
func (s *Schema[S]) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s.document, "", "  ")
}

// Validate checks value against struct tags and the JSON schema.
func (s *Schema[S]) Validate(value S) error {
	ret := &schema.ValidationError{}
	if isStruct(value) {
		if err := s.validate.Struct(value); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return err
			}
			for _, fieldErr := range fieldErrs {
				ret.Violations = append(ret.Violations, fmt.Sprintf("%s: failed '%s' constraint", fieldErr.Namespace(), fieldErr.Tag()))
			}
		}
	}
	if err := schema.Validate(s.document, value); err != nil {
		var docErr *schema.ValidationError
		if !errors.As(err, &docErr) {
			return err
		}
		ret.Violations = append(ret.Violations, docErr.Violations...)
	}
	if len(ret.Violations) > 0 {
		return ret
	}
	return nil
}

// Encode validates value and returns its JSON form.
func (s *Schema[S]) Encode(value S) ([]byte, error) {
	if err := s.Validate(value); err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

// Decode parses data into a state, rejecting unknown fields, and validates it.
func (s *Schema[S]) Decode(data []byte) (S, error) {
	var ret S
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&ret); err != nil {
		return ret, fmt.Errorf("failed to decode state: %w", err)
	}
	if err := s.Validate(ret); err != nil {
		return ret, err
	}
	return ret, nil
}

func isStruct(value any) bool {
	t := reflect.TypeOf(value)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t != nil && t.Kind() == reflect.Struct
}
