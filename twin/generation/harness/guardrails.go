package harness

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation is returned when a JSON document does not conform to its schema.
var ErrSchemaViolation = errors.New("schema validation failed")

// JSONValidator handles JSON schema validation.
type JSONValidator struct{}

// NewJSONValidator creates a new JSON validator.
func NewJSONValidator() *JSONValidator {
	return &JSONValidator{}
}

// Compile parses and compiles a schema so that malformed schemas are caught up front.
func (v *JSONValidator) Compile(schema []byte) (*Schema, error) {
	if !json.Valid(schema) {
		return nil, fmt.Errorf("schema is not valid JSON")
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks if JSON data conforms to a schema.
func (v *JSONValidator) Validate(data json.RawMessage, schema []byte) error {
	if len(schema) == 0 {
		return nil // no schema to validate against
	}

	compiled, err := v.Compile(schema)
	if err != nil {
		return err
	}
	return compiled.Validate(data)
}

// Schema is a compiled JSON schema, safe for concurrent use.
type Schema struct {
	compiled *gojsonschema.Schema
}

// MustCompileSchema compiles a schema known at build time and panics if it is malformed.
func MustCompileSchema(schema []byte) *Schema {
	compiled, err := NewJSONValidator().Compile(schema)
	if err != nil {
		panic(err)
	}
	return compiled
}

// Validate checks data against the compiled schema.
func (s *Schema) Validate(data json.RawMessage) error {
	if !json.Valid(data) {
		return fmt.Errorf("%w: data is not valid JSON", ErrSchemaViolation)
	}

	result, err := s.compiled.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchemaViolation, err)
	}

	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(errs, "; "))
	}

	return nil
}
