package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Validator checks payloads against component schemas of one document.
// It loads the document through kin-openapi so nested $refs resolve.
type Validator struct {
	doc *openapi3.T
}

func NewValidator(d *Document) (*Validator, error) {
	if d == nil {
		return nil, fmt.Errorf("nil document")
	}
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(d.raw)
	if err != nil {
		return nil, fmt.Errorf("load OpenAPI spec %q for validation: %w", d.Filename, err)
	}
	return &Validator{doc: doc}, nil
}

// Verify runs kin-openapi's structural validation of the whole document.
func (v *Validator) Verify() error {
	return v.doc.Validate(context.Background())
}

// Validate checks data against the schema component name. data may come from
// a YAML decoder; it is normalized to JSON types first.
func (v *Validator) Validate(name string, data any) error {
	if v.doc.Components == nil {
		return &SchemaResolutionError{Ref: schemaRefPrefix + name, Reason: "document has no components"}
	}
	ref, ok := v.doc.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return &SchemaResolutionError{Ref: schemaRefPrefix + name, Reason: "no such schema component"}
	}

	value, err := normalizeJSON(data)
	if err != nil {
		return err
	}
	if err := ref.Value.VisitJSON(value, openapi3.MultiErrors()); err != nil {
		return &ValidationError{SchemaName: name, Problems: validationProblems(err), Err: err}
	}
	return nil
}

// normalizeJSON round-trips data through encoding/json so numbers become
// float64 and maps become map[string]any, which is what VisitJSON expects.
func normalizeJSON(data any) (any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("payload is not representable as JSON: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func validationProblems(err error) []string {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		var out []string
		for _, e := range multi {
			out = append(out, validationProblems(e)...)
		}
		return out
	}
	var se *openapi3.SchemaError
	if errors.As(err, &se) {
		field := strings.Join(se.JSONPointer(), ".")
		if field == "" {
			return []string{se.Reason}
		}
		return []string{field + ": " + se.Reason}
	}
	return []string{err.Error()}
}
