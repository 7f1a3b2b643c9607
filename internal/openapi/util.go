package openapi

import (
	"strings"
)

// Verbs lists the path item keys in the order operations are indexed.
var Verbs = []string{"get", "put", "post", "delete", "patch", "head", "options"}

// VerbOperation pairs a lowercase verb with its operation.
type VerbOperation struct {
	Verb      string
	Operation *Operation
}

// Operations returns the operations of the path item in Verbs order.
func (pi *PathItem) Operations() []VerbOperation {
	var out []VerbOperation
	for _, verb := range Verbs {
		if op := pi.Operation(verb); op != nil {
			out = append(out, VerbOperation{Verb: verb, Operation: op})
		}
	}
	return out
}

// Operation returns the operation for a lowercase verb, or nil.
func (pi *PathItem) Operation(verb string) *Operation {
	switch verb {
	case "get":
		return pi.Get
	case "put":
		return pi.Put
	case "post":
		return pi.Post
	case "delete":
		return pi.Delete
	case "patch":
		return pi.Patch
	case "head":
		return pi.Head
	case "options":
		return pi.Options
	}
	return nil
}

const (
	schemaRefPrefix    = "#/components/schemas/"
	parameterRefPrefix = "#/components/parameters/"
)

// SchemaRefName extracts <Name> from "#/components/schemas/<Name>".
func SchemaRefName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, schemaRefPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, schemaRefPrefix)
	if name == "" || strings.Contains(name, "/") {
		return "", false
	}
	return name, true
}

func (s *Spec) ResolveSchemaRef(ref string) (*Schema, bool) {
	name, ok := SchemaRefName(ref)
	if !ok {
		return nil, false
	}
	if s.Components.Schemas == nil {
		return nil, false
	}
	schema, ok := s.Components.Schemas[name]
	if !ok {
		return nil, false
	}
	cp := schema // copy so callers can mutate safely
	return &cp, true
}

// ResolveParameter follows a "#/components/parameters/<Name>" reference.
// Inline parameters are returned unchanged.
func (s *Spec) ResolveParameter(p Parameter) (Parameter, bool) {
	if p.Ref == "" {
		return p, true
	}
	if !strings.HasPrefix(p.Ref, parameterRefPrefix) {
		return p, false
	}
	target, ok := s.Components.Parameters[strings.TrimPrefix(p.Ref, parameterRefPrefix)]
	if !ok {
		return p, false
	}
	return target, true
}

func (s *Spec) DerefSchema(schema *Schema) *Schema {
	return s.derefSchema(schema, map[string]bool{})
}

func (s *Spec) derefSchema(schema *Schema, seen map[string]bool) *Schema {
	if schema == nil {
		return nil
	}
	if schema.Ref == "" {
		return schema
	}
	if seen[schema.Ref] {
		return schema
	}
	seen[schema.Ref] = true
	target, ok := s.ResolveSchemaRef(schema.Ref)
	if !ok {
		return schema
	}
	return s.derefSchema(target, seen)
}

// FlattenSchema tries to produce a schema with merged object properties by expanding
// $ref and allOf. This is intentionally conservative and only supports what the CLI needs.
func (s *Spec) FlattenSchema(schema *Schema) *Schema {
	return s.flattenSchema(schema, map[string]bool{})
}

func (s *Spec) flattenSchema(schema *Schema, seen map[string]bool) *Schema {
	if schema == nil {
		return nil
	}

	schema = s.derefSchema(schema, seen)
	if schema == nil {
		return nil
	}

	if len(schema.AllOf) > 0 && schema.Properties == nil && schema.Items == nil {
		merged := &Schema{
			Type:       "object",
			Properties: map[string]Schema{},
		}
		for _, sub := range schema.AllOf {
			subF := s.flattenSchema(sub, seen)
			if subF == nil {
				continue
			}
			for k, v := range subF.Properties {
				merged.Properties[k] = v
			}
			merged.Required = append(merged.Required, subF.Required...)
		}
		if len(merged.Properties) == 0 {
			return schema
		}
		return merged
	}
	return schema
}
