package openapi

import (
	"fmt"
	"sort"

	"github.com/brianvoe/gofakeit/v6"
)

// ExampleGenerator builds sample payloads from component schemas. The result
// is a starting point for an apply file, not a guaranteed-valid request.
type ExampleGenerator struct {
	spec     *Spec
	faker    *gofakeit.Faker
	maxDepth int
}

func NewExampleGenerator(spec *Spec, seed int64) *ExampleGenerator {
	return &ExampleGenerator{
		spec:     spec,
		faker:    gofakeit.New(seed),
		maxDepth: 4,
	}
}

// Generate returns an example value for the named schema component.
func (g *ExampleGenerator) Generate(name string) (any, error) {
	s, ok := g.spec.Components.Schemas[name]
	if !ok {
		return nil, &SchemaResolutionError{Ref: schemaRefPrefix + name, Reason: "no such schema component"}
	}
	return g.generate(&s, 0)
}

func (g *ExampleGenerator) generate(schema *Schema, depth int) (any, error) {
	schema = g.spec.FlattenSchema(schema)
	if schema == nil || depth > g.maxDepth {
		return nil, nil
	}
	if schema.Example != nil {
		return schema.Example, nil
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[g.faker.IntRange(0, len(schema.Enum)-1)], nil
	}

	switch schema.Type {
	case "string":
		return g.generateString(schema), nil
	case "integer":
		min, max := bounds(schema, 0, 100)
		return g.faker.IntRange(int(min), int(max)), nil
	case "number":
		min, max := bounds(schema, 0, 100)
		return g.faker.Float64Range(min, max), nil
	case "boolean":
		return g.faker.Bool(), nil
	case "array":
		if schema.Items == nil {
			return []any{}, nil
		}
		item, err := g.generate(schema.Items, depth+1)
		if err != nil {
			return nil, fmt.Errorf("array item: %w", err)
		}
		if item == nil {
			return []any{}, nil
		}
		return []any{item}, nil
	case "object", "":
		if len(schema.Properties) == 0 {
			return map[string]any{}, nil
		}
		return g.generateObject(schema, depth)
	default:
		return nil, fmt.Errorf("unsupported schema type: %s", schema.Type)
	}
}

func (g *ExampleGenerator) generateObject(schema *Schema, depth int) (any, error) {
	names := make([]string, 0, len(schema.Properties))
	for k := range schema.Properties {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string]any, len(names))
	for _, name := range names {
		prop := schema.Properties[name]
		v, err := g.generate(&prop, depth+1)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		if v != nil {
			out[name] = v
		}
	}
	return out, nil
}

func (g *ExampleGenerator) generateString(schema *Schema) string {
	switch schema.Format {
	case "date-time":
		return g.faker.Date().UTC().Format("2006-01-02T15:04:05.000Z07:00")
	case "date":
		return g.faker.Date().UTC().Format("2006-01-02")
	case "uuid":
		return g.faker.UUID()
	case "email":
		return g.faker.Email()
	case "uri", "url":
		return g.faker.URL()
	case "binary", "byte":
		return ""
	}
	return g.faker.Word()
}

func bounds(schema *Schema, defMin, defMax float64) (float64, float64) {
	min, max := defMin, defMax
	if schema.Minimum != nil {
		min = *schema.Minimum
	}
	if schema.Maximum != nil {
		max = *schema.Maximum
	}
	if max < min {
		max = min
	}
	return min, max
}
