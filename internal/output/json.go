package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/pflag"
)

type jsonRenderer struct {
	indent string
}

func (r *jsonRenderer) Name() string              { return "json" }
func (r *jsonRenderer) Kind() Kind                { return KindJSON }
func (r *jsonRenderer) BindFlags(*pflag.FlagSet) {}

func (r *jsonRenderer) Render(w io.Writer, result any, _ RenderContext) error {
	result, _ = unwrap(result)
	if b, ok := result.([]byte); ok {
		result = string(b)
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", r.indent)
	return enc.Encode(result)
}

type jsonPathRenderer struct {
	expr string
}

func (r *jsonPathRenderer) Name() string { return "jsonpath" }
func (r *jsonPathRenderer) Kind() Kind   { return KindJSONPath }

func (r *jsonPathRenderer) BindFlags(fs *pflag.FlagSet) {
	if fs.Lookup("output-jsonpath") == nil {
		fs.StringVar(&r.expr, "output-jsonpath", "$", "JSONPath expression applied to the result")
	}
}

// Render prints every match on its own line. Strings are printed bare, other
// values as compact JSON.
func (r *jsonPathRenderer) Render(w io.Writer, result any, _ RenderContext) error {
	result, _ = unwrap(result)
	expr := strings.TrimSpace(r.expr)
	if expr == "" {
		expr = "$"
	}
	x, err := jp.ParseString(expr)
	if err != nil {
		return fmt.Errorf("invalid JSONPath %q: %w", expr, err)
	}
	for _, match := range x.Get(result) {
		line, err := jsonPathValue(match)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func jsonPathValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case []byte:
		return string(t), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
