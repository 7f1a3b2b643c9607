package output

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/spf13/pflag"
)

// NoTemplateFound is printed when no template resolves for a non-empty result.
const NoTemplateFound = "NO TEMPLATE FOUND"

// DefaultReadTemplate prints the result as is.
const DefaultReadTemplate = "{{ result }}"

//go:embed templates
var bundled embed.FS

// templatePatterns are tried in order, most specific first.
var templatePatterns = []string{
	"{operation_id}.tpl",
	"{parent}/{command}.tpl",
	"{command}.tpl",
	"{verb}_default.tpl",
	"{parent}_default.tpl",
	"default.tpl",
}

func init() {
	pongo2.SetAutoescape(false)
	if !pongo2.FilterExists("tojson") {
		_ = pongo2.RegisterFilter("tojson", filterToJSON)
	}
}

func filterToJSON(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	b, err := json.Marshal(in.Interface())
	if err != nil {
		return nil, &pongo2.Error{Sender: "filter:tojson", OrigError: err}
	}
	return pongo2.AsValue(string(b)), nil
}

// TemplateSource looks up template text by name, e.g. "describe/processInstance.tpl".
type TemplateSource interface {
	ReadTemplate(name string) (string, bool)
}

// MapSource serves templates compiled into the binary as strings.
type MapSource map[string]string

func (m MapSource) ReadTemplate(name string) (string, bool) {
	s, ok := m[name]
	return s, ok
}

type fsSource struct {
	fsys fs.FS
}

// FSSource serves templates from fsys.
func FSSource(fsys fs.FS) TemplateSource {
	return fsSource{fsys: fsys}
}

// DirSource serves templates from a directory on disk. A missing directory
// is an empty source.
func DirSource(dir string) TemplateSource {
	return fsSource{fsys: os.DirFS(dir)}
}

func (s fsSource) ReadTemplate(name string) (string, bool) {
	name = path.Clean(filepath.ToSlash(name))
	if !fs.ValidPath(name) {
		return "", false
	}
	b, err := fs.ReadFile(s.fsys, name)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// BundledTemplates returns the templates shipped with the binary.
func BundledTemplates() TemplateSource {
	sub, err := fs.Sub(bundled, "templates")
	if err != nil {
		panic(err)
	}
	return FSSource(sub)
}

// UserTemplateDir is <user config dir>/camundactl/templates, or "" when the
// platform has no config dir.
func UserTemplateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "camundactl", "templates")
}

// TemplateLoader searches its sources in order; the first hit wins.
type TemplateLoader struct {
	sources []TemplateSource
}

func NewTemplateLoader(sources ...TemplateSource) *TemplateLoader {
	return &TemplateLoader{sources: sources}
}

// DefaultTemplateLoader chains builtins, the configured extra directories,
// the user template directory and the bundled templates.
func DefaultTemplateLoader(builtins map[string]string, extraDirs []string) *TemplateLoader {
	sources := []TemplateSource{MapSource(builtins)}
	for _, dir := range extraDirs {
		if dir = strings.TrimSpace(dir); dir != "" {
			sources = append(sources, DirSource(dir))
		}
	}
	if dir := UserTemplateDir(); dir != "" {
		sources = append(sources, DirSource(dir))
	}
	sources = append(sources, BundledTemplates())
	return NewTemplateLoader(sources...)
}

func (l *TemplateLoader) Lookup(name string) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, s := range l.sources {
		if s == nil {
			continue
		}
		if tpl, ok := s.ReadTemplate(name); ok {
			return tpl, true
		}
	}
	return "", false
}

type templateRenderer struct {
	defaultTemplate string
	loader          *TemplateLoader

	template string
}

func (r *templateRenderer) Name() string { return "template" }
func (r *templateRenderer) Kind() Kind   { return KindTemplate }

func (r *templateRenderer) BindFlags(fs *pflag.FlagSet) {
	if fs.Lookup("output-template") == nil {
		fs.StringVar(&r.template, "output-template", "", "template name or inline template (Jinja syntax)")
	}
}

func (r *templateRenderer) Render(w io.Writer, result any, rc RenderContext) error {
	result, _ = unwrap(result)
	src, ok := r.resolve(rc)
	if !ok {
		if result == nil {
			return nil
		}
		src = NoTemplateFound
	}

	tpl, err := pongo2.FromString(src)
	if err != nil {
		return fmt.Errorf("parse template: %w", err)
	}
	out, err := tpl.Execute(templateContext(result, rc))
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	if out == "" {
		return nil
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err = io.WriteString(w, out)
	return err
}

// resolve finds the template text: the --output-template value (a name known
// to the loader, else inline text), then the conventional names, then the
// renderer default.
func (r *templateRenderer) resolve(rc RenderContext) (string, bool) {
	if given := r.template; given != "" {
		if tpl, ok := r.loader.Lookup(given); ok {
			return tpl, true
		}
		return given, true
	}
	for _, name := range templateNames(rc) {
		if tpl, ok := r.loader.Lookup(name); ok {
			return tpl, true
		}
	}
	if r.defaultTemplate != "" {
		return r.defaultTemplate, true
	}
	return "", false
}

// templateNames expands templatePatterns for rc, skipping patterns that
// reference a value rc does not have.
func templateNames(rc RenderContext) []string {
	values := map[string]string{
		"operation_id": rc.OperationID,
		"parent":       rc.Parent,
		"command":      rc.Command,
		"verb":         rc.Verb,
	}
	var out []string
next:
	for _, pattern := range templatePatterns {
		name := pattern
		for key, value := range values {
			placeholder := "{" + key + "}"
			if !strings.Contains(name, placeholder) {
				continue
			}
			if value == "" {
				continue next
			}
			name = strings.ReplaceAll(name, placeholder, value)
		}
		out = append(out, name)
	}
	return out
}

func templateContext(result any, rc RenderContext) pongo2.Context {
	ctx := pongo2.Context{}
	// Object results are also exposed at the top level, so a template may
	// say {{ id }} instead of {{ result.id }}.
	if obj, ok := result.(map[string]any); ok {
		for k, v := range obj {
			if isIdentifier(k) {
				ctx[k] = v
			}
		}
	}
	if b, ok := result.([]byte); ok {
		result = string(b)
	}
	ctx["result"] = result
	ctx["operation_id"] = rc.OperationID
	ctx["verb"] = rc.Verb
	ctx["parent"] = rc.Parent
	ctx["command"] = rc.Command
	ctx["args"] = rc.Args
	return ctx
}

// isIdentifier reports whether pongo2 accepts k as a context key.
func isIdentifier(k string) bool {
	if k == "" {
		return false
	}
	for _, r := range k {
		if r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
