package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// InvalidOutputSelectionError is returned when -o names a renderer that is
// not wired for the command.
type InvalidOutputSelectionError struct {
	Name    string
	Allowed []string
}

func (e *InvalidOutputSelectionError) Error() string {
	return fmt.Sprintf("invalid output '%s' (expected one of: %s)", e.Name, strings.Join(e.Allowed, ", "))
}

// Pipeline holds the renderers of one command; the first one is the default.
// Exactly one renderer is active while Run executes.
type Pipeline struct {
	renderers []Renderer
	selected  string
	active    Renderer
}

func NewPipeline(renderers ...Renderer) *Pipeline {
	p := &Pipeline{renderers: renderers}
	if len(renderers) > 0 {
		p.selected = renderers[0].Name()
	}
	return p
}

// Names returns the selectable renderer names, default first.
func (p *Pipeline) Names() []string {
	out := make([]string, 0, len(p.renderers))
	for _, r := range p.renderers {
		out = append(out, r.Name())
	}
	return out
}

// BindFlags registers -o/--output and the flags of every renderer.
func (p *Pipeline) BindFlags(fs *pflag.FlagSet) {
	names := p.Names()
	fs.StringVarP(&p.selected, "output", "o", p.selected, "output format, one of: "+strings.Join(names, ", "))
	for _, r := range p.renderers {
		r.BindFlags(fs)
	}
}

// Selected returns the renderer chosen with -o.
func (p *Pipeline) Selected() (Renderer, error) {
	for _, r := range p.renderers {
		if r.Name() == p.selected {
			return r, nil
		}
	}
	return nil, &InvalidOutputSelectionError{Name: p.selected, Allowed: p.Names()}
}

// Active returns the renderer of the running invocation, nil outside Run.
func (p *Pipeline) Active() Renderer { return p.active }

// Run checks the output selection, then calls fn and renders its result with
// the selected renderer. fn is never called when the selection is invalid.
func (p *Pipeline) Run(w io.Writer, rc RenderContext, fn func() (any, error)) error {
	r, err := p.Selected()
	if err != nil {
		return err
	}
	p.active = r
	defer func() { p.active = nil }()

	result, err := fn()
	if err != nil {
		return err
	}
	return r.Render(w, result, rc)
}
