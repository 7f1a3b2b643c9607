package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"
)

// Kind tags one renderer variant.
type Kind int

const (
	KindTable Kind = iota
	KindObjectTable
	KindJSON
	KindJSONPath
	KindTemplate
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindTable:
		return "table"
	case KindObjectTable:
		return "object-table"
	case KindJSON:
		return "json"
	case KindJSONPath:
		return "jsonpath"
	case KindTemplate:
		return "template"
	case KindRaw:
		return "raw"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// RenderContext describes the invocation a result belongs to. Template
// lookups use it to find per-command templates.
type RenderContext struct {
	OperationID string
	Verb        string // get, delete, apply, describe, ...
	Parent      string // name of the parent command
	Command     string
	Args        []string
}

// Renderer writes a command result in one output format. A renderer owns the
// flags it registers in BindFlags and reads them back during Render.
type Renderer interface {
	// Name is the value selecting the renderer with -o/--output.
	Name() string
	Kind() Kind
	BindFlags(fs *pflag.FlagSet)
	Render(w io.Writer, result any, rc RenderContext) error
}

// Options configures renderers created with New. Unused fields are ignored by
// kinds that do not need them.
type Options struct {
	// Headers are the default table columns. Empty means the keys of the
	// first row.
	Headers []string
	// Blacklist names keys never shown as table columns or object rows.
	// Nil means DefaultBlacklist.
	Blacklist []string
	CellLimit int

	// Template is the built-in template used when no template file matches.
	Template  string
	Templates *TemplateLoader
}

// DefaultBlacklist hides hypermedia links the engine adds to most resources.
var DefaultBlacklist = []string{"links"}

const DefaultCellLimit = 40

// New returns a renderer of the given kind.
func New(kind Kind, opts Options) (Renderer, error) {
	if opts.Blacklist == nil {
		opts.Blacklist = DefaultBlacklist
	}
	if opts.CellLimit == 0 {
		opts.CellLimit = DefaultCellLimit
	}
	switch kind {
	case KindTable:
		return &tableRenderer{opts: opts}, nil
	case KindObjectTable:
		return &objectTableRenderer{table: tableRenderer{opts: opts}}, nil
	case KindJSON:
		return &jsonRenderer{indent: "  "}, nil
	case KindJSONPath:
		return &jsonPathRenderer{}, nil
	case KindTemplate:
		loader := opts.Templates
		if loader == nil {
			loader = NewTemplateLoader()
		}
		return &templateRenderer{defaultTemplate: opts.Template, loader: loader}, nil
	case KindRaw:
		return &rawRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer kind %s", kind)
	}
}

// MustNew is New for kinds known at compile time.
func MustNew(kind Kind, opts Options) Renderer {
	r, err := New(kind, opts)
	if err != nil {
		panic(err)
	}
	return r
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
