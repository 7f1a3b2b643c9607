package cligen

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/camundactl/camundactl/internal/openapi"
	"github.com/spf13/cobra"
)

type ParamType int

const (
	TypeString ParamType = iota
	TypeInt
	TypeBool
)

func (t ParamType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	default:
		return "string"
	}
}

// CompletionFunc returns suggestions for a partially typed value.
type CompletionFunc func(ctx context.Context, partial string) []string

// OptionDescriptor describes one query parameter flag.
type OptionDescriptor struct {
	Name string
	Help string
	// Multiple makes the flag repeatable. It is set for every string
	// parameter, list or not.
	Multiple   bool
	Type       ParamType
	Completion CompletionFunc
}

// ArgumentDescriptor describes one positional path argument.
type ArgumentDescriptor struct {
	Name       string
	Help       string
	Completion CompletionFunc
}

// QueryOptions derives one option per query parameter of op, in source
// order. Parameter references are resolved against spec; unresolvable ones
// are skipped.
func QueryOptions(spec *openapi.Spec, op *openapi.Operation, completions map[string]CompletionFunc) []OptionDescriptor {
	var out []OptionDescriptor
	for _, p := range parameters(spec, op, "query") {
		opt := OptionDescriptor{
			Name:       p.Name,
			Help:       p.Description,
			Completion: completions[p.Name],
		}
		switch paramSchemaType(spec, p) {
		case "string":
			opt.Type = TypeString
			opt.Multiple = true
		case "integer":
			opt.Type = TypeInt
		case "boolean":
			opt.Type = TypeBool
		default:
			opt.Type = TypeString
		}
		out = append(out, opt)
	}
	return out
}

// PathArguments derives one argument per path parameter of op. The order is
// the order of the parameter list, which is the positional order on the
// command line.
func PathArguments(spec *openapi.Spec, op *openapi.Operation, completions map[string]CompletionFunc) []ArgumentDescriptor {
	var out []ArgumentDescriptor
	for _, p := range parameters(spec, op, "path") {
		out = append(out, ArgumentDescriptor{
			Name:       p.Name,
			Help:       p.Description,
			Completion: completions[p.Name],
		})
	}
	return out
}

func parameters(spec *openapi.Spec, op *openapi.Operation, in string) []openapi.Parameter {
	if op == nil {
		return nil
	}
	var out []openapi.Parameter
	for _, p := range op.Parameters {
		if spec != nil {
			resolved, ok := spec.ResolveParameter(p)
			if !ok {
				continue
			}
			p = resolved
		}
		if p.Name == "" || !strings.EqualFold(p.In, in) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func paramSchemaType(spec *openapi.Spec, p openapi.Parameter) string {
	s := p.Schema
	if spec != nil {
		s = spec.DerefSchema(s)
	}
	if s == nil {
		return ""
	}
	return strings.ToLower(s.Type)
}

// optionBinding ties an OptionDescriptor to its cobra flag.
type optionBinding struct {
	opt       OptionDescriptor
	flagNames []string

	s  *string
	i  *int
	b  *bool
	sa *[]string
}

// bindOptions registers one flag per option. The primary flag name is
// kebab-case; the raw parameter name is kept as a hidden alias.
func bindOptions(cmd *cobra.Command, opts []OptionDescriptor) []*optionBinding {
	var out []*optionBinding
	for _, opt := range opts {
		primary := flagName(opt.Name)
		if cmd.Flags().Lookup(primary) != nil {
			primary = "query-" + primary
		}
		names := []string{primary}
		if opt.Name != primary && cmd.Flags().Lookup(opt.Name) == nil {
			names = append(names, opt.Name)
		}

		b := &optionBinding{
			opt:       opt,
			flagNames: names,
			s:         new(string),
			i:         new(int),
			b:         new(bool),
			sa:        new([]string),
		}
		desc := opt.Help
		if desc == "" {
			desc = fmt.Sprintf("query parameter %q", opt.Name)
		}
		if opt.Multiple {
			desc += " (repeatable)"
		}

		for n, name := range names {
			usage := desc
			if n > 0 {
				usage = "alias for --" + primary
			}
			switch {
			case opt.Multiple:
				cmd.Flags().StringArrayVar(b.sa, name, nil, usage)
			case opt.Type == TypeInt:
				cmd.Flags().IntVar(b.i, name, 0, usage)
			case opt.Type == TypeBool:
				cmd.Flags().BoolVar(b.b, name, false, usage)
			default:
				cmd.Flags().StringVar(b.s, name, "", usage)
			}
			if n > 0 {
				_ = cmd.Flags().MarkHidden(name)
			}
			if opt.Completion != nil {
				_ = cmd.RegisterFlagCompletionFunc(name, flagCompletion(opt.Completion))
			}
		}
		out = append(out, b)
	}
	return out
}

func flagCompletion(fn CompletionFunc) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return fn(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
	}
}

func (b *optionBinding) changed(cmd *cobra.Command) bool {
	for _, n := range b.flagNames {
		if cmd.Flags().Changed(n) {
			return true
		}
	}
	return false
}

func (b *optionBinding) values() []string {
	switch {
	case b.opt.Multiple:
		return append([]string(nil), (*b.sa)...)
	case b.opt.Type == TypeInt:
		return []string{strconv.Itoa(*b.i)}
	case b.opt.Type == TypeBool:
		return []string{strconv.FormatBool(*b.b)}
	default:
		return []string{*b.s}
	}
}

// addTo sets the parameter in q when the user gave the flag.
func (b *optionBinding) addTo(q url.Values, cmd *cobra.Command) {
	if !b.changed(cmd) {
		return
	}
	for _, v := range b.values() {
		q.Add(b.opt.Name, v)
	}
}

// buildQuery collects the changed option flags and --query-extra pairs.
// Extra pairs replace values of the same name.
func buildQuery(cmd *cobra.Command, bindings []*optionBinding, extra []string) (url.Values, error) {
	q := url.Values{}
	for _, b := range bindings {
		b.addTo(q, cmd)
	}
	for _, pair := range extra {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --query-extra %q (expected NAME=VALUE)", pair)
		}
		q.Set(k, v)
	}
	return q, nil
}
