package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/camundactl/camundactl/internal/openapi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type schemaOptions struct {
	Format  string
	Example bool
	Seed    int64
}

func newSchemaCmd(a *app) *cobra.Command {
	var opts schemaOptions
	cmd := &cobra.Command{
		Use:   "schema [NAME]",
		Short: "Print a request schema, or an example payload for it",
		Long: "Print a schema component of the OpenAPI spec.\n\n" +
			"Without NAME all schema names are listed. With --example a fake\n" +
			"payload is generated that can be edited and passed to apply.",
		Example: "  camundactl schema TaskDto\n" +
			"  camundactl schema TaskDto --example > task.yaml",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var out []string
			for _, name := range schemaNames(a.doc.Spec) {
				if strings.HasPrefix(name, toComplete) {
					out = append(out, name)
				}
			}
			return out, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "yaml" && opts.Format != "json" {
				return fmt.Errorf("invalid --format %q, one of: yaml, json", opts.Format)
			}
			if len(args) == 0 {
				for _, name := range schemaNames(a.doc.Spec) {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			var v any
			if opts.Example {
				seed := opts.Seed
				if seed == 0 {
					seed = time.Now().UnixNano()
				}
				example, err := openapi.NewExampleGenerator(a.doc.Spec, seed).Generate(args[0])
				if err != nil {
					return err
				}
				v = example
			} else {
				raw, err := rawSchema(a.doc, args[0])
				if err != nil {
					return err
				}
				v = raw
			}
			return writeFormatted(cmd.OutOrStdout(), opts.Format, v)
		},
	}
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "yaml", "output format, one of: yaml, json")
	cmd.Flags().BoolVar(&opts.Example, "example", false, "print a generated example payload instead of the schema")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "seed for --example, 0 picks a random one")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"yaml", "json"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func schemaNames(spec *openapi.Spec) []string {
	names := make([]string, 0, len(spec.Components.Schemas))
	for name := range spec.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// rawSchema returns the component exactly as written in the document,
// including keywords the typed model does not keep.
func rawSchema(doc *openapi.Document, name string) (any, error) {
	var raw struct {
		Components struct {
			Schemas map[string]any `json:"schemas"`
		} `json:"components"`
	}
	if err := json.Unmarshal(doc.Raw(), &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", doc.Filename, err)
	}
	s, ok := raw.Components.Schemas[name]
	if !ok {
		return nil, fmt.Errorf("schema %q not found in %s", name, doc.Filename)
	}
	return s, nil
}

func writeFormatted(w io.Writer, format string, v any) error {
	if format == "json" {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
