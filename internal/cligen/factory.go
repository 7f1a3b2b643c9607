package cligen

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/camundactl/camundactl/internal/enginehttp"
	"github.com/camundactl/camundactl/internal/openapi"
	"github.com/camundactl/camundactl/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Class is the command group an operation is registered under.
type Class string

const (
	ClassGet    Class = "get"
	ClassDelete Class = "delete"
	ClassApply  Class = "apply"
)

// Entry is the framework independent description of one generated command.
// Entries are built from the index without I/O and never change afterwards.
type Entry struct {
	Name        string
	OperationID string
	Verb        string // lowercase HTTP method
	Path        string
	Summary     string
	Help        string

	Options []OptionDescriptor
	Args    []ArgumentDescriptor
	// Outputs lists the renderer kinds, default first.
	Outputs []output.Kind
	// DefaultTemplate is the template used when no template file matches.
	DefaultTemplate string

	SchemaName   string
	BodyRequired bool
	Class        Class
}

// ArgNames returns the positional argument names in order.
func (e Entry) ArgNames() []string {
	out := make([]string, 0, len(e.Args))
	for _, a := range e.Args {
		out = append(out, a.Name)
	}
	return out
}

type FactoryOptions struct {
	Index *openapi.Index
	// Validator checks apply payloads. Nil disables validation.
	Validator *openapi.Validator
	Client    ClientSource
	Templates *output.TemplateLoader
	Logger    *zap.Logger
	// Prefixes are stripped from operation ids. Nil means DefaultPrefixes.
	Prefixes []string
	// Aliases maps alias -> command name.
	Aliases map[string]string
}

// Factory turns indexed operations into cobra commands.
type Factory struct {
	index     *openapi.Index
	validator *openapi.Validator
	client    ClientSource
	templates *output.TemplateLoader
	log       *zap.Logger
	prefixes  []string
	aliases   map[string]string
	completer *Completer
}

func NewFactory(opts FactoryOptions) (*Factory, error) {
	if opts.Index == nil {
		return nil, errors.New("command factory needs an operation index")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	client := opts.Client
	if client == nil {
		client = func() (Doer, error) { return nil, errors.New("no engine client configured") }
	}
	prefixes := opts.Prefixes
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	templates := opts.Templates
	if templates == nil {
		templates = output.NewTemplateLoader()
	}
	return &Factory{
		index:     opts.Index,
		validator: opts.Validator,
		client:    client,
		templates: templates,
		log:       log.Named("cligen"),
		prefixes:  prefixes,
		aliases:   opts.Aliases,
		completer: NewCompleter(client, log),
	}, nil
}

// GetEntry describes the read command of a GET operation.
func (f *Factory) GetEntry(operationID string) (Entry, error) {
	e, err := f.entry(operationID, ClassGet, http.MethodGet)
	if err != nil {
		return Entry{}, err
	}
	e.Outputs = f.readOutputs(operationID)
	e.DefaultTemplate = output.DefaultReadTemplate
	return e, nil
}

// DeleteEntry describes the command of a DELETE operation. Its only output
// is an acknowledgement template.
func (f *Factory) DeleteEntry(operationID string) (Entry, error) {
	e, err := f.entry(operationID, ClassDelete, http.MethodDelete)
	if err != nil {
		return Entry{}, err
	}
	e.Outputs = []output.Kind{output.KindTemplate}
	e.DefaultTemplate = ackTemplate("deleted")
	return e, nil
}

// ApplyEntry describes the write command of a PUT or POST operation.
// Operations answering 200 with JSON get the read outputs; the others print
// an acknowledgement.
func (f *Factory) ApplyEntry(operationID, method string) (Entry, error) {
	method = strings.ToUpper(method)
	if method != http.MethodPut && method != http.MethodPost {
		return Entry{}, fmt.Errorf("apply commands support PUT and POST, not %s", method)
	}
	e, err := f.entry(operationID, ClassApply, method)
	if err != nil {
		return Entry{}, err
	}
	if f.index.ResponseSchema(operationID, "200") != nil {
		e.Outputs = f.readOutputs(operationID)
		e.DefaultTemplate = output.DefaultReadTemplate
	} else {
		e.Outputs = []output.Kind{output.KindTemplate}
		e.DefaultTemplate = ackTemplate("applied")
	}
	return e, nil
}

func (f *Factory) entry(operationID string, class Class, method string) (Entry, error) {
	ref, err := f.index.Lookup(operationID)
	if err != nil {
		return Entry{}, err
	}
	if !strings.EqualFold(ref.Verb, method) {
		return Entry{}, fmt.Errorf("%s is %s, not %s: %w", operationID, ref, method, &openapi.OperationNotFoundError{OperationID: operationID})
	}
	schemaName, _, err := f.index.SchemaName(operationID)
	if err != nil {
		return Entry{}, err
	}

	spec := f.index.Spec()
	op := ref.Operation
	args := PathArguments(spec, op, f.completer.ArgCompletions(ref.Path))
	placeholders := extractPathParams(ref.Path)
	for _, a := range args {
		if !contains(placeholders, a.Name) {
			return Entry{}, fmt.Errorf("operation %q: path parameter %q has no placeholder in %s", operationID, a.Name, ref.Path)
		}
	}

	e := Entry{
		Name:        ToCommandName(operationID, f.prefixes),
		OperationID: operationID,
		Verb:        strings.ToLower(method),
		Path:        ref.Path,
		Summary:     shortHelp(op),
		Help:        helpText(op.Summary, op.Description, ref.Path, schemaName),
		Options:     QueryOptions(spec, op, f.completer.OptionCompletions(spec, op)),
		Args:        args,
		SchemaName:  schemaName,
		Class:       class,
	}
	if op.RequestBody != nil {
		e.BodyRequired = op.RequestBody.Required
	}
	return e, nil
}

// readOutputs orders the read renderers: lists default to the table,
// objects to the object table. Unknown shapes are treated as lists.
func (f *Factory) readOutputs(operationID string) []output.Kind {
	first := output.KindTable
	schema := f.index.Spec().FlattenSchema(f.index.ResponseSchema(operationID, "200"))
	if schema != nil && schema.Type == "object" {
		first = output.KindObjectTable
	}
	return []output.Kind{first, output.KindJSON, output.KindJSONPath, output.KindTemplate, output.KindRaw}
}

func ackTemplate(action string) string {
	return "{{ command }}{% for a in args %} {{ a }}{% endfor %} " + action
}

// helpText lays out the long help: summary, description, URL and schema.
func helpText(summary, description, path, schemaName string) string {
	var lines []string
	if s := strings.TrimSpace(summary); s != "" {
		lines = append(lines, s)
	}
	if schemaName == "" {
		schemaName = "-"
	}
	lines = append(lines, strings.TrimSpace(description), "", "URL: "+path, "", "Schema: "+schemaName)
	return strings.Join(lines, "\n")
}

func (f *Factory) CreateGetCommand(operationID string) (*cobra.Command, error) {
	e, err := f.GetEntry(operationID)
	if err != nil {
		return nil, err
	}
	return f.materialize(e)
}

func (f *Factory) CreateDeleteCommand(operationID string) (*cobra.Command, error) {
	e, err := f.DeleteEntry(operationID)
	if err != nil {
		return nil, err
	}
	return f.materialize(e)
}

func (f *Factory) CreateApplyCommand(operationID, method string) (*cobra.Command, error) {
	e, err := f.ApplyEntry(operationID, method)
	if err != nil {
		return nil, err
	}
	return f.materialize(e)
}

// materialize builds the cobra command for e.
func (f *Factory) materialize(e Entry) (*cobra.Command, error) {
	renderers := make([]output.Renderer, 0, len(e.Outputs))
	for _, kind := range e.Outputs {
		r, err := output.New(kind, output.Options{Template: e.DefaultTemplate, Templates: f.templates})
		if err != nil {
			return nil, fmt.Errorf("operation %q: %w", e.OperationID, err)
		}
		renderers = append(renderers, r)
	}
	pipe := output.NewPipeline(renderers...)

	use := e.Name
	for _, a := range e.Args {
		use += " <" + a.Name + ">"
	}
	short := e.Summary
	if short == "" {
		short = strings.ToUpper(e.Verb) + " " + e.Path
	}

	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		Long:          e.Help,
		Args:          cobra.ExactArgs(len(e.Args)),
		Annotations:   map[string]string{"operationId": e.OperationID},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pipe.BindFlags(cmd.Flags())
	bindings := bindOptions(cmd, e.Options)
	extra := cmd.Flags().StringArray("query-extra", nil, "extra query parameter not listed in the OpenAPI spec, NAME=VALUE (repeatable)")

	var body *bodyFlags
	if e.Class == ClassApply {
		body = bindBodyFlags(cmd)
	}

	argNames := e.ArgNames()
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= len(e.Args) || e.Args[len(args)].Completion == nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return e.Args[len(args)].Completion(cmd.Context(), toComplete), cobra.ShellCompDirectiveNoFileComp
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		rc := output.RenderContext{
			OperationID: e.OperationID,
			Verb:        e.Verb,
			Command:     cmd.Name(),
			Args:        args,
		}
		if cmd.HasParent() {
			rc.Parent = cmd.Parent().Name()
		}
		return pipe.Run(cmd.OutOrStdout(), rc, func() (any, error) {
			path, err := expandPath(e.Path, argNames, args)
			if err != nil {
				return nil, err
			}
			query, err := buildQuery(cmd, bindings, *extra)
			if err != nil {
				return nil, err
			}
			req := enginehttp.Request{Method: strings.ToUpper(e.Verb), Path: path, Query: query}
			if body != nil {
				if err := f.prepareBody(cmd, e, body, &req); err != nil {
					return nil, err
				}
			}
			return f.send(cmd, e, req)
		})
	}
	return cmd, nil
}

// prepareBody loads, validates and encodes the apply payload. A payload
// that fails validation is never sent.
func (f *Factory) prepareBody(cmd *cobra.Command, e Entry, body *bodyFlags, req *enginehttp.Request) error {
	req.Header = http.Header{"Content-Type": {"application/json"}}

	payload, ok, err := body.load(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if !ok {
		if e.BodyRequired {
			return errors.New("request body required; provide --yaml or --json")
		}
		return nil
	}
	if !*body.skipValidation && e.SchemaName != "" && f.validator != nil {
		if err := f.validator.Validate(e.SchemaName, payload); err != nil {
			return err
		}
	}
	req.Body, err = encodeBody(payload)
	return err
}

func (f *Factory) send(cmd *cobra.Command, e Entry, req enginehttp.Request) (any, error) {
	client, err := f.client()
	if err != nil {
		return nil, err
	}
	f.log.Debug("invoking operation", zap.String("operation_id", e.OperationID), zap.String("method", req.Method), zap.String("path", req.Path))

	res, err := client.Do(cmd.Context(), req)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		if e.Class == ClassApply {
			_ = output.NewErrorPrinter(cmd.ErrOrStderr()).PrintBody(res.Body)
		}
		return nil, err
	}

	switch {
	case e.Class == ClassDelete:
		return nil, nil
	case res.IsJSON():
		v, err := res.JSON()
		if err != nil || v == nil {
			return nil, err
		}
		return &output.Document{Value: v, Keys: res.KeyOrder(), Raw: res.Body}, nil
	case e.Class == ClassApply || len(res.Body) == 0:
		return nil, nil
	default:
		return res.Body, nil
	}
}

// shortHelp is the summary, else the first line of the description.
func shortHelp(op *openapi.Operation) string {
	if s := strings.TrimSpace(op.Summary); s != "" {
		return s
	}
	line, _, _ := strings.Cut(strings.TrimSpace(op.Description), "\n")
	return strings.TrimSpace(line)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// aliasesFor returns the configured aliases of a command name.
func (f *Factory) aliasesFor(name string) []string {
	var out []string
	for alias, target := range f.aliases {
		if target == name && alias != name {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}
