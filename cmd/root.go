package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/camundactl/camundactl/internal/cligen"
	"github.com/camundactl/camundactl/internal/config"
	"github.com/camundactl/camundactl/internal/enginehttp"
	"github.com/camundactl/camundactl/internal/logging"
	"github.com/camundactl/camundactl/internal/openapi"
	"github.com/camundactl/camundactl/internal/output"
	"github.com/camundactl/camundactl/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	Engine    string
	LogLevel  string
	Timeout   time.Duration
	Traceback bool
}

// app holds everything built once at startup. Fields are set in the order
// config, logger, spec document, index, validator, factory.
type app struct {
	opts rootOptions

	configPath string
	cfg        *config.Config

	log      *zap.Logger
	logLevel zap.AtomicLevel

	doc       *openapi.Document
	index     *openapi.Index
	validator *openapi.Validator
	templates *output.TemplateLoader

	client cligen.ClientSource
}

func newApp() (*app, error) {
	a := &app{opts: rootOptions{Timeout: 30 * time.Second}}

	path, err := config.Path()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	a.configPath, a.cfg = path, cfg

	log, level, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	a.log, a.logLevel = log, level

	doc, err := openapi.Load(cfg.SpecVersion)
	if err != nil {
		return nil, err
	}
	index, err := openapi.NewIndex(doc.Spec)
	if err != nil {
		return nil, fmt.Errorf("OpenAPI spec %s: %w", doc.Filename, err)
	}
	validator, err := openapi.NewValidator(doc)
	if err != nil {
		return nil, err
	}
	a.doc, a.index, a.validator = doc, index, validator
	a.templates = output.DefaultTemplateLoader(builtinTemplates, cfg.Template.ExtraPaths)
	a.client = cligen.LazyClient(a.newClient)

	log.Debug("startup complete",
		zap.String("config", path),
		zap.String("spec", doc.Filename),
		zap.Int("operations", len(index.OperationIDs())),
	)
	return a, nil
}

// newClient connects to the engine named by --engine, else the current one.
func (a *app) newClient() (cligen.Doer, error) {
	engine, err := a.cfg.Selected(a.opts.Engine)
	if err != nil {
		return nil, err
	}
	c, err := a.engineClient(engine)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) engineClient(engine config.Engine) (*enginehttp.Client, error) {
	opts := enginehttp.ClientOptions{
		BaseURL:   engine.URL,
		Verify:    engine.Verify,
		Timeout:   a.opts.Timeout,
		UserAgent: version.UserAgent(),
		Logger:    a.log.With(zap.String("engine", engine.Name)),
	}
	if engine.Auth != nil {
		opts.User = engine.Auth.User
		opts.Password = engine.Auth.Password
	}
	return enginehttp.NewClient(opts)
}

func (a *app) saveConfig() error {
	return config.Save(a.configPath, a.cfg)
}

func (a *app) completeEngineNames(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, name := range a.cfg.EngineNames() {
		if strings.HasPrefix(name, toComplete) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

func NewRootCmd() (*cobra.Command, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:   "camundactl",
		Short: "Command line client for the Camunda 7 engine REST API",
		Long: "Command line client for the Camunda 7 engine REST API.\n\n" +
			"The get, delete and apply commands are generated from the engine's OpenAPI spec.\n\n" +
			"Getting started:\n" +
			"  camundactl config add-engine local http://localhost:8080/engine-rest --select\n" +
			"  camundactl get processInstances\n\n" +
			"Examples:\n" +
			"  camundactl get task <id> -o json\n" +
			"  camundactl get tasks --assignee demo --output-header id,name\n" +
			"  camundactl apply task <id> -y task.yaml\n" +
			"  camundactl describe processInstance <id>\n",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("log-level") {
				lvl, err := logging.ParseLevel(a.opts.LogLevel)
				if err != nil {
					return err
				}
				a.logLevel.SetLevel(lvl)
			}
			if a.opts.Engine != "" {
				if _, err := a.cfg.Engine(a.opts.Engine); err != nil {
					return err
				}
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.opts.Engine, "engine", "e", "", "engine to use instead of the current one")
	root.PersistentFlags().StringVarP(&a.opts.LogLevel, "log-level", "l", a.cfg.LogLevel, "log level, one of: "+strings.Join(logging.Levels, ", "))
	root.PersistentFlags().DurationVar(&a.opts.Timeout, "timeout", a.opts.Timeout, "HTTP timeout for engine requests")
	root.PersistentFlags().BoolVar(&a.opts.Traceback, "traceback", false, "print every layer of a failure")
	_ = root.RegisterFlagCompletionFunc("engine", a.completeEngineNames)
	_ = root.RegisterFlagCompletionFunc("log-level", cobra.FixedCompletions(logging.Levels, cobra.ShellCompDirectiveNoFileComp))

	root.SetVersionTemplate("{{.Version}}\n")
	root.Version = version.Version()

	factory, err := cligen.NewFactory(cligen.FactoryOptions{
		Index:     a.index,
		Validator: a.validator,
		Client:    a.client,
		Templates: a.templates,
		Logger:    a.log,
		Aliases:   a.cfg.Alias,
	})
	if err != nil {
		return nil, err
	}

	get := newGroupCmd("get", "Read resources from the engine")
	if err := factory.CreateGetCommands(get); err != nil {
		return nil, err
	}
	del := newGroupCmd("delete", "Delete resources")
	if err := factory.CreateDeleteCommands(del); err != nil {
		return nil, err
	}
	apply := newGroupCmd("apply", "Create or update resources from a YAML or JSON payload")
	if err := factory.CreateApplyCommands(apply); err != nil {
		return nil, err
	}

	root.AddCommand(get, del, apply)
	root.AddCommand(newDescribeCmd(a))
	root.AddCommand(newConfigCmd(a))
	root.AddCommand(newSchemaCmd(a))
	root.AddCommand(newSpecCmd(a))
	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newVersionCmd())

	return root, nil
}

func newGroupCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:           use,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
}
