package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/camundactl/camundactl/internal/config"
	"github.com/camundactl/camundactl/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:           "config",
		Short:         "Manage engines and aliases in the config file",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	configCmd.AddCommand(newConfigGetEnginesCmd(a))
	configCmd.AddCommand(newConfigAddEngineCmd(a))
	configCmd.AddCommand(newConfigRemoveEngineCmd(a))
	configCmd.AddCommand(newConfigUseEngineCmd(a))
	configCmd.AddCommand(newConfigGetAliasCmd(a))
	configCmd.AddCommand(newConfigAddAliasCmd(a))
	configCmd.AddCommand(newConfigRemoveAliasCmd(a))
	configCmd.AddCommand(newConfigEditCmd(a))

	return configCmd
}

func newConfigGetEnginesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-engines",
		Short: "List configured engines, the current one is marked with *",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.cfg.EngineNames()
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no engines configured")
				return nil
			}
			for _, name := range names {
				if name == a.cfg.CurrentEngine {
					name += " *"
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

type addEngineOptions struct {
	User     string
	Password string
	Select   bool
	NoVerify bool
}

func newConfigAddEngineCmd(a *app) *cobra.Command {
	var opts addEngineOptions
	cmd := &cobra.Command{
		Use:   "add-engine NAME URL",
		Short: "Add an engine",
		Example: "  camundactl config add-engine local http://localhost:8080/engine-rest --select\n" +
			"  camundactl config add-engine prod https://camunda.example.com/engine-rest -u demo -p demo",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := config.Engine{
				Name:   args[0],
				URL:    strings.TrimRight(args[1], "/"),
				Verify: !opts.NoVerify,
			}
			if opts.User != "" && opts.Password != "" {
				engine.Auth = &config.Auth{User: opts.User, Password: opts.Password}
			}
			if err := a.cfg.AddEngine(engine, opts.Select); err != nil {
				return err
			}
			if err := a.saveConfig(); err != nil {
				return err
			}
			a.log.Info("engine added", zap.String("name", engine.Name), zap.String("url", engine.URL))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "basic auth user")
	cmd.Flags().StringVarP(&opts.Password, "password", "p", "", "basic auth password")
	cmd.Flags().BoolVarP(&opts.Select, "select", "s", false, "make the new engine the current one")
	cmd.Flags().BoolVar(&opts.NoVerify, "no-verify", false, "skip TLS certificate verification")
	return cmd
}

func newConfigRemoveEngineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "remove-engine NAME",
		Short:             "Remove an engine",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeEngineNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RemoveEngine(args[0]); err != nil {
				return err
			}
			return a.saveConfig()
		},
	}
}

func newConfigUseEngineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "use-engine NAME",
		Short:             "Select the current engine",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: a.completeEngineNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.UseEngine(args[0]); err != nil {
				return err
			}
			if err := a.saveConfig(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "engine %s selected\n", args[0])
			return nil
		},
	}
}

func newConfigGetAliasCmd(a *app) *cobra.Command {
	table := output.MustNew(output.KindTable, output.Options{Headers: []string{"alias", "command"}})
	cmd := &cobra.Command{
		Use:   "get-alias",
		Short: "List command aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			aliases := make([]string, 0, len(a.cfg.Alias))
			for alias := range a.cfg.Alias {
				aliases = append(aliases, alias)
			}
			sort.Strings(aliases)
			rows := make([]any, 0, len(aliases))
			for _, alias := range aliases {
				rows = append(rows, map[string]any{"alias": alias, "command": a.cfg.Alias[alias]})
			}
			return table.Render(cmd.OutOrStdout(), rows, output.RenderContext{Parent: "config", Command: cmd.Name()})
		},
	}
	table.BindFlags(cmd.Flags())
	return cmd
}

func newConfigAddAliasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add-alias COMMAND ALIAS",
		Short:   "Add an alias for a generated command",
		Example: "  camundactl config add-alias processInstances pi",
		Long: "Add an alias for a generated command.\n\n" +
			"The alias applies to the command of that name in every group, so\n" +
			"'add-alias processInstance pi' makes both 'get pi' and 'delete pi' work.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.AddAlias(args[1], args[0]); err != nil {
				return err
			}
			return a.saveConfig()
		},
	}
}

func newConfigRemoveAliasCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "remove-alias ALIAS",
		Short:             "Remove an alias",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var out []string
			for alias := range a.cfg.Alias {
				if strings.HasPrefix(alias, toComplete) {
					out = append(out, alias)
				}
			}
			sort.Strings(out)
			return out, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.RemoveAlias(args[0]); err != nil {
				return err
			}
			return a.saveConfig()
		},
	}
}

func newConfigEditCmd(a *app) *cobra.Command {
	var editor string
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open the config file in an editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := editor
			for _, env := range []string{"VISUAL", "EDITOR"} {
				if name == "" {
					name = os.Getenv(env)
				}
			}
			if name == "" {
				name = "vi"
			}
			// The editor value may carry arguments, e.g. "code --wait".
			fields := strings.Fields(name)
			c := exec.CommandContext(cmd.Context(), fields[0], append(fields[1:], a.configPath)...)
			c.Stdin, c.Stdout, c.Stderr = os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr()
			if err := c.Run(); err != nil {
				return fmt.Errorf("run editor %s: %w", fields[0], err)
			}
			if _, err := config.Load(a.configPath); err != nil {
				return fmt.Errorf("config file is invalid after editing: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&editor, "editor", "", "editor command (default $VISUAL, $EDITOR or vi)")
	return cmd
}
