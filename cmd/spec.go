package cmd

import (
	"fmt"
	"strings"

	"github.com/camundactl/camundactl/internal/cligen"
	"github.com/camundactl/camundactl/internal/openapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSpecCmd(a *app) *cobra.Command {
	specCmd := &cobra.Command{
		Use:           "spec",
		Short:         "OpenAPI spec utilities (for maintainers)",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	specCmd.AddCommand(newSpecListCmd(a))
	specCmd.AddCommand(newSpecVerifyCmd(a))

	return specCmd
}

func newSpecListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List embedded OpenAPI specs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, err := openapi.Versions()
			if err != nil {
				return err
			}
			for _, v := range versions {
				doc, err := openapi.Load(v)
				if err != nil {
					return err
				}
				ops := 0
				for _, item := range doc.Spec.Paths {
					ops += len(item.Operations())
				}
				marker := ""
				if v == a.doc.Version {
					marker = "\t*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tengine=%s\tops=%d%s\n", v, doc.Filename, doc.Spec.Info.Version, ops, marker)
			}
			return nil
		},
	}
}

func newSpecVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:               "verify [VERSION...]",
		Short:             "Verify embedded OpenAPI specs are valid and generate unique commands",
		SilenceUsage:      true,
		SilenceErrors:     true,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			versions, _ := openapi.Versions()
			return versions, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			versions := args
			if len(versions) == 0 {
				all, err := openapi.Versions()
				if err != nil {
					return err
				}
				versions = all
			}
			var failed []string
			for _, v := range versions {
				if err := verifySpec(v, a.log); err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\tFAILED: %v\n", v, err)
					failed = append(failed, v)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tok\n", v)
			}
			if len(failed) > 0 {
				return fmt.Errorf("spec verification failed for: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

// verifySpec loads one embedded document, validates it and builds every
// generated command group into a throwaway tree.
func verifySpec(version string, log *zap.Logger) error {
	doc, err := openapi.Load(version)
	if err != nil {
		return err
	}
	index, err := openapi.NewIndex(doc.Spec)
	if err != nil {
		return err
	}
	validator, err := openapi.NewValidator(doc)
	if err != nil {
		return err
	}
	if err := validator.Verify(); err != nil {
		return fmt.Errorf("validate %s: %w", doc.Filename, err)
	}
	factory, err := cligen.NewFactory(cligen.FactoryOptions{
		Index:     index,
		Validator: validator,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	root := &cobra.Command{Use: "verify-root"}
	for name, build := range map[string]func(*cobra.Command) error{
		"get":    factory.CreateGetCommands,
		"delete": factory.CreateDeleteCommands,
		"apply":  factory.CreateApplyCommands,
	} {
		group := &cobra.Command{Use: name}
		if err := build(group); err != nil {
			return fmt.Errorf("%s commands: %w", name, err)
		}
		root.AddCommand(group)
	}
	return nil
}
