package cmd

import (
	"context"

	"github.com/camundactl/camundactl/internal/config"
	"github.com/camundactl/camundactl/internal/output"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const offline = "OFFLINE"

func newInfoCmd(a *app) *cobra.Command {
	pipe := output.NewPipeline(
		output.MustNew(output.KindTemplate, output.Options{Templates: a.templates}),
		output.MustNew(output.KindJSON, output.Options{}),
	)
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the configuration and the version of every engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := output.RenderContext{Verb: "info", Command: "info"}
			return pipe.Run(cmd.OutOrStdout(), rc, func() (any, error) {
				engines := make([]any, 0, len(a.cfg.Engines))
				for _, e := range a.cfg.Engines {
					engines = append(engines, map[string]any{
						"name":    e.Name,
						"url":     e.URL,
						"verify":  e.Verify,
						"version": a.engineVersion(cmd.Context(), e),
					})
				}
				return map[string]any{
					"config_file":    a.configPath,
					"spec_version":   a.doc.Version,
					"current_engine": a.cfg.CurrentEngine,
					"engines":        engines,
				}, nil
			})
		},
	}
	pipe.BindFlags(cmd.Flags())
	return cmd
}

// engineVersion asks the engine for its version, OFFLINE on any failure.
func (a *app) engineVersion(ctx context.Context, e config.Engine) string {
	client, err := a.engineClient(e)
	if err != nil {
		a.log.Warn("engine client", zap.String("engine", e.Name), zap.Error(err))
		return offline
	}
	v, err := getJSON(ctx, client, "/version", nil)
	if err != nil {
		a.log.Info("engine unreachable", zap.String("engine", e.Name), zap.Error(err))
		return offline
	}
	obj, _ := v.(map[string]any)
	version, ok := obj["version"].(string)
	if !ok || version == "" {
		return offline
	}
	return version
}
