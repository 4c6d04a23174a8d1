package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"framelock/internal/audit"
	"framelock/internal/render"
)

func newAuditRenderCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var planPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "audit-render",
		Short: "Render the same inputs twice and diff the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, cfg, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			baseDir, err := os.MkdirTemp(cfg.Paths.WorkDir, "audit-")
			if err != nil {
				return fmt.Errorf("create audit directory: %w", err)
			}

			req := render.Request{
				ManifestPath: manifestPath,
				PlanPath:     planPath,
				DryRun:       dryRun,
			}
			engine := audit.NewEngine(pipeline, ctx.ensureLogger())

			var result *audit.Result
			if dryRun {
				result, err = engine.AuditDryRun(cmd.Context(), req, baseDir)
			} else {
				result, err = engine.AuditRender(cmd.Context(), req, baseDir, true)
			}
			if err != nil {
				if result != nil {
					_ = writeJSON(cmd, result)
				}
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to the asset manifest (required)")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the render plan (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Audit compilation only (two dry runs)")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
