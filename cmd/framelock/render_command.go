package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framelock/internal/config"
	"framelock/internal/ledger"
	"framelock/internal/logging"
	"framelock/internal/render"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var manifestPath string
	var planPath string
	var outDir string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a manifest into a deterministic video",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, cfg, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), render.Request{
				ManifestPath: manifestPath,
				PlanPath:     planPath,
				OutDir:       outDir,
				DryRun:       dryRun,
			})
			if err != nil {
				return err
			}

			if cfg.Ledger.Enabled {
				if err := recordRun(cmd, ctx, cfg, result, dryRun); err != nil {
					return err
				}
			}
			return writeJSON(cmd, result.Record)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to the asset manifest (required)")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the render plan (required)")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "Directory for rendered artifacts")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compile and record without encoding")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}

// recordRun persists the render in the ledger. Prior entries with the same
// inputs digest are checked first: a hash mismatch against an earlier full
// run of identical inputs is a determinism signal worth surfacing.
func recordRun(cmd *cobra.Command, ctx *commandContext, cfg *config.Config, result *render.Result, dryRun bool) error {
	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	if !dryRun {
		prior, err := store.FindByInputsDigest(cmd.Context(), result.Record.InputsDigest)
		if err != nil {
			return fmt.Errorf("ledger lookup: %w", err)
		}
		for _, entry := range prior {
			if entry.DryRun || entry.OutputSHA256 == "" {
				continue
			}
			if entry.OutputSHA256 != result.Record.OutputSHA256 {
				ctx.ensureLogger().Warn("output differs from prior render of identical inputs",
					logging.String("inputs_digest", result.Record.InputsDigest),
					logging.Int64("prior_entry", entry.ID),
					logging.String("prior_output_sha256", entry.OutputSHA256),
					logging.String("output_sha256", result.Record.OutputSHA256))
			}
			break
		}
	}

	if _, err := store.Record(cmd.Context(), result.Record, dryRun); err != nil {
		return fmt.Errorf("record render: %w", err)
	}
	return nil
}
