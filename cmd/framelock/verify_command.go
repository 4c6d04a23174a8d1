package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"framelock/internal/audit"
	"framelock/internal/render"
	"framelock/internal/renderspec"
)

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var strict bool
	var profile string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check render determinism with the built-in canary timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline, cfg, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			if _, _, err := renderspec.ResolveProfile(profile); err != nil {
				return err
			}

			baseDir, err := os.MkdirTemp(cfg.Paths.WorkDir, "verify-")
			if err != nil {
				return fmt.Errorf("create verify directory: %w", err)
			}
			manifestPath, planPath, err := writeCanaryInputs(baseDir, profile)
			if err != nil {
				return err
			}

			engine := audit.NewEngine(pipeline, ctx.ensureLogger())
			result, err := engine.AuditRender(cmd.Context(), render.Request{
				ManifestPath: manifestPath,
				PlanPath:     planPath,
			}, baseDir, strict)
			if err != nil {
				return err
			}
			return writeJSON(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat a determinism mismatch as fatal")
	cmd.Flags().StringVar(&profile, "profile", renderspec.DefaultProfile, "Quality profile for the canary render")
	return cmd
}

// writeCanaryInputs materializes the built-in check timeline: five 2000ms
// shots, no assets, no voice-over. A correct build renders it to identical
// bytes every time.
func writeCanaryInputs(dir, profile string) (string, string, error) {
	shots := make([]map[string]any, 5)
	for i := range shots {
		shots[i] = map[string]any{
			"shot_id":     fmt.Sprintf("canary-%d", i+1),
			"duration_ms": 2000,
		}
	}
	manifest := map[string]any{
		"schema_version":   "1",
		"manifest_id":      "canary-manifest",
		"project_id":       "canary",
		"timing_lock_hash": "canary-lock",
		"shots":            shots,
	}
	plan := map[string]any{
		"schema_version":   "1",
		"plan_id":          "canary-plan",
		"project_id":       "canary",
		"profile":          profile,
		"timing_lock_hash": "canary-lock",
	}

	manifestPath := filepath.Join(dir, "canary_manifest.json")
	planPath := filepath.Join(dir, "canary_plan.json")
	if err := writeJSONFile(manifestPath, manifest); err != nil {
		return "", "", err
	}
	if err := writeJSONFile(planPath, plan); err != nil {
		return "", "", err
	}
	return manifestPath, planPath, nil
}

func writeJSONFile(path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, data, 0o644)
}
