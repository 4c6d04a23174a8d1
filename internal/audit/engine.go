package audit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"framelock/internal/logging"
	"framelock/internal/render"
	"framelock/internal/services"
)

// Result reports the outcome of a determinism audit.
type Result struct {
	Match      bool     `json:"match"`
	DiffFields []string `json:"diff_fields,omitempty"`
	RunDirs    []string `json:"run_dirs"`
	OutputID   string   `json:"output_id"`
}

// Engine runs paired renders and compares their artifacts. Runs execute
// sequentially in isolated directories so they never share scratch state.
type Engine struct {
	pipeline *render.Pipeline
	logger   *slog.Logger
}

// NewEngine constructs an audit engine over a render pipeline.
func NewEngine(pipeline *render.Pipeline, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Engine{
		pipeline: pipeline,
		logger:   logging.NewComponentLogger(logger, "audit"),
	}
}

// AuditRender performs the same render twice into fresh directories under
// baseDir and diffs the fingerprints field by field, volatile record fields
// skipped. With strict set, a mismatch returns ErrDeterminismMismatch; in
// advisory mode the mismatch is only reported.
func (e *Engine) AuditRender(ctx context.Context, req render.Request, baseDir string, strict bool) (*Result, error) {
	result := &Result{Match: true}

	var fingerprints [2]string
	for i := 0; i < 2; i++ {
		runDir := filepath.Join(baseDir, "audit-"+uuid.NewString())
		runReq := req
		runReq.OutDir = runDir
		run, err := e.pipeline.Verify(ctx, runReq)
		if err != nil {
			return nil, err
		}
		result.RunDirs = append(result.RunDirs, runDir)
		result.OutputID = run.Record.OutputID
		fingerprints[i] = filepath.Join(runDir, render.FingerprintFilename)
		e.logger.Debug("audit run complete",
			logging.Int("run", i+1),
			logging.String("dir", runDir))
	}

	fpDiffs, err := CompareFiles(fingerprints[0], fingerprints[1], nil)
	if err != nil {
		return nil, services.Wrap(services.ErrDeterminismMismatch, "audit", "compare",
			"failed to compare fingerprints", err)
	}
	recDiffs, err := CompareFiles(
		filepath.Join(result.RunDirs[0], render.RecordFilename),
		filepath.Join(result.RunDirs[1], render.RecordFilename),
		VolatileRecordFields,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrDeterminismMismatch, "audit", "compare",
			"failed to compare provenance records", err)
	}
	result.DiffFields = append(prefixFields("render_fingerprint", fpDiffs),
		prefixFields("render_output", recDiffs)...)
	result.Match = len(result.DiffFields) == 0

	if !result.Match {
		e.logger.Warn("determinism audit failed",
			logging.Int("diff_fields", len(result.DiffFields)))
		if strict {
			return result, services.Wrap(services.ErrDeterminismMismatch, "audit", "verdict",
				fmt.Sprintf("%d fields differ between identical runs: %v", len(result.DiffFields), result.DiffFields), nil)
		}
	}
	return result, nil
}

// prefixFields qualifies diff paths with the document they came from, so a
// combined report never leaves ambiguous which artifact diverged.
func prefixFields(doc string, fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		out = append(out, doc+"."+field)
	}
	return out
}

// AuditDryRun compiles the same inputs twice without encoding and diffs the
// provenance records. Any diff is fatal: a dry run has no volatile inputs
// beyond the skipped record fields.
func (e *Engine) AuditDryRun(ctx context.Context, req render.Request, baseDir string) (*Result, error) {
	result := &Result{Match: true}

	for i := 0; i < 2; i++ {
		runDir := filepath.Join(baseDir, "audit-"+uuid.NewString())
		runReq := req
		runReq.OutDir = runDir
		runReq.DryRun = true
		run, err := e.pipeline.Run(ctx, runReq)
		if err != nil {
			return nil, err
		}
		result.RunDirs = append(result.RunDirs, runDir)
		result.OutputID = run.Record.OutputID
	}

	diffs, err := CompareFiles(
		filepath.Join(result.RunDirs[0], render.RecordFilename),
		filepath.Join(result.RunDirs[1], render.RecordFilename),
		VolatileRecordFields,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrDeterminismMismatch, "audit", "compare",
			"failed to compare provenance records", err)
	}
	result.DiffFields = prefixFields("render_output", diffs)
	result.Match = len(diffs) == 0
	if !result.Match {
		return result, services.Wrap(services.ErrDeterminismMismatch, "audit", "verdict",
			fmt.Sprintf("%d fields differ between identical dry runs: %v", len(diffs), diffs), nil)
	}
	return result, nil
}
