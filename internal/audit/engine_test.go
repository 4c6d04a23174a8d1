package audit

import (
	"context"
	"errors"
	"strings"
	"testing"

	"framelock/internal/render"
	"framelock/internal/services"
	"framelock/internal/testsupport"
)

func auditSetup(t *testing.T) (*Engine, render.Request, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	pipeline := render.NewPipeline(cfg, &testsupport.StubEncoder{}, nil)
	engine := NewEngine(pipeline, nil)

	inputDir := t.TempDir()
	req := render.Request{
		ManifestPath: testsupport.WriteJSON(t, inputDir, "manifest.json", testsupport.CanaryManifest()),
		PlanPath:     testsupport.WriteJSON(t, inputDir, "plan.json", testsupport.CanaryPlan()),
	}
	return engine, req, t.TempDir()
}

func TestAuditRenderMatchesForDeterministicEncoder(t *testing.T) {
	engine, req, baseDir := auditSetup(t)

	result, err := engine.AuditRender(context.Background(), req, baseDir, true)
	if err != nil {
		t.Fatalf("AuditRender returned error: %v", err)
	}
	if !result.Match {
		t.Fatalf("expected match, diffs: %v", result.DiffFields)
	}
	if len(result.RunDirs) != 2 {
		t.Fatalf("run dirs = %v, want two", result.RunDirs)
	}
	if result.RunDirs[0] == result.RunDirs[1] {
		t.Fatal("audit runs shared a directory")
	}
	if result.OutputID == "" {
		t.Fatal("output id missing from audit result")
	}
}

func TestAuditDryRunMatches(t *testing.T) {
	engine, req, baseDir := auditSetup(t)

	result, err := engine.AuditDryRun(context.Background(), req, baseDir)
	if err != nil {
		t.Fatalf("AuditDryRun returned error: %v", err)
	}
	if !result.Match {
		t.Fatalf("expected dry-run match, diffs: %v", result.DiffFields)
	}
}

func TestAuditDryRunUnreachableMusicFailsBeforeComparison(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pipeline := render.NewPipeline(cfg, &testsupport.StubEncoder{}, nil)
	engine := NewEngine(pipeline, nil)

	doc := testsupport.CanaryManifest()
	doc["music_uri"] = "file:///nonexistent/track.flac"

	inputDir := t.TempDir()
	req := render.Request{
		ManifestPath: testsupport.WriteJSON(t, inputDir, "manifest.json", doc),
		PlanPath:     testsupport.WriteJSON(t, inputDir, "plan.json", testsupport.CanaryPlan()),
	}

	result, err := engine.AuditDryRun(context.Background(), req, t.TempDir())
	if !errors.Is(err, services.ErrAssetUnreachable) {
		t.Fatalf("expected ErrAssetUnreachable, got %v", err)
	}
	if result != nil {
		t.Fatal("compilation failure must not produce an audit result")
	}
}

// driftingEncoder produces different bytes on every invocation, simulating a
// non-reproducible encode.
type driftingEncoder struct {
	testsupport.StubEncoder
	counter byte
}

func (d *driftingEncoder) Encode(ctx context.Context, args []string) error {
	d.counter++
	drifted := append(append([]string(nil), args...), string(rune('0'+d.counter)))
	// Keep the real output path last.
	drifted[len(drifted)-1], drifted[len(drifted)-2] = drifted[len(drifted)-2], drifted[len(drifted)-1]
	return d.StubEncoder.Encode(ctx, drifted)
}

func TestAuditRenderStrictMismatchIsFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pipeline := render.NewPipeline(cfg, &driftingEncoder{}, nil)
	engine := NewEngine(pipeline, nil)

	inputDir := t.TempDir()
	req := render.Request{
		ManifestPath: testsupport.WriteJSON(t, inputDir, "manifest.json", testsupport.CanaryManifest()),
		PlanPath:     testsupport.WriteJSON(t, inputDir, "plan.json", testsupport.CanaryPlan()),
	}

	result, err := engine.AuditRender(context.Background(), req, t.TempDir(), true)
	if err == nil {
		t.Fatal("expected strict mismatch to be fatal")
	}
	if !errors.Is(err, services.ErrDeterminismMismatch) {
		t.Fatalf("expected ErrDeterminismMismatch, got %v", err)
	}
	if result == nil || result.Match {
		t.Fatal("mismatch result should report Match=false")
	}
}

func TestAuditRenderAdvisoryMismatchIsNotFatal(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pipeline := render.NewPipeline(cfg, &driftingEncoder{}, nil)
	engine := NewEngine(pipeline, nil)

	inputDir := t.TempDir()
	req := render.Request{
		ManifestPath: testsupport.WriteJSON(t, inputDir, "manifest.json", testsupport.CanaryManifest()),
		PlanPath:     testsupport.WriteJSON(t, inputDir, "plan.json", testsupport.CanaryPlan()),
	}

	result, err := engine.AuditRender(context.Background(), req, t.TempDir(), false)
	if err != nil {
		t.Fatalf("advisory mode should not fail: %v", err)
	}
	if result.Match {
		t.Fatal("expected mismatch to be reported")
	}
	if len(result.DiffFields) == 0 {
		t.Fatal("expected diff fields for drifting encoder")
	}
	for _, field := range result.DiffFields {
		if !strings.HasPrefix(field, "render_fingerprint.") && !strings.HasPrefix(field, "render_output.") {
			t.Fatalf("diff field %q missing document prefix", field)
		}
	}
}
