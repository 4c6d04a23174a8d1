package render

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"framelock/internal/services"
	"framelock/internal/testsupport"
)

func newTestPipeline(t *testing.T) (*Pipeline, *testsupport.StubEncoder, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	encoder := &testsupport.StubEncoder{}
	pipeline := NewPipeline(cfg, encoder, nil)

	inputDir := t.TempDir()
	return pipeline, encoder, inputDir
}

func canaryRequest(t *testing.T, inputDir, outDir string) Request {
	t.Helper()
	manifestPath := testsupport.WriteJSON(t, inputDir, "manifest.json", testsupport.CanaryManifest())
	planPath := testsupport.WriteJSON(t, inputDir, "plan.json", testsupport.CanaryPlan())
	return Request{ManifestPath: manifestPath, PlanPath: planPath, OutDir: outDir}
}

func TestRunDryRunWritesOnlyRecord(t *testing.T) {
	pipeline, encoder, inputDir := newTestPipeline(t)
	outDir := t.TempDir()
	req := canaryRequest(t, inputDir, outDir)
	req.DryRun = true

	result, err := pipeline.Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(encoder.Calls) != 0 {
		t.Fatalf("dry run invoked the encoder %d times", len(encoder.Calls))
	}

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read out dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != RecordFilename {
		t.Fatalf("dry run artifacts = %v, want only %s", entries, RecordFilename)
	}

	rec := result.Record
	if rec.PlaceholderCount != testsupport.CanaryShotCount {
		t.Fatalf("placeholder_count = %d, want %d", rec.PlaceholderCount, testsupport.CanaryShotCount)
	}
	if rec.TotalDurationMS != 10000 {
		t.Fatalf("total_duration_ms = %d, want 10000", rec.TotalDurationMS)
	}
	if rec.VideoSHA256 != "" || rec.RenderedAt != "" {
		t.Fatalf("dry run carries output fields: %+v", rec)
	}
}

func TestRunFullRenderProducesArtifacts(t *testing.T) {
	pipeline, encoder, inputDir := newTestPipeline(t)
	outDir := t.TempDir()

	result, err := pipeline.Run(context.Background(), canaryRequest(t, inputDir, outDir))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(encoder.Calls) != 1 {
		t.Fatalf("expected one encode, got %d", len(encoder.Calls))
	}

	for _, name := range []string{VideoFilename, CaptionsFilename, RecordFilename} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	rec := result.Record
	if rec.VideoSHA256 == "" || rec.CaptionsSHA256 == "" || rec.OutputSHA256 == "" {
		t.Fatalf("output hashes incomplete: %+v", rec)
	}
	if rec.RenderedAt == "" {
		t.Fatal("rendered_at missing on a full run")
	}
	if len(rec.Shots) != testsupport.CanaryShotCount {
		t.Fatalf("shot provenance count = %d, want %d", len(rec.Shots), testsupport.CanaryShotCount)
	}
	for _, shot := range rec.Shots {
		if shot.SHA256 == "" {
			t.Fatalf("shot %s has no input hash", shot.ShotID)
		}
	}
}

func TestRunTwiceIsDeterministic(t *testing.T) {
	pipeline, _, inputDir := newTestPipeline(t)

	first, err := pipeline.Run(context.Background(), canaryRequest(t, inputDir, t.TempDir()))
	if err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}
	second, err := pipeline.Run(context.Background(), canaryRequest(t, inputDir, t.TempDir()))
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}

	if first.Record.OutputID != second.Record.OutputID {
		t.Fatalf("output ids differ: %s vs %s", first.Record.OutputID, second.Record.OutputID)
	}
	if first.Record.InputsDigest != second.Record.InputsDigest {
		t.Fatal("inputs digests differ between identical runs")
	}
	if first.Record.VideoSHA256 != second.Record.VideoSHA256 {
		t.Fatal("video hashes differ between identical runs")
	}
	if first.Record.OutputSHA256 != second.Record.OutputSHA256 {
		t.Fatal("whole-output hashes differ between identical runs")
	}
}

func TestRunsDoNotShareSynthesisCache(t *testing.T) {
	pipeline, _, inputDir := newTestPipeline(t)

	firstOut := t.TempDir()
	first, err := pipeline.Run(context.Background(), canaryRequest(t, inputDir, firstOut))
	if err != nil {
		t.Fatalf("first Run returned error: %v", err)
	}

	// Damage every synthesized file from the first run. A later run must
	// synthesize its own inputs rather than ingest these bytes.
	cacheDir := filepath.Join(firstOut, ".placeholders")
	cached, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("read cache dir: %v", err)
	}
	if len(cached) == 0 {
		t.Fatal("first run synthesized nothing")
	}
	for _, entry := range cached {
		path := filepath.Join(cacheDir, entry.Name())
		if err := os.WriteFile(path, []byte("damaged"), 0o644); err != nil {
			t.Fatalf("overwrite cached file: %v", err)
		}
	}

	second, err := pipeline.Run(context.Background(), canaryRequest(t, inputDir, t.TempDir()))
	if err != nil {
		t.Fatalf("second Run returned error: %v", err)
	}

	for i, shot := range second.Record.Shots {
		if shot.SHA256 != first.Record.Shots[i].SHA256 {
			t.Fatalf("shot %s input hash changed across runs: %s vs %s",
				shot.ShotID, first.Record.Shots[i].SHA256, shot.SHA256)
		}
	}
	if second.Record.VideoSHA256 != first.Record.VideoSHA256 {
		t.Fatal("damaged cache from a prior run leaked into the encode")
	}
}

func TestVerifyWritesFingerprint(t *testing.T) {
	pipeline, _, inputDir := newTestPipeline(t)
	outDir := t.TempDir()

	result, err := pipeline.Verify(context.Background(), canaryRequest(t, inputDir, outDir))
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if result.Fingerprint == nil || len(result.Fingerprint.FrameMD5) == 0 {
		t.Fatal("fingerprint missing frame hashes")
	}

	data, err := os.ReadFile(filepath.Join(outDir, FingerprintFilename))
	if err != nil {
		t.Fatalf("read fingerprint file: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("fingerprint is not valid JSON: %v", err)
	}
	for _, volatileField := range []string{"rendered_at", "output_path", "captions_path"} {
		if _, present := doc[volatileField]; present {
			t.Fatalf("fingerprint carries volatile field %s", volatileField)
		}
	}
}

func TestRunRejectsUnknownManifestShape(t *testing.T) {
	pipeline, _, inputDir := newTestPipeline(t)
	manifestPath := testsupport.WriteJSON(t, inputDir, "manifest.json", map[string]any{"bogus": true})
	planPath := testsupport.WriteJSON(t, inputDir, "plan.json", testsupport.CanaryPlan())

	_, err := pipeline.Run(context.Background(), Request{
		ManifestPath: manifestPath,
		PlanPath:     planPath,
		OutDir:       t.TempDir(),
	})
	if err == nil {
		t.Fatal("expected schema mismatch")
	}
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRunSurfacesEncodeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	encoder := &testsupport.StubEncoder{
		EncodeErr: services.Wrap(services.ErrEncodeFailed, "encode", "run", "boom", nil),
	}
	pipeline := NewPipeline(cfg, encoder, nil)

	_, err := pipeline.Run(context.Background(), canaryRequest(t, t.TempDir(), t.TempDir()))
	if err == nil {
		t.Fatal("expected encode failure to surface")
	}
	if !errors.Is(err, services.ErrEncodeFailed) {
		t.Fatalf("expected ErrEncodeFailed, got %v", err)
	}
}
