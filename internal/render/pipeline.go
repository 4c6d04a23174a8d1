package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"framelock/internal/assets"
	"framelock/internal/captions"
	"framelock/internal/config"
	"framelock/internal/digest"
	"framelock/internal/logging"
	"framelock/internal/manifest"
	"framelock/internal/placeholder"
	"framelock/internal/provenance"
	"framelock/internal/renderspec"
	"framelock/internal/services"
	"framelock/internal/services/ffmpeg"
	"framelock/internal/timeline"
)

const (
	// RecordFilename is the provenance document every run writes.
	RecordFilename = "render_output.json"
	// FingerprintFilename is the determinism document verify runs write.
	FingerprintFilename = "render_fingerprint.json"
	// VideoFilename is the rendered container.
	VideoFilename = "output.mp4"
	// CaptionsFilename is the subtitle track.
	CaptionsFilename = "output.srt"
)

// Request describes one render invocation.
type Request struct {
	ManifestPath string
	PlanPath     string
	OutDir       string
	DryRun       bool
}

// Result reports what a run produced.
type Result struct {
	Record      *provenance.Record
	Fingerprint *provenance.Fingerprint
	Timeline    *timeline.Timeline
	Spec        *renderspec.RenderSpec
	Decisions   []assets.Decision
	CueCount    int
	RecordPath  string
	OutputPath  string // empty on dry runs
}

// Pipeline runs the full compile-and-render sequence: normalize, resolve,
// compile, caption, encode, record. Construction wires every collaborator
// once; Run and Verify are then safe to call repeatedly.
type Pipeline struct {
	cfg      *config.Config
	encoder  ffmpeg.Client
	resolver *assets.Resolver
	logger   *slog.Logger
	now      func() time.Time
}

// NewPipeline constructs a pipeline over the given configuration and
// encoder client.
func NewPipeline(cfg *config.Config, encoder ffmpeg.Client, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Pipeline{
		cfg:      cfg,
		encoder:  encoder,
		resolver: assets.NewResolver(logger),
		logger:   logging.NewComponentLogger(logger, "pipeline"),
		now:      time.Now,
	}
}

// Run executes one render. Dry runs stop after compilation and write only
// the provenance record; full runs also encode, caption, and hash outputs.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	compiled, err := p.compile(req)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrEncodeFailed, "render", "workdir",
			"failed to create output directory", err)
	}

	in := provenance.Inputs{
		Timeline:     compiled.tl,
		Spec:         compiled.spec,
		Plan:         compiled.plan,
		Decisions:    compiled.decisions,
		ManifestHash: compiled.manifestHash,
		PlanHash:     compiled.planHash,
		CaptionCount: len(compiled.cues),
	}

	result := &Result{
		Timeline:  compiled.tl,
		Spec:      compiled.spec,
		Decisions: compiled.decisions,
		CueCount:  len(compiled.cues),
	}

	if !req.DryRun {
		if err := p.execute(ctx, req, compiled, &in); err != nil {
			return nil, err
		}
		result.OutputPath = in.OutputPath
	}

	record, err := provenance.Build(in)
	if err != nil {
		return nil, err
	}
	recordPath := filepath.Join(req.OutDir, RecordFilename)
	if err := provenance.WriteJSON(recordPath, record); err != nil {
		return nil, services.Wrap(services.ErrEncodeFailed, "render", "record",
			"failed to write provenance record", err)
	}
	result.Record = record
	result.RecordPath = recordPath

	p.logger.Info("render complete",
		logging.String("output_id", record.OutputID),
		logging.Bool("dry_run", req.DryRun),
		logging.Int("placeholder_count", record.PlaceholderCount))
	return result, nil
}

// Verify performs a full render and additionally decodes the result into
// per-frame hashes, writing the stripped fingerprint document.
func (p *Pipeline) Verify(ctx context.Context, req Request) (*Result, error) {
	req.DryRun = false
	result, err := p.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	frames, err := p.encoder.FrameHashes(ctx, result.OutputPath)
	if err != nil {
		return nil, err
	}
	fp := provenance.FingerprintOf(result.Record, frames)
	fpPath := filepath.Join(req.OutDir, FingerprintFilename)
	if err := provenance.WriteJSON(fpPath, fp); err != nil {
		return nil, services.Wrap(services.ErrEncodeFailed, "verify", "fingerprint",
			"failed to write fingerprint", err)
	}
	result.Fingerprint = fp
	return result, nil
}

type compiled struct {
	tl           *timeline.Timeline
	plan         *renderspec.Plan
	spec         *renderspec.RenderSpec
	decisions    []assets.Decision
	cues         []captions.Cue
	manifestHash string
	planHash     string
}

func (p *Pipeline) compile(req Request) (*compiled, error) {
	rawManifest, err := os.ReadFile(req.ManifestPath)
	if err != nil {
		return nil, services.Wrap(services.ErrAssetUnreachable, "compile", "read manifest",
			fmt.Sprintf("failed to read manifest %s", req.ManifestPath), err)
	}
	rawPlan, err := os.ReadFile(req.PlanPath)
	if err != nil {
		return nil, services.Wrap(services.ErrAssetUnreachable, "compile", "read plan",
			fmt.Sprintf("failed to read render plan %s", req.PlanPath), err)
	}

	manifestHash, err := canonicalHash(rawManifest)
	if err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "compile", "hash manifest",
			"manifest is not valid JSON", err)
	}
	planHash, err := canonicalHash(rawPlan)
	if err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "compile", "hash plan",
			"render plan is not valid JSON", err)
	}

	tl, err := manifest.Normalize(rawManifest)
	if err != nil {
		return nil, err
	}
	plan, err := renderspec.ParsePlan(rawPlan)
	if err != nil {
		return nil, err
	}

	decisions := p.resolver.Resolve(tl, plan.AssetResolutions)
	spec, err := renderspec.Compile(tl, plan, decisions, p.cfg)
	if err != nil {
		return nil, err
	}
	cues, err := captions.Build(tl, spec.LeadInMS, spec.LeadOutMS)
	if err != nil {
		return nil, err
	}
	total := spec.LeadInMS + tl.ShotDurationMS() + spec.LeadOutMS
	if err := captions.Validate(cues, total); err != nil {
		return nil, err
	}

	return &compiled{
		tl:           tl,
		plan:         plan,
		spec:         spec,
		decisions:    decisions,
		cues:         cues,
		manifestHash: manifestHash,
		planHash:     planHash,
	}, nil
}

// execute performs the encode phase of a full run and fills the output
// hashes and paths into the provenance inputs.
func (p *Pipeline) execute(ctx context.Context, req Request, c *compiled, in *provenance.Inputs) error {
	if version, err := p.encoder.Version(ctx); err == nil && ffmpeg.BelowMinVersion(version) {
		p.logger.Warn("encoder older than supported minimum",
			logging.String("version", version),
			logging.String("min_version", ffmpeg.MinVersion))
	}

	// The cache lives inside the run's own output directory. Audit runs must
	// not observe each other's synthesized files, or a synthesis bug in one
	// run would be copied into the other and the diff would miss it.
	cacheDir := filepath.Join(req.OutDir, ".placeholders")
	synth := placeholder.New(cacheDir, c.spec.FontPath, c.spec.FontSize, p.logger)
	orchestrator := NewOrchestrator(p.encoder, synth, p.logger)

	inputs, shotHashes, err := orchestrator.Materialize(c.tl, c.spec, c.decisions)
	if err != nil {
		return err
	}
	in.ShotHashes = shotHashes

	outputPath := filepath.Join(req.OutDir, VideoFilename)
	timeout := time.Duration(p.cfg.FFmpeg.TimeoutSeconds) * time.Second
	encodeCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		encodeCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := orchestrator.Encode(encodeCtx, c.spec, inputs, outputPath); err != nil {
		return err
	}

	captionsPath := filepath.Join(req.OutDir, CaptionsFilename)
	if err := captions.WriteFile(captionsPath, c.cues); err != nil {
		return services.Wrap(services.ErrEncodeFailed, "render", "captions",
			"failed to write subtitle track", err)
	}
	total := c.spec.LeadInMS + c.tl.ShotDurationMS() + c.spec.LeadOutMS
	if issues := captions.ValidateFile(captionsPath, float64(total)/1000); len(issues) > 0 {
		return services.Wrap(services.ErrSchemaMismatch, "render", "captions",
			fmt.Sprintf("subtitle validation failed: %v", issues), nil)
	}

	videoSum, err := digest.SumFile(outputPath)
	if err != nil {
		return services.Wrap(services.ErrEncodeFailed, "render", "hash video",
			"failed to hash rendered output", err)
	}
	captionsSum, err := digest.SumFile(captionsPath)
	if err != nil {
		return services.Wrap(services.ErrEncodeFailed, "render", "hash captions",
			"failed to hash subtitle track", err)
	}

	in.VideoSHA256 = videoSum
	in.CaptionsSHA256 = captionsSum
	in.OutputSHA256 = digest.SumText(videoSum + ":" + captionsSum)
	in.RenderedAt = p.now().UTC().Format(time.RFC3339)
	in.OutputPath = outputPath
	in.CaptionsPath = captionsPath
	return nil
}

// canonicalHash hashes a JSON document in canonical form (sorted keys,
// compact separators), so formatting differences never change identity.
func canonicalHash(raw []byte) (string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	return digest.SumCanonicalJSON(doc)
}
