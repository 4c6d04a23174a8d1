package provenance

import (
	"os"

	"framelock/internal/assets"
	"framelock/internal/digest"
	"framelock/internal/renderspec"
	"framelock/internal/services"
	"framelock/internal/timeline"
)

// SchemaVersion identifies the provenance record layout. Bump on any field
// change so replayed records never parse under the wrong shape.
const SchemaVersion = 1

// ShotProvenance records how one shot's visual was sourced.
type ShotProvenance struct {
	ShotID  string        `json:"shot_id"`
	AssetID string        `json:"asset_id,omitempty"`
	Source  assets.Source `json:"source"`
	Reason  assets.Reason `json:"reason"`
	SHA256  string        `json:"sha256"`
}

// EffectiveSettings is the fully expanded encoder configuration as rendered,
// with no symbolic names left.
type EffectiveSettings struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	FPS        int    `json:"fps"`
	Profile    string `json:"profile"`
	Encoder    string `json:"encoder"`
	CRF        int    `json:"crf"`
	Preset     string `json:"preset"`
	PixFmt     string `json:"pix_fmt"`
	AudioCodec string `json:"audio_codec"`
	FontSource string `json:"font_source"`
	FontSize   int    `json:"font_size"`
	LeadInMS   int64  `json:"lead_in_ms"`
	LeadOutMS  int64  `json:"lead_out_ms"`
}

// Record is the render_output.json document. Everything except RenderedAt
// and the path fields is a pure function of the inputs.
type Record struct {
	SchemaVersion    int               `json:"schema_version"`
	OutputID         string            `json:"output_id"`
	ProjectID        string            `json:"project_id"`
	ManifestID       string            `json:"manifest_id"`
	PlanID           string            `json:"plan_id"`
	ManifestHash     string            `json:"manifest_hash"`
	PlanHash         string            `json:"plan_hash"`
	TimingLockHash   string            `json:"timing_lock_hash"`
	InputsDigest     string            `json:"inputs_digest"`
	Settings         EffectiveSettings `json:"effective_settings"`
	Shots            []ShotProvenance  `json:"shots"`
	PlaceholderCount int               `json:"placeholder_count"`
	CaptionCount     int               `json:"caption_count"`
	TotalDurationMS  int64             `json:"total_duration_ms"`
	VideoSHA256      string            `json:"video_sha256"`
	CaptionsSHA256   string            `json:"captions_sha256"`
	OutputSHA256     string            `json:"output_sha256"`
	RenderedAt       string            `json:"rendered_at,omitempty"`
	OutputPath       string            `json:"output_path,omitempty"`
	CaptionsPath     string            `json:"captions_path,omitempty"`
}

// Inputs carries everything Build needs. RenderedAt is supplied by the
// caller so the record itself never reads the clock.
type Inputs struct {
	Timeline     *timeline.Timeline
	Spec         *renderspec.RenderSpec
	Plan         *renderspec.Plan
	Decisions    []assets.Decision
	ManifestHash string
	PlanHash     string
	ShotHashes   map[string]string

	CaptionCount   int
	VideoSHA256    string
	CaptionsSHA256 string
	OutputSHA256   string

	RenderedAt   string
	OutputPath   string
	CaptionsPath string
}

// DeriveOutputID computes the stable output identity from the two input
// document hashes. Two renders of the same manifest and plan always share
// an output id regardless of where or when they ran.
func DeriveOutputID(manifestHash, planHash string) string {
	return digest.SumText(manifestHash + ":" + planHash)
}

// Build assembles a Record. The hash-bearing fields depend only on the
// canonical inputs, in declared order, never on map iteration or wall-clock
// state.
func Build(in Inputs) (*Record, error) {
	if in.Timeline == nil || in.Spec == nil || in.Plan == nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "provenance", "build",
			"timeline, spec, and plan are required", nil)
	}

	settings := effectiveSettings(in.Spec)
	inputsDigest, err := digest.SumCanonicalJSON(map[string]any{
		"plan_hash":          in.PlanHash,
		"manifest_hash":      in.ManifestHash,
		"effective_settings": settings,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "provenance", "inputs digest",
			"failed to hash effective inputs", err)
	}

	shots := make([]ShotProvenance, 0, len(in.Decisions))
	placeholders := 0
	for _, decision := range in.Decisions {
		if decision.Source == assets.SourcePlaceholder {
			placeholders++
		}
		shots = append(shots, ShotProvenance{
			ShotID:  decision.ShotID,
			AssetID: decision.AssetID,
			Source:  decision.Source,
			Reason:  decision.Reason,
			SHA256:  in.ShotHashes[decision.ShotID],
		})
	}

	return &Record{
		SchemaVersion:    SchemaVersion,
		OutputID:         DeriveOutputID(in.ManifestHash, in.PlanHash),
		ProjectID:        in.Timeline.ProjectID,
		ManifestID:       in.Timeline.ManifestID,
		PlanID:           in.Plan.PlanID,
		ManifestHash:     in.ManifestHash,
		PlanHash:         in.PlanHash,
		TimingLockHash:   in.Timeline.TimingLockHash,
		InputsDigest:     inputsDigest,
		Settings:         settings,
		Shots:            shots,
		PlaceholderCount: placeholders,
		CaptionCount:     in.CaptionCount,
		TotalDurationMS:  totalDuration(in.Timeline, in.Spec),
		VideoSHA256:      in.VideoSHA256,
		CaptionsSHA256:   in.CaptionsSHA256,
		OutputSHA256:     in.OutputSHA256,
		RenderedAt:       in.RenderedAt,
		OutputPath:       in.OutputPath,
		CaptionsPath:     in.CaptionsPath,
	}, nil
}

func effectiveSettings(spec *renderspec.RenderSpec) EffectiveSettings {
	return EffectiveSettings{
		Width:      spec.Width,
		Height:     spec.Height,
		FPS:        spec.FPS,
		Profile:    spec.Profile,
		Encoder:    spec.Encoder,
		CRF:        spec.CRF,
		Preset:     spec.Preset,
		PixFmt:     spec.PixFmt,
		AudioCodec: spec.AudioCodec,
		FontSource: spec.FontSource,
		FontSize:   spec.FontSize,
		LeadInMS:   spec.LeadInMS,
		LeadOutMS:  spec.LeadOutMS,
	}
}

func totalDuration(tl *timeline.Timeline, spec *renderspec.RenderSpec) int64 {
	return spec.LeadInMS + tl.ShotDurationMS() + spec.LeadOutMS
}

// WriteJSON writes a document as canonical JSON (sorted keys, compact) with
// a trailing newline, so repeated renders produce byte-identical files.
func WriteJSON(path string, doc any) error {
	data, err := digest.CanonicalJSON(doc)
	if err != nil {
		return services.Wrap(services.ErrSchemaMismatch, "provenance", "encode",
			"failed to encode provenance document", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
