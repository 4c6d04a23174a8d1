package renderspec

import (
	"encoding/json"

	"framelock/internal/services"
)

// Plan is the raw render plan input: resolution, quality profile, fallback
// configuration, and asset resolution overrides. Schemas are owned
// externally; unknown-but-irrelevant fields are ignored.
type Plan struct {
	SchemaVersion    string            `json:"schema_version"`
	PlanID           string            `json:"plan_id"`
	ProjectID        string            `json:"project_id"`
	Profile          string            `json:"profile"`
	Resolution       PlanResolution    `json:"resolution"`
	FPS              int               `json:"fps"`
	AssetManifestRef string            `json:"asset_manifest_ref"`
	TimingLockHash   string            `json:"timing_lock_hash"`
	AssetResolutions map[string]string `json:"asset_resolutions"`
	AudioResolutions map[string]string `json:"audio_resolutions"`
	Fallback         PlanFallback      `json:"fallback"`
	LeadInMS         int64             `json:"lead_in_ms"`
	LeadOutMS        int64             `json:"lead_out_ms"`
}

// PlanResolution is the requested output geometry.
type PlanResolution struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Aspect string `json:"aspect"`
}

// PlanFallback configures placeholder synthesis for missing assets.
type PlanFallback struct {
	PlaceholderFontPath string `json:"placeholder_font_path"`
	PlaceholderFontSize int    `json:"placeholder_font_size"`
}

// ParsePlan decodes a raw render plan document.
func ParsePlan(raw []byte) (*Plan, error) {
	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "compile", "parse plan",
			"render plan is not a valid JSON object", err)
	}
	return &plan, nil
}
