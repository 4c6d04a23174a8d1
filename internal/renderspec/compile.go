package renderspec

import (
	"fmt"
	"os"
	"strings"

	"framelock/internal/assets"
	"framelock/internal/config"
	"framelock/internal/services"
	"framelock/internal/timeline"
)

const (
	defaultWidth  = 1280
	defaultHeight = 720
	defaultFPS    = 24

	encoderName = "libx264"
	pixelFormat = "yuv420p"
	audioCodec  = "aac"
)

// Compile merges the canonical timeline, the render plan, and the resolver's
// fallback decisions into one explicit RenderSpec. Every symbolic default is
// expanded here; compilation fails rather than letting an ambiguity escape
// downstream.
func Compile(tl *timeline.Timeline, plan *Plan, decisions []assets.Decision, cfg *config.Config) (*RenderSpec, error) {
	if tl == nil || plan == nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "compile", "inputs",
			"timeline and plan are required", nil)
	}
	if err := validateDecisions(tl, decisions); err != nil {
		return nil, err
	}
	if err := checkTimingLock(tl, plan); err != nil {
		return nil, err
	}

	reasons := make(map[string]string)
	spec := &RenderSpec{
		Encoder: encoderName,
		PixFmt:  pixelFormat,
		Reasons: reasons,
	}
	reasons["encoder"] = "fixed " + encoderName
	reasons["pix_fmt"] = "fixed " + pixelFormat

	profile, profileReason, err := ResolveProfile(plan.Profile)
	if err != nil {
		return nil, err
	}
	spec.Profile = profile.Name
	spec.CRF = profile.CRF
	spec.Preset = profile.Preset
	reasons["profile"] = profileReason
	reasons["crf"] = fmt.Sprintf("profile %s", profile.Name)
	reasons["preset"] = fmt.Sprintf("profile %s", profile.Name)

	if err := resolveGeometry(spec, plan); err != nil {
		return nil, err
	}
	if err := resolveMusic(spec, tl); err != nil {
		return nil, err
	}
	resolveFont(spec, plan, cfg)
	resolvePadding(spec, plan, cfg)

	return spec, nil
}

func checkTimingLock(tl *timeline.Timeline, plan *Plan) error {
	manifestHash := strings.TrimSpace(tl.TimingLockHash)
	planHash := strings.TrimSpace(plan.TimingLockHash)
	if manifestHash != planHash {
		return services.Wrap(services.ErrSchemaMismatch, "compile", "timing lock",
			fmt.Sprintf("timing_lock_hash mismatch between manifest (%q) and plan (%q); both must derive from the same shot list", manifestHash, planHash), nil)
	}
	return nil
}

// validateDecisions checks the resolver output covers the timeline exactly,
// in shot order. The decisions themselves flow into provenance unchanged.
func validateDecisions(tl *timeline.Timeline, decisions []assets.Decision) error {
	if len(decisions) != len(tl.Shots) {
		return services.Wrap(services.ErrSchemaMismatch, "compile", "decisions",
			fmt.Sprintf("%d fallback decisions for %d shots", len(decisions), len(tl.Shots)), nil)
	}
	for i, shot := range tl.Shots {
		if decisions[i].ShotID != shot.ID {
			return services.Wrap(services.ErrSchemaMismatch, "compile", "decisions",
				fmt.Sprintf("decision %d is for shot %q, expected %q", i, decisions[i].ShotID, shot.ID), nil)
		}
	}
	return nil
}

func resolveGeometry(spec *RenderSpec, plan *Plan) error {
	spec.Width = plan.Resolution.Width
	spec.Height = plan.Resolution.Height
	spec.Reasons["resolution"] = "plan"
	if spec.Width == 0 && spec.Height == 0 {
		spec.Width = defaultWidth
		spec.Height = defaultHeight
		spec.Reasons["resolution"] = fmt.Sprintf("default %dx%d", defaultWidth, defaultHeight)
	}
	if spec.Width <= 0 || spec.Height <= 0 {
		return services.Wrap(services.ErrSchemaMismatch, "compile", "resolution",
			fmt.Sprintf("invalid resolution %dx%d", plan.Resolution.Width, plan.Resolution.Height), nil)
	}

	spec.FPS = plan.FPS
	spec.Reasons["fps"] = "plan"
	if spec.FPS == 0 {
		spec.FPS = defaultFPS
		spec.Reasons["fps"] = fmt.Sprintf("default %d", defaultFPS)
	}
	if spec.FPS < 0 {
		return services.Wrap(services.ErrSchemaMismatch, "compile", "fps",
			fmt.Sprintf("invalid fps %d", plan.FPS), nil)
	}
	return nil
}

// resolveMusic settles the audio path. A declared music reference that is
// unreachable is fatal: silently rendering without it would make the output
// bytes depend on filesystem state that provenance never recorded.
func resolveMusic(spec *RenderSpec, tl *timeline.Timeline) error {
	if tl.Music == nil {
		spec.AudioCodec = "none"
		spec.MusicPath = ""
		spec.Reasons["audio"] = "no music declared"
		return nil
	}
	path, reachable := assets.Probe(tl.Music)
	if !reachable {
		return services.Wrap(services.ErrAssetUnreachable, "compile", "music",
			fmt.Sprintf("declared music %q is unreachable or failed its checksum", tl.Music.Location), nil)
	}
	spec.AudioCodec = audioCodec
	spec.MusicPath = path
	spec.Reasons["audio"] = "music declared, " + audioCodec
	return nil
}

// resolveFont walks the placeholder font chain: plan fallback path, then the
// configured path, then the built-in face. Never an error.
func resolveFont(spec *RenderSpec, plan *Plan, cfg *config.Config) {
	spec.FontSize = plan.Fallback.PlaceholderFontSize
	spec.Reasons["font_size"] = "plan"
	if spec.FontSize <= 0 {
		spec.FontSize = cfg.Placeholder.FontSize
		spec.Reasons["font_size"] = "config"
	}

	for _, candidate := range []struct {
		path, source string
	}{
		{strings.TrimSpace(plan.Fallback.PlaceholderFontPath), "plan"},
		{strings.TrimSpace(cfg.Placeholder.FontPath), "config"},
	} {
		if candidate.path == "" {
			continue
		}
		if info, err := os.Stat(candidate.path); err == nil && !info.IsDir() {
			spec.FontPath = candidate.path
			spec.FontSource = candidate.source
			spec.Reasons["font"] = candidate.source + " path"
			return
		}
	}
	spec.FontPath = ""
	spec.FontSource = "builtin"
	spec.Reasons["font"] = "fallback chain exhausted, built-in face"
}

func resolvePadding(spec *RenderSpec, plan *Plan, cfg *config.Config) {
	spec.LeadInMS = plan.LeadInMS
	spec.LeadOutMS = plan.LeadOutMS
	spec.Reasons["padding"] = "plan"
	if plan.LeadInMS == 0 && plan.LeadOutMS == 0 {
		spec.LeadInMS = cfg.Render.LeadInMS
		spec.LeadOutMS = cfg.Render.LeadOutMS
		spec.Reasons["padding"] = "config"
	}
	if spec.LeadInMS < 0 {
		spec.LeadInMS = 0
	}
	if spec.LeadOutMS < 0 {
		spec.LeadOutMS = 0
	}
}
