package assets

import (
	"log/slog"
	"net/url"
	"os"
	"strings"

	"framelock/internal/digest"
	"framelock/internal/logging"
	"framelock/internal/timeline"
)

// Source tells whether a shot renders real content or a synthesized
// placeholder.
type Source string

const (
	SourceReal        Source = "real"
	SourcePlaceholder Source = "placeholder"
)

// Reason is the explicit code recorded for every resolution decision.
type Reason string

const (
	// ReasonAsset: the manifest's own reference was used.
	ReasonAsset Reason = "asset"
	// ReasonResolved: the plan's asset_resolutions override was used.
	ReasonResolved Reason = "resolved"
	// ReasonMissing: the shot declared no usable reference.
	ReasonMissing Reason = "missing"
	// ReasonUnreachable: the reference exists but its content could not be
	// probed.
	ReasonUnreachable Reason = "unreachable"
	// ReasonChecksumMismatch: the content was readable but failed the
	// declared checksum. Treated exactly like missing: fall back, never
	// accept corrupted content silently.
	ReasonChecksumMismatch Reason = "checksum_mismatch"
)

// Decision records the resolution outcome for one shot.
type Decision struct {
	ShotID  string `json:"shot_id"`
	AssetID string `json:"asset_id,omitempty"`
	Source  Source `json:"source"`
	Reason  Reason `json:"reason"`
	Path    string `json:"path,omitempty"` // local path for real sources
}

// Resolver decides, per shot, whether the supplied visual reference is usable
// or a placeholder must be synthesized. One existence/content probe per
// reference; no retries, no partial reads.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver constructs a resolver.
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logging.NewComponentLogger(logger, "resolver")}
}

// Resolve walks the timeline in shot order and returns one decision per
// shot. Overrides maps asset ids to resolved URIs (the plan's
// asset_resolutions) and takes precedence over the manifest's own locations.
func (r *Resolver) Resolve(tl *timeline.Timeline, overrides map[string]string) []Decision {
	decisions := make([]Decision, 0, len(tl.Shots))
	for _, shot := range tl.Shots {
		decisions = append(decisions, r.resolveShot(shot, overrides))
	}
	return decisions
}

func (r *Resolver) resolveShot(shot timeline.Shot, overrides map[string]string) Decision {
	decision := Decision{ShotID: shot.ID, Source: SourcePlaceholder, Reason: ReasonMissing}
	if shot.Visual == nil {
		return decision
	}
	decision.AssetID = shot.Visual.AssetID

	location := shot.Visual.Location
	reason := ReasonAsset
	if override, ok := overrides[shot.Visual.AssetID]; ok && strings.TrimSpace(override) != "" {
		location = override
		reason = ReasonResolved
	}
	if strings.TrimSpace(location) == "" {
		return decision
	}

	path := LocalPath(location)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		decision.Reason = ReasonUnreachable
		r.logDecision(decision)
		return decision
	}

	if shot.Visual.SHA256 != "" {
		ok, err := digest.VerifyFile(path, shot.Visual.SHA256)
		if err != nil || !ok {
			decision.Reason = ReasonChecksumMismatch
			r.logDecision(decision)
			return decision
		}
	}

	decision.Source = SourceReal
	decision.Reason = reason
	decision.Path = path
	return decision
}

func (r *Resolver) logDecision(d Decision) {
	if r.logger == nil {
		return
	}
	r.logger.Debug("visual asset fell back to placeholder",
		logging.String("shot_id", d.ShotID),
		logging.String("asset_id", d.AssetID),
		logging.String("reason", string(d.Reason)),
	)
}

// PlaceholderCount counts the decisions that resolved to a placeholder.
func PlaceholderCount(decisions []Decision) int {
	count := 0
	for _, d := range decisions {
		if d.Source == SourcePlaceholder {
			count++
		}
	}
	return count
}

// LocalPath resolves a file:// URI or plain filesystem path to a local path.
func LocalPath(location string) string {
	location = strings.TrimSpace(location)
	if strings.HasPrefix(location, "file://") {
		if parsed, err := url.Parse(location); err == nil {
			return parsed.Path
		}
	}
	return location
}

// Probe performs the single existence check used for non-shot assets (music).
// It returns the local path and whether the content is reachable; when a
// checksum is declared it must also match.
func Probe(ref *timeline.VisualAssetRef) (string, bool) {
	if ref == nil || strings.TrimSpace(ref.Location) == "" {
		return "", false
	}
	path := LocalPath(ref.Location)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return path, false
	}
	if ref.SHA256 != "" {
		ok, err := digest.VerifyFile(path, ref.SHA256)
		if err != nil || !ok {
			return path, false
		}
	}
	return path, true
}
