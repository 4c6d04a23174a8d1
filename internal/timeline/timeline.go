package timeline

import (
	"fmt"
	"strings"
)

// VisualAssetRef points at the visual content declared for a shot. A nil ref
// is a first-class state: the shot renders with a synthesized placeholder.
type VisualAssetRef struct {
	AssetID  string `json:"asset_id"`
	Location string `json:"location"`         // file:// URI or filesystem path
	SHA256   string `json:"sha256,omitempty"` // declared checksum, empty when undeclared
}

// VOLine is the voice-over line attached to a shot. In/out offsets are
// relative to the shot start; both zero means the line spans the whole shot.
type VOLine struct {
	LineID    string `json:"line_id"`
	SpeakerID string `json:"speaker_id"`
	Text      string `json:"text"`
	InMS      int64  `json:"in_ms"`
	OutMS     int64  `json:"out_ms"`
}

// Shot is one hard-cut segment of the output video.
type Shot struct {
	ID         string          `json:"id"`
	DurationMS int64           `json:"duration_ms"`
	VO         *VOLine         `json:"vo,omitempty"`
	Visual     *VisualAssetRef `json:"visual,omitempty"`
}

// Timeline is the canonical cut sequence every downstream stage consumes.
// Shot order is significant; no stage reorders it.
type Timeline struct {
	ProjectID      string          `json:"project_id"`
	ManifestID     string          `json:"manifest_id"`
	TimingLockHash string          `json:"timing_lock_hash"`
	Shots          []Shot          `json:"shots"`
	Music          *VisualAssetRef `json:"music,omitempty"`
}

// ShotDurationMS returns the sum of shot durations without padding.
func (t *Timeline) ShotDurationMS() int64 {
	var total int64
	for _, shot := range t.Shots {
		total += shot.DurationMS
	}
	return total
}

// Validate enforces the timeline invariants: at least one shot, unique shot
// identifiers, and strictly positive durations.
func (t *Timeline) Validate() error {
	if t == nil {
		return fmt.Errorf("timeline is nil")
	}
	if len(t.Shots) == 0 {
		return fmt.Errorf("timeline has no shots")
	}
	seen := make(map[string]struct{}, len(t.Shots))
	for i, shot := range t.Shots {
		id := strings.TrimSpace(shot.ID)
		if id == "" {
			return fmt.Errorf("shot %d has an empty id", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate shot id %q", id)
		}
		seen[id] = struct{}{}
		if shot.DurationMS <= 0 {
			return fmt.Errorf("shot %q duration must be positive, got %d", id, shot.DurationMS)
		}
		if shot.VO != nil {
			if shot.VO.InMS < 0 || shot.VO.OutMS < 0 {
				return fmt.Errorf("shot %q voice-over offsets must not be negative", id)
			}
			if shot.VO.OutMS > 0 && shot.VO.OutMS < shot.VO.InMS {
				return fmt.Errorf("shot %q voice-over out offset precedes in offset", id)
			}
		}
	}
	return nil
}
