package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"framelock/internal/timeline"
)

// nativeManifest is the canonical input shape: per-shot visual asset slots
// and voice-over lines keyed by a top-level shot list.
type nativeManifest struct {
	SchemaVersion  string       `json:"schema_version"`
	ManifestID     string       `json:"manifest_id"`
	ProjectID      string       `json:"project_id"`
	ShotlistRef    string       `json:"shotlist_ref"`
	TimingLockHash string       `json:"timing_lock_hash"`
	Shots          []nativeShot `json:"shots"`
	MusicURI       string       `json:"music_uri"`
	MusicSHA256    string       `json:"music_sha256"`
}

type nativeShot struct {
	ShotID       string         `json:"shot_id"`
	DurationMS   int64          `json:"duration_ms"`
	VisualAssets []nativeVisual `json:"visual_assets"`
	VOLines      []nativeVOLine `json:"vo_lines"`
}

type nativeVisual struct {
	AssetID  string `json:"asset_id"`
	Role     string `json:"role"`
	AssetURI string `json:"asset_uri"`
	SHA256   string `json:"sha256"`
}

type nativeVOLine struct {
	LineID        string `json:"line_id"`
	SpeakerID     string `json:"speaker_id"`
	Text          string `json:"text"`
	TimelineInMS  int64  `json:"timeline_in_ms"`
	TimelineOutMS int64  `json:"timeline_out_ms"`
}

func normalizeNative(raw []byte) (*timeline.Timeline, error) {
	var doc nativeManifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, mismatch(ShapeNative, "decode manifest", err)
	}

	tl := &timeline.Timeline{
		ProjectID:      strings.TrimSpace(doc.ProjectID),
		ManifestID:     strings.TrimSpace(doc.ManifestID),
		TimingLockHash: strings.TrimSpace(doc.TimingLockHash),
		Music:          musicRef(doc.MusicURI, doc.MusicSHA256),
	}

	for _, shot := range doc.Shots {
		vo, err := singleVOLine(shot.ShotID, shot.VOLines)
		if err != nil {
			return nil, err
		}
		tl.Shots = append(tl.Shots, timeline.Shot{
			ID:         strings.TrimSpace(shot.ShotID),
			DurationMS: shot.DurationMS,
			VO:         vo,
			Visual:     selectVisual(shot.VisualAssets),
		})
	}
	return tl, nil
}

// singleVOLine enforces the canonical zero-or-one voice-over invariant.
func singleVOLine(shotID string, lines []nativeVOLine) (*timeline.VOLine, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	if len(lines) > 1 {
		return nil, mismatch(ShapeNative,
			fmt.Sprintf("shot %q declares %d vo_lines; at most one is supported", shotID, len(lines)), nil)
	}
	line := lines[0]
	return &timeline.VOLine{
		LineID:    strings.TrimSpace(line.LineID),
		SpeakerID: strings.TrimSpace(line.SpeakerID),
		Text:      line.Text,
		InMS:      line.TimelineInMS,
		OutMS:     line.TimelineOutMS,
	}, nil
}

// selectVisual reduces a shot's asset slots to the single canonical
// reference. Backgrounds are preferred over characters and props; ties break
// on declaration order. The sort is stable so the choice is deterministic.
func selectVisual(assets []nativeVisual) *timeline.VisualAssetRef {
	if len(assets) == 0 {
		return nil
	}
	candidates := append([]nativeVisual(nil), assets...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return rolePriority(candidates[i].Role) < rolePriority(candidates[j].Role)
	})
	chosen := candidates[0]
	return &timeline.VisualAssetRef{
		AssetID:  strings.TrimSpace(chosen.AssetID),
		Location: strings.TrimSpace(chosen.AssetURI),
		SHA256:   strings.ToLower(strings.TrimSpace(chosen.SHA256)),
	}
}

func rolePriority(role string) int {
	if strings.EqualFold(strings.TrimSpace(role), "background") {
		return 0
	}
	return 1
}
