package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"framelock/internal/timeline"
)

// draftManifest is the orchestrator draft shape: the cut order in
// "scene_ids", durations keyed by scene, and separate background, character,
// and voice-over item lists joined on scene id.
type draftManifest struct {
	ProjectID       string           `json:"project_id"`
	ManifestID      string           `json:"manifest_id"`
	TimingLockHash  string           `json:"timing_lock_hash"`
	SceneIDs        []string         `json:"scene_ids"`
	SceneDurationMS map[string]int64 `json:"scene_durations_ms"`
	BackgroundItems []draftAsset     `json:"background_items"`
	CharacterItems  []draftAsset     `json:"character_items"`
	VoiceoverItems  []draftVOItem    `json:"voiceover_items"`
	MusicURI        string           `json:"music_uri"`
	MusicSHA256     string           `json:"music_sha256"`
}

type draftAsset struct {
	SceneID string `json:"scene_id"`
	AssetID string `json:"asset_id"`
	URI     string `json:"uri"`
	SHA256  string `json:"sha256"`
}

type draftVOItem struct {
	SceneID   string `json:"scene_id"`
	LineID    string `json:"line_id"`
	SpeakerID string `json:"speaker_id"`
	Text      string `json:"text"`
	InMS      int64  `json:"in_ms"`
	OutMS     int64  `json:"out_ms"`
}

func normalizeDraft(raw []byte) (*timeline.Timeline, error) {
	var doc draftManifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, mismatch(ShapeDraft, "decode manifest", err)
	}
	if len(doc.SceneIDs) == 0 {
		return nil, mismatch(ShapeDraft, "scene_ids is empty", nil)
	}

	backgrounds := firstAssetByScene(doc.BackgroundItems)
	characters := firstAssetByScene(doc.CharacterItems)

	voByScene := make(map[string]draftVOItem, len(doc.VoiceoverItems))
	for _, item := range doc.VoiceoverItems {
		scene := strings.TrimSpace(item.SceneID)
		if _, dup := voByScene[scene]; dup {
			return nil, mismatch(ShapeDraft,
				fmt.Sprintf("scene %q declares multiple voice-over items; at most one is supported", scene), nil)
		}
		voByScene[scene] = item
	}

	tl := &timeline.Timeline{
		ProjectID:      strings.TrimSpace(doc.ProjectID),
		ManifestID:     strings.TrimSpace(doc.ManifestID),
		TimingLockHash: strings.TrimSpace(doc.TimingLockHash),
		Music:          musicRef(doc.MusicURI, doc.MusicSHA256),
	}

	for _, rawID := range doc.SceneIDs {
		scene := strings.TrimSpace(rawID)
		duration, ok := doc.SceneDurationMS[scene]
		if !ok {
			return nil, mismatch(ShapeDraft,
				fmt.Sprintf("scene %q has no entry in scene_durations_ms", scene), nil)
		}

		shot := timeline.Shot{ID: scene, DurationMS: duration}

		// Backgrounds win over characters, mirroring the native role priority.
		if asset, ok := backgrounds[scene]; ok {
			shot.Visual = draftVisual(asset)
		} else if asset, ok := characters[scene]; ok {
			shot.Visual = draftVisual(asset)
		}

		if item, ok := voByScene[scene]; ok {
			shot.VO = &timeline.VOLine{
				LineID:    strings.TrimSpace(item.LineID),
				SpeakerID: strings.TrimSpace(item.SpeakerID),
				Text:      item.Text,
				InMS:      item.InMS,
				OutMS:     item.OutMS,
			}
		}

		tl.Shots = append(tl.Shots, shot)
	}
	return tl, nil
}

// firstAssetByScene keeps the first declared asset per scene; later
// duplicates are alternates, not content, and declaration order decides.
func firstAssetByScene(items []draftAsset) map[string]draftAsset {
	byScene := make(map[string]draftAsset, len(items))
	for _, item := range items {
		scene := strings.TrimSpace(item.SceneID)
		if _, ok := byScene[scene]; !ok {
			byScene[scene] = item
		}
	}
	return byScene
}

func draftVisual(asset draftAsset) *timeline.VisualAssetRef {
	return &timeline.VisualAssetRef{
		AssetID:  strings.TrimSpace(asset.AssetID),
		Location: strings.TrimSpace(asset.URI),
		SHA256:   strings.ToLower(strings.TrimSpace(asset.SHA256)),
	}
}
