package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"framelock/internal/timeline"
)

// flatManifest is the generic item-list shape: one entry per shot with the
// narration and image reference inlined.
type flatManifest struct {
	ProjectID      string     `json:"project_id"`
	ManifestID     string     `json:"manifest_id"`
	TimingLockHash string     `json:"timing_lock_hash"`
	Items          []flatItem `json:"items"`
	MusicURI       string     `json:"music_uri"`
	MusicSHA256    string     `json:"music_sha256"`
}

type flatItem struct {
	ItemID      string `json:"item_id"`
	Kind        string `json:"kind"`
	DurationMS  int64  `json:"duration_ms"`
	Narration   string `json:"narration"`
	Speaker     string `json:"speaker"`
	ImageURI    string `json:"image_uri"`
	ImageSHA256 string `json:"image_sha256"`
}

func normalizeFlat(raw []byte) (*timeline.Timeline, error) {
	var doc flatManifest
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, mismatch(ShapeFlat, "decode manifest", err)
	}

	tl := &timeline.Timeline{
		ProjectID:      strings.TrimSpace(doc.ProjectID),
		ManifestID:     strings.TrimSpace(doc.ManifestID),
		TimingLockHash: strings.TrimSpace(doc.TimingLockHash),
		Music:          musicRef(doc.MusicURI, doc.MusicSHA256),
	}

	for i, item := range doc.Items {
		// An unknown kind carries content we would otherwise drop; that is
		// a mismatch, not something to ignore.
		kind := strings.TrimSpace(item.Kind)
		if kind != "" && !strings.EqualFold(kind, "shot") {
			return nil, mismatch(ShapeFlat,
				fmt.Sprintf("item %d has unsupported kind %q; expected shot", i, item.Kind), nil)
		}

		shot := timeline.Shot{
			ID:         strings.TrimSpace(item.ItemID),
			DurationMS: item.DurationMS,
		}
		if text := strings.TrimSpace(item.Narration); text != "" {
			shot.VO = &timeline.VOLine{
				LineID:    shot.ID + "-vo",
				SpeakerID: strings.TrimSpace(item.Speaker),
				Text:      item.Narration,
			}
		}
		if uri := strings.TrimSpace(item.ImageURI); uri != "" {
			shot.Visual = &timeline.VisualAssetRef{
				AssetID:  shot.ID + "-image",
				Location: uri,
				SHA256:   strings.ToLower(strings.TrimSpace(item.ImageSHA256)),
			}
		}
		tl.Shots = append(tl.Shots, shot)
	}
	return tl, nil
}
