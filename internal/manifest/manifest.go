package manifest

import (
	"encoding/json"
	"fmt"
	"strings"

	"framelock/internal/services"
	"framelock/internal/timeline"
)

// Shape identifies the detected structural signature of a raw manifest.
type Shape string

const (
	// ShapeNative is the canonical manifest: a top-level "shots" list.
	ShapeNative Shape = "native"
	// ShapeFlat is the generic item-list manifest: a top-level "items" list.
	ShapeFlat Shape = "flat"
	// ShapeDraft is the orchestrator draft: "scene_ids" plus background /
	// character / voice-over item lists.
	ShapeDraft Shape = "draft"
)

// shapeKeys, in detection order. Detection is structural and total: the first
// signature whose key is present wins, and anything else fails with the full
// list of expected keys.
var shapeKeys = []struct {
	key   string
	shape Shape
}{
	{"shots", ShapeNative},
	{"items", ShapeFlat},
	{"scene_ids", ShapeDraft},
}

// Detect returns the shape of the raw manifest document.
func Detect(raw []byte) (Shape, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return "", services.Wrap(services.ErrSchemaMismatch, "normalize", "detect",
			"manifest is not a JSON object", err)
	}
	for _, candidate := range shapeKeys {
		if _, ok := top[candidate.key]; ok {
			return candidate.shape, nil
		}
	}
	expected := make([]string, 0, len(shapeKeys))
	for _, candidate := range shapeKeys {
		expected = append(expected, candidate.key)
	}
	return "", services.Wrap(services.ErrSchemaMismatch, "normalize", "detect",
		fmt.Sprintf("unrecognized manifest shape: expected one of the keys %s", strings.Join(expected, ", ")), nil)
}

// Normalize converts raw manifest JSON of any supported shape into the
// canonical timeline. Pure transform: no filesystem access, no probing.
func Normalize(raw []byte) (*timeline.Timeline, error) {
	shape, err := Detect(raw)
	if err != nil {
		return nil, err
	}

	var tl *timeline.Timeline
	switch shape {
	case ShapeNative:
		tl, err = normalizeNative(raw)
	case ShapeFlat:
		tl, err = normalizeFlat(raw)
	case ShapeDraft:
		tl, err = normalizeDraft(raw)
	default:
		return nil, services.Wrap(services.ErrSchemaMismatch, "normalize", "dispatch",
			fmt.Sprintf("unsupported shape %q", shape), nil)
	}
	if err != nil {
		return nil, err
	}

	if err := tl.Validate(); err != nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "normalize", string(shape), err.Error(), nil)
	}
	return tl, nil
}

func mismatch(shape Shape, message string, err error) error {
	return services.Wrap(services.ErrSchemaMismatch, "normalize", string(shape), message, err)
}

// musicRef builds the optional music reference shared by all shapes.
func musicRef(uri, sha string) *timeline.VisualAssetRef {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil
	}
	return &timeline.VisualAssetRef{
		AssetID:  "music",
		Location: uri,
		SHA256:   strings.ToLower(strings.TrimSpace(sha)),
	}
}
