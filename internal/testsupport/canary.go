package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// CanaryShotCount is the number of shots in the canary manifest.
const CanaryShotCount = 5

// CanaryShotDurationMS is the duration of each canary shot.
const CanaryShotDurationMS = 2000

// CanaryManifest returns a native-shape manifest with five 2000ms shots and
// no visual assets or voice-over, the standard determinism check input.
func CanaryManifest() map[string]any {
	shots := make([]map[string]any, 0, CanaryShotCount)
	for i := 0; i < CanaryShotCount; i++ {
		shots = append(shots, map[string]any{
			"shot_id":     shotID(i),
			"duration_ms": CanaryShotDurationMS,
		})
	}
	return map[string]any{
		"schema_version":   "1",
		"manifest_id":      "canary-manifest",
		"project_id":       "canary",
		"timing_lock_hash": "canary-lock",
		"shots":            shots,
	}
}

func shotID(i int) string {
	return "shot-" + string(rune('a'+i))
}

// CanaryPlan returns a default render plan matching the canary manifest.
func CanaryPlan() map[string]any {
	return map[string]any{
		"schema_version":   "1",
		"plan_id":          "canary-plan",
		"project_id":       "canary",
		"profile":          "preview",
		"timing_lock_hash": "canary-lock",
	}
}

// WriteJSON marshals doc into dir/name and returns the written path.
func WriteJSON(t testing.TB, dir, name string, doc any) string {
	t.Helper()

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
