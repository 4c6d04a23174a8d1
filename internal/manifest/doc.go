// Package manifest normalizes the supported raw manifest shapes into the
// single canonical timeline every downstream stage consumes.
//
// Three shapes are accepted, detected structurally in a fixed order: the
// native per-shot manifest ("shots"), the flat generic item list ("items"),
// and the orchestrator draft ("scene_ids" plus background/character/
// voice-over item lists). Unrecognized shapes fail with a SchemaMismatch
// naming the expected keys. Normalization is a pure transform; reachability
// probing and fallback decisions belong to the assets resolver.
//
// Downstream stages never branch on the original shape: semantically
// equivalent documents in different shapes normalize to identical timelines.
package manifest
