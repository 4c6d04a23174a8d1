// Package services defines the shared error taxonomy for the render pipeline
// and hosts clients for external tools under subpackages.
//
// Every fatal condition is tagged with one of the exported sentinel errors so
// the CLI can classify failures without string matching: schema mismatches,
// unreachable required assets, encoder failures, and determinism mismatches.
// Wrap attaches stage/operation context while preserving the marker for
// errors.Is checks.
package services
