// Package render drives the full pipeline: manifest normalization, asset
// resolution, spec compilation, caption building, placeholder
// materialization, and the single deterministic encoder invocation. Every
// run writes a provenance record; verify runs additionally fingerprint the
// decoded frames.
package render
