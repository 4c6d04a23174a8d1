// Package provenance builds the render_output.json record and the stripped
// render_fingerprint.json used for determinism checks. Records are pure
// functions of the canonical timeline and the compiled render spec.
package provenance
