// Package assets resolves each shot's visual content: the supplied reference
// when it is reachable and checksum-clean, otherwise a deterministic
// placeholder fallback.
//
// A missing or invalid optional visual is not an error; it is a first-class
// decision recorded with an explicit reason code (missing, unreachable,
// checksum_mismatch) in the provenance trail. Exactly one probe per
// reference, never retried.
package assets
