package provenance

// Fingerprint is the render_fingerprint.json document written by verify
// runs. It carries only reproducible fields: the volatile parts of the
// Record (timestamp, local paths) are stripped so two fingerprints from
// different machines compare byte for byte.
type Fingerprint struct {
	SchemaVersion    int               `json:"schema_version"`
	OutputID         string            `json:"output_id"`
	InputsDigest     string            `json:"inputs_digest"`
	Settings         EffectiveSettings `json:"effective_settings"`
	Shots            []ShotProvenance  `json:"shots"`
	PlaceholderCount int               `json:"placeholder_count"`
	TotalDurationMS  int64             `json:"total_duration_ms"`
	VideoSHA256      string            `json:"video_sha256"`
	CaptionsSHA256   string            `json:"captions_sha256"`
	OutputSHA256     string            `json:"output_sha256"`
	FrameMD5         []string          `json:"frame_md5"`
}

// FingerprintOf projects a Record to its reproducible core, attaching the
// per-frame hashes collected during verification.
func FingerprintOf(rec *Record, frameHashes []string) *Fingerprint {
	return &Fingerprint{
		SchemaVersion:    rec.SchemaVersion,
		OutputID:         rec.OutputID,
		InputsDigest:     rec.InputsDigest,
		Settings:         rec.Settings,
		Shots:            rec.Shots,
		PlaceholderCount: rec.PlaceholderCount,
		TotalDurationMS:  rec.TotalDurationMS,
		VideoSHA256:      rec.VideoSHA256,
		CaptionsSHA256:   rec.CaptionsSHA256,
		OutputSHA256:     rec.OutputSHA256,
		FrameMD5:         frameHashes,
	}
}
