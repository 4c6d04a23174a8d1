package renderspec

// RenderSpec is the fully-resolved encode specification. Once compiled it
// contains no optional or symbolic fields: every ambiguity from the inputs
// has been expanded to a concrete value, and Reasons records how each one
// was resolved.
type RenderSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`

	Profile string `json:"profile"` // canonical name, informational only
	Encoder string `json:"encoder"`
	CRF     int    `json:"crf"`
	Preset  string `json:"preset"`
	PixFmt  string `json:"pix_fmt"`

	AudioCodec string `json:"audio_codec"` // "aac" or "none"
	MusicPath  string `json:"music_path"`  // empty exactly when AudioCodec is "none"

	FontPath   string `json:"font_path"` // empty exactly when FontSource is "builtin"
	FontSource string `json:"font_source"`
	FontSize   int    `json:"font_size"`

	LeadInMS  int64 `json:"lead_in_ms"`
	LeadOutMS int64 `json:"lead_out_ms"`

	// Reasons maps field names to how their values were resolved
	// (plan, default, profile table row, fallback chain step).
	Reasons map[string]string `json:"reasons"`
}
