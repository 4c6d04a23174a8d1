package render

import (
	"fmt"
	"strings"

	"framelock/internal/renderspec"
)

// ShotInput is one visual input to the encoder, in timeline order.
type ShotInput struct {
	Path       string
	DurationMS int64
}

// BuildArgs produces the complete encoder argument list for one render.
// The list is a pure function of the spec and the ordered inputs: fixed
// flag ordering, fixed duration formatting, bitexact muxing, metadata
// stripped. Identical inputs always produce an identical argv.
func BuildArgs(spec *renderspec.RenderSpec, inputs []ShotInput, outputPath string) []string {
	args := []string{"-nostdin", "-hide_banner", "-y"}

	for _, input := range inputs {
		args = append(args,
			"-loop", "1",
			"-framerate", fmt.Sprintf("%d", spec.FPS),
			"-t", formatSeconds(input.DurationMS),
			"-i", input.Path,
		)
	}
	musicIndex := -1
	if spec.AudioCodec != "none" {
		musicIndex = len(inputs)
		args = append(args, "-i", spec.MusicPath)
	}

	args = append(args, "-filter_complex", buildFilterGraph(spec, len(inputs)))
	args = append(args, "-map", "[vout]")

	if musicIndex >= 0 {
		args = append(args,
			"-map", fmt.Sprintf("%d:a", musicIndex),
			"-c:a", spec.AudioCodec,
			"-b:a", "192k",
			"-ac", "2",
			"-ar", "48000",
			"-flags:a", "+bitexact",
		)
	} else {
		args = append(args, "-an")
	}

	args = append(args,
		"-c:v", spec.Encoder,
		"-crf", fmt.Sprintf("%d", spec.CRF),
		"-preset", spec.Preset,
		"-pix_fmt", spec.PixFmt,
		"-r", fmt.Sprintf("%d", spec.FPS),
		"-t", formatSeconds(totalMS(spec, inputs)),
		"-fflags", "+bitexact",
		"-flags:v", "+bitexact",
		"-map_metadata", "-1",
		"-movflags", "+faststart",
		outputPath,
	)
	return args
}

// buildFilterGraph scales and pads every input to the output geometry, then
// concatenates them with optional lead-in/lead-out black segments.
func buildFilterGraph(spec *renderspec.RenderSpec, shotCount int) string {
	var chains []string
	var concatInputs []string
	segments := 0

	addBlack := func(label string, durationMS int64) {
		chains = append(chains, fmt.Sprintf(
			"color=c=black:s=%dx%d:r=%d:d=%s[%s]",
			spec.Width, spec.Height, spec.FPS, formatSeconds(durationMS), label))
		concatInputs = append(concatInputs, "["+label+"]")
		segments++
	}

	if spec.LeadInMS > 0 {
		addBlack("lead_in", spec.LeadInMS)
	}
	for i := 0; i < shotCount; i++ {
		label := fmt.Sprintf("v%d", i)
		chains = append(chains, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d[%s]",
			i, spec.Width, spec.Height, spec.Width, spec.Height, spec.FPS, label))
		concatInputs = append(concatInputs, "["+label+"]")
		segments++
	}
	if spec.LeadOutMS > 0 {
		addBlack("lead_out", spec.LeadOutMS)
	}

	chains = append(chains, fmt.Sprintf(
		"%sconcat=n=%d:v=1:a=0[vout]",
		strings.Join(concatInputs, ""), segments))
	return strings.Join(chains, ";")
}

func totalMS(spec *renderspec.RenderSpec, inputs []ShotInput) int64 {
	total := spec.LeadInMS + spec.LeadOutMS
	for _, input := range inputs {
		total += input.DurationMS
	}
	return total
}

// formatSeconds renders milliseconds as a fixed-width decimal seconds value.
func formatSeconds(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	return fmt.Sprintf("%d.%03d", ms/1000, ms%1000)
}
