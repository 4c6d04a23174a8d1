package captions

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"framelock/internal/services"
	"framelock/internal/timeline"
)

const (
	// MinDisplayMS is the shortest a cue may stay on screen.
	MinDisplayMS = 1000
	// MinGapMS is the smallest allowed gap between consecutive cues.
	MinGapMS = 40
)

// Cue is one subtitle entry. Times are absolute milliseconds from the start
// of the rendered output, lead-in included.
type Cue struct {
	Index   int
	StartMS int64
	EndMS   int64
	Text    string
}

// Build converts the timeline's voice-over lines into an ordered cue list.
// Shot start times are prefix sums of the declared durations; shots without
// a voice-over line advance the clock but emit nothing. Lead padding comes
// from the compiled spec, the single owner of padding. Text is normalized
// to NFC so logically identical manifests caption identically.
func Build(tl *timeline.Timeline, leadInMS, leadOutMS int64) ([]Cue, error) {
	if tl == nil {
		return nil, services.Wrap(services.ErrSchemaMismatch, "captions", "build",
			"timeline is required", nil)
	}
	var cues []Cue
	clock := leadInMS
	for _, shot := range tl.Shots {
		if shot.VO != nil {
			start := clock + shot.VO.InMS
			end := clock + shot.VO.OutMS
			if shot.VO.InMS == 0 && shot.VO.OutMS == 0 {
				// Zero offsets mean the line spans its shot.
				end = clock + shot.DurationMS
			}
			if end < start+MinDisplayMS {
				end = start + MinDisplayMS
			}
			cues = append(cues, Cue{
				Index:   len(cues) + 1,
				StartMS: start,
				EndMS:   end,
				Text:    cueText(shot.VO),
			})
		}
		clock += shot.DurationMS
	}
	enforceGaps(cues)
	clampToTotal(cues, clock+leadOutMS)
	return cues, nil
}

// enforceGaps moves a cue forward when it would start within MinGapMS of
// the previous cue's end, then re-extends it to the display floor. The
// earlier cue keeps its full extent; shortening it instead could shrink it
// below MinDisplayMS.
func enforceGaps(cues []Cue) {
	for i := 1; i < len(cues); i++ {
		earliest := cues[i-1].EndMS + MinGapMS
		if cues[i].StartMS < earliest {
			cues[i].StartMS = earliest
			if cues[i].EndMS < cues[i].StartMS+MinDisplayMS {
				cues[i].EndMS = cues[i].StartMS + MinDisplayMS
			}
		}
	}
}

// clampToTotal bounds every cue to the rendered duration. Gap enforcement
// can push cues past the end of an over-packed timeline; the duration bound
// wins over the display floor there.
func clampToTotal(cues []Cue, totalMS int64) {
	for i := range cues {
		if cues[i].StartMS > totalMS {
			cues[i].StartMS = totalMS
		}
		if cues[i].EndMS > totalMS {
			cues[i].EndMS = totalMS
		}
		if cues[i].EndMS < cues[i].StartMS {
			cues[i].EndMS = cues[i].StartMS
		}
	}
}

func cueText(vo *timeline.VOLine) string {
	text := norm.NFC.String(strings.TrimSpace(vo.Text))
	if vo.SpeakerID != "" {
		return norm.NFC.String(vo.SpeakerID) + ": " + text
	}
	return text
}

// Render serializes cues as an SRT document. Indices are re-derived from
// position so the output is always 1-based and contiguous.
func Render(cues []Cue) string {
	var b strings.Builder
	for i, cue := range cues {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n",
			i+1, FormatTimestamp(cue.StartMS), FormatTimestamp(cue.EndMS), cue.Text)
	}
	return b.String()
}

// FormatTimestamp renders milliseconds as HH:MM:SS,mmm. Values are already
// integral milliseconds, so the only rounding rule is the floor applied when
// the timeline was normalized.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := (ms % 3_600_000) / 60_000
	seconds := (ms % 60_000) / 1000
	millis := ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

// Validate checks ordering and bounds invariants over a built cue list.
func Validate(cues []Cue, totalMS int64) error {
	for i, cue := range cues {
		if cue.EndMS < cue.StartMS {
			return services.Wrap(services.ErrSchemaMismatch, "captions", "validate",
				fmt.Sprintf("cue %d ends before it starts", i+1), nil)
		}
		if i > 0 && cue.StartMS < cues[i-1].StartMS {
			return services.Wrap(services.ErrSchemaMismatch, "captions", "validate",
				fmt.Sprintf("cue %d starts before cue %d", i+1, i), nil)
		}
	}
	if len(cues) > 0 && cues[len(cues)-1].EndMS > totalMS {
		return services.Wrap(services.ErrSchemaMismatch, "captions", "validate",
			fmt.Sprintf("final cue ends at %dms, past the %dms timeline", cues[len(cues)-1].EndMS, totalMS), nil)
	}
	return nil
}
