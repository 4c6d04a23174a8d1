package captions

import (
	"path/filepath"
	"strings"
	"testing"

	"framelock/internal/timeline"
)

func voShot(id string, durationMS int64, text string, inMS, outMS int64) timeline.Shot {
	return timeline.Shot{
		ID:         id,
		DurationMS: durationMS,
		VO:         &timeline.VOLine{LineID: id + "-vo", Text: text, InMS: inMS, OutMS: outMS},
	}
}

func TestBuildPrefixSumsShotStarts(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{
		voShot("s1", 2000, "first", 0, 1800),
		{ID: "s2", DurationMS: 3000},
		voShot("s3", 2000, "third", 100, 1900),
	}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	// Shot without voice-over still advances the clock.
	if cues[0].StartMS != 0 || cues[0].EndMS != 1800 {
		t.Fatalf("cue 1 = [%d, %d], want [0, 1800]", cues[0].StartMS, cues[0].EndMS)
	}
	if cues[1].StartMS != 5100 || cues[1].EndMS != 6900 {
		t.Fatalf("cue 2 = [%d, %d], want [5100, 6900]", cues[1].StartMS, cues[1].EndMS)
	}
	if cues[0].Index != 1 || cues[1].Index != 2 {
		t.Fatalf("indices = %d, %d; want 1, 2", cues[0].Index, cues[1].Index)
	}
}

func TestBuildAppliesLeadIn(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{voShot("s1", 2000, "hi", 0, 1500)}}
	cues, err := Build(tl, 500, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cues[0].StartMS != 500 || cues[0].EndMS != 2000 {
		t.Fatalf("cue = [%d, %d], want [500, 2000]", cues[0].StartMS, cues[0].EndMS)
	}
}

func TestBuildEnforcesMinimumDisplay(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{voShot("s1", 3000, "quick", 100, 400)}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if got := cues[0].EndMS - cues[0].StartMS; got != MinDisplayMS {
		t.Fatalf("display = %dms, want %d", got, MinDisplayMS)
	}
}

func TestBuildEnforcesGap(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{
		voShot("s1", 1000, "one", 0, 1000),
		voShot("s2", 2000, "two", 0, 1500),
	}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	gap := cues[1].StartMS - cues[0].EndMS
	if gap < MinGapMS {
		t.Fatalf("gap = %dms, want >= %d", gap, MinGapMS)
	}
	// The earlier cue keeps its full extent; the later one moves.
	if cues[0].EndMS != 1000 {
		t.Fatalf("cue 1 end = %d, want 1000", cues[0].EndMS)
	}
}

func TestBuildAdjacentSubSecondShotsKeepDisplayFloor(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{
		voShot("s1", 500, "one", 0, 0),
		voShot("s2", 500, "two", 0, 0),
		{ID: "s3", DurationMS: 2000},
	}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	for i, cue := range cues {
		if got := cue.EndMS - cue.StartMS; got < MinDisplayMS {
			t.Fatalf("cue %d displays for %dms, below the %dms floor", i+1, got, MinDisplayMS)
		}
	}
	if cues[0].StartMS != 0 || cues[0].EndMS != 1000 {
		t.Fatalf("cue 1 = [%d, %d], want [0, 1000]", cues[0].StartMS, cues[0].EndMS)
	}
	if gap := cues[1].StartMS - cues[0].EndMS; gap != MinGapMS {
		t.Fatalf("gap = %dms, want %d", gap, MinGapMS)
	}
}

func TestBuildOverPackedTimelineBoundedByTotal(t *testing.T) {
	// Two sub-second shots and nothing after them: the floor cannot fit, so
	// the duration bound wins and the cue list still validates.
	tl := &timeline.Timeline{Shots: []timeline.Shot{
		voShot("s1", 500, "one", 0, 0),
		voShot("s2", 500, "two", 0, 0),
	}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if err := Validate(cues, 1000); err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	for i, cue := range cues {
		if cue.EndMS > 1000 {
			t.Fatalf("cue %d ends at %d, past the 1000ms timeline", i+1, cue.EndMS)
		}
	}
}

func TestBuildZeroOffsetsSpanShot(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{voShot("s1", 2500, "span", 0, 0)}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cues[0].StartMS != 0 || cues[0].EndMS != 2500 {
		t.Fatalf("cue = [%d, %d], want [0, 2500]", cues[0].StartMS, cues[0].EndMS)
	}
}

func TestBuildClampsFinalCue(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{voShot("s1", 1200, "tail", 800, 900)}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	// Minimum display would push past the timeline; the tail clamps.
	if cues[0].EndMS > 1200 {
		t.Fatalf("cue ends at %d, past timeline end 1200", cues[0].EndMS)
	}
}

func TestBuildSpeakerLabel(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{{
		ID:         "s1",
		DurationMS: 2000,
		VO:         &timeline.VOLine{LineID: "l1", SpeakerID: "nova", Text: "  Hello.  "},
	}}}
	cues, err := Build(tl, 0, 0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if cues[0].Text != "nova: Hello." {
		t.Fatalf("text = %q, want %q", cues[0].Text, "nova: Hello.")
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "00:00:00,000"},
		{999, "00:00:00,999"},
		{61_500, "00:01:01,500"},
		{3_723_042, "01:02:03,042"},
		{-5, "00:00:00,000"},
	}
	for _, tc := range cases {
		if got := FormatTimestamp(tc.ms); got != tc.want {
			t.Fatalf("FormatTimestamp(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestRenderProducesContiguousIndices(t *testing.T) {
	cues := []Cue{
		{Index: 7, StartMS: 0, EndMS: 1000, Text: "one"},
		{Index: 9, StartMS: 2000, EndMS: 3000, Text: "two"},
	}
	doc := Render(cues)
	if !strings.HasPrefix(doc, "1\n00:00:00,000 --> 00:00:01,000\none\n") {
		t.Fatalf("unexpected first block:\n%s", doc)
	}
	if !strings.Contains(doc, "\n2\n00:00:02,000 --> 00:00:03,000\ntwo\n") {
		t.Fatalf("unexpected second block:\n%s", doc)
	}
}

func TestValidateDetectsViolations(t *testing.T) {
	good := []Cue{{Index: 1, StartMS: 0, EndMS: 1000}, {Index: 2, StartMS: 1500, EndMS: 2500}}
	if err := Validate(good, 3000); err != nil {
		t.Fatalf("Validate returned error for valid cues: %v", err)
	}

	inverted := []Cue{{Index: 1, StartMS: 1000, EndMS: 500}}
	if err := Validate(inverted, 3000); err == nil {
		t.Fatal("expected error for inverted cue")
	}

	outOfOrder := []Cue{{Index: 1, StartMS: 2000, EndMS: 2500}, {Index: 2, StartMS: 1000, EndMS: 1500}}
	if err := Validate(outOfOrder, 3000); err == nil {
		t.Fatal("expected error for out-of-order cues")
	}

	past := []Cue{{Index: 1, StartMS: 0, EndMS: 4000}}
	if err := Validate(past, 3000); err == nil {
		t.Fatal("expected error for cue past timeline end")
	}
}

func TestWriteAndValidateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.srt")
	cues := []Cue{
		{Index: 1, StartMS: 0, EndMS: 1200, Text: "one"},
		{Index: 2, StartMS: 1500, EndMS: 2800, Text: "two"},
	}
	if err := WriteFile(path, cues); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	count, err := CountCues(path)
	if err != nil {
		t.Fatalf("CountCues returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("CountCues = %d, want 2", count)
	}

	first, last, err := Bounds(path)
	if err != nil {
		t.Fatalf("Bounds returned error: %v", err)
	}
	if first != 0 || last != 2.8 {
		t.Fatalf("Bounds = %v, %v; want 0, 2.8", first, last)
	}

	if issues := ValidateFile(path, 3.0); len(issues) != 0 {
		t.Fatalf("ValidateFile issues: %v", issues)
	}
	if issues := ValidateFile(path, 2.0); len(issues) == 0 {
		t.Fatal("expected cue_past_end issue")
	}
}
