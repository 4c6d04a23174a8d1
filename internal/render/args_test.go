package render

import (
	"reflect"
	"strings"
	"testing"

	"framelock/internal/renderspec"
)

func testSpec() *renderspec.RenderSpec {
	return &renderspec.RenderSpec{
		Width:      1280,
		Height:     720,
		FPS:        24,
		Profile:    "preview",
		Encoder:    "libx264",
		CRF:        28,
		Preset:     "medium",
		PixFmt:     "yuv420p",
		AudioCodec: "none",
		FontSource: "builtin",
		FontSize:   36,
	}
}

func testInputs() []ShotInput {
	return []ShotInput{
		{Path: "/work/a.png", DurationMS: 2000},
		{Path: "/work/b.png", DurationMS: 1500},
	}
}

func TestBuildArgsIsDeterministic(t *testing.T) {
	first := BuildArgs(testSpec(), testInputs(), "/out/output.mp4")
	second := BuildArgs(testSpec(), testInputs(), "/out/output.mp4")
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("argument lists differ:\n%v\n%v", first, second)
	}
}

func TestBuildArgsBitexactFlags(t *testing.T) {
	args := strings.Join(BuildArgs(testSpec(), testInputs(), "/out/output.mp4"), " ")
	for _, required := range []string{
		"-fflags +bitexact",
		"-flags:v +bitexact",
		"-map_metadata -1",
		"-movflags +faststart",
		"-nostdin",
	} {
		if !strings.Contains(args, required) {
			t.Fatalf("argument list missing %q:\n%s", required, args)
		}
	}
}

func TestBuildArgsPerShotInputs(t *testing.T) {
	args := BuildArgs(testSpec(), testInputs(), "/out/output.mp4")
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-loop 1 -framerate 24 -t 2.000 -i /work/a.png") {
		t.Fatalf("first input block wrong:\n%s", joined)
	}
	if !strings.Contains(joined, "-loop 1 -framerate 24 -t 1.500 -i /work/b.png") {
		t.Fatalf("second input block wrong:\n%s", joined)
	}
	if args[len(args)-1] != "/out/output.mp4" {
		t.Fatalf("output path must be last, got %q", args[len(args)-1])
	}
}

func TestBuildArgsNoMusicDisablesAudio(t *testing.T) {
	joined := strings.Join(BuildArgs(testSpec(), testInputs(), "/out/output.mp4"), " ")
	if !strings.Contains(joined, "-an") {
		t.Fatalf("expected -an without music:\n%s", joined)
	}
	if strings.Contains(joined, "-c:a") {
		t.Fatalf("audio codec present without music:\n%s", joined)
	}
}

func TestBuildArgsMusicMapping(t *testing.T) {
	spec := testSpec()
	spec.AudioCodec = "aac"
	spec.MusicPath = "/music/track.flac"

	joined := strings.Join(BuildArgs(spec, testInputs(), "/out/output.mp4"), " ")
	// Music is the input after the two shots, so stream index 2.
	if !strings.Contains(joined, "-map 2:a") {
		t.Fatalf("music stream not mapped:\n%s", joined)
	}
	if !strings.Contains(joined, "-c:a aac -b:a 192k -ac 2 -ar 48000 -flags:a +bitexact") {
		t.Fatalf("audio settings wrong:\n%s", joined)
	}
	if strings.Contains(joined, "-an") {
		t.Fatalf("-an present despite music:\n%s", joined)
	}
}

func TestBuildArgsFilterGraph(t *testing.T) {
	spec := testSpec()
	spec.LeadInMS = 500
	spec.LeadOutMS = 250

	args := BuildArgs(spec, testInputs(), "/out/output.mp4")
	var graph string
	for i, arg := range args {
		if arg == "-filter_complex" {
			graph = args[i+1]
			break
		}
	}
	if graph == "" {
		t.Fatal("no filter graph in argument list")
	}
	for _, required := range []string{
		"color=c=black:s=1280x720:r=24:d=0.500[lead_in]",
		"color=c=black:s=1280x720:r=24:d=0.250[lead_out]",
		"[0:v]scale=1280:720:force_original_aspect_ratio=decrease",
		"concat=n=4:v=1:a=0[vout]",
	} {
		if !strings.Contains(graph, required) {
			t.Fatalf("filter graph missing %q:\n%s", required, graph)
		}
	}
}

func TestBuildArgsTotalDurationIncludesPadding(t *testing.T) {
	spec := testSpec()
	spec.LeadInMS = 500
	spec.LeadOutMS = 250

	args := BuildArgs(spec, testInputs(), "/out/output.mp4")
	joined := strings.Join(args, " ")
	// 500 + 2000 + 1500 + 250 = 4250ms.
	if !strings.Contains(joined, "-t 4.250") {
		t.Fatalf("output duration wrong:\n%s", joined)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0.000"},
		{1, "0.001"},
		{2000, "2.000"},
		{61_042, "61.042"},
		{-10, "0.000"},
	}
	for _, tc := range cases {
		if got := formatSeconds(tc.ms); got != tc.want {
			t.Fatalf("formatSeconds(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}
