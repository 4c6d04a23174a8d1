package assets

import (
	"path/filepath"
	"testing"

	"framelock/internal/digest"
	"framelock/internal/testsupport"
	"framelock/internal/timeline"
)

func shotWithVisual(id string, ref *timeline.VisualAssetRef) timeline.Shot {
	return timeline.Shot{ID: id, DurationMS: 1000, Visual: ref}
}

func TestResolveMissingReference(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{shotWithVisual("s1", nil)}}
	decisions := NewResolver(nil).Resolve(tl, nil)
	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	d := decisions[0]
	if d.Source != SourcePlaceholder || d.Reason != ReasonMissing {
		t.Fatalf("decision = %+v, want placeholder/missing", d)
	}
}

func TestResolveReachableAsset(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bg.png")
	testsupport.WriteFile(t, path, []byte("pixels"))

	tl := &timeline.Timeline{Shots: []timeline.Shot{
		shotWithVisual("s1", &timeline.VisualAssetRef{AssetID: "bg-1", Location: path}),
	}}
	d := NewResolver(nil).Resolve(tl, nil)[0]
	if d.Source != SourceReal || d.Reason != ReasonAsset {
		t.Fatalf("decision = %+v, want real/asset", d)
	}
	if d.Path != path {
		t.Fatalf("path = %q, want %q", d.Path, path)
	}
}

func TestResolveUnreachableAsset(t *testing.T) {
	tl := &timeline.Timeline{Shots: []timeline.Shot{
		shotWithVisual("s1", &timeline.VisualAssetRef{AssetID: "bg-1", Location: "/nonexistent/bg.png"}),
	}}
	d := NewResolver(nil).Resolve(tl, nil)[0]
	if d.Source != SourcePlaceholder || d.Reason != ReasonUnreachable {
		t.Fatalf("decision = %+v, want placeholder/unreachable", d)
	}
}

func TestResolveChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bg.png")
	testsupport.WriteFile(t, path, []byte("pixels"))

	tl := &timeline.Timeline{Shots: []timeline.Shot{
		shotWithVisual("s1", &timeline.VisualAssetRef{
			AssetID:  "bg-1",
			Location: path,
			SHA256:   digest.SumBytes([]byte("different content")),
		}),
	}}
	d := NewResolver(nil).Resolve(tl, nil)[0]
	if d.Source != SourcePlaceholder || d.Reason != ReasonChecksumMismatch {
		t.Fatalf("decision = %+v, want placeholder/checksum_mismatch", d)
	}
}

func TestResolveChecksumMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bg.png")
	content := []byte("pixels")
	testsupport.WriteFile(t, path, content)

	tl := &timeline.Timeline{Shots: []timeline.Shot{
		shotWithVisual("s1", &timeline.VisualAssetRef{
			AssetID:  "bg-1",
			Location: path,
			SHA256:   digest.SumBytes(content),
		}),
	}}
	d := NewResolver(nil).Resolve(tl, nil)[0]
	if d.Source != SourceReal || d.Reason != ReasonAsset {
		t.Fatalf("decision = %+v, want real/asset", d)
	}
}

func TestResolvePlanOverrideWins(t *testing.T) {
	dir := t.TempDir()
	resolved := filepath.Join(dir, "resolved.png")
	testsupport.WriteFile(t, resolved, []byte("resolved pixels"))

	tl := &timeline.Timeline{Shots: []timeline.Shot{
		shotWithVisual("s1", &timeline.VisualAssetRef{AssetID: "bg-1", Location: "/nonexistent/bg.png"}),
	}}
	overrides := map[string]string{"bg-1": resolved}
	d := NewResolver(nil).Resolve(tl, overrides)[0]
	if d.Source != SourceReal || d.Reason != ReasonResolved {
		t.Fatalf("decision = %+v, want real/resolved", d)
	}
	if d.Path != resolved {
		t.Fatalf("path = %q, want %q", d.Path, resolved)
	}
}

func TestPlaceholderCount(t *testing.T) {
	decisions := []Decision{
		{Source: SourcePlaceholder},
		{Source: SourceReal},
		{Source: SourcePlaceholder},
	}
	if got := PlaceholderCount(decisions); got != 2 {
		t.Fatalf("PlaceholderCount = %d, want 2", got)
	}
}

func TestLocalPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"file:///assets/bg.png", "/assets/bg.png"},
		{"/assets/bg.png", "/assets/bg.png"},
		{"  /assets/bg.png  ", "/assets/bg.png"},
	}
	for _, tc := range cases {
		if got := LocalPath(tc.in); got != tc.want {
			t.Fatalf("LocalPath(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "track.flac")
	content := []byte("audio")
	testsupport.WriteFile(t, path, content)

	if _, ok := Probe(nil); ok {
		t.Fatal("nil ref should not be reachable")
	}
	if _, ok := Probe(&timeline.VisualAssetRef{Location: "/nonexistent"}); ok {
		t.Fatal("missing file should not be reachable")
	}
	got, ok := Probe(&timeline.VisualAssetRef{Location: path, SHA256: digest.SumBytes(content)})
	if !ok || got != path {
		t.Fatalf("Probe = %q, %v; want %q, true", got, ok, path)
	}
	if _, ok := Probe(&timeline.VisualAssetRef{Location: path, SHA256: digest.SumBytes([]byte("other"))}); ok {
		t.Fatal("checksum mismatch should not be reachable")
	}
}
