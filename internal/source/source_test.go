package source

import "testing"

func TestForPath_LongestPrefixWins(t *testing.T) {
	t.Parallel()

	sources := []Source{
		{Path: "/music", Primary: TypeTags, Secondary: TypeAttrs, Policy: PolicyOverwrite},
		{Path: "/music/classical", Primary: TypeAttrs, Secondary: TypeTags, Policy: PolicyFillEmpty},
	}

	got := ForPath(sources, "/music/classical/bach/cello.flac")
	if got.Path != "/music/classical" {
		t.Fatalf("matched %q, want /music/classical", got.Path)
	}
	if got.Primary != TypeAttrs || got.Policy != PolicyFillEmpty {
		t.Fatalf("wrong configuration returned: %+v", got)
	}

	got = ForPath(sources, "/music/rock/track.mp3")
	if got.Path != "/music" {
		t.Fatalf("matched %q, want /music", got.Path)
	}
}

func TestForPath_NoMatchReturnsDefaults(t *testing.T) {
	t.Parallel()

	sources := []Source{{Path: "/music", Policy: PolicyOverwrite}}

	got := ForPath(sources, "/videos/clip.mp4")
	want := Default()
	if got != want {
		t.Fatalf("got %+v, want defaults %+v", got, want)
	}
}

func TestForPath_EmptyListReturnsDefaults(t *testing.T) {
	t.Parallel()

	got := ForPath(nil, "/music/track.mp3")
	if got != Default() {
		t.Fatalf("got %+v, want defaults", got)
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	d := Default()
	if d.Primary != TypeTags || d.Secondary != TypeAttrs || d.Policy != PolicyAsk {
		t.Fatalf("unexpected defaults: %+v", d)
	}
}

func TestStringers(t *testing.T) {
	t.Parallel()

	if TypeAttrs.String() != "attributes" || TypeTags.String() != "tags" || TypeNone.String() != "none" {
		t.Fatal("Type stringer mismatch")
	}
	if PolicyAsk.String() != "ask" || PolicyOverwrite.String() != "overwrite" || PolicyFillEmpty.String() != "fill-empty" {
		t.Fatal("ConflictPolicy stringer mismatch")
	}
}
