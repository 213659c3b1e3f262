package metadata

import (
	"os"
	"path/filepath"
	"testing"
)

// attrTestFile creates an empty file on the test volume and skips the test
// when that volume has no extended attribute support.
func attrTestFile(t *testing.T, c *Codec) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, []byte("stub"), 0o644); err != nil {
		t.Fatalf("create test file: %v", err)
	}
	if !c.IsAttrVolume(path) {
		t.Skip("extended attributes not supported on test volume")
	}
	return path
}

func TestAttributes_RoundTrip(t *testing.T) {
	t.Parallel()

	c := NewCodec(nil)
	path := attrTestFile(t, c)

	in := TagData{
		Title:      "Aurora",
		Artist:     "Lumen",
		Album:      "Northern",
		Year:       2019,
		Track:      3,
		TrackTotal: 12,
		Rating:     7,
		MBTrackID:  "a1b2c3",
	}
	if !c.WriteAttributes(path, in) {
		t.Fatal("write attributes failed")
	}

	out, ok := c.ReadAttributes(path)
	if !ok {
		t.Fatal("read attributes failed")
	}
	if out != in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}

	if got := c.ReadAttrRating(path); got != 7 {
		t.Fatalf("ReadAttrRating = %d, want 7", got)
	}
}

func TestWriteAttributes_EmptyFieldsRemoveKeys(t *testing.T) {
	t.Parallel()

	c := NewCodec(nil)
	path := attrTestFile(t, c)

	if !c.WriteAttributes(path, TagData{Title: "First", Comment: "temp", Rating: 5}) {
		t.Fatal("initial write failed")
	}
	if !c.WriteAttributes(path, TagData{Title: "First"}) {
		t.Fatal("second write failed")
	}

	out, ok := c.ReadAttributes(path)
	if !ok {
		t.Fatal("read attributes failed")
	}
	if out.Comment != "" || out.Rating != 0 {
		t.Fatalf("cleared fields still present: %+v", out)
	}
	if out.Title != "First" {
		t.Fatalf("kept field lost: %q", out.Title)
	}
}

func TestReadAttrRating_MissingIsZero(t *testing.T) {
	t.Parallel()

	c := NewCodec(nil)
	path := attrTestFile(t, c)

	if got := c.ReadAttrRating(path); got != 0 {
		t.Fatalf("ReadAttrRating on bare file = %d, want 0", got)
	}
}
