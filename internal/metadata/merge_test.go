package metadata

import (
	"testing"

	"attune/internal/source"
)

func TestSmartMerge_IdenticalSnapshotsAreNoOp(t *testing.T) {
	t.Parallel()

	td := TagData{Title: "Aurora", Artist: "Lumen", Year: 2019, Rating: 8}

	merged, changed, conflict := SmartMerge(td, td)
	if merged != td {
		t.Fatalf("merge of identical snapshots changed data: %+v", merged)
	}
	if changed || conflict {
		t.Fatalf("changed=%v conflict=%v, want false/false", changed, conflict)
	}
}

func TestSmartMerge_AdoptsSecondaryIntoEmptyFields(t *testing.T) {
	t.Parallel()

	primary := TagData{Title: "Aurora"}
	secondary := TagData{Title: "Aurora", Artist: "Lumen", Track: 3}

	merged, changed, conflict := SmartMerge(primary, secondary)
	if conflict {
		t.Fatal("unexpected conflict")
	}
	if !changed {
		t.Fatal("expected changed when empty fields are filled")
	}
	if merged.Artist != "Lumen" || merged.Track != 3 {
		t.Fatalf("secondary values not adopted: %+v", merged)
	}
}

func TestSmartMerge_ConflictKeepsPrimary(t *testing.T) {
	t.Parallel()

	primary := TagData{Artist: "Lumen"}
	secondary := TagData{Artist: "Someone Else"}

	merged, _, conflict := SmartMerge(primary, secondary)
	if !conflict {
		t.Fatal("expected conflict for differing non-empty fields")
	}
	if merged.Artist != "Lumen" {
		t.Fatalf("primary value lost on conflict: %q", merged.Artist)
	}
}

func TestSmartMerge_StreamPropertiesNeverConflict(t *testing.T) {
	t.Parallel()

	primary := TagData{Bitrate: 320}
	secondary := TagData{Bitrate: 128, DurationSec: 241}

	merged, changed, conflict := SmartMerge(primary, secondary)
	if conflict {
		t.Fatal("stream properties must not raise conflicts")
	}
	if !changed || merged.DurationSec != 241 {
		t.Fatalf("empty duration not filled: %+v", merged)
	}
	if merged.Bitrate != 320 {
		t.Fatalf("primary bitrate replaced: %d", merged.Bitrate)
	}
}

func TestMergeMetadata_FillEmpty(t *testing.T) {
	t.Parallel()

	primary := TagData{Title: "Kept", Artist: ""}
	secondary := TagData{Title: "Ignored", Artist: "Filled", Rating: 6}

	merged := MergeMetadata(primary, secondary, source.PolicyFillEmpty)
	if merged.Title != "Kept" {
		t.Fatalf("fill-empty replaced a populated primary field: %q", merged.Title)
	}
	if merged.Artist != "Filled" || merged.Rating != 6 {
		t.Fatalf("empty fields not filled: %+v", merged)
	}
}

func TestMergeMetadata_OverwriteIsPrimaryVerbatim(t *testing.T) {
	t.Parallel()

	primary := TagData{Title: "New", Rating: 9}
	secondary := TagData{Title: "Old", Artist: "Dropped", Rating: 4}

	merged := MergeMetadata(primary, secondary, source.PolicyOverwrite)
	if merged != primary {
		t.Fatalf("overwrite must return primary unchanged: %+v", merged)
	}
}

func TestHasDifferences(t *testing.T) {
	t.Parallel()

	a := TagData{Title: "Same", Rating: 5, Bitrate: 320}
	b := TagData{Title: "Same", Rating: 5, Bitrate: 128}

	if HasDifferences(a, b) {
		t.Fatal("stream properties must not count as differences")
	}

	b.Rating = 7
	if !HasDifferences(a, b) {
		t.Fatal("differing rating must count as a difference")
	}
}
