package metadata

import "attune/internal/source"

// stringFields and intFields expose the mergeable fields of a TagData in a
// fixed order so the merge rules are written once, not per field.
func stringFields(t *TagData) []*string {
	return []*string{
		&t.Title, &t.Artist, &t.Album, &t.AlbumArtist, &t.Composer,
		&t.Genre, &t.Comment,
		&t.MBAlbumID, &t.MBArtistID, &t.MBTrackID,
		&t.AcoustID, &t.AcoustIDFingerprint,
	}
}

func intFields(t *TagData) []*int {
	return []*int{
		&t.Year, &t.Track, &t.TrackTotal, &t.Disc, &t.DiscTotal, &t.Rating,
	}
}

// Stream properties are derived from the audio data itself. They are
// filled, never treated as conflicts.
func propFields(t *TagData) []*int {
	return []*int{&t.DurationSec, &t.Bitrate, &t.SampleRate, &t.Channels}
}

// SmartMerge combines two snapshots field by field. Equal or
// secondary-empty fields keep the primary value; fields empty on the
// primary side adopt the secondary value and set changed; fields populated
// differently on both sides keep the primary value and set conflict.
func SmartMerge(primary, secondary TagData) (merged TagData, changed, conflict bool) {
	merged = primary

	mstr, sstr := stringFields(&merged), stringFields(&secondary)
	for i := range mstr {
		p, s := *mstr[i], *sstr[i]
		switch {
		case s == "" || p == s:
		case p == "":
			*mstr[i] = s
			changed = true
		default:
			conflict = true
		}
	}

	mint, sint := intFields(&merged), intFields(&secondary)
	for i := range mint {
		p, s := *mint[i], *sint[i]
		switch {
		case s == 0 || p == s:
		case p == 0:
			*mint[i] = s
			changed = true
		default:
			conflict = true
		}
	}

	mprop, sprop := propFields(&merged), propFields(&secondary)
	for i := range mprop {
		if *mprop[i] == 0 && *sprop[i] != 0 {
			*mprop[i] = *sprop[i]
			changed = true
		}
	}

	return merged, changed, conflict
}

// MergeMetadata is the non-interactive merge for a fixed policy. Overwrite
// returns primary verbatim; fill-empty returns primary with its empty
// fields filled from secondary. Conflict escalation lives in SmartMerge.
func MergeMetadata(primary, secondary TagData, policy source.ConflictPolicy) TagData {
	if policy == source.PolicyOverwrite {
		return primary
	}
	fillEmpty(&primary, secondary)
	return primary
}

// HasDifferences reports whether writing a would change anything relative
// to what b already holds, ignoring stream properties.
func HasDifferences(a, b TagData) bool {
	astr, bstr := stringFields(&a), stringFields(&b)
	for i := range astr {
		if *astr[i] != *bstr[i] {
			return true
		}
	}

	aint, bint := intFields(&a), intFields(&b)
	for i := range aint {
		if *aint[i] != *bint[i] {
			return true
		}
	}

	return false
}
