// Package tagsync edits metadata and reconciles the two stores (embedded
// tags and native attributes) under per-directory policy.
package tagsync

import "attune/internal/metadata"

// FieldPatch is a partial edit. Nil fields are untouched; a pointer to the
// zero value clears the field in every store it is written to.
type FieldPatch struct {
	Title       *string
	Artist      *string
	Album       *string
	AlbumArtist *string
	Composer    *string
	Genre       *string
	Comment     *string

	Year       *int
	Track      *int
	TrackTotal *int
	Disc       *int
	DiscTotal  *int

	Rating *int

	MBAlbumID  *string
	MBArtistID *string
	MBTrackID  *string
}

func (p FieldPatch) apply(td *metadata.TagData) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}

	setStr(&td.Title, p.Title)
	setStr(&td.Artist, p.Artist)
	setStr(&td.Album, p.Album)
	setStr(&td.AlbumArtist, p.AlbumArtist)
	setStr(&td.Composer, p.Composer)
	setStr(&td.Genre, p.Genre)
	setStr(&td.Comment, p.Comment)

	setInt(&td.Year, p.Year)
	setInt(&td.Track, p.Track)
	setInt(&td.TrackTotal, p.TrackTotal)
	setInt(&td.Disc, p.Disc)
	setInt(&td.DiscTotal, p.DiscTotal)

	setInt(&td.Rating, p.Rating)

	setStr(&td.MBAlbumID, p.MBAlbumID)
	setStr(&td.MBArtistID, p.MBArtistID)
	setStr(&td.MBTrackID, p.MBTrackID)
}

// IsEmpty reports whether the patch changes nothing.
func (p FieldPatch) IsEmpty() bool {
	return p == FieldPatch{}
}
