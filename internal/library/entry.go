// Package library holds the durable in-memory catalog of scanned media
// files. A single cache goroutine owns the catalog; scanners and editors
// talk to it through messages and receive copies back.
package library

import "attune/internal/metadata"

// Entry is one media file as the catalog knows it. Size, MTime and Inode
// identify the on-disk state a scan last observed and drive the fast-skip
// decision on the next scan.
type Entry struct {
	Path string
	Base string

	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Composer    string
	Genre       string
	Comment     string

	Year       int
	Track      int
	TrackTotal int
	Disc       int
	DiscTotal  int

	Rating int

	DurationSec int
	Bitrate     int
	SampleRate  int
	Channels    int

	Size  int64
	MTime int64
	Inode uint64

	MBAlbumID  string
	MBArtistID string
	MBTrackID  string

	// Missing marks entries whose file vanished or whose base directory is
	// offline. They stay in the catalog so identifiers and ratings survive
	// a reconnect.
	Missing bool
}

// ApplyTags copies a metadata snapshot into the entry, leaving file
// identity fields untouched.
func (e *Entry) ApplyTags(td metadata.TagData) {
	e.Title = td.Title
	e.Artist = td.Artist
	e.Album = td.Album
	e.AlbumArtist = td.AlbumArtist
	e.Composer = td.Composer
	e.Genre = td.Genre
	e.Comment = td.Comment

	e.Year = td.Year
	e.Track = td.Track
	e.TrackTotal = td.TrackTotal
	e.Disc = td.Disc
	e.DiscTotal = td.DiscTotal

	e.Rating = td.Rating

	e.DurationSec = td.DurationSec
	e.Bitrate = td.Bitrate
	e.SampleRate = td.SampleRate
	e.Channels = td.Channels

	e.MBAlbumID = td.MBAlbumID
	e.MBArtistID = td.MBArtistID
	e.MBTrackID = td.MBTrackID
}

// Tags projects the entry back onto the metadata schema.
func (e Entry) Tags() metadata.TagData {
	return metadata.TagData{
		Title:       e.Title,
		Artist:      e.Artist,
		Album:       e.Album,
		AlbumArtist: e.AlbumArtist,
		Composer:    e.Composer,
		Genre:       e.Genre,
		Comment:     e.Comment,

		Year:       e.Year,
		Track:      e.Track,
		TrackTotal: e.TrackTotal,
		Disc:       e.Disc,
		DiscTotal:  e.DiscTotal,

		Rating: e.Rating,

		DurationSec: e.DurationSec,
		Bitrate:     e.Bitrate,
		SampleRate:  e.SampleRate,
		Channels:    e.Channels,

		MBAlbumID:  e.MBAlbumID,
		MBArtistID: e.MBArtistID,
		MBTrackID:  e.MBTrackID,
	}
}
