package metadata

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pkg/xattr"
)

// Native attribute keys, one per TagData field. Numeric fields are stored
// as decimal strings.
const (
	attrTitle       = "user.media.title"
	attrArtist      = "user.media.artist"
	attrAlbum       = "user.media.album"
	attrAlbumArtist = "user.media.album_artist"
	attrComposer    = "user.media.composer"
	attrGenre       = "user.media.genre"
	attrComment     = "user.media.comment"
	attrYear        = "user.media.year"
	attrTrack       = "user.media.track"
	attrTrackTotal  = "user.media.track_total"
	attrDisc        = "user.media.disc"
	attrDiscTotal   = "user.media.disc_total"
	attrDuration    = "user.media.length"
	attrBitrate     = "user.media.bitrate"
	attrSampleRate  = "user.media.sample_rate"
	attrChannels    = "user.media.channels"
	attrRating      = "user.media.rating"
	attrMBAlbumID   = "user.media.mb_album_id"
	attrMBArtistID  = "user.media.mb_artist_id"
	attrMBTrackID   = "user.media.mb_track_id"
	attrAcoustID    = "user.media.acoust_id"
)

// IsAttrVolume reports whether the file's volume supports native extended
// attributes at all. Callers must treat attribute reads and writes as
// unavailable when this is false.
func (c *Codec) IsAttrVolume(path string) bool {
	if !xattr.XATTR_SUPPORTED {
		return false
	}

	// ENOTSUP means the volume has no attribute support; any other List
	// failure makes attributes equally unusable for this file.
	_, err := xattr.List(path)
	return err == nil
}

// ReadAttributes loads the full schema from native attributes. ok is false
// when the file's attributes cannot be listed at all; individual missing
// keys simply leave their fields empty.
func (c *Codec) ReadAttributes(path string) (TagData, bool) {
	var out TagData

	if _, err := xattr.List(path); err != nil {
		return out, false
	}

	out.Title = getAttr(path, attrTitle)
	out.Artist = getAttr(path, attrArtist)
	out.Album = getAttr(path, attrAlbum)
	out.AlbumArtist = getAttr(path, attrAlbumArtist)
	out.Composer = getAttr(path, attrComposer)
	out.Genre = getAttr(path, attrGenre)
	out.Comment = getAttr(path, attrComment)

	out.Year = getAttrInt(path, attrYear)
	out.Track = getAttrInt(path, attrTrack)
	out.TrackTotal = getAttrInt(path, attrTrackTotal)
	out.Disc = getAttrInt(path, attrDisc)
	out.DiscTotal = getAttrInt(path, attrDiscTotal)

	out.DurationSec = getAttrInt(path, attrDuration)
	out.Bitrate = getAttrInt(path, attrBitrate)
	out.SampleRate = getAttrInt(path, attrSampleRate)
	out.Channels = getAttrInt(path, attrChannels)

	out.Rating = clampRating(getAttrInt(path, attrRating))

	out.MBAlbumID = getAttr(path, attrMBAlbumID)
	out.MBArtistID = getAttr(path, attrMBArtistID)
	out.MBTrackID = getAttr(path, attrMBTrackID)
	out.AcoustID = getAttr(path, attrAcoustID)

	return out, true
}

// WriteAttributes mirrors td into native attributes. Empty fields remove
// their key rather than writing an empty value, so stale data never
// lingers. Returns false if any single write failed.
func (c *Codec) WriteAttributes(path string, td TagData) bool {
	ok := true

	ok = setAttr(path, attrTitle, td.Title) && ok
	ok = setAttr(path, attrArtist, td.Artist) && ok
	ok = setAttr(path, attrAlbum, td.Album) && ok
	ok = setAttr(path, attrAlbumArtist, td.AlbumArtist) && ok
	ok = setAttr(path, attrComposer, td.Composer) && ok
	ok = setAttr(path, attrGenre, td.Genre) && ok
	ok = setAttr(path, attrComment, td.Comment) && ok

	ok = setAttrInt(path, attrYear, td.Year) && ok
	ok = setAttrInt(path, attrTrack, td.Track) && ok
	ok = setAttrInt(path, attrTrackTotal, td.TrackTotal) && ok
	ok = setAttrInt(path, attrDisc, td.Disc) && ok
	ok = setAttrInt(path, attrDiscTotal, td.DiscTotal) && ok

	ok = setAttrInt(path, attrDuration, td.DurationSec) && ok
	ok = setAttrInt(path, attrBitrate, td.Bitrate) && ok
	ok = setAttrInt(path, attrSampleRate, td.SampleRate) && ok
	ok = setAttrInt(path, attrChannels, td.Channels) && ok

	ok = setAttrInt(path, attrRating, td.Rating) && ok

	ok = setAttr(path, attrMBAlbumID, td.MBAlbumID) && ok
	ok = setAttr(path, attrMBArtistID, td.MBArtistID) && ok
	ok = setAttr(path, attrMBTrackID, td.MBTrackID) && ok
	ok = setAttr(path, attrAcoustID, td.AcoustID) && ok

	if !ok {
		c.log.Warn("native attribute write incomplete", "path", path)
	}
	return ok
}

// ReadAttrRating is the cheap probe used by the scanner's fast-skip path:
// a single attribute read, no tag parsing. Missing or malformed values
// read as 0.
func (c *Codec) ReadAttrRating(path string) int {
	return clampRating(getAttrInt(path, attrRating))
}

func getAttr(path, key string) string {
	data, err := xattr.Get(path, key)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func getAttrInt(path, key string) int {
	s := getAttr(path, key)
	if s == "" {
		return 0
	}

	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func setAttr(path, key, value string) bool {
	if value == "" {
		return removeAttr(path, key)
	}
	return xattr.Set(path, key, []byte(value)) == nil
}

func setAttrInt(path, key string, value int) bool {
	if value == 0 {
		return removeAttr(path, key)
	}
	return setAttr(path, key, strconv.Itoa(value))
}

// removeAttr deletes a key; a key that was never set counts as removed.
func removeAttr(path, key string) bool {
	err := xattr.Remove(path, key)
	if err == nil {
		return true
	}

	var xerr *xattr.Error
	if errors.As(err, &xerr) && xerr.Err == xattr.ENOATTR {
		return true
	}
	return false
}
