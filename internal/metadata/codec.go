package metadata

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"go.senan.xyz/taglib"
)

// Codec translates between TagData and the two on-disk stores. One codec
// is shared by the scanner and the sync engine; it keeps no per-file state.
type Codec struct {
	log *slog.Logger
}

func NewCodec(log *slog.Logger) *Codec {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Codec{log: log}
}

// ratingKeyID3 carries the rating byte in ID3-style tags together with the
// owner string the Windows ecosystem requires.
const ratingKeyID3 = "RATING:" + wmpRatingOwner

const (
	keyComment     = "COMMENT"
	keyComposer    = "COMPOSER"
	keyRating      = "RATING"
	keyTrackTotal  = "TRACKTOTAL"
	keyTotalTracks = "TOTALTRACKS"
	keyDiscTotal   = "DISCTOTAL"
	keyTotalDiscs  = "TOTALDISCS"
	keyMBAlbumID   = "MUSICBRAINZ_ALBUMID"
	keyMBArtistID  = "MUSICBRAINZ_ARTISTID"
	keyMBTrackID   = "MUSICBRAINZ_TRACKID"
	keyAcoustID    = "ACOUSTID_ID"
	keyAcoustIDFp  = "ACOUSTID_FINGERPRINT"
)

// ReadCombined is the scanner's read: embedded tags first, then native
// attributes filling any fields the tags left empty.
func (c *Codec) ReadCombined(path string) (TagData, bool) {
	out, found := c.ReadTags(path)

	if attrs, ok := c.ReadAttributes(path); ok && !attrs.IsZero() {
		fillEmpty(&out, attrs)
		found = true
	}

	return out, found
}

// ReadTags reads the embedded tag container and the audio stream
// properties. Native attributes are not consulted; use ReadCombined for
// the merged view. ok is false only when nothing could be read.
func (c *Codec) ReadTags(path string) (TagData, bool) {
	var out TagData
	found := false

	if tags, err := taglib.ReadTags(path); err == nil {
		applyPropertyMap(&out, tags, normalizeExt(path))
		found = true
	} else if fallback, ok := readTagsDhowden(path); ok {
		out = fallback
		found = true
	} else {
		c.log.Debug("embedded tag read failed", "path", path, "error", err)
	}

	if props, err := taglib.ReadProperties(path); err == nil {
		if props.Length > 0 {
			out.DurationSec = int(props.Length.Seconds())
		}
		out.Bitrate = int(props.Bitrate)
		out.SampleRate = int(props.SampleRate)
		out.Channels = int(props.Channels)
		found = true
	}

	return out, found
}

// WriteTagsToFile writes td into the file's embedded tags, dispatching on
// the normalized extension. Empty fields remove their tag storage rather
// than writing empty values. An optional cover image is embedded in the
// same call.
func (c *Codec) WriteTagsToFile(path string, td TagData, cover []byte) bool {
	strategy, ok := writeStrategies[normalizeExt(path)]
	if !ok {
		c.log.Warn("unsupported tag container", "path", path)
		return false
	}

	if err := taglib.WriteTags(path, strategy(td), 0); err != nil {
		c.log.Warn("tag write failed", "path", path, "error", err)
		return false
	}

	if len(cover) > 0 {
		return c.WriteEmbeddedCover(path, cover, "")
	}
	return true
}

// ApplySync writes one merged snapshot toward a single store.
func (c *Codec) ApplySync(path string, td TagData, towardAttrs bool) bool {
	if towardAttrs {
		return c.WriteAttributes(path, td)
	}
	return c.WriteTagsToFile(path, td, nil)
}

// tagPatch maps property keys to replacement values. A zero-length value
// list removes the key.
type tagPatch = map[string][]string

// writeStrategies picks the field encoding per container family: the
// ID3-style frame container, the box-atom container, and the generic
// property-map container.
var writeStrategies = map[string]func(TagData) tagPatch{
	".mp3":  id3Patch,
	".m4a":  mp4Patch,
	".mp4":  mp4Patch,
	".aac":  mp4Patch,
	".flac": propertyPatch,
	".ogg":  propertyPatch,
	".opus": propertyPatch,
	".wav":  propertyPatch,
	".wma":  propertyPatch,
}

func basePatch(td TagData) tagPatch {
	patch := tagPatch{}
	setOrErase(patch, taglib.Title, td.Title)
	setOrErase(patch, taglib.Artist, td.Artist)
	setOrErase(patch, taglib.Album, td.Album)
	setOrErase(patch, taglib.AlbumArtist, td.AlbumArtist)
	setOrErase(patch, keyComposer, td.Composer)
	setOrErase(patch, taglib.Genre, td.Genre)
	setOrErase(patch, keyComment, td.Comment)

	year := ""
	if td.Year > 0 {
		year = strconv.Itoa(td.Year)
	}
	setOrErase(patch, taglib.Date, year)

	setOrErase(patch, taglib.TrackNumber, formatPair(td.Track, td.TrackTotal))
	setOrErase(patch, taglib.DiscNumber, formatPair(td.Disc, td.DiscTotal))

	setOrErase(patch, keyMBAlbumID, td.MBAlbumID)
	setOrErase(patch, keyMBArtistID, td.MBArtistID)
	setOrErase(patch, keyMBTrackID, td.MBTrackID)
	setOrErase(patch, keyAcoustID, td.AcoustID)

	return patch
}

func id3Patch(td TagData) tagPatch {
	patch := basePatch(td)

	rating := ""
	if td.Rating > 0 {
		rating = strconv.Itoa(RatingToByte(td.Rating))
	}
	setOrErase(patch, ratingKeyID3, rating)

	return patch
}

func mp4Patch(td TagData) tagPatch {
	patch := basePatch(td)

	rating := ""
	if td.Rating > 0 {
		if td.Rating > 10 {
			td.Rating = 10
		}
		rating = strconv.Itoa(td.Rating * 10)
	}
	setOrErase(patch, keyRating, rating)

	return patch
}

func propertyPatch(td TagData) tagPatch {
	patch := basePatch(td)

	total := ""
	if td.TrackTotal > 0 {
		total = strconv.Itoa(td.TrackTotal)
	}
	setOrErase(patch, keyTrackTotal, total)
	setOrErase(patch, keyTotalTracks, total)

	discTotal := ""
	if td.DiscTotal > 0 {
		discTotal = strconv.Itoa(td.DiscTotal)
	}
	setOrErase(patch, keyDiscTotal, discTotal)
	setOrErase(patch, keyTotalDiscs, discTotal)

	return patch
}

func setOrErase(patch tagPatch, key, value string) {
	if value == "" {
		patch[key] = nil
		return
	}
	patch[key] = []string{value}
}

func applyPropertyMap(out *TagData, tags map[string][]string, ext string) {
	out.Title = firstValue(tags, taglib.Title, "TITLE")
	out.Artist = firstValue(tags, taglib.Artist, "ARTIST")
	out.Album = firstValue(tags, taglib.Album, "ALBUM")
	out.Genre = firstValue(tags, taglib.Genre, "GENRE")
	out.Comment = firstValue(tags, keyComment)
	out.AlbumArtist = firstValue(tags, taglib.AlbumArtist, "ALBUMARTIST", "ALBUM ARTIST")
	out.Composer = firstValue(tags, keyComposer, "Composer", "composer")

	out.Year = parseUint(firstValue(tags, taglib.Date, "DATE", "YEAR", "ORIGINALDATE"))

	out.Track, out.TrackTotal = parsePair(firstValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK"))
	if out.TrackTotal == 0 {
		out.TrackTotal = parseUint(firstValue(tags, keyTrackTotal, keyTotalTracks, "TOTAL TRACKS"))
	}

	out.Disc, out.DiscTotal = parsePair(firstValue(tags, taglib.DiscNumber, "DISCNUMBER", "TPOS"))
	if out.DiscTotal == 0 {
		out.DiscTotal = parseUint(firstValue(tags, keyDiscTotal, keyTotalDiscs, "TOTAL DISCS"))
	}

	out.Rating = ratingFromMap(tags, ext)

	out.MBAlbumID = firstValue(tags, keyMBAlbumID, "MusicBrainz Album Id")
	out.MBArtistID = firstValue(tags, keyMBArtistID, "MusicBrainz Artist Id")
	out.MBTrackID = firstValue(tags, keyMBTrackID, "MusicBrainz Track Id")
	out.AcoustID = firstValue(tags, keyAcoustID, "AcoustID Id", "Acoustid Id")
	out.AcoustIDFingerprint = firstValue(tags, keyAcoustIDFp, "AcoustID Fingerprint", "Acoustid Fingerprint")
}

// ratingFromMap prefers an owner-qualified rating byte, falling back to the
// plain RATING key interpreted on the container's own scale.
func ratingFromMap(tags map[string][]string, ext string) int {
	// The Windows Media Player frame wins over other owners, which would
	// otherwise be picked in map order.
	if v := ownerRatingByte(tags[ratingKeyID3]); v > 0 {
		return ByteToRating(v)
	}
	for key, values := range tags {
		if key == ratingKeyID3 || !strings.HasPrefix(key, "RATING:") {
			continue
		}
		if v := ownerRatingByte(values); v > 0 {
			return ByteToRating(v)
		}
	}

	raw := parseUint(firstValue(tags, keyRating, "rating"))
	if raw == 0 {
		return 0
	}

	switch ext {
	case ".m4a", ".mp4", ".aac":
		return ratingFromPercent(raw)
	default:
		return ratingFromText(raw)
	}
}

// ownerRatingByte parses the first value of an owner-qualified RATING key.
func ownerRatingByte(values []string) int {
	if len(values) == 0 {
		return 0
	}
	v, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// readTagsDhowden is the pure-Go fallback prober for files the primary
// tag library cannot open.
func readTagsDhowden(path string) (TagData, bool) {
	f, err := os.Open(path)
	if err != nil {
		return TagData{}, false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return TagData{}, false
	}

	var out TagData
	out.Title = strings.TrimSpace(m.Title())
	out.Artist = strings.TrimSpace(m.Artist())
	out.Album = strings.TrimSpace(m.Album())
	out.AlbumArtist = strings.TrimSpace(m.AlbumArtist())
	out.Composer = strings.TrimSpace(m.Composer())
	out.Genre = strings.TrimSpace(m.Genre())
	out.Comment = strings.TrimSpace(m.Comment())
	out.Year = m.Year()
	out.Track, out.TrackTotal = m.Track()
	out.Disc, out.DiscTotal = m.Disc()

	return out, !out.IsZero()
}

// fillEmpty copies secondary values into fields out left empty.
func fillEmpty(out *TagData, secondary TagData) {
	fillStr := func(target *string, v string) {
		if *target == "" {
			*target = v
		}
	}
	fillInt := func(target *int, v int) {
		if *target == 0 {
			*target = v
		}
	}

	fillStr(&out.Title, secondary.Title)
	fillStr(&out.Artist, secondary.Artist)
	fillStr(&out.Album, secondary.Album)
	fillStr(&out.AlbumArtist, secondary.AlbumArtist)
	fillStr(&out.Composer, secondary.Composer)
	fillStr(&out.Genre, secondary.Genre)
	fillStr(&out.Comment, secondary.Comment)

	fillInt(&out.Year, secondary.Year)
	fillInt(&out.Track, secondary.Track)
	fillInt(&out.TrackTotal, secondary.TrackTotal)
	fillInt(&out.Disc, secondary.Disc)
	fillInt(&out.DiscTotal, secondary.DiscTotal)
	fillInt(&out.Rating, secondary.Rating)

	fillInt(&out.DurationSec, secondary.DurationSec)
	fillInt(&out.Bitrate, secondary.Bitrate)
	fillInt(&out.SampleRate, secondary.SampleRate)
	fillInt(&out.Channels, secondary.Channels)

	fillStr(&out.MBAlbumID, secondary.MBAlbumID)
	fillStr(&out.MBArtistID, secondary.MBArtistID)
	fillStr(&out.MBTrackID, secondary.MBTrackID)
	fillStr(&out.AcoustID, secondary.AcoustID)
	fillStr(&out.AcoustIDFingerprint, secondary.AcoustIDFingerprint)
}

func firstValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		values, ok := tags[key]
		if !ok {
			continue
		}
		for _, value := range values {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func normalizeExt(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
