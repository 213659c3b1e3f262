// Package metadata reads, writes and merges audio metadata across two
// competing stores: tags embedded in the audio container and native
// filesystem extended attributes. All formats are normalized into TagData.
package metadata

import (
	"strconv"
	"strings"
)

// TagData is the normalized metadata schema. It is built per operation and
// never persisted directly; the library cache keeps its own projection.
type TagData struct {
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

	// Rating is 0 (unrated) to 10 (five stars, half-star steps).
	Rating int

	DurationSec int
	Bitrate     int
	SampleRate  int
	Channels    int

	MBAlbumID  string
	MBArtistID string
	MBTrackID  string

	// Acoustic fingerprint identifiers live only in tags and attributes,
	// not in the entry cache.
	AcoustID            string
	AcoustIDFingerprint string
}

// IsZero reports whether no field carries data.
func (t TagData) IsZero() bool {
	return t == TagData{}
}

// formatPair renders paired numeric fields ("5/12"). A zero total drops
// the slash; a zero pair is the empty string.
func formatPair(n, total int) string {
	if n == 0 && total == 0 {
		return ""
	}
	if total == 0 {
		return strconv.Itoa(n)
	}
	return strconv.Itoa(n) + "/" + strconv.Itoa(total)
}

// parsePair splits "N/total" on the first slash. An absent slash means
// total=0; unparsable parts come back as 0.
func parsePair(s string) (n, total int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}

	before, after, found := strings.Cut(s, "/")
	n = parseUint(before)
	if found {
		total = parseUint(after)
	}
	return n, total
}

// parseUint reads a non-negative integer from the front of a string,
// tolerating trailing junk. Anything unparsable is 0.
func parseUint(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}

	v, err := strconv.Atoi(s[:end])
	if err != nil || v < 0 {
		return 0
	}
	return v
}
