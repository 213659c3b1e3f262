package metadata

// wmpRatingOwner is the owner string stored next to the rating byte in
// ID3-style tags. Windows Explorer, Windows Media Player and most players
// in that ecosystem only honor ratings carried under exactly this string,
// so it must not be changed.
const wmpRatingOwner = "Windows Media Player 9 Series"

// ratingBytes maps the internal 0-10 rating scale to the byte values the
// Windows ecosystem expects. The table is deliberately non-linear; do not
// regularize it.
var ratingBytes = [11]int{0, 1, 64, 96, 128, 160, 196, 208, 224, 240, 255}

// RatingToByte converts an internal rating (0-10) to its tag byte value.
// Ratings above 10 clamp to the maximum.
func RatingToByte(rating int) int {
	if rating <= 0 {
		return 0
	}
	if rating >= 10 {
		return 255
	}
	return ratingBytes[rating]
}

// ByteToRating buckets a 0-255 tag byte back onto the 0-10 scale. The
// bucket edges are the table values themselves, so a written rating always
// reads back into the same bucket.
func ByteToRating(value int) int {
	switch {
	case value <= 0:
		return 0
	case value < 8:
		return 1
	case value <= 64:
		return 2
	case value <= 96:
		return 3
	case value <= 128:
		return 4
	case value <= 160:
		return 5
	case value <= 196:
		return 6
	case value <= 208:
		return 7
	case value <= 224:
		return 8
	case value <= 240:
		return 9
	default:
		return 10
	}
}

// ratingFromText normalizes a free-form RATING value found in generic
// property maps. Values on a 0-100 scale are reduced to 0-10 stars first;
// the remaining 0-5 star scale doubles onto 0-10.
func ratingFromText(value int) int {
	if value <= 0 {
		return 0
	}
	if value > 10 {
		value /= 10
	}
	if value > 5 {
		value = 5
	}
	return value * 2
}

// ratingFromPercent maps the box-atom 1-100 percentage rating onto 0-10,
// rounding to the nearest step. Values beyond 100 are raw rating bytes.
func ratingFromPercent(value int) int {
	if value <= 0 {
		return 0
	}
	if value > 100 {
		return ByteToRating(value)
	}
	return (value + 5) / 10
}

// clampRating bounds a rating read from native attributes to [0,10].
func clampRating(value int) int {
	if value < 0 || value > 10 {
		return 0
	}
	return value
}
