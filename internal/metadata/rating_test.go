package metadata

import "testing"

func TestRatingToByte_TableValues(t *testing.T) {
	t.Parallel()

	want := map[int]int{
		0: 0, 1: 1, 2: 64, 3: 96, 4: 128, 5: 160,
		6: 196, 7: 208, 8: 224, 9: 240, 10: 255,
	}
	for rating, expected := range want {
		if got := RatingToByte(rating); got != expected {
			t.Errorf("RatingToByte(%d) = %d, want %d", rating, got, expected)
		}
	}

	if got := RatingToByte(15); got != 255 {
		t.Errorf("RatingToByte(15) = %d, want clamp to 255", got)
	}
	if got := RatingToByte(-3); got != 0 {
		t.Errorf("RatingToByte(-3) = %d, want 0", got)
	}
}

func TestByteToRating_RoundTripsEveryRating(t *testing.T) {
	t.Parallel()

	for rating := 0; rating <= 10; rating++ {
		if got := ByteToRating(RatingToByte(rating)); got != rating {
			t.Errorf("rating %d round-tripped to %d", rating, got)
		}
	}
}

func TestByteToRating_TableValuesAreBucketEdges(t *testing.T) {
	t.Parallel()

	// Each table value is the inclusive upper edge of its own bucket; one
	// past it belongs to the next rating up.
	for rating := 2; rating <= 9; rating++ {
		edge := ratingBytes[rating]
		if got := ByteToRating(edge); got != rating {
			t.Errorf("ByteToRating(%d) = %d, want %d", edge, got, rating)
		}
		if got := ByteToRating(edge + 1); got != rating+1 {
			t.Errorf("ByteToRating(%d) = %d, want %d", edge+1, got, rating+1)
		}
	}
}

func TestByteToRating_BucketsForeignBytes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, want int
	}{
		{-1, 0},
		{0, 0},
		{5, 1},
		{30, 2},
		{80, 3},
		{100, 4},
		{150, 5},
		{180, 6},
		{200, 7},
		{215, 8},
		{230, 9},
		{250, 10},
		{255, 10},
	}
	for _, tc := range cases {
		if got := ByteToRating(tc.value); got != tc.want {
			t.Errorf("ByteToRating(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestRatingFromText(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, want int
	}{
		{0, 0},
		{3, 6},
		{5, 10},
		{7, 10},   // star scales above 5 clamp
		{40, 8},   // 0-100 scale reduces first
		{100, 10},
	}
	for _, tc := range cases {
		if got := ratingFromText(tc.value); got != tc.want {
			t.Errorf("ratingFromText(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestRatingFromPercent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value, want int
	}{
		{0, 0},
		{1, 0},
		{10, 1},
		{50, 5},
		{95, 10},
		{100, 10},
		{224, 8}, // beyond 100 it is a raw rating byte
	}
	for _, tc := range cases {
		if got := ratingFromPercent(tc.value); got != tc.want {
			t.Errorf("ratingFromPercent(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestRatingFromMap_PrefersWindowsMediaPlayerOwner(t *testing.T) {
	t.Parallel()

	tags := map[string][]string{
		"RATING:no-reply@example.org": {"1"},
		ratingKeyID3:                  {"224"},
	}
	if got := ratingFromMap(tags, ".mp3"); got != 8 {
		t.Fatalf("ratingFromMap = %d, want the owner frame's 8", got)
	}

	delete(tags, ratingKeyID3)
	if got := ratingFromMap(tags, ".mp3"); got != 1 {
		t.Fatalf("ratingFromMap = %d, want foreign owner fallback 1", got)
	}
}
