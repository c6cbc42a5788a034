package content

import (
	"fmt"
	"time"
)

// SpotlightIndex picks the daily article index for a UTC calendar day.
//
// The seed string uses a zero-indexed month and the hash wraps at 32 bits,
// matching the original web client's `(hash*31 + charCode) | 0` selection so
// both stacks pick the same article on the same day. When the candidate list
// changes intra-day the selection can silently change with it; that quirk is
// kept as-is.
func SpotlightIndex(day time.Time, candidateCount int) int {
	if candidateCount <= 0 {
		return 0
	}
	u := day.UTC()
	seed := fmt.Sprintf("%d-%d-%d", u.Year(), int(u.Month())-1, u.Day())
	var h int32
	for _, c := range seed {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v % int64(candidateCount))
}
