package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpotlightIndexStableWithinDay(t *testing.T) {
	day := time.Date(2024, time.March, 15, 3, 0, 0, 0, time.UTC)
	later := time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC)
	require.Equal(t, SpotlightIndex(day, 10), SpotlightIndex(later, 10))
}

func TestSpotlightIndexIgnoresLocalTimezone(t *testing.T) {
	utc := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)
	est := utc.In(time.FixedZone("EST", -5*3600))
	require.Equal(t, SpotlightIndex(utc, 7), SpotlightIndex(est, 7))
}

func TestSpotlightIndexVariesAcrossDates(t *testing.T) {
	const count = 5
	seen := map[int]bool{}
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 365; i++ {
		idx := SpotlightIndex(day.AddDate(0, 0, i), count)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, count)
		seen[idx] = true
	}
	require.Greater(t, len(seen), 1, "a year of spotlights never left index %v", seen)
}

func TestSpotlightIndexEmptyCandidates(t *testing.T) {
	require.Equal(t, 0, SpotlightIndex(time.Now(), 0))
}
