package dht

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	last := time.Unix(1000, 0)
	threshold := 162 * time.Second
	require.Equal(t, Live, Classify(last, last, threshold))
	require.Equal(t, Live, Classify(last, last.Add(threshold), threshold))
	require.Equal(t, Stale, Classify(last, last.Add(threshold+time.Nanosecond), threshold))
	require.Equal(t, Live, Classify(last, last, 0))
	require.Equal(t, Stale, Classify(last, last.Add(time.Nanosecond), 0))
	require.Equal(t, "live", Live.String())
	require.Equal(t, "stale", Stale.String())
}

func TestClassifyMonotonic(t *testing.T) {
	last := time.Unix(1000, 0)
	threshold := 10 * time.Second
	seenStale := false
	for step := 0; step < 100; step++ {
		now := last.Add(time.Duration(step) * 250 * time.Millisecond)
		status := Classify(last, now, threshold)
		if seenStale {
			require.Equal(t, Stale, status, "went back to live at step %d", step)
		}
		seenStale = status == Stale
	}
	require.True(t, seenStale)
}
