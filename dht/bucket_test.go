package dht

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestBucketTryAdd(t *testing.T) {
	clk := clock.NewMock()
	ref := testKey(0x00)
	b := NewBucket(8)
	for idx := 1; idx <= 8; idx++ {
		require.True(t, b.TryAdd(ref, testNode(clk, byte(idx)), defaultStalenessThreshold, clk.Now()))
	}
	require.True(t, b.IsFull())
	require.Equal(t, 8, b.Len())
	// updating an existing node always works
	update := testNode(clk, 1)
	update.Addr = testAddr(999)
	require.True(t, b.TryAdd(ref, update, defaultStalenessThreshold, clk.Now()))
	require.Equal(t, 999, b.Find(testKey(1)).Addr.Port)
	require.Equal(t, 8, b.Len())
	// sorted by distance
	for idx, n := range b.Nodes() {
		require.Equal(t, byte(idx+1), n.Key[0])
	}
	// a farther live node is rejected
	require.False(t, b.TryAdd(ref, testNode(clk, 0xff), defaultStalenessThreshold, clk.Now()))
	require.Nil(t, b.Find(testKey(0xff)))
	// a closer node replaces the farthest one
	require.True(t, b.TryAdd(ref, testNode(clk, 0x00, 0x01), defaultStalenessThreshold, clk.Now()))
	require.Nil(t, b.Find(testKey(8)))
	require.Equal(t, testKey(0x00, 0x01), b.Nodes()[0].Key)
}

func TestBucketPrefersLive(t *testing.T) {
	clk := clock.NewMock()
	ref := testKey(0x00)
	b := NewBucket(2)
	require.True(t, b.TryAdd(ref, testNode(clk, 0x01), defaultStalenessThreshold, clk.Now()))
	require.True(t, b.TryAdd(ref, testNode(clk, 0x02), defaultStalenessThreshold, clk.Now()))
	clk.Add(defaultStalenessThreshold + time.Second)
	b.Find(testKey(0x02)).LastContact = clk.Now()
	// 0x01 is stale, so even a far live node takes its place
	far := testNode(clk, 0xf0)
	require.True(t, b.TryAdd(ref, far, defaultStalenessThreshold, clk.Now()))
	require.Nil(t, b.Find(testKey(0x01)))
	require.Equal(t, testKey(0x02), b.Nodes()[0].Key)
	require.Equal(t, testKey(0xf0), b.Nodes()[1].Key)
}

func TestBucketStaleVsStale(t *testing.T) {
	clk := clock.NewMock()
	ref := testKey(0x00)
	b := NewBucket(1)
	require.True(t, b.TryAdd(ref, testNode(clk, 0x02), defaultStalenessThreshold, clk.Now()))
	clk.Add(defaultStalenessThreshold + time.Second)
	stale := testNode(clk, 0x01)
	stale.LastContact = time.Time{}
	require.True(t, b.TryAdd(ref, stale, defaultStalenessThreshold, clk.Now()))
	require.Equal(t, testKey(0x01), b.Nodes()[0].Key)
}

func TestBucketRemoveEvict(t *testing.T) {
	clk := clock.NewMock()
	ref := testKey(0x00)
	b := NewBucket(4)
	for idx := 1; idx <= 4; idx++ {
		require.True(t, b.TryAdd(ref, testNode(clk, byte(idx)), defaultStalenessThreshold, clk.Now()))
	}
	require.True(t, b.Remove(testKey(2)))
	require.False(t, b.Remove(testKey(2)))
	require.Equal(t, 3, b.Len())
	clk.Add(time.Minute)
	b.Find(testKey(3)).LastContact = clk.Now()
	evicted := b.Evict(30*time.Second, clk.Now())
	require.Len(t, evicted, 2)
	require.Equal(t, 1, b.Len())
	require.NotNil(t, b.Find(testKey(3)))
}

func TestBucketZeroCapacity(t *testing.T) {
	clk := clock.NewMock()
	b := NewBucket(0)
	require.False(t, b.TryAdd(testKey(0), testNode(clk, 1), defaultStalenessThreshold, clk.Now()))
}
