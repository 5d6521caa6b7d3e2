package dht

import (
	"bytes"
	"encoding/binary"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/Arceliar/meshcore/types"
)

func testKey(bs ...byte) types.Key {
	var k types.Key
	copy(k[:], bs)
	return k
}

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port}
}

func testNode(clk clock.Clock, bs ...byte) *Node {
	return NewNode(testKey(bs...), testAddr(33445), clk, rand.New(rand.NewSource(1)))
}

func idBytes(ids ...uint64) *bytes.Reader {
	var bs []byte
	for _, id := range ids {
		bs = binary.BigEndian.AppendUint64(bs, id)
	}
	return bytes.NewReader(bs)
}

func TestNewNode(t *testing.T) {
	clk := clock.NewMock()
	clk.Add(time.Hour)
	n := testNode(clk, 1)
	require.Equal(t, clk.Now(), n.LastContact)
	require.Equal(t, clk.Now(), n.LastRequest)
	require.Equal(t, Live, n.Status(defaultStalenessThreshold))
	require.Zero(t, n.PendingPings())
}

func TestNodeStatus(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	clk.Add(defaultStalenessThreshold)
	require.Equal(t, Live, n.Status(defaultStalenessThreshold))
	clk.Add(time.Second)
	require.Equal(t, Stale, n.Status(defaultStalenessThreshold))
}

func TestIssuePing(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	clk.Add(time.Minute)
	id := n.IssuePing()
	require.NotZero(t, id)
	require.True(t, n.HasPing(id))
	require.Equal(t, clk.Now(), n.LastRequest)
}

func TestIssuePingSkipsZeroAndDuplicates(t *testing.T) {
	clk := clock.NewMock()
	n := NewNode(testKey(1), testAddr(1), clk, idBytes(0, 7, 0, 7, 9))
	require.Equal(t, uint64(7), n.IssuePing())
	require.Equal(t, uint64(9), n.IssuePing())
	require.False(t, n.HasPing(0))
	require.Equal(t, 2, n.PendingPings())
}

func TestIssuePingBadRand(t *testing.T) {
	n := NewNode(testKey(1), testAddr(1), clock.NewMock(), bytes.NewReader([]byte{1, 2, 3}))
	require.Panics(t, func() { n.IssuePing() })
}

func TestValidatePong(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	id := n.IssuePing()
	// incorrect ids
	require.False(t, n.ValidatePong(0, time.Second))
	require.False(t, n.ValidatePong(id+1, time.Second))
	require.True(t, n.HasPing(id))
	// correct id, but timed out, and consumed anyway
	clk.Add(2 * time.Second)
	require.False(t, n.ValidatePong(id, time.Second))
	require.False(t, n.HasPing(id))
	require.False(t, n.ValidatePong(id, time.Hour))
	// correct id in time
	id = n.IssuePing()
	require.True(t, n.ValidatePong(id, 5*time.Second))
	require.Equal(t, clk.Now(), n.LastContact)
}

func TestValidatePongScenario(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	start := clk.Now()
	id := n.IssuePing()
	clk.Add(3 * time.Second)
	require.True(t, n.ValidatePong(id, 5*time.Second))
	require.False(t, n.HasPing(id))
	require.Equal(t, start.Add(3*time.Second), n.LastContact)
	clk.Add(time.Second)
	require.False(t, n.ValidatePong(id, 5*time.Second))
	require.Equal(t, start.Add(3*time.Second), n.LastContact)
}

func TestValidateZeroNeverSucceeds(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	for idx := 0; idx < 16; idx++ {
		n.IssuePing()
	}
	pending := n.PendingPings()
	require.False(t, n.ValidatePong(0, time.Hour))
	require.Equal(t, pending, n.PendingPings())
}

func TestValidateEachOnce(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	const count = 100
	ids := make(map[uint64]struct{})
	for idx := 0; idx < count; idx++ {
		id := n.IssuePing()
		require.NotZero(t, id)
		ids[id] = struct{}{}
	}
	require.Len(t, ids, count)
	for id := range ids {
		require.True(t, n.ValidatePong(id, time.Second))
	}
	for id := range ids {
		require.False(t, n.ValidatePong(id, time.Second))
	}
	require.Zero(t, n.PendingPings())
}

func TestExpirePings(t *testing.T) {
	clk := clock.NewMock()
	n := testNode(clk, 1)
	id := n.IssuePing()
	clk.Add(10 * time.Second)
	n.ExpirePings(5 * time.Second)
	require.Zero(t, n.PendingPings())
	require.False(t, n.ValidatePong(id, time.Hour))

	// ids younger than the timeout remain
	id = n.IssuePing()
	clk.Add(time.Second)
	n.ExpirePings(time.Second)
	require.True(t, n.HasPing(id))
	require.True(t, n.ValidatePong(id, time.Second))
}

func TestNodeUpdate(t *testing.T) {
	n := testNode(clock.NewMock(), 1)
	n.Update(nil)
	require.Equal(t, testAddr(33445), n.Addr)
	n.Update(testAddr(1234))
	require.Equal(t, 1234, n.Addr.Port)
}

func BenchmarkIssueValidate(b *testing.B) {
	n := testNode(clock.NewMock(), 1)
	for idx := 0; idx < b.N; idx++ {
		id := n.IssuePing()
		if !n.ValidatePong(id, time.Second) {
			panic("validation failed")
		}
	}
}
