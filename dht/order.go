package dht

import (
	"math/bits"
	"time"

	"github.com/Arceliar/meshcore/types"
)

// Distance compares the XOR distances from ref to a and to b.
// It returns -1 if a is closer, +1 if b is closer, and 0 if a == b.
func Distance(ref, a, b types.Key) int {
	for idx := range ref {
		da, db := a[idx]^ref[idx], b[idx]^ref[idx]
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
	}
	return 0
}

// commonPrefixLen returns the number of leading bits a and b share.
func commonPrefixLen(a, b types.Key) int {
	for idx := range a {
		if x := a[idx] ^ b[idx]; x != 0 {
			return idx*8 + bits.LeadingZeros8(x)
		}
	}
	return len(a) * 8
}

// Compare orders two candidate occupants of a bucket around ref.
// A negative result means a is the better occupant.
// Live nodes always come before Stale ones, XOR distance breaks ties within the same Liveness.
// Both nodes are classified at the same now, which keeps the order consistent within a sort.
func Compare(ref types.Key, a, b *Node, threshold time.Duration, now time.Time) int {
	sa := Classify(a.LastContact, now, threshold)
	sb := Classify(b.LastContact, now, threshold)
	switch {
	case sa == Live && sb == Stale:
		return -1
	case sa == Stale && sb == Live:
		return 1
	}
	return Distance(ref, a.Key, b.Key)
}

// Comparator decides which of two nodes makes the better bucket occupant.
type Comparator interface {
	Compare(a, b *Node) int
}

// ReplaceOrder is the Comparator used by buckets.
type ReplaceOrder struct {
	Ref       types.Key
	Threshold time.Duration
	Now       time.Time
}

func (o ReplaceOrder) Compare(a, b *Node) int {
	return Compare(o.Ref, a, b, o.Threshold, o.Now)
}
