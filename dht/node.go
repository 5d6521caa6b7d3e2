package dht

import (
	"crypto/rand"
	"io"
	"net"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/Arceliar/meshcore/types"
)

// Node is everything we track about one remote node while it sits in a bucket.
// A Node has exactly one owner and no locking of its own, callers must serialize access.
type Node struct {
	Key         types.Key    // routing identity, never changes
	Addr        *net.UDPAddr // updated if the node shows up somewhere else
	LastContact time.Time    // last confirmed response
	LastRequest time.Time    // last ping we sent
	pings       pingStore
	clock       clock.Clock
	rand        io.Reader
}

// NewNode returns a Node for key at addr.
// A nil clk uses the wall clock and a nil rnd uses crypto/rand.
func NewNode(key types.Key, addr *net.UDPAddr, clk clock.Clock, rnd io.Reader) *Node {
	if clk == nil {
		clk = clock.New()
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	now := clk.Now()
	n := &Node{
		Key:         key,
		Addr:        addr,
		LastContact: now,
		LastRequest: now,
		clock:       clk,
		rand:        rnd,
	}
	n.pings.init()
	return n
}

// Status classifies the node against its clock.
func (n *Node) Status(threshold time.Duration) Liveness {
	return Classify(n.LastContact, n.clock.Now(), threshold)
}

// IssuePing returns a fresh nonzero ping id and records when it was sent.
func (n *Node) IssuePing() uint64 {
	now := n.clock.Now()
	n.LastRequest = now
	return n.pings.issue(now, n.rand)
}

// ValidatePong checks the id echoed back in a ping response.
// Each id validates at most once. The caller learns nothing about why validation failed.
func (n *Node) ValidatePong(id uint64, timeout time.Duration) bool {
	now := n.clock.Now()
	if !n.pings.validate(id, now, timeout) {
		return false
	}
	n.LastContact = now
	return true
}

// ExpirePings forgets every ping id issued more than timeout ago.
func (n *Node) ExpirePings(timeout time.Duration) {
	n.pings.expire(n.clock.Now(), timeout)
}

// HasPing reports whether id is still outstanding. It is for inspection only and never
// consumes the id, use ValidatePong to check a response.
func (n *Node) HasPing(id uint64) bool {
	return n.pings.has(id)
}

// PendingPings is for inspection only.
func (n *Node) PendingPings() int {
	return n.pings.len()
}

// Update records a new address for the node.
func (n *Node) Update(addr *net.UDPAddr) {
	if addr != nil {
		n.Addr = addr
	}
}

// NodeInfo is a copy of a Node's public state, safe to hand out of the table.
type NodeInfo struct {
	Key         types.Key
	Addr        *net.UDPAddr
	LastContact time.Time
	LastRequest time.Time
	Status      Liveness
}

func (n *Node) info(threshold time.Duration) NodeInfo {
	var addr *net.UDPAddr
	if n.Addr != nil {
		tmp := *n.Addr
		addr = &tmp
	}
	return NodeInfo{
		Key:         n.Key,
		Addr:        addr,
		LastContact: n.LastContact,
		LastRequest: n.LastRequest,
		Status:      n.Status(threshold),
	}
}
