package dht

import (
	"net"
	"slices"
	"time"

	"github.com/Arceliar/meshcore/types"
)

// Bucket holds up to a fixed number of nodes, best occupant first.
type Bucket struct {
	nodes    []*Node
	capacity int
}

func NewBucket(capacity int) *Bucket {
	return &Bucket{
		nodes:    make([]*Node, 0, capacity),
		capacity: capacity,
	}
}

func (b *Bucket) Len() int {
	return len(b.nodes)
}

func (b *Bucket) IsFull() bool {
	return len(b.nodes) >= b.capacity
}

// Nodes returns the current occupants. The slice is shared with the bucket.
func (b *Bucket) Nodes() []*Node {
	return b.nodes
}

func (b *Bucket) indexOf(key types.Key) int {
	return slices.IndexFunc(b.nodes, func(n *Node) bool { return n.Key == key })
}

func (b *Bucket) Find(key types.Key) *Node {
	if idx := b.indexOf(key); idx >= 0 {
		return b.nodes[idx]
	}
	return nil
}

// Remove drops the node with key, if present. It is for callers managing a Bucket on
// their own; the Table only removes nodes through TryAdd replacement and Evict.
func (b *Bucket) Remove(key types.Key) bool {
	idx := b.indexOf(key)
	if idx < 0 {
		return false
	}
	b.nodes = slices.Delete(b.nodes, idx, idx+1)
	return true
}

func (b *Bucket) sort(order Comparator) {
	slices.SortStableFunc(b.nodes, order.Compare)
}

// TryAdd offers node to the bucket and reports whether it ends up in it.
// A node already present only has its address refreshed. When the bucket is full,
// node replaces the worst occupant only if it orders strictly before it.
func (b *Bucket) TryAdd(ref types.Key, node *Node, threshold time.Duration, now time.Time) bool {
	if old := b.Find(node.Key); old != nil {
		old.Update(node.Addr)
		return true
	}
	order := ReplaceOrder{Ref: ref, Threshold: threshold, Now: now}
	if !b.IsFull() {
		b.nodes = append(b.nodes, node)
		b.sort(order)
		return true
	}
	if len(b.nodes) == 0 {
		return false
	}
	b.sort(order)
	worst := len(b.nodes) - 1
	if order.Compare(node, b.nodes[worst]) >= 0 {
		return false
	}
	b.nodes[worst] = node
	b.sort(order)
	return true
}

// Evict removes every node that has not answered for longer than killTimeout and returns them.
func (b *Bucket) Evict(killTimeout time.Duration, now time.Time) (evicted []*Node) {
	b.nodes = slices.DeleteFunc(b.nodes, func(n *Node) bool {
		if now.Sub(n.LastContact) > killTimeout {
			evicted = append(evicted, n)
			return true
		}
		return false
	})
	return
}

func (b *Bucket) update(key types.Key, addr *net.UDPAddr) *Node {
	n := b.Find(key)
	if n != nil {
		n.Update(addr)
	}
	return n
}
