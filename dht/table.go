package dht

import (
	"net"
	"slices"

	"github.com/Arceliar/phony"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/Arceliar/meshcore/types"
)

const tableBuckets = types.KeySize * 8

// Sender puts ping requests on the wire for the Table.
type Sender interface {
	SendPingRequest(key types.Key, addr *net.UDPAddr, id uint64)
}

// Table is the routing table: one bucket per common prefix length with our own key.
// It is the single owner of every Node it holds, all access goes through the actor.
type Table struct {
	phony.Inbox
	self    types.Key
	sender  Sender
	config  config
	log     *zap.Logger
	metrics *metrics
	buckets [tableBuckets]*Bucket
	timer   *clock.Timer
	closed  bool
}

func NewTable(self types.Key, sender Sender, opts ...Option) *Table {
	t := &Table{self: self, sender: sender}
	configDefaults()(&t.config)
	for _, opt := range opts {
		opt(&t.config)
	}
	t.log = t.config.logger.With(zap.Stringer("self", self))
	t.metrics = newMetrics(t.config.registerer)
	for idx := range t.buckets {
		t.buckets[idx] = NewBucket(t.config.bucketSize)
	}
	return t
}

// Start begins the periodic maintenance loop.
func (t *Table) Start() {
	t.Act(nil, func() {
		if t.closed || t.timer != nil {
			return
		}
		t._maintain()
		t._schedule()
	})
}

// Close stops maintenance. Nodes stay in the table for inspection.
func (t *Table) Close() error {
	var err error
	phony.Block(t, func() {
		if t.closed {
			err = ClosedError{}
			return
		}
		t.closed = true
		if t.timer != nil {
			t.timer.Stop()
			t.timer = nil
		}
	})
	return err
}

func (t *Table) _bucketFor(key types.Key) *Bucket {
	idx := commonPrefixLen(t.self, key)
	if idx >= len(t.buckets) {
		return nil // that's us
	}
	return t.buckets[idx]
}

func (t *Table) _find(key types.Key) *Node {
	if b := t._bucketFor(key); b != nil {
		return b.Find(key)
	}
	return nil
}

// AddNode offers a node to the table, e.g. after it was discovered or it pinged us.
func (t *Table) AddNode(from phony.Actor, key types.Key, addr *net.UDPAddr) {
	t.Act(from, func() {
		t._addNode(key, addr)
	})
}

func (t *Table) _addNode(key types.Key, addr *net.UDPAddr) bool {
	b := t._bucketFor(key)
	if b == nil {
		return false
	}
	if b.update(key, addr) != nil {
		return true
	}
	var before []*Node
	if b.IsFull() {
		before = slices.Clone(b.Nodes())
	}
	n := NewNode(key, addr, t.config.clock, t.config.rand)
	if !b.TryAdd(t.self, n, t.config.stalenessThreshold, t.config.clock.Now()) {
		t.log.Debug("Bucket rejected node", zap.Stringer("key", key))
		return false
	}
	for _, old := range before {
		if b.Find(old.Key) == nil {
			t.log.Info("Replaced node",
				zap.Stringer("key", old.Key),
				zap.Stringer("status", old.Status(t.config.stalenessThreshold)),
				zap.Stringer("by", key))
			t.metrics.nodesEvicted.WithLabelValues("replaced").Inc()
		}
	}
	t.log.Debug("Added node", zap.Stringer("key", key), zap.Stringer("addr", addr))
	t._ping(n)
	t._updateGauge()
	return true
}

// HandlePingResponse checks an echoed ping id. done, if not nil, is called from the actor with
// nil on success, UnknownNodeError if the node is not in the table, or InvalidChallengeError.
func (t *Table) HandlePingResponse(from phony.Actor, key types.Key, addr *net.UDPAddr, id uint64, done func(error)) {
	t.Act(from, func() {
		err := t._handlePingResponse(key, addr, id)
		if done != nil {
			done(err)
		}
	})
}

func (t *Table) _handlePingResponse(key types.Key, addr *net.UDPAddr, id uint64) error {
	n := t._find(key)
	if n == nil {
		t.metrics.pingResponses.WithLabelValues("unknown").Inc()
		return UnknownNodeError{}
	}
	if !n.ValidatePong(id, t.config.pingTimeout) {
		t.metrics.pingResponses.WithLabelValues("invalid").Inc()
		return InvalidChallengeError{}
	}
	n.Update(addr)
	t.metrics.pingResponses.WithLabelValues("valid").Inc()
	return nil
}

func (t *Table) _ping(n *Node) {
	id := n.IssuePing()
	t.sender.SendPingRequest(n.Key, n.Addr, id)
	t.metrics.pingsSent.Inc()
}

func (t *Table) _schedule() {
	delay := t.config.pingInterval / 4
	t.timer = t.config.clock.AfterFunc(delay, func() {
		t.Act(nil, func() {
			if t.closed {
				return
			}
			t._maintain()
			t._schedule()
		})
	})
}

// _maintain drops silent nodes, forgets expired ping ids, and pings anyone due for one.
func (t *Table) _maintain() {
	now := t.config.clock.Now()
	for _, b := range t.buckets {
		for _, n := range b.Evict(t.config.killTimeout, now) {
			t.log.Info("Removed silent node",
				zap.Stringer("key", n.Key),
				zap.Duration("silence", now.Sub(n.LastContact)))
			t.metrics.nodesEvicted.WithLabelValues("timeout").Inc()
		}
		for _, n := range b.Nodes() {
			n.ExpirePings(t.config.pingTimeout)
			if now.Sub(n.LastRequest) >= t.config.pingInterval {
				t._ping(n)
			}
		}
	}
	t._updateGauge()
}

func (t *Table) _updateGauge() {
	var count int
	for _, b := range t.buckets {
		count += b.Len()
	}
	t.metrics.nodes.Set(float64(count))
}

// Closest returns up to count nodes ordered by XOR distance to target.
func (t *Table) Closest(target types.Key, count int) (infos []NodeInfo) {
	if count <= 0 {
		return nil
	}
	phony.Block(t, func() {
		var nodes []*Node
		for _, b := range t.buckets {
			nodes = append(nodes, b.Nodes()...)
		}
		slices.SortFunc(nodes, func(a, b *Node) int {
			return Distance(target, a.Key, b.Key)
		})
		if len(nodes) > count {
			nodes = nodes[:count]
		}
		for _, n := range nodes {
			infos = append(infos, n.info(t.config.stalenessThreshold))
		}
	})
	return
}

// Nodes returns a snapshot of every node in the table.
func (t *Table) Nodes() (infos []NodeInfo) {
	phony.Block(t, func() {
		for _, b := range t.buckets {
			for _, n := range b.Nodes() {
				infos = append(infos, n.info(t.config.stalenessThreshold))
			}
		}
	})
	return
}

// GetNode returns a snapshot of the node with the given key.
func (t *Table) GetNode(key types.Key) (info NodeInfo, ok bool) {
	phony.Block(t, func() {
		if n := t._find(key); n != nil {
			info, ok = n.info(t.config.stalenessThreshold), true
		}
	})
	return
}
