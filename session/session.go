package session

import (
	"net"
	"time"

	"github.com/Arceliar/phony"
	"go.uber.org/zap"

	"github.com/Arceliar/meshcore/encrypted"
	"github.com/Arceliar/meshcore/types"
)

/***********
 * Manager *
 ***********/

// Manager owns every session, keyed by remote key and by remote UDP address.
// Data packets don't carry the sender's key, so inbound traffic is matched by address.
type Manager struct {
	phony.Inbox
	conn     *Conn
	sessions map[types.Key]*sessionInfo
	byAddr   map[string]*sessionInfo
	addrs    map[*sessionInfo]string
}

func (mgr *Manager) init(c *Conn) {
	mgr.conn = c
	mgr.sessions = make(map[types.Key]*sessionInfo)
	mgr.byAddr = make(map[string]*sessionInfo)
	mgr.addrs = make(map[*sessionInfo]string)
}

// open makes sure a session with key exists and that it sends to addr.
func (mgr *Manager) open(from phony.Actor, key types.Key, addr *net.UDPAddr) {
	mgr.Act(from, func() {
		mgr._open(key, addr)
	})
}

func (mgr *Manager) _open(key types.Key, addr *net.UDPAddr) *sessionInfo {
	addrKey := addr.String()
	if info := mgr.sessions[key]; info != nil {
		if old := mgr.addrs[info]; old != addrKey {
			if mgr.byAddr[old] == info {
				delete(mgr.byAddr, old)
			}
			mgr.byAddr[addrKey] = info
			mgr.addrs[info] = addrKey
			info.setAddr(mgr, addr)
			mgr.conn.log.Debug("Moved session", zap.Stringer("key", key), zap.Stringer("addr", addr))
		}
		return info
	}
	shared := mgr.conn.keys.Get(key)
	info := newSession(mgr, key, addr, &shared)
	mgr.sessions[key] = info
	mgr.byAddr[addrKey] = info
	mgr.addrs[info] = addrKey
	mgr.conn.log.Debug("Opened session", zap.Stringer("key", key), zap.Stringer("addr", addr))
	return info
}

func (mgr *Manager) handleData(from phony.Actor, addr *net.UDPAddr, packet *encrypted.DataPacket) {
	mgr.Act(from, func() {
		if info := mgr.byAddr[addr.String()]; info != nil {
			info.doRecv(mgr, packet)
		} else {
			mgr.conn.log.Debug("Dropped data packet from unknown address", zap.Stringer("addr", addr))
		}
	})
}

func (mgr *Manager) writeTo(toKey types.Key, msg []byte) error {
	var err error
	phony.Block(mgr, func() {
		if info := mgr.sessions[toKey]; info != nil {
			info.doSend(mgr, msg)
		} else {
			err = PeerNotFoundError{}
		}
	})
	return err
}

/***************
 * sessionInfo *
 ***************/

type sessionInfo struct {
	phony.Inbox
	mgr       *Manager
	key       types.Key // remote key
	addr      *net.UDPAddr
	shared    encrypted.SharedKey
	sendNonce encrypted.Nonce
	recvNonce nonceTracker
	sendSeq   uint32 // sequence number of our next packet
	recvNext  uint32 // one past the highest sequence number we've processed
	since     time.Time
	rx        uint64
	tx        uint64
	lost      uint64
	dropped   uint64 // delivered by the network but not queued for ReadFrom
	sendBuf   []byte
}

func newSession(mgr *Manager, key types.Key, addr *net.UDPAddr, shared *encrypted.SharedKey) *sessionInfo {
	info := new(sessionInfo)
	info.mgr = mgr
	info.key = key
	info.addr = addr
	info.shared = *shared
	info.sendNonce = DeriveNonce(shared, mgr.conn.self)
	info.recvNonce.base = DeriveNonce(shared, key)
	info.since = time.Now()
	return info
}

func (info *sessionInfo) setAddr(from phony.Actor, addr *net.UDPAddr) {
	info.Act(from, func() {
		info.addr = addr
	})
}

func (info *sessionInfo) doSend(from phony.Actor, msg []byte) {
	info.Act(from, func() {
		payload := encrypted.DataPayload{
			WindowBase: info.recvNext,
			Sequence:   info.sendSeq,
			Body:       msg,
		}
		packet, err := encrypted.NewDataPacket(&info.shared, &info.sendNonce, &payload)
		if err != nil {
			info.mgr.conn.log.Debug("Failed to seal data packet", zap.Stringer("key", info.key), zap.Error(err))
			return
		}
		// The nonce is spent even if the write below fails
		info.sendNonce.Increment()
		info.sendSeq++
		bs, err := packet.MarshalBinaryTo(info.sendBuf[:0])
		if err != nil {
			info.mgr.conn.log.Debug("Failed to encode data packet", zap.Stringer("key", info.key), zap.Error(err))
			return
		}
		info.sendBuf = bs
		if err := info.mgr.conn.writeRaw(bs, info.addr); err != nil {
			info.mgr.conn.log.Debug("Failed to send data packet", zap.Stringer("key", info.key), zap.Error(err))
			return
		}
		info.tx += uint64(len(msg))
	})
}

func (info *sessionInfo) doRecv(from phony.Actor, packet *encrypted.DataPacket) {
	info.Act(from, func() {
		nonce, delta := info.recvNonce.candidate(packet.NonceSuffix)
		payload, err := packet.Open(&info.shared, &nonce)
		if err != nil {
			info.mgr.conn.log.Debug("Dropped data packet", zap.Stringer("key", info.key), zap.Error(err))
			return
		}
		info.recvNonce.commit(delta)
		if payload.Sequence < info.recvNext {
			// Duplicate, or too late to be useful
			return
		}
		info.lost += uint64(payload.Sequence - info.recvNext)
		info.recvNext = payload.Sequence + 1
		info.rx += uint64(len(payload.Body))
		if !info.mgr.conn.network.recv(info, payload.Body) {
			info.dropped++
			info.mgr.conn.log.Debug("Read queue full, dropped message", zap.Stringer("key", info.key))
		}
	})
}
