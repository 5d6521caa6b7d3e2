package main

import (
	"bytes"
	"net"
	"sync"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.zx2c4.com/wireguard/tun"

	"github.com/Arceliar/meshcore/session"
	"github.com/Arceliar/meshcore/types"
)

// IP packets must fit in one data packet body.
const tunMTU = 1280

const tunOffsetBytes = 4

func setupTun(ifname, address string) (tun.Device, error) {
	dev, err := tun.CreateTUN(ifname, tunMTU)
	if err != nil {
		return nil, err
	}
	nladdr, err := netlink.ParseAddr(address)
	if err != nil {
		return nil, err
	}
	name, err := dev.Name()
	if err != nil {
		return nil, err
	}
	nlintf, err := netlink.LinkByName(name)
	if err != nil {
		return nil, err
	} else if err := netlink.AddrAdd(nlintf, nladdr); err != nil {
		return nil, err
	} else if err := netlink.LinkSetMTU(nlintf, tunMTU); err != nil {
		return nil, err
	} else if err := netlink.LinkSetUp(nlintf); err != nil {
		return nil, err
	}
	return dev, nil
}

// tunBridge moves IPv6 packets between a tun device and a session.Conn.
// Addresses only hold part of a key, so full keys are remembered as peers are discovered.
type tunBridge struct {
	dev    tun.Device
	conn   *session.Conn
	log    *zap.Logger
	self   [16]byte
	mutex  sync.Mutex
	keyMap map[[16]byte]types.Key
}

func newTunBridge(dev tun.Device, conn *session.Conn, log *zap.Logger) *tunBridge {
	return &tunBridge{
		dev:    dev,
		conn:   conn,
		log:    log,
		self:   getAddr(conn.LocalAddr().(types.Addr).Key()),
		keyMap: make(map[[16]byte]types.Key),
	}
}

func (tb *tunBridge) putKey(key types.Key) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.keyMap[getAddr(key)] = key
}

func (tb *tunBridge) getKey(addr [16]byte) (types.Key, bool) {
	tb.mutex.Lock()
	key, ok := tb.keyMap[addr]
	tb.mutex.Unlock()
	if ok {
		return key, true
	}
	// Anything we've pinged will do
	for _, info := range tb.conn.Table().Nodes() {
		if checkKey(addr, info.Key) {
			tb.putKey(info.Key)
			return info.Key, true
		}
	}
	return key, false
}

func (tb *tunBridge) reader() {
	buf := make([]byte, 2048)
	for {
		n, err := tb.dev.Read(buf, tunOffsetBytes)
		if err != nil {
			tb.log.Error("Tun reader stopped", zap.Error(err))
			return
		}
		bs := buf[tunOffsetBytes : tunOffsetBytes+n]
		if len(bs) < 40 {
			continue
		}
		var srcAddr, dstAddr [16]byte
		copy(srcAddr[:], bs[8:24])
		copy(dstAddr[:], bs[24:40])
		if srcAddr != tb.self || dstAddr[0] != 0xfd {
			continue
		}
		destKey, ok := tb.getKey(dstAddr)
		if !ok {
			tb.log.Debug("No key for destination", zap.Stringer("dst", net.IP(dstAddr[:])))
			continue
		}
		if _, err := tb.conn.WriteTo(bs, types.Addr(destKey)); err != nil {
			tb.log.Debug("Failed to send packet", zap.Stringer("dst", net.IP(dstAddr[:])), zap.Error(err))
		}
	}
}

func (tb *tunBridge) writer() {
	buf := make([]byte, 2048)
	for {
		n, remote, err := tb.conn.ReadFrom(buf[tunOffsetBytes:])
		if err != nil {
			tb.log.Error("Tun writer stopped", zap.Error(err))
			return
		}
		if n < 40 {
			continue
		}
		bs := buf[tunOffsetBytes : tunOffsetBytes+n]
		var srcAddr, dstAddr [16]byte
		copy(srcAddr[:], bs[8:24])
		copy(dstAddr[:], bs[24:40])
		remoteKey := remote.(types.Addr).Key()
		if dstAddr != tb.self || !checkKey(srcAddr, remoteKey) {
			continue
		}
		tb.putKey(remoteKey)
		if _, err := tb.dev.Write(buf[:tunOffsetBytes+n], tunOffsetBytes); err != nil {
			tb.log.Error("Tun writer stopped", zap.Error(err))
			return
		}
	}
}

// getAddr maps a key into fd00::/8 by inverting its leading bytes.
func getAddr(key types.Key) (addr [16]byte) {
	copy(addr[1:], key[:])
	for idx := range addr {
		addr[idx] = ^addr[idx]
	}
	addr[0] = 0xfd
	return
}

func checkKey(addr [16]byte, key types.Key) bool {
	tmp := addr
	for idx := range tmp {
		tmp[idx] = ^tmp[idx]
	}
	return bytes.Equal(tmp[1:], key[:len(addr)-1])
}
