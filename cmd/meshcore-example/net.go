package main

import (
	"context"
	"encoding/binary"
	"net"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/Arceliar/meshcore/session"
	"github.com/Arceliar/meshcore/types"
)

const multicastListenString = ":12345"
const groupAddrString = "[ff02::114]:12345"

// An announcement is our key followed by the UDP port the node listens on.
const announceSize = types.KeySize + 2

func newMulticastConn() (*ipv6.PacketConn, error) {
	reuse := func(network, address string, c syscall.RawConn) (err error) {
		_ = c.Control(func(fd uintptr) {
			err = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		})
		return
	}
	lc := net.ListenConfig{
		Control: reuse,
	}
	conn, err := lc.ListenPacket(context.Background(), "udp6", multicastListenString)
	if err != nil {
		return nil, err
	}
	return ipv6.NewPacketConn(conn), nil
}

func encodeAnnounce(key types.Key, port int) []byte {
	bs := append([]byte(nil), key[:]...)
	return binary.BigEndian.AppendUint16(bs, uint16(port))
}

func decodeAnnounce(bs []byte) (key types.Key, port int, ok bool) {
	if len(bs) != announceSize {
		return key, 0, false
	}
	copy(key[:], bs)
	port = int(binary.BigEndian.Uint16(bs[types.KeySize:]))
	return key, port, port != 0
}

func mcSender(mc *ipv6.PacketConn, group *net.UDPAddr, msg []byte, log *zap.Logger) {
	intfs, err := net.Interfaces()
	if err != nil {
		log.Warn("Failed to list interfaces", zap.Error(err))
	}
	for _, intf := range intfs {
		addrs, err := intf.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			addrIP, _, _ := net.ParseCIDR(addr.String())
			if addrIP.To4() != nil {
				continue
			} else if !addrIP.IsLinkLocalUnicast() {
				continue
			}
			tmp := intf
			_ = mc.JoinGroup(&tmp, group)
			dest := *group
			dest.Zone = tmp.Name
			if _, err := mc.WriteTo(msg, nil, &dest); err != nil {
				log.Debug("Failed to announce", zap.String("intf", tmp.Name), zap.Error(err))
			}
			break
		}
	}
	time.AfterFunc(3*time.Second, func() { mcSender(mc, group, msg, log) })
}

func mcListener(mc *ipv6.PacketConn, conn *session.Conn, tb *tunBridge, log *zap.Logger) {
	self := conn.LocalAddr().(types.Addr).Key()
	bs := make([]byte, 2048)
	for {
		n, _, from, err := mc.ReadFrom(bs)
		if err != nil {
			log.Error("Multicast listener stopped", zap.Error(err))
			return
		}
		key, port, ok := decodeAnnounce(bs[:n])
		if !ok || key == self {
			continue
		}
		uAddr, ok := from.(*net.UDPAddr)
		if !ok {
			continue
		}
		addr := &net.UDPAddr{IP: uAddr.IP, Port: port, Zone: uAddr.Zone}
		if tb != nil {
			tb.putKey(key)
		}
		conn.AddPeer(key, addr)
	}
}
