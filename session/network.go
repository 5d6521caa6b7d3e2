package session

import (
	"net"

	"github.com/Arceliar/phony"

	"github.com/Arceliar/meshcore/types"
)

type netManager struct {
	phony.Inbox
	conn    *Conn
	reader  phony.Inbox
	readCh  chan netReadInfo
	closed  chan struct{}
	running bool
}

type netReadInfo struct {
	from types.Key
	data []byte
	err  error
}

func (m *netManager) init(c *Conn) {
	m.conn = c
	m.readCh = make(chan netReadInfo, c.config.readQueueSize)
	m.closed = make(chan struct{})
}

// recv queues a decrypted message for ReadFrom.
// If the queue is full the message is dropped, like a full socket buffer, so an
// application that never reads can't stall the socket read loop behind it.
func (m *netManager) recv(from *sessionInfo, data []byte) bool {
	select {
	case m.readCh <- netReadInfo{from: from.key, data: data}:
		return true
	default:
		return false
	}
}

// read starts the socket read loop, if it isn't running already.
func (m *netManager) read() {
	m.Act(nil, func() {
		if m.running {
			return
		}
		m.running = true
		buf := make([]byte, m.conn.config.readBufferSize)
		var rl func()
		rl = func() {
			n, from, err := m.conn.sock.ReadFrom(buf)
			if err != nil {
				// Exit the loop
				m.running = false
				if m.conn.IsClosed() {
					return
				}
				m.reader.Act(m, func() {
					select {
					case m.readCh <- netReadInfo{err: err}:
					case <-m.closed:
					}
				})
				return
			}
			msg := make([]byte, n)
			copy(msg, buf[:n])
			if udpAddr, ok := from.(*net.UDPAddr); ok {
				m.conn.handlePacket(m, udpAddr, msg)
			}
			m.Act(nil, rl) // continue to loop
		}
		m.Act(nil, rl) // start the loop
	})
}
