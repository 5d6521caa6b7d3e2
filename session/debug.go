package session

import (
	"net"
	"time"

	"github.com/Arceliar/phony"

	"github.com/Arceliar/meshcore/types"
)

type Debug struct {
	c *Conn
}

func (d *Debug) init(c *Conn) {
	d.c = c
}

type DebugSessionInfo struct {
	Key     types.Key
	Addr    *net.UDPAddr
	Uptime  time.Duration
	RX      uint64
	TX      uint64
	Lost    uint64 // sequence numbers skipped by the remote side's traffic
	Dropped uint64 // messages discarded because nobody called ReadFrom
}

func (d *Debug) GetSessions() (infos []DebugSessionInfo) {
	var sessions []*sessionInfo
	phony.Block(&d.c.sessions, func() {
		for _, session := range d.c.sessions.sessions {
			sessions = append(sessions, session)
		}
	})
	for _, session := range sessions {
		phony.Block(session, func() {
			infos = append(infos, DebugSessionInfo{
				Key:     session.key,
				Addr:    session.addr,
				Uptime:  time.Since(session.since),
				RX:      session.rx,
				TX:      session.tx,
				Lost:    session.lost,
				Dropped: session.dropped,
			})
		})
	}
	return
}
