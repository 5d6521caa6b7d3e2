package session

import (
	"net"
	"sync"
	"time"

	"github.com/Arceliar/phony"
	"go.uber.org/zap"

	"github.com/Arceliar/meshcore/dht"
	"github.com/Arceliar/meshcore/encrypted"
	"github.com/Arceliar/meshcore/types"
)

func _type_asserts_() {
	var _ net.PacketConn = new(Conn)
	var _ dht.Sender = new(Conn)
}

// Conn runs the node on top of a UDP socket.
// Ping traffic feeds the routing table, and any node that completes a ping gets a data session.
// Messages are addressed by types.Addr, i.e. by the remote public key.
type Conn struct {
	sock         net.PacketConn
	self         types.Key
	config       config
	log          *zap.Logger
	keys         *KeyCache
	table        *dht.Table
	sessions     Manager
	network      netManager
	readDeadline *deadline
	closeMutex   sync.Mutex
	Debug        Debug
}

// NewConn takes ownership of sock and starts serving it.
func NewConn(sock net.PacketConn, secret *encrypted.SecretKey, opts ...Option) (*Conn, error) {
	c := &Conn{sock: sock, self: secret.Public()}
	configDefaults()(&c.config)
	for _, opt := range opts {
		opt(&c.config)
	}
	keys, err := NewKeyCache(secret, c.config.keyCacheSize)
	if err != nil {
		return nil, err
	}
	c.keys = keys
	c.log = c.config.logger.With(zap.Stringer("self", c.self))
	tableOpts := append([]dht.Option{dht.WithLogger(c.config.logger)}, c.config.tableOptions...)
	c.table = dht.NewTable(c.self, c, tableOpts...)
	c.readDeadline = newDeadline()
	c.sessions.init(c)
	c.network.init(c)
	c.Debug.init(c)
	c.network.read()
	c.table.Start()
	return c, nil
}

// Table returns the routing table fed by this Conn.
func (c *Conn) Table() *dht.Table {
	return c.table
}

// AddPeer offers a node we learned about out of band, e.g. from config or multicast.
func (c *Conn) AddPeer(key types.Key, addr *net.UDPAddr) {
	c.table.AddNode(nil, key, addr)
}

// SendPingRequest implements dht.Sender.
func (c *Conn) SendPingRequest(key types.Key, addr *net.UDPAddr, id uint64) {
	c.sendPing(&dht.PingPacket{Sender: c.self, ID: id}, key, addr)
}

func (c *Conn) sendPing(p *dht.PingPacket, key types.Key, addr *net.UDPAddr) {
	if addr == nil {
		return
	}
	shared := c.keys.Get(key)
	nonce := encrypted.RandomNonce()
	if err := c.writeRaw(p.Seal(nil, &shared, &nonce), addr); err != nil {
		c.log.Debug("Failed to send ping", zap.Stringer("key", key), zap.Bool("response", p.Response), zap.Error(err))
	}
}

func (c *Conn) writeRaw(bs []byte, addr *net.UDPAddr) error {
	_, err := c.sock.WriteTo(bs, addr)
	return err
}

// handlePacket dispatches one datagram from the socket.
func (c *Conn) handlePacket(from phony.Actor, addr *net.UDPAddr, data []byte) {
	switch {
	case dht.IsPingPacket(data):
		c.handlePing(from, addr, data)
	case len(data) > 0 && data[0] == encrypted.DataPacketTag:
		packet := new(encrypted.DataPacket)
		if err := packet.UnmarshalBinary(data); err != nil {
			c.log.Debug("Dropped data packet", zap.Stringer("addr", addr), zap.Error(err))
			return
		}
		c.sessions.handleData(from, addr, packet)
	default:
		c.log.Debug("Dropped unknown packet", zap.Stringer("addr", addr), zap.Int("size", len(data)))
	}
}

func (c *Conn) handlePing(from phony.Actor, addr *net.UDPAddr, data []byte) {
	key, err := dht.PingSender(data)
	if err != nil {
		c.log.Debug("Dropped ping", zap.Stringer("addr", addr), zap.Error(err))
		return
	}
	if key == c.self {
		return
	}
	shared := c.keys.Get(key)
	var p dht.PingPacket
	if err := p.Open(data, &shared); err != nil {
		c.log.Debug("Dropped ping", zap.Stringer("key", key), zap.Error(err))
		return
	}
	if !p.Response {
		c.sendPing(&dht.PingPacket{Response: true, Sender: c.self, ID: p.ID}, key, addr)
		c.table.AddNode(from, key, addr)
		c.sessions.open(from, key, addr)
		return
	}
	c.table.HandlePingResponse(from, key, addr, p.ID, func(err error) {
		if err != nil {
			c.log.Debug("Rejected ping response", zap.Stringer("key", key), zap.Error(err))
			return
		}
		c.sessions.open(c.table, key, addr)
	})
}

// ReadFrom fulfills the net.PacketConn interface, with a types.Addr returned as the from address.
// Note that failing to call ReadFrom blocks delivery of later messages.
func (c *Conn) ReadFrom(p []byte) (n int, from net.Addr, err error) {
	c.network.read()
	var info netReadInfo
	select {
	case <-c.network.closed:
		return 0, nil, ClosedError{}
	case <-c.readDeadline.getCancel():
		return 0, nil, DeadlineError{}
	case info = <-c.network.readCh:
	}
	if info.err != nil {
		return 0, nil, info.err
	}
	n = copy(p, info.data)
	from = types.Addr(info.from)
	return
}

// WriteTo fulfills the net.PacketConn interface, with a types.Addr expected as the destination address.
// The destination must have completed a ping exchange with us first.
func (c *Conn) WriteTo(p []byte, addr net.Addr) (n int, err error) {
	if c.IsClosed() {
		return 0, ClosedError{}
	}
	dest, ok := types.ExtractAddrKey(addr)
	if !ok {
		return 0, BadAddressError{}
	}
	if uint64(len(p)) > c.MTU() {
		return 0, OversizedMessageError{}
	}
	if err = c.sessions.writeTo(dest.Key(), append([]byte(nil), p...)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// MTU returns the largest message WriteTo accepts.
func (c *Conn) MTU() uint64 {
	return encrypted.MaxDataBodySize
}

// IsClosed reports whether Close has been called.
func (c *Conn) IsClosed() bool {
	select {
	case <-c.network.closed:
		return true
	default:
		return false
	}
}

// Close shuts down the Conn and the socket under it.
func (c *Conn) Close() error {
	c.closeMutex.Lock()
	defer c.closeMutex.Unlock()
	if c.IsClosed() {
		return ClosedError{}
	}
	close(c.network.closed)
	c.table.Close()
	return c.sock.Close()
}

// LocalAddr returns a types.Addr of our public key.
func (c *Conn) LocalAddr() net.Addr {
	return types.Addr(c.self)
}

// SocketAddr returns the address of the underlying socket.
func (c *Conn) SocketAddr() net.Addr {
	return c.sock.LocalAddr()
}

// SetDeadline fulfills the net.PacketConn interface. Note that only read deadlines are affected.
func (c *Conn) SetDeadline(t time.Time) error {
	if err := c.SetReadDeadline(t); err != nil {
		return err
	} else if err := c.SetWriteDeadline(t); err != nil {
		return err
	}
	return nil
}

// SetReadDeadline fulfills the net.PacketConn interface.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.readDeadline.set(t)
	return nil
}

// SetWriteDeadline fulfills the net.PacketConn interface.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return nil
}
