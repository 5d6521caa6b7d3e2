package session

import (
	"go.uber.org/zap"

	"github.com/Arceliar/meshcore/dht"
)

type config struct {
	keyCacheSize   int
	readBufferSize int
	readQueueSize  int
	logger         *zap.Logger
	tableOptions   []dht.Option
}

type Option func(*config)

func configDefaults() Option {
	return func(c *config) {
		c.keyCacheSize = 1024
		c.readBufferSize = 2048
		c.readQueueSize = 64
		c.logger = zap.NewNop()
		c.tableOptions = nil
	}
}

// WithKeyCacheSize sets how many precomputed shared keys are kept.
func WithKeyCacheSize(size int) Option {
	return func(c *config) {
		c.keyCacheSize = size
	}
}

// WithReadBufferSize sets the size of the socket read buffer. Longer datagrams are truncated.
func WithReadBufferSize(size int) Option {
	return func(c *config) {
		c.readBufferSize = size
	}
}

// WithReadQueueSize sets how many received messages wait for ReadFrom before new ones are dropped.
func WithReadQueueSize(size int) Option {
	return func(c *config) {
		c.readQueueSize = size
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTableOptions passes options through to the routing table.
func WithTableOptions(opts ...dht.Option) Option {
	return func(c *config) {
		c.tableOptions = append(c.tableOptions, opts...)
	}
}
