package dht

import (
	"crypto/rand"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	defaultStalenessThreshold = 162 * time.Second
	defaultPingTimeout        = 5 * time.Second
	defaultPingInterval       = time.Minute
	defaultBucketSize         = 8
)

type config struct {
	stalenessThreshold time.Duration
	pingTimeout        time.Duration
	pingInterval       time.Duration
	killTimeout        time.Duration
	bucketSize         int
	clock              clock.Clock
	rand               io.Reader
	logger             *zap.Logger
	registerer         prometheus.Registerer
}

type Option func(*config)

func configDefaults() Option {
	return func(c *config) {
		c.stalenessThreshold = defaultStalenessThreshold
		c.pingTimeout = defaultPingTimeout
		c.pingInterval = defaultPingInterval
		c.killTimeout = defaultStalenessThreshold + defaultPingInterval
		c.bucketSize = defaultBucketSize
		c.clock = clock.New()
		c.rand = rand.Reader
		c.logger = zap.NewNop()
		c.registerer = nil
	}
}

// WithStalenessThreshold sets how long a node may go without a confirmed response before it is Stale.
func WithStalenessThreshold(duration time.Duration) Option {
	return func(c *config) {
		c.stalenessThreshold = duration
	}
}

// WithPingTimeout sets how long an issued ping id stays valid.
func WithPingTimeout(duration time.Duration) Option {
	return func(c *config) {
		c.pingTimeout = duration
	}
}

func WithPingInterval(duration time.Duration) Option {
	return func(c *config) {
		c.pingInterval = duration
	}
}

// WithKillTimeout sets how long a node may stay silent before it is dropped from its bucket.
func WithKillTimeout(duration time.Duration) Option {
	return func(c *config) {
		c.killTimeout = duration
	}
}

func WithBucketSize(size int) Option {
	return func(c *config) {
		c.bucketSize = size
	}
}

func WithClock(clk clock.Clock) Option {
	return func(c *config) {
		c.clock = clk
	}
}

// WithRand sets the source of ping ids.
func WithRand(r io.Reader) Option {
	return func(c *config) {
		c.rand = r
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRegisterer registers the table's metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(c *config) {
		c.registerer = reg
	}
}
