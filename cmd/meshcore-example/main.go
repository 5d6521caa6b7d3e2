package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Arceliar/meshcore/dht"
	"github.com/Arceliar/meshcore/encrypted"
	"github.com/Arceliar/meshcore/session"
)

type flags struct {
	listen  string
	ifname  string
	config  string
	metrics string
	verbose bool
}

func main() {
	var f flags
	cmd := &cobra.Command{
		Use:   "meshcore-example",
		Short: "Run a meshcore node with multicast discovery and an optional tun bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &f)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&f.listen, "listen", "", "UDP address for node traffic (default [::]:12346)")
	cmd.Flags().StringVar(&f.ifname, "ifname", "", `tun interface name, or "none" (default none)`)
	cmd.Flags().StringVar(&f.config, "config", "", "yaml config file with static peers")
	cmd.Flags().StringVar(&f.metrics, "metrics", "", "serve prometheus metrics on this address")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return err
	}
	// Flags win over the config file
	if cmd.Flags().Changed("listen") {
		cfg.Listen = f.listen
	}
	if cmd.Flags().Changed("ifname") {
		cfg.Ifname = f.ifname
	}
	if cmd.Flags().Changed("metrics") {
		cfg.Metrics = f.metrics
	}
	peers, err := cfg.staticPeers()
	if err != nil {
		return err
	}
	log, err := newLogger(f.verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	if cfg.Metrics != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	sock, err := net.ListenPacket("udp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Listen, err)
	}
	_, secret := encrypted.GenerateKeys()
	conn, err := session.NewConn(sock, &secret,
		session.WithLogger(log),
		session.WithTableOptions(dht.WithRegisterer(reg)),
	)
	if err != nil {
		sock.Close()
		return fmt.Errorf("failed to start node: %w", err)
	}
	defer conn.Close()
	self := getAddr(secret.Public())
	ip := net.IP(self[:])
	log.Info("Node started",
		zap.Stringer("key", conn.LocalAddr()),
		zap.Stringer("socket", conn.SocketAddr()),
		zap.Stringer("ip", ip))

	var tb *tunBridge
	if cfg.Ifname != "" && cfg.Ifname != "none" {
		dev, err := setupTun(cfg.Ifname, ip.String()+"/8")
		if err != nil {
			return fmt.Errorf("failed to set up tun %s: %w", cfg.Ifname, err)
		}
		defer dev.Close()
		tb = newTunBridge(dev, conn, log)
		go tb.reader()
		go tb.writer()
	} else {
		go discard(conn, log)
	}
	for _, p := range peers {
		if tb != nil {
			tb.putKey(p.key)
		}
		conn.AddPeer(p.key, p.addr)
	}

	port := conn.SocketAddr().(*net.UDPAddr).Port
	group, err := net.ResolveUDPAddr("udp6", groupAddrString)
	if err != nil {
		return err
	}
	if mc, err := newMulticastConn(); err != nil {
		log.Warn("Multicast discovery disabled", zap.Error(err))
	} else {
		defer mc.Close()
		go mcSender(mc, group, encodeAnnounce(secret.Public(), port), log)
		go mcListener(mc, conn, tb, log)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Shutting down")
	return nil
}

// discard reads and drops traffic when there's no tun device to deliver it to.
func discard(conn *session.Conn, log *zap.Logger) {
	buf := make([]byte, conn.MTU())
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if !conn.IsClosed() {
				log.Error("Reader stopped", zap.Error(err))
			}
			return
		}
		log.Debug("Discarded message", zap.Stringer("from", from), zap.Int("size", n))
	}
}
