package main

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Arceliar/meshcore/types"
)

// PeerConfig is a node we should contact at startup.
type PeerConfig struct {
	Key     string `yaml:"key"`
	Address string `yaml:"address"`
}

type Config struct {
	Listen  string       `yaml:"listen"`
	Ifname  string       `yaml:"ifname"`
	Metrics string       `yaml:"metrics"`
	Peers   []PeerConfig `yaml:"peers"`
}

type staticPeer struct {
	key  types.Key
	addr *net.UDPAddr
}

func defaultConfig() *Config {
	return &Config{
		Listen: "[::]:12346",
		Ifname: "none",
	}
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(bs, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (cfg *Config) staticPeers() ([]staticPeer, error) {
	var peers []staticPeer
	for _, p := range cfg.Peers {
		key, err := types.ParseKey(p.Key)
		if err != nil {
			return nil, fmt.Errorf("bad key for peer %s: %w", p.Address, err)
		}
		addr, err := net.ResolveUDPAddr("udp", p.Address)
		if err != nil {
			return nil, fmt.Errorf("bad address for peer %s: %w", p.Key, err)
		}
		peers = append(peers, staticPeer{key: key, addr: addr})
	}
	return peers, nil
}
