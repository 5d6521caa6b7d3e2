package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Arceliar/meshcore/encrypted"
)

func TestAnnounce(t *testing.T) {
	key, _ := encrypted.GenerateKeys()
	msg := encodeAnnounce(key, 12346)
	require.Len(t, msg, announceSize)
	got, port, ok := decodeAnnounce(msg)
	require.True(t, ok)
	require.Equal(t, key, got)
	require.Equal(t, 12346, port)
	_, _, ok = decodeAnnounce(msg[:len(msg)-1])
	require.False(t, ok)
	_, _, ok = decodeAnnounce(encodeAnnounce(key, 0))
	require.False(t, ok)
}

func TestGetAddr(t *testing.T) {
	key, _ := encrypted.GenerateKeys()
	other, _ := encrypted.GenerateKeys()
	addr := getAddr(key)
	require.Equal(t, byte(0xfd), addr[0])
	require.True(t, checkKey(addr, key))
	require.False(t, checkKey(addr, other))
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	require.Equal(t, defaultConfig(), cfg)

	key, _ := encrypted.GenerateKeys()
	path := filepath.Join(t.TempDir(), "meshcore.yaml")
	data := "listen: 127.0.0.1:4000\npeers:\n  - key: " + key.String() + "\n    address: 127.0.0.1:4001\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	cfg, err = loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:4000", cfg.Listen)
	require.Equal(t, "none", cfg.Ifname)
	peers, err := cfg.staticPeers()
	require.NoError(t, err)
	require.Len(t, peers, 1)
	require.Equal(t, key, peers[0].key)
	require.Equal(t, 4001, peers[0].addr.Port)

	cfg.Peers[0].Key = "not hex"
	_, err = cfg.staticPeers()
	require.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
