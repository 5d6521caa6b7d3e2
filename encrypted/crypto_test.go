package encrypted

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSharedKey(t *testing.T) {
	pub1, priv1 := GenerateKeys()
	pub2, priv2 := GenerateKeys()
	encShared := Precompute(&pub1, &priv2)
	decShared := Precompute(&pub2, &priv1)
	if encShared != decShared {
		panic("shared secret mismatch")
	}
}

func TestPublic(t *testing.T) {
	pub, priv := GenerateKeys()
	require.Equal(t, pub, priv.Public())
}

func TestSealOpen(t *testing.T) {
	pub, priv := GenerateKeys()
	shared := Precompute(&pub, &priv)
	nonce := RandomNonce()
	msg := []byte("this is a test")
	boxed := Seal(nil, msg, &nonce, &shared)
	require.Len(t, boxed, len(msg)+Overhead)
	unboxed, ok := Open(nil, boxed, &nonce, &shared)
	require.True(t, ok)
	require.True(t, bytes.Equal(msg, unboxed))
	boxed[0] ^= 0x01
	_, ok = Open(nil, boxed, &nonce, &shared)
	require.False(t, ok)
}

func TestNonceIncrement(t *testing.T) {
	var n Nonce
	n.Increment()
	require.Equal(t, uint16(1), n.Suffix())
	n[NonceSize-1] = 0xff
	n[NonceSize-2] = 0xff
	n.Increment()
	require.Equal(t, uint16(0), n.Suffix())
	require.Equal(t, byte(1), n[NonceSize-3])
	var max Nonce
	for idx := range max {
		max[idx] = 0xff
	}
	max.Increment()
	require.Equal(t, Nonce{}, max)
}

func TestNonceAdd(t *testing.T) {
	var n Nonce
	n.Add(0xfffe)
	require.Equal(t, uint16(0xfffe), n.Suffix())
	require.Equal(t, byte(0), n[NonceSize-3])
	n.Add(3)
	require.Equal(t, uint16(1), n.Suffix())
	require.Equal(t, byte(1), n[NonceSize-3])

	var m Nonce
	for idx := 0; idx < 70000; idx++ {
		m.Increment()
	}
	var k Nonce
	for idx := 0; idx < 70000; {
		step := 40000
		if 70000-idx < step {
			step = 70000 - idx
		}
		k.Add(uint16(step))
		idx += step
	}
	require.Equal(t, m, k)
}

func BenchmarkSeal(b *testing.B) {
	pub, priv := GenerateKeys()
	shared := Precompute(&pub, &priv)
	nonce := RandomNonce()
	msg := make([]byte, MaxDataBodySize)
	out := make([]byte, 0, MaxDataPacketSize)
	for idx := 0; idx < b.N; idx++ {
		nonce.Increment()
		_ = Seal(out, msg, &nonce, &shared)
	}
}
