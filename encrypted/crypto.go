package encrypted

import (
	"crypto/rand"
	"encoding/binary"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/Arceliar/meshcore/types"
)

/*******
 * box *
 *******/

const (
	SecretKeySize = 32
	SharedKeySize = 32
	NonceSize     = 24
	Overhead      = box.Overhead
)

type SecretKey [SecretKeySize]byte
type SharedKey [SharedKeySize]byte
type Nonce [NonceSize]byte

// GenerateKeys returns a fresh curve25519 key pair.
func GenerateKeys() (pub types.Key, priv SecretKey) {
	bpub, bpriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		panic("failed to generate keys")
	}
	return types.Key(*bpub), SecretKey(*bpriv)
}

// Public returns the public key that pairs with priv.
func (priv *SecretKey) Public() types.Key {
	var pub types.Key
	bs, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		panic("failed to derive public key")
	}
	copy(pub[:], bs)
	return pub
}

// Precompute returns the shared key for traffic between priv's owner and pub.
func Precompute(pub *types.Key, priv *SecretKey) SharedKey {
	var shared SharedKey
	box.Precompute((*[32]byte)(&shared), (*[32]byte)(pub), (*[32]byte)(priv))
	return shared
}

// RandomNonce returns a nonce filled from crypto/rand.
func RandomNonce() Nonce {
	var n Nonce
	if _, err := rand.Read(n[:]); err != nil {
		panic("failed to generate nonce")
	}
	return n
}

// Seal appends the boxed msg to out.
func Seal(out, msg []byte, nonce *Nonce, shared *SharedKey) []byte {
	return box.SealAfterPrecomputation(out, msg, (*[24]byte)(nonce), (*[32]byte)(shared))
}

// Open appends the unboxed contents of boxed to out.
// Nothing is appended if authentication fails.
func Open(out, boxed []byte, nonce *Nonce, shared *SharedKey) ([]byte, bool) {
	return box.OpenAfterPrecomputation(out, boxed, (*[24]byte)(nonce), (*[32]byte)(shared))
}

/*********
 * nonce *
 *********/

// Increment adds one to the nonce, treated as a big-endian integer.
func (n *Nonce) Increment() {
	for idx := len(n) - 1; idx >= 0; idx-- {
		n[idx]++
		if n[idx] != 0 {
			break // continue only if we roll over
		}
	}
}

// Add adds u to the nonce, treated as a big-endian integer.
func (n *Nonce) Add(u uint16) {
	sum := uint32(n.Suffix()) + uint32(u)
	binary.BigEndian.PutUint16(n[NonceSize-2:], uint16(sum))
	if sum <= 0xffff {
		return
	}
	for idx := NonceSize - 3; idx >= 0; idx-- {
		n[idx]++
		if n[idx] != 0 {
			break
		}
	}
}

// Suffix returns the low-order 16 bits of the nonce, the part that travels in a DataPacket.
func (n Nonce) Suffix() uint16 {
	return binary.BigEndian.Uint16(n[NonceSize-2:])
}
