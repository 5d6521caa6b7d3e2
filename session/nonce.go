package session

import (
	"golang.org/x/crypto/blake2b"

	"github.com/Arceliar/meshcore/encrypted"
	"github.com/Arceliar/meshcore/types"
)

// Once a packet lands this far ahead of the base, the base moves forward by the same amount.
// That keeps the base close enough behind the sender for 16-bit wraparound to carry correctly.
const nonceAdvanceThreshold = 0xffff / 3

// nonceTracker rebuilds the remote side's full send nonce from the 16-bit suffix in each DataPacket.
type nonceTracker struct {
	base encrypted.Nonce
}

// candidate returns the full nonce the suffix most likely belongs to, and its distance from the base.
func (nt *nonceTracker) candidate(suffix uint16) (encrypted.Nonce, uint16) {
	delta := suffix - nt.base.Suffix()
	nonce := nt.base
	nonce.Add(delta)
	return nonce, delta
}

// commit must only be called after the packet decrypted with the candidate nonce.
func (nt *nonceTracker) commit(delta uint16) {
	if delta > nonceAdvanceThreshold {
		nt.base.Add(nonceAdvanceThreshold)
	}
}

// DeriveNonce returns the first nonce sender uses when sealing traffic under shared.
// Both ends compute it without talking, which is only safe if shared is never reused across restarts.
func DeriveNonce(shared *encrypted.SharedKey, sender types.Key) encrypted.Nonce {
	var nonce encrypted.Nonce
	h, err := blake2b.New(encrypted.NonceSize, shared[:])
	if err != nil {
		panic(err)
	}
	h.Write(sender[:])
	copy(nonce[:], h.Sum(nil))
	return nonce
}
