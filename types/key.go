package types

import (
	"encoding/hex"
	"errors"
)

// KeySize is the length of a curve25519 public key, which doubles as a node's routing identity.
const KeySize = 32

// Key is a node's public key.
type Key [KeySize]byte

// String returns the key as a lowercase hexidecimal string.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// ParseKey decodes a hexidecimal key as produced by Key.String.
func ParseKey(s string) (Key, error) {
	var k Key
	bs, err := hex.DecodeString(s)
	if err != nil {
		return k, err
	}
	if len(bs) != KeySize {
		return k, errors.New("incorrect key length")
	}
	copy(k[:], bs)
	return k, nil
}
