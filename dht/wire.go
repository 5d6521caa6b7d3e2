package dht

import (
	"encoding/binary"

	"github.com/Arceliar/meshcore/encrypted"
	"github.com/Arceliar/meshcore/types"
)

type wirePacketType byte

const (
	wirePingRequest wirePacketType = iota
	wirePingResponse
)

const (
	pingPlainSize  = 1 + 8
	PingPacketSize = 1 + types.KeySize + encrypted.NonceSize + pingPlainSize + encrypted.Overhead
)

func wireChopSlice(out []byte, data *[]byte) bool {
	if len(*data) < len(out) {
		return false
	}
	copy(out, *data)
	*data = (*data)[len(out):]
	return true
}

/**************
 * PingPacket *
 **************/

// PingPacket carries a ping id, sealed to the recipient under a full random nonce.
//
//	tag (1) | sender key (32) | nonce (24) | box(tag | id) (9 + 16)
type PingPacket struct {
	Response bool
	Sender   types.Key
	ID       uint64
}

func (p *PingPacket) kind() wirePacketType {
	if p.Response {
		return wirePingResponse
	}
	return wirePingRequest
}

// Seal appends the encrypted packet to out.
func (p *PingPacket) Seal(out []byte, shared *encrypted.SharedKey, nonce *encrypted.Nonce) []byte {
	var plain [pingPlainSize]byte
	plain[0] = byte(p.kind())
	binary.BigEndian.PutUint64(plain[1:], p.ID)
	out = append(out, byte(p.kind()))
	out = append(out, p.Sender[:]...)
	out = append(out, nonce[:]...)
	return encrypted.Seal(out, plain[:], nonce, shared)
}

// IsPingPacket reports whether data is tagged as a ping request or response.
func IsPingPacket(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	switch wirePacketType(data[0]) {
	case wirePingRequest, wirePingResponse:
		return true
	}
	return false
}

// PingSender returns the claimed sender of a ping packet, so the caller can pick a shared key.
func PingSender(data []byte) (types.Key, error) {
	var key types.Key
	if len(data) != PingPacketSize || !IsPingPacket(data) {
		return key, DecodeError{}
	}
	copy(key[:], data[1:])
	return key, nil
}

// Open authenticates and decodes a ping packet sealed with shared.
func (p *PingPacket) Open(data []byte, shared *encrypted.SharedKey) error {
	var tmp PingPacket
	var nonce encrypted.Nonce
	var err error
	if tmp.Sender, err = PingSender(data); err != nil {
		return err
	}
	kind := wirePacketType(data[0])
	data = data[1+types.KeySize:]
	if !wireChopSlice(nonce[:], &data) {
		return DecodeError{}
	}
	plain, ok := encrypted.Open(nil, data, &nonce, shared)
	if !ok {
		return encrypted.DecryptionFailedError{}
	}
	if len(plain) != pingPlainSize || wirePacketType(plain[0]) != kind {
		return DecodeError{}
	}
	tmp.Response = kind == wirePingResponse
	tmp.ID = binary.BigEndian.Uint64(plain[1:])
	*p = tmp
	return nil
}
