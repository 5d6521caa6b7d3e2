package types

import (
	"net"
)

// ConvertibleAddr is for apps that want to implement a custom address behaviour
// but want to tell meshcore which public key to contact.
type ConvertibleAddr interface {
	MeshAddr() Addr
}

func ExtractAddrKey(a net.Addr) (addr Addr, ok bool) {
	switch v := a.(type) {
	case Addr:
		return v, true
	case *Addr:
		if v == nil {
			return addr, false
		}
		return *v, true
	case ConvertibleAddr:
		return v.MeshAddr(), true
	default:
		return addr, false
	}
}

// Addr implements the `net.Addr` interface for `Key` values.
type Addr Key

// Key returns the public key this address refers to.
func (a Addr) Key() Key {
	return Key(a)
}

// Network returns "curve25519.PublicKey" as a string, but is otherwise unused.
func (a Addr) Network() string {
	return "curve25519.PublicKey"
}

// String returns the public key as a hexidecimal string, but is otherwise unused.
func (a Addr) String() string {
	return Key(a).String()
}
