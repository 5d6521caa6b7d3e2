package session

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Arceliar/meshcore/encrypted"
	"github.com/Arceliar/meshcore/types"
)

// KeyCache remembers shared keys, so the curve25519 work is done once per peer.
// It is safe for concurrent use.
type KeyCache struct {
	secret encrypted.SecretKey
	cache  *lru.Cache[types.Key, encrypted.SharedKey]
}

func NewKeyCache(secret *encrypted.SecretKey, size int) (*KeyCache, error) {
	cache, err := lru.New[types.Key, encrypted.SharedKey](size)
	if err != nil {
		return nil, err
	}
	return &KeyCache{secret: *secret, cache: cache}, nil
}

// Get returns the shared key for traffic with pub.
func (kc *KeyCache) Get(pub types.Key) encrypted.SharedKey {
	if shared, ok := kc.cache.Get(pub); ok {
		return shared
	}
	shared := encrypted.Precompute(&pub, &kc.secret)
	kc.cache.Add(pub, shared)
	return shared
}

func (kc *KeyCache) Len() int {
	return kc.cache.Len()
}
