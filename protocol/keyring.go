package protocol

import (
	"sync"

	"github.com/keylink-sys/keylink-go/crypto/sign"
)

// A KeyRing maps key hashes to the public keys they fingerprint and
// implements ClaimVerifier over them.
type KeyRing struct {
	mu   sync.RWMutex
	keys map[string]sign.PublicKey
}

var _ ClaimVerifier = (*KeyRing)(nil)

// NewKeyRing returns a KeyRing holding pks.
func NewKeyRing(pks ...sign.PublicKey) *KeyRing {
	kr := &KeyRing{keys: make(map[string]sign.PublicKey)}
	for _, pk := range pks {
		kr.Add(pk)
	}
	return kr
}

// Add inserts pk and returns its key hash.
func (kr *KeyRing) Add(pk sign.PublicKey) PublicKeyHash {
	h := PublicKeyHashOf(pk)
	kr.mu.Lock()
	kr.keys[h.Key()] = pk
	kr.mu.Unlock()
	return h
}

// Get returns the public key fingerprinted by h.
func (kr *KeyRing) Get(h PublicKeyHash) (sign.PublicKey, bool) {
	kr.mu.RLock()
	defer kr.mu.RUnlock()
	pk, ok := kr.keys[h.Key()]
	return pk, ok
}

// Verify implements ClaimVerifier. Signatures by unknown keys never
// verify.
func (kr *KeyRing) Verify(owner PublicKeyHash, msg, sig []byte) bool {
	pk, ok := kr.Get(owner)
	if !ok {
		return false
	}
	return pk.Verify(msg, sig)
}
