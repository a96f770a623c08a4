package protocol

import (
	"testing"
	"time"

	"github.com/keylink-sys/keylink-go/crypto"
	"github.com/keylink-sys/keylink-go/crypto/sign"
)

// A TestIdentity is a username with its signing key, used to build
// chains in _tests_.
type TestIdentity struct {
	Username string
	Key      sign.PrivateKey
}

// NewTestIdentity returns an identity whose key is derived from username.
func NewTestIdentity(username string) *TestIdentity {
	return &TestIdentity{
		Username: username,
		Key:      crypto.NewStaticTestSigningKeyFromSeed(username),
	}
}

// Public returns the identity's public key.
func (id *TestIdentity) Public() sign.PublicKey {
	pk, _ := id.Key.Public()
	return pk
}

// Owner returns the identity's key hash.
func (id *TestIdentity) Owner() PublicKeyHash {
	return PublicKeyHashOf(id.Public())
}

// NewTestChain returns a single-link chain for id declaring providers.
func NewTestChain(t *testing.T, id *TestIdentity, providers ...NodeID) Chain {
	link, err := NewGenesisLink(id.Username, time.Now().AddDate(1, 0, 0), providers, id.Key)
	if err != nil {
		t.Fatal(err)
	}
	return Chain{link}
}

// TestNodeID derives a NodeID from a human-readable name, so tests can
// talk about nodes such as "local1" or "remote9".
func TestNodeID(name string) NodeID {
	return NodeIDFromData([]byte(name))
}
