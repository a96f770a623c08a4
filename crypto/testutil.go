package crypto

import (
	"bytes"

	"github.com/keylink-sys/keylink-go/crypto/sign"
)

// NewStaticTestSigningKeyFromSeed returns a deterministic private signing
// key derived from seed, for _tests_ that need more than one identity.
// seed is padded or truncated to 32 bytes.
func NewStaticTestSigningKeyFromSeed(seed string) sign.PrivateKey {
	buf := make([]byte, 32)
	copy(buf, seed)
	sk, err := sign.GenerateKey(bytes.NewReader(buf))
	if err != nil {
		panic(err)
	}
	return sk
}
