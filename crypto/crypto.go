package crypto

import (
	"golang.org/x/crypto/sha3"
)

// HashSizeByte is the size of the hash output in bytes.
const HashSizeByte = 32

// Digest hashes all passed byte slices.
// The passed slices won't be mutated.
func Digest(ms ...[]byte) []byte {
	h := sha3.NewShake128()
	for _, m := range ms {
		h.Write(m)
	}
	ret := make([]byte, HashSizeByte)
	h.Read(ret)
	return ret
}
