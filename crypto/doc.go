// Package crypto contains the hash (`Digest`, sha3 shake128) over which
// claims and key-change proofs are signed.
//
// Signing keys live in crypto/sign.
package crypto
