package protocol

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ipfs/go-cid"
	"github.com/keylink-sys/keylink-go/crypto/sign"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"
)

// linkTag is the CBOR tag of an IPLD link.
const linkTag = 42

// A PublicKeyHash is the fingerprint of a public signing key; never the
// key material itself. An identity has one owner key hash and may have
// several writer key hashes over its lifetime.
type PublicKeyHash struct {
	mh multihash.Multihash
}

// PublicKeyHashOf returns the fingerprint of pk.
func PublicKeyHashOf(pk sign.PublicKey) PublicKeyHash {
	mh, err := multihash.Sum(pk, multihash.SHA2_256, -1)
	if err != nil {
		panic(err)
	}
	return PublicKeyHash{mh: mh}
}

// NewPublicKeyHash validates mh as a multihash and wraps it.
func NewPublicKeyHash(mh []byte) (PublicKeyHash, error) {
	cast, err := multihash.Cast(mh)
	if err != nil {
		return PublicKeyHash{}, fmt.Errorf("%w: bad key hash: %v", ErrMalformedResponse, err)
	}
	return PublicKeyHash{mh: cast}, nil
}

// ParsePublicKeyHash parses the base58 representation of a key hash.
func ParsePublicKeyHash(s string) (PublicKeyHash, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKeyHash{}, fmt.Errorf("bad base58 key hash %q: %v", s, err)
	}
	return NewPublicKeyHash(raw)
}

// PublicKeyHashFromCBOR decodes the serialized form returned by
// Serialize.
func PublicKeyHashFromCBOR(data []byte) (PublicKeyHash, error) {
	var h PublicKeyHash
	if err := h.UnmarshalCBOR(data); err != nil {
		return PublicKeyHash{}, err
	}
	return h, nil
}

// Multihash returns the underlying multihash.
func (h PublicKeyHash) Multihash() multihash.Multihash {
	return h.mh
}

// String returns the base58 representation of h.
func (h PublicKeyHash) String() string {
	return base58.Encode(h.mh)
}

// Equal reports whether h and other are the same fingerprint.
func (h PublicKeyHash) Equal(other PublicKeyHash) bool {
	return bytes.Equal(h.mh, other.mh)
}

// IsZero reports whether h is the zero value.
func (h PublicKeyHash) IsZero() bool {
	return len(h.mh) == 0
}

// Key returns h as a string usable as a map key.
func (h PublicKeyHash) Key() string {
	return string(h.mh)
}

// Serialize returns the CBOR encoding of h. This is the form sent
// on the wire to identify an owner or a writer.
func (h PublicKeyHash) Serialize() ([]byte, error) {
	return h.MarshalCBOR()
}

// MarshalCBOR encodes h as an IPLD link: tag 42 around the
// identity-prefixed bytes of a CIDv1 (dag-cbor) of the multihash.
func (h PublicKeyHash) MarshalCBOR() ([]byte, error) {
	if h.IsZero() {
		return nil, fmt.Errorf("cannot serialize an empty key hash")
	}
	c := cid.NewCidV1(cid.DagCBOR, h.mh)
	content := append([]byte{0x00}, c.Bytes()...)
	return cbor.Marshal(cbor.Tag{Number: linkTag, Content: content})
}

// UnmarshalCBOR decodes an IPLD link into h.
func (h *PublicKeyHash) UnmarshalCBOR(data []byte) error {
	var tag cbor.RawTag
	if err := cbor.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("%w: key hash: %v", ErrMalformedResponse, err)
	}
	if tag.Number != linkTag {
		return fmt.Errorf("%w: key hash: unexpected tag %d", ErrMalformedResponse, tag.Number)
	}
	var content []byte
	if err := cbor.Unmarshal(tag.Content, &content); err != nil {
		return fmt.Errorf("%w: key hash: %v", ErrMalformedResponse, err)
	}
	if len(content) < 2 || content[0] != 0x00 {
		return fmt.Errorf("%w: key hash: bad link prefix", ErrMalformedResponse)
	}
	c, err := cid.Cast(content[1:])
	if err != nil {
		return fmt.Errorf("%w: key hash: %v", ErrMalformedResponse, err)
	}
	h.mh = c.Hash()
	return nil
}

// MarshalText encodes h in base58.
func (h PublicKeyHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a base58-encoded key hash.
func (h *PublicKeyHash) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKeyHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
