package protocol

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mr-tron/base58"
	"github.com/multiformats/go-multihash"
)

// A NodeID is a content-addressed identifier naming a peer node.
// It is used both as a storage provider entry in a key-link claim and
// as the address of a proxy tunnel. The zero value names no node.
type NodeID struct {
	mh multihash.Multihash
}

// NewNodeID validates mh as a multihash and wraps it into a NodeID.
func NewNodeID(mh []byte) (NodeID, error) {
	cast, err := multihash.Cast(mh)
	if err != nil {
		return NodeID{}, fmt.Errorf("%w: bad node id: %v", ErrMalformedLink, err)
	}
	return NodeID{mh: cast}, nil
}

// NodeIDFromData derives a NodeID as the sha2-256 multihash of data.
func NodeIDFromData(data []byte) NodeID {
	mh, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		// sha2-256 is always registered
		panic(err)
	}
	return NodeID{mh: mh}
}

// ParseNodeID parses the base58 representation of a NodeID.
func ParseNodeID(s string) (NodeID, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return NodeID{}, fmt.Errorf("bad base58 node id %q: %v", s, err)
	}
	return NewNodeID(raw)
}

// Multihash returns the underlying multihash.
func (id NodeID) Multihash() multihash.Multihash {
	return id.mh
}

// Bytes returns the raw multihash bytes.
func (id NodeID) Bytes() []byte {
	return []byte(id.mh)
}

// String returns the base58 representation of id, as used in
// proxy tunnel paths.
func (id NodeID) String() string {
	return base58.Encode(id.mh)
}

// Equal reports whether id and other name the same node.
func (id NodeID) Equal(other NodeID) bool {
	return bytes.Equal(id.mh, other.mh)
}

// IsZero reports whether id is the zero NodeID.
func (id NodeID) IsZero() bool {
	return len(id.mh) == 0
}

// MarshalCBOR encodes id as a CBOR byte string.
func (id NodeID) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal([]byte(id.mh))
}

// UnmarshalCBOR decodes a CBOR byte string into id.
func (id *NodeID) UnmarshalCBOR(data []byte) error {
	var raw []byte
	if err := cbor.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	parsed, err := NewNodeID(raw)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// MarshalText encodes id in base58, so NodeIDs can be used in config
// files and flags.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText decodes a base58-encoded id.
func (id *NodeID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = NodeID{}
		return nil
	}
	parsed, err := ParseNodeID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
