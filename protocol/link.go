package protocol

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/keylink-sys/keylink-go/crypto"
	"github.com/keylink-sys/keylink-go/crypto/sign"
)

const (
	// MaxUsernameSize is the maximum size of a username in bytes.
	MaxUsernameSize = 64
	// MaxLinkSize is the maximum size of a serialized key-link.
	MaxLinkSize = 2 * 1024 * 1024
	// MaxKeyHashSize is the maximum size of a serialized key hash.
	MaxKeyHashSize = 1024
	// MaxPointerSize is the maximum size of a signed pointer value.
	MaxPointerSize = 4 * 1024

	// ExpiryLayout is the date layout of a claim's expiry.
	ExpiryLayout = "2006-01-02"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CanonicalEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{
		MaxArrayElements: 1 << 16,
		MaxMapPairs:      1 << 16,
	}).DecMode(); err != nil {
		panic(err)
	}
}

// A Claim binds a username to the owner key of its link, up to an
// expiry date, and declares in priority order the storage nodes
// authoritative for the identity's mutable state.
type Claim struct {
	Username         string   `cbor:"1,keyasint"`
	Expiry           string   `cbor:"2,keyasint"`
	StorageProviders []NodeID `cbor:"3,keyasint"`
	Signature        []byte   `cbor:"4,keyasint,omitempty"`
}

// NewClaim creates a claim for username, valid until expiry, and signs
// it with the owner's key sk.
func NewClaim(username string, expiry time.Time, providers []NodeID,
	sk sign.PrivateKey) (*Claim, error) {
	if len(username) == 0 || len(username) > MaxUsernameSize {
		return nil, fmt.Errorf("%w: username must be 1-%d bytes",
			ErrMalformedLink, MaxUsernameSize)
	}
	c := &Claim{
		Username:         username,
		Expiry:           expiry.UTC().Format(ExpiryLayout),
		StorageProviders: providers,
	}
	msg, err := c.SignedContents()
	if err != nil {
		return nil, err
	}
	c.Signature = sk.Sign(msg)
	return c, nil
}

// SignedContents returns the message covered by the claim's signature:
// the digest of the claim's canonical encoding without its signature.
func (c *Claim) SignedContents() ([]byte, error) {
	unsigned := *c
	unsigned.Signature = nil
	enc, err := encMode.Marshal(&unsigned)
	if err != nil {
		return nil, err
	}
	return crypto.Digest(enc), nil
}

// ExpiresAt parses the claim's expiry date.
func (c *Claim) ExpiresAt() (time.Time, error) {
	return time.Parse(ExpiryLayout, c.Expiry)
}

// A UserPublicKeyLink is one claim in the append-only chain of a
// username. The first link of a chain is self-signed. Every later link
// whose owner differs from its predecessor's carries a KeyChangeProof:
// the previous owner's signature over the new owner's key hash.
type UserPublicKeyLink struct {
	Owner          PublicKeyHash `cbor:"1,keyasint"`
	Claim          Claim         `cbor:"2,keyasint"`
	KeyChangeProof []byte        `cbor:"3,keyasint,omitempty"`
}

// NewGenesisLink creates the first link of a chain for username, owned
// by the key sk.
func NewGenesisLink(username string, expiry time.Time, providers []NodeID,
	sk sign.PrivateKey) (*UserPublicKeyLink, error) {
	pk, ok := sk.Public()
	if !ok {
		return nil, fmt.Errorf("bad signing key")
	}
	claim, err := NewClaim(username, expiry, providers, sk)
	if err != nil {
		return nil, err
	}
	return &UserPublicKeyLink{
		Owner: PublicKeyHashOf(pk),
		Claim: *claim,
	}, nil
}

// NewKeyChangeLink creates the link rotating the identity of prev from
// oldKey to newKey. The new claim is signed by newKey and the rotation
// is proven by oldKey.
func NewKeyChangeLink(prev *UserPublicKeyLink, oldKey, newKey sign.PrivateKey,
	expiry time.Time, providers []NodeID) (*UserPublicKeyLink, error) {
	link, err := NewGenesisLink(prev.Claim.Username, expiry, providers, newKey)
	if err != nil {
		return nil, err
	}
	msg, err := keyChangeContents(link.Claim.Username, link.Owner)
	if err != nil {
		return nil, err
	}
	link.KeyChangeProof = oldKey.Sign(msg)
	return link, nil
}

func keyChangeContents(username string, newOwner PublicKeyHash) ([]byte, error) {
	owner, err := newOwner.Serialize()
	if err != nil {
		return nil, err
	}
	return crypto.Digest([]byte(username), owner), nil
}

// Serialize returns the canonical CBOR encoding of the link.
func (l *UserPublicKeyLink) Serialize() ([]byte, error) {
	return encMode.Marshal(l)
}

// LinkFromCBOR decodes a serialized link. Inputs larger than
// MaxLinkSize are rejected before decoding.
func LinkFromCBOR(data []byte) (*UserPublicKeyLink, error) {
	if len(data) > MaxLinkSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d",
			ErrMalformedLink, len(data), MaxLinkSize)
	}
	link := new(UserPublicKeyLink)
	if err := decMode.Unmarshal(data, link); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLink, err)
	}
	if link.Owner.IsZero() {
		return nil, fmt.Errorf("%w: missing owner", ErrMalformedLink)
	}
	return link, nil
}
