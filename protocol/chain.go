package protocol

import (
	"bytes"
	"fmt"
)

// A Chain is the ordered sequence of key-links of one username, from
// oldest to newest. It is append-only: links are never rewritten, and
// the last link is authoritative.
type Chain []*UserPublicKeyLink

// A ClaimVerifier checks that sig is a valid signature of msg by the
// key fingerprinted by owner.
type ClaimVerifier interface {
	Verify(owner PublicKeyHash, msg, sig []byte) bool
}

// IsEmpty reports whether the chain has no links yet, meaning no
// authority has been established for the username (e.g. mid-signup).
func (c Chain) IsEmpty() bool {
	return len(c) == 0
}

// Latest returns the authoritative link, or nil for an empty chain.
func (c Chain) Latest() *UserPublicKeyLink {
	if c.IsEmpty() {
		return nil
	}
	return c[len(c)-1]
}

// LatestStorageProviders returns the storage providers declared by the
// last link, in priority order. It returns nil for an empty chain.
func (c Chain) LatestStorageProviders() []NodeID {
	latest := c.Latest()
	if latest == nil {
		return nil
	}
	return latest.Claim.StorageProviders
}

// Owner returns the current owner key hash of the chain.
func (c Chain) Owner() (PublicKeyHash, bool) {
	latest := c.Latest()
	if latest == nil {
		return PublicKeyHash{}, false
	}
	return latest.Owner, true
}

// Serialize encodes every link of the chain.
func (c Chain) Serialize() ([][]byte, error) {
	out := make([][]byte, 0, len(c))
	for i, link := range c {
		raw, err := link.Serialize()
		if err != nil {
			return nil, fmt.Errorf("link %d: %w", i, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// HasPrefix reports whether prefix is an initial segment of c, comparing
// links by their canonical encoding.
func (c Chain) HasPrefix(prefix Chain) (bool, error) {
	if len(prefix) > len(c) {
		return false, nil
	}
	for i := range prefix {
		a, err := prefix[i].Serialize()
		if err != nil {
			return false, err
		}
		b, err := c[i].Serialize()
		if err != nil {
			return false, err
		}
		if !bytes.Equal(a, b) {
			return false, nil
		}
	}
	return true, nil
}

// Verify checks the signature linkage of the chain: every claim is
// signed by its link's owner, all links claim the same username, and
// every change of owner is proven by the previous owner.
func (c Chain) Verify(v ClaimVerifier) error {
	for i, link := range c {
		msg, err := link.Claim.SignedContents()
		if err != nil {
			return err
		}
		if !v.Verify(link.Owner, msg, link.Claim.Signature) {
			return fmt.Errorf("link %d: %w", i, ErrBadSignature)
		}
		if i == 0 {
			continue
		}
		prev := c[i-1]
		if link.Claim.Username != prev.Claim.Username {
			return fmt.Errorf("link %d: %w", i, ErrUsernameMismatch)
		}
		if link.Owner.Equal(prev.Owner) {
			continue
		}
		msg, err = keyChangeContents(link.Claim.Username, link.Owner)
		if err != nil {
			return err
		}
		if !v.Verify(prev.Owner, msg, link.KeyChangeProof) {
			return fmt.Errorf("link %d: %w", i, ErrBadKeyChange)
		}
	}
	return nil
}
