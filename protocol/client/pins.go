// Implements the checks a keylink client runs on the key-link chains it
// receives: a chain, once seen, may only grow. Pinned chains are kept in
// a kv.DB so the guarantee survives restarts.

package client

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/storage/kv"
)

var pinPrefix = []byte("chain")

// ChainPins stores the latest chain a client accepted per username.
//
// A chain is accepted only if the pinned chain is a prefix of it. If a
// verifier is set, every new chain must also pass Chain.Verify.
type ChainPins struct {
	db       kv.DB
	verifier protocol.ClaimVerifier
	mu       sync.Mutex
}

// New returns ChainPins backed by db. verifier may be nil.
func New(db kv.DB, verifier protocol.ClaimVerifier) *ChainPins {
	return &ChainPins{db: db, verifier: verifier}
}

// usernamePrefix is "chain" || len(username) || username, so no username
// is a key prefix of another.
func usernamePrefix(username string) ([]byte, error) {
	if len(username) == 0 || len(username) > protocol.MaxUsernameSize {
		return nil, kv.ErrBadKey
	}
	key := make([]byte, 0, len(pinPrefix)+1+len(username)+4)
	key = append(key, pinPrefix...)
	key = append(key, byte(len(username)))
	return append(key, username...), nil
}

func linkKey(prefix []byte, i int) []byte {
	key := make([]byte, len(prefix), len(prefix)+4)
	copy(key, prefix)
	return binary.BigEndian.AppendUint32(key, uint32(i))
}

// Pinned returns the chain pinned for username, oldest link first.
func (p *ChainPins) Pinned(username string) (protocol.Chain, error) {
	prefix, err := usernamePrefix(username)
	if err != nil {
		return nil, err
	}
	iter := p.db.NewIterator(kv.BytesPrefix(prefix))
	defer iter.Release()

	var chain protocol.Chain
	for iter.Next() {
		link, err := protocol.LinkFromCBOR(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("pinned chain of %s: %w", username, err)
		}
		chain = append(chain, link)
	}
	return chain, iter.Error()
}

// Check returns nil if chain may replace the chain pinned for username.
func (p *ChainPins) Check(username string, chain protocol.Chain) error {
	pinned, err := p.Pinned(username)
	if err != nil {
		return err
	}
	return p.check(username, pinned, chain)
}

func (p *ChainPins) check(username string, pinned, chain protocol.Chain) error {
	for i, link := range chain {
		if link.Claim.Username != username {
			return fmt.Errorf("link %d of %s: %w", i, username, protocol.ErrUsernameMismatch)
		}
	}
	ok, err := chain.HasPrefix(pinned)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", username, protocol.ErrChainRollback)
	}
	if p.verifier != nil && len(chain) > len(pinned) {
		if err := chain.Verify(p.verifier); err != nil {
			return fmt.Errorf("%s: %w", username, err)
		}
	}
	return nil
}

// Pin stores chain as the latest chain of username. Links that are
// already pinned are left untouched.
func (p *ChainPins) Pin(username string, chain protocol.Chain) error {
	prefix, err := usernamePrefix(username)
	if err != nil {
		return err
	}
	wb := p.db.NewBatch()
	for i, link := range chain {
		raw, err := link.Serialize()
		if err != nil {
			return err
		}
		wb.Put(linkKey(prefix, i), raw)
	}
	if wb.Len() == 0 {
		return nil
	}
	return p.db.Write(wb)
}

// HandleChain checks chain against the pinned one and pins it if it is
// accepted. It is safe for concurrent use.
func (p *ChainPins) HandleChain(username string, chain protocol.Chain) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	pinned, err := p.Pinned(username)
	if err != nil {
		return err
	}
	if err := p.check(username, pinned, chain); err != nil {
		return err
	}
	if len(chain) == len(pinned) {
		return nil
	}
	return p.Pin(username, chain)
}
