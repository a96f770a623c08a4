// Package corenode resolves identities against a keylink node: username
// to key hash and back, the key-link chain of a username, chain updates
// and username listing.
//
// Every operation takes an Addressing. Direct() talks to the client's own
// node. Proxy(target) sends the same request through the p2p endpoint's
// tunnel so that target answers it.
package corenode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/protocol/wire"
)

// Operation names, relative to an Addressing prefix.
const (
	OpGetPublicKey   = "core/getPublicKey"
	OpGetUsername    = "core/getUsername"
	OpGetChain       = "core/getChain"
	OpUpdateChain    = "core/updateChain"
	OpGetUsernamesGz = "core/getUsernamesGzip/"
)

// CoreNode is the identity resolver.
type CoreNode interface {
	// GetPublicKeyHash returns the key hash registered for username, and
	// false if there is none.
	GetPublicKeyHash(ctx context.Context, addr Addressing, username string) (protocol.PublicKeyHash, bool, error)
	// GetUsername returns the username owning owner, and false if the
	// hash is not registered.
	GetUsername(ctx context.Context, addr Addressing, owner protocol.PublicKeyHash) (string, bool, error)
	// GetChain returns the key-link chain of username. The chain is empty
	// while no authority is established for it.
	GetChain(ctx context.Context, addr Addressing, username string) (protocol.Chain, error)
	// UpdateChain submits a replacement chain and returns whether the
	// node accepted it.
	UpdateChain(ctx context.Context, addr Addressing, username string, chain protocol.Chain) (bool, error)
	// GetUsernames lists the usernames starting with prefix.
	GetUsernames(ctx context.Context, addr Addressing, prefix string) ([]string, error)
}

// HTTPCoreNode implements CoreNode over a pair of Posters: direct for
// the local node, p2p for tunneled requests.
type HTTPCoreNode struct {
	*Dispatcher
	logger *application.Logger
}

var _ CoreNode = (*HTTPCoreNode)(nil)

// NewHTTPCoreNode returns a resolver posting direct requests to direct and
// proxied ones to p2p. A nil p2p falls back to direct, a nil logger
// discards.
func NewHTTPCoreNode(direct, p2p application.Poster, logger *application.Logger) *HTTPCoreNode {
	d := NewDispatcher(direct, p2p, logger)
	d.logger.Info("Creating HTTP core node API",
		"direct", posterName(d.direct), "p2p", posterName(d.p2p))
	return &HTTPCoreNode{Dispatcher: d, logger: d.logger}
}

// encodeUsername writes the single length-prefixed username most
// requests carry.
func encodeUsername(username string) ([]byte, error) {
	if len(username) > protocol.MaxUsernameSize {
		return nil, fmt.Errorf("username exceeds %d bytes", protocol.MaxUsernameSize)
	}
	w := wire.NewWriter()
	if err := w.WriteString(username); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func (n *HTTPCoreNode) GetPublicKeyHash(ctx context.Context, addr Addressing,
	username string) (protocol.PublicKeyHash, bool, error) {
	payload, err := encodeUsername(username)
	if err != nil {
		n.logger.Warn("Cannot encode key lookup", "username", username, "error", err)
		return protocol.PublicKeyHash{}, false, nil
	}
	res, err := n.Dispatch(ctx, addr, OpGetPublicKey, payload, true)
	if err != nil {
		return protocol.PublicKeyHash{}, false, err
	}

	r := wire.NewReader(res)
	present, err := r.ReadBool()
	if err != nil {
		return protocol.PublicKeyHash{}, false, err
	}
	if !present {
		return protocol.PublicKeyHash{}, false, nil
	}
	raw, err := r.ReadBytes(protocol.MaxKeyHashSize)
	if err != nil {
		return protocol.PublicKeyHash{}, false, err
	}
	owner, err := protocol.PublicKeyHashFromCBOR(raw)
	if err != nil {
		return protocol.PublicKeyHash{}, false, err
	}
	return owner, true, nil
}

// GetUsername reports an unregistered owner, which the node answers
// with an empty username, as absent rather than as an error.
func (n *HTTPCoreNode) GetUsername(ctx context.Context, addr Addressing,
	owner protocol.PublicKeyHash) (string, bool, error) {
	w := wire.NewWriter()
	ser, err := owner.Serialize()
	if err == nil {
		err = w.WriteBytes(ser)
	}
	if err != nil {
		n.logger.Warn("Cannot encode username lookup", "owner", owner, "error", err)
		return "", false, nil
	}
	res, err := n.Dispatch(ctx, addr, OpGetUsername, w.Bytes(), true)
	if err != nil {
		return "", false, err
	}

	username, err := wire.NewReader(res).ReadString(protocol.MaxUsernameSize)
	if err != nil {
		return "", false, err
	}
	if username == "" {
		return "", false, nil
	}
	return username, true, nil
}

func (n *HTTPCoreNode) GetChain(ctx context.Context, addr Addressing,
	username string) (protocol.Chain, error) {
	payload, err := encodeUsername(username)
	if err != nil {
		n.logger.Warn("Cannot encode chain lookup", "username", username, "error", err)
		return protocol.Chain{}, nil
	}
	res, err := n.Dispatch(ctx, addr, OpGetChain, payload, true)
	if err != nil {
		return nil, err
	}
	return wire.DecodeChain(wire.NewReader(res))
}

func (n *HTTPCoreNode) UpdateChain(ctx context.Context, addr Addressing,
	username string, chain protocol.Chain) (bool, error) {
	w := wire.NewWriter()
	err := w.WriteString(username)
	if err == nil {
		err = wire.EncodeChain(w, chain)
	}
	if err != nil {
		n.logger.Warn("Cannot encode chain update", "username", username, "error", err)
		return false, nil
	}
	res, err := n.Dispatch(ctx, addr, OpUpdateChain, w.Bytes(), true)
	if err != nil {
		return false, err
	}
	return wire.NewReader(res).ReadBool()
}

// GetUsernames does no paging; capping the listing is up to the node.
func (n *HTTPCoreNode) GetUsernames(ctx context.Context, addr Addressing,
	prefix string) ([]string, error) {
	res, err := n.Dispatch(ctx, addr, OpGetUsernamesGz+url.PathEscape(prefix), nil, true)
	if err != nil {
		return nil, err
	}
	var usernames []string
	if err := json.Unmarshal(res, &usernames); err != nil {
		return nil, fmt.Errorf("%w: usernames: %v", protocol.ErrMalformedResponse, err)
	}
	if usernames == nil {
		usernames = []string{}
	}
	return usernames, nil
}
