package mutable

import (
	"context"
	"fmt"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/protocol"
)

// Target is where a pointer call for some owner is served: the local
// node, or a remote one reached through the proxy tunnel.
type Target struct {
	remote protocol.NodeID
	proxy  bool
}

// Local is the Target served by the client's own node.
var Local = Target{}

// Remote returns the Target served by node id.
func Remote(id protocol.NodeID) Target {
	return Target{remote: id, proxy: true}
}

// IsLocal reports whether t is the local node.
func (t Target) IsLocal() bool {
	return !t.proxy
}

// Node returns the remote node, and false for Local.
func (t Target) Node() (protocol.NodeID, bool) {
	return t.remote, t.proxy
}

// Addressing maps t to the resolver addressing that reaches it.
func (t Target) Addressing() corenode.Addressing {
	if !t.proxy {
		return corenode.Direct()
	}
	return corenode.Proxy(t.remote)
}

func (t Target) String() string {
	if !t.proxy {
		return "local"
	}
	return t.remote.String()
}

// ProxyingMutablePointers forwards pointer reads and writes to the node
// the owner's key-link chain names as its storage provider.
type ProxyingMutablePointers struct {
	serverID protocol.NodeID
	core     corenode.CoreNode
	store    PointerStore
	logger   *application.Logger
}

// NewProxyingMutablePointers returns a router for the node serverID.
// core resolves owners, store carries the pointer calls.
func NewProxyingMutablePointers(serverID protocol.NodeID, core corenode.CoreNode,
	store PointerStore, logger *application.Logger) *ProxyingMutablePointers {
	if logger == nil {
		logger = application.NewNopLogger()
	}
	return &ProxyingMutablePointers{
		serverID: serverID,
		core:     core,
		store:    store,
		logger:   logger,
	}
}

// Resolve finds the node authoritative for owner. An owner whose
// username has no chain yet is still signing up and is served locally.
// Otherwise the first storage provider of the latest link wins.
// Resolution errors are returned as is; nothing is retried.
func (p *ProxyingMutablePointers) Resolve(ctx context.Context, owner protocol.PublicKeyHash) (Target, error) {
	username, ok, err := p.core.GetUsername(ctx, corenode.Direct(), owner)
	if err != nil {
		return Target{}, fmt.Errorf("resolving owner %s: %w", owner, err)
	}
	if !ok {
		return Target{}, fmt.Errorf("owner %s: %w", owner, protocol.ErrOwnerNotFound)
	}

	chain, err := p.core.GetChain(ctx, corenode.Direct(), username)
	if err != nil {
		return Target{}, fmt.Errorf("resolving chain of %s: %w", username, err)
	}
	if chain.IsEmpty() {
		return Local, nil
	}

	providers := chain.LatestStorageProviders()
	if len(providers) == 0 {
		return Target{}, fmt.Errorf("chain of %s: %w", username, protocol.ErrNoStorageProvider)
	}
	if providers[0].Equal(p.serverID) {
		return Local, nil
	}
	return Remote(providers[0]), nil
}

// GetPointer reads the pointer of (owner, writer) from the node
// authoritative for owner.
func (p *ProxyingMutablePointers) GetPointer(ctx context.Context,
	owner, writer protocol.PublicKeyHash) ([]byte, bool, error) {
	target, err := p.Resolve(ctx, owner)
	if err != nil {
		return nil, false, err
	}
	p.logger.Debug("Routing getPointer", "owner", owner, "target", target)
	return p.store.GetPointer(ctx, target.Addressing(), owner, writer)
}

// SetPointer writes the pointer of (owner, writer) to the node
// authoritative for owner.
func (p *ProxyingMutablePointers) SetPointer(ctx context.Context,
	owner, writer protocol.PublicKeyHash, signed []byte) (bool, error) {
	target, err := p.Resolve(ctx, owner)
	if err != nil {
		return false, err
	}
	p.logger.Debug("Routing setPointer", "owner", owner, "target", target)
	return p.store.SetPointer(ctx, target.Addressing(), owner, writer, signed)
}
