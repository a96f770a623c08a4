package corenode

import (
	"context"

	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/protocol/client"
)

// PinningCoreNode wraps a CoreNode so that every chain it returns or
// submits must extend the chain pinned for that username.
type PinningCoreNode struct {
	CoreNode
	pins *client.ChainPins
}

var _ CoreNode = (*PinningCoreNode)(nil)

// NewPinningCoreNode returns node checked against pins.
func NewPinningCoreNode(node CoreNode, pins *client.ChainPins) *PinningCoreNode {
	return &PinningCoreNode{CoreNode: node, pins: pins}
}

// GetChain fails with protocol.ErrChainRollback if the node answers
// with a chain that drops or rewrites a pinned link.
func (n *PinningCoreNode) GetChain(ctx context.Context, addr Addressing,
	username string) (protocol.Chain, error) {
	chain, err := n.CoreNode.GetChain(ctx, addr, username)
	if err != nil {
		return nil, err
	}
	if err := n.pins.HandleChain(username, chain); err != nil {
		return nil, err
	}
	return chain, nil
}

// UpdateChain refuses to submit a chain that does not extend the pinned
// one, and pins the chain once the node accepts it.
func (n *PinningCoreNode) UpdateChain(ctx context.Context, addr Addressing,
	username string, chain protocol.Chain) (bool, error) {
	if err := n.pins.Check(username, chain); err != nil {
		return false, err
	}
	ok, err := n.CoreNode.UpdateChain(ctx, addr, username, chain)
	if err != nil || !ok {
		return ok, err
	}
	return true, n.pins.HandleChain(username, chain)
}
