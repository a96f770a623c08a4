// Package mutable reads and writes mutable pointers: the signed root hash
// a writer publishes for an owner. ProxyingMutablePointers routes every
// call to the node that is authoritative for the owner.
package mutable

import (
	"context"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/protocol/wire"
)

// Operation names, relative to an Addressing prefix.
const (
	OpGetPointer = "mutable/getPointer"
	OpSetPointer = "mutable/setPointer"
)

// PointerStore reads and writes pointers on the node addr selects.
type PointerStore interface {
	GetPointer(ctx context.Context, addr corenode.Addressing,
		owner, writer protocol.PublicKeyHash) ([]byte, bool, error)
	SetPointer(ctx context.Context, addr corenode.Addressing,
		owner, writer protocol.PublicKeyHash, signed []byte) (bool, error)
}

// HTTPMutablePointers implements PointerStore over a pair of Posters.
type HTTPMutablePointers struct {
	*corenode.Dispatcher
	logger *application.Logger
}

var _ PointerStore = (*HTTPMutablePointers)(nil)

// NewHTTPMutablePointers returns a PointerStore posting direct requests to
// direct and proxied ones to p2p.
func NewHTTPMutablePointers(direct, p2p application.Poster, logger *application.Logger) *HTTPMutablePointers {
	if logger == nil {
		logger = application.NewNopLogger()
	}
	return &HTTPMutablePointers{
		Dispatcher: corenode.NewDispatcher(direct, p2p, logger),
		logger:     logger,
	}
}

func encodeKeys(w *wire.Writer, keys ...protocol.PublicKeyHash) error {
	for _, k := range keys {
		ser, err := k.Serialize()
		if err != nil {
			return err
		}
		if err := w.WriteBytes(ser); err != nil {
			return err
		}
	}
	return nil
}

// GetPointer returns the signed root hash stored for (owner, writer),
// and false if none is.
func (m *HTTPMutablePointers) GetPointer(ctx context.Context, addr corenode.Addressing,
	owner, writer protocol.PublicKeyHash) ([]byte, bool, error) {
	w := wire.NewWriter()
	if err := encodeKeys(w, owner, writer); err != nil {
		m.logger.Warn("Cannot encode pointer lookup", "owner", owner, "error", err)
		return nil, false, nil
	}
	res, err := m.Dispatch(ctx, addr, OpGetPointer, w.Bytes(), true)
	if err != nil {
		return nil, false, err
	}

	r := wire.NewReader(res)
	present, err := r.ReadBool()
	if err != nil || !present {
		return nil, false, err
	}
	signed, err := r.ReadBytes(protocol.MaxPointerSize)
	if err != nil {
		return nil, false, err
	}
	return signed, true, nil
}

// SetPointer publishes signed for (owner, writer) and returns whether
// the node accepted it.
func (m *HTTPMutablePointers) SetPointer(ctx context.Context, addr corenode.Addressing,
	owner, writer protocol.PublicKeyHash, signed []byte) (bool, error) {
	w := wire.NewWriter()
	err := encodeKeys(w, owner, writer)
	if err == nil && len(signed) > protocol.MaxPointerSize {
		m.logger.Warn("Pointer too large", "owner", owner, "size", len(signed))
		return false, nil
	}
	if err == nil {
		err = w.WriteBytes(signed)
	}
	if err != nil {
		m.logger.Warn("Cannot encode pointer update", "owner", owner, "error", err)
		return false, nil
	}
	res, err := m.Dispatch(ctx, addr, OpSetPointer, w.Bytes(), false)
	if err != nil {
		return false, err
	}
	return wire.NewReader(res).ReadBool()
}
