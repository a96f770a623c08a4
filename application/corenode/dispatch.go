package corenode

import (
	"context"
	"fmt"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/protocol"
)

// ProxyProtocol is the application protocol tunneled through a proxied
// request. This client only ever tunnels plain HTTP.
const ProxyProtocol = "http"

// Addressing selects how a request reaches the node that answers it:
// directly on the default endpoint, or through the p2p endpoint's tunnel
// to a target node.
type Addressing struct {
	target protocol.NodeID
	proxy  bool
}

// Direct addresses the default endpoint with an empty URL prefix.
func Direct() Addressing {
	return Addressing{}
}

// Proxy addresses target through the p2p tunnel.
func Proxy(target protocol.NodeID) Addressing {
	return Addressing{target: target, proxy: true}
}

// IsProxy reports whether requests are tunneled.
func (a Addressing) IsProxy() bool {
	return a.proxy
}

// Target returns the tunneled node, and false for direct addressing.
func (a Addressing) Target() (protocol.NodeID, bool) {
	return a.target, a.proxy
}

// Prefix returns the URL prefix every operation name is appended to:
// "" for direct addressing, "/http/proxy/<target>/http/" otherwise.
func (a Addressing) Prefix() string {
	if !a.proxy {
		return ""
	}
	return "/http/proxy/" + a.target.String() + "/" + ProxyProtocol + "/"
}

// Path returns the full request path of op.
func (a Addressing) Path(op string) string {
	return a.Prefix() + op
}

func (a Addressing) String() string {
	if !a.proxy {
		return "direct"
	}
	return "proxy(" + a.target.String() + ")"
}

// A Dispatcher sends an operation to the node an Addressing selects.
// Direct requests go through the direct Poster, proxied ones through p2p.
type Dispatcher struct {
	direct application.Poster
	p2p    application.Poster
	logger *application.Logger
}

// NewDispatcher returns a Dispatcher. A nil p2p falls back to direct, a
// nil logger discards.
func NewDispatcher(direct, p2p application.Poster, logger *application.Logger) *Dispatcher {
	if p2p == nil {
		p2p = direct
	}
	if logger == nil {
		logger = application.NewNopLogger()
	}
	return &Dispatcher{direct: direct, p2p: p2p, logger: logger}
}

// Dispatch posts payload to op under addr's prefix. With unzip set the
// response body is inflated if the node compressed it.
func (d *Dispatcher) Dispatch(ctx context.Context, addr Addressing, op string,
	payload []byte, unzip bool) ([]byte, error) {
	poster := d.direct
	if addr.IsProxy() {
		poster = d.p2p
	}
	path := addr.Path(op)
	d.logger.Debug("Dispatching", "path", path, "size", len(payload))
	if unzip {
		return poster.PostUnzip(ctx, path, payload)
	}
	return poster.Post(ctx, path, payload)
}

func posterName(p application.Poster) string {
	if hp, ok := p.(*application.HTTPPoster); ok {
		return hp.BaseURL()
	}
	return fmt.Sprintf("%T", p)
}
