// Package testutil provides an in-memory keylink node for tests. It
// answers the core/ and mutable/ operations and tunnels
// /http/proxy/<id>/http/... requests to its registered peers.
package testutil

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/protocol/wire"
)

// FakeNode is a keylink node served by an httptest.Server.
type FakeNode struct {
	ID     protocol.NodeID
	Server *httptest.Server

	// RejectUpdates makes core/updateChain answer false.
	RejectUpdates bool
	// RejectPointers makes mutable/setPointer answer false.
	RejectPointers bool

	mu        sync.Mutex
	usernames map[string]protocol.PublicKeyHash
	owners    map[string]string
	chains    map[string]protocol.Chain
	pointers  map[string][]byte
	peers     map[string]*FakeNode
	requests  []string
}

// NewFakeNode starts a node whose ID is derived from name. The server is
// closed when the test ends.
func NewFakeNode(t testing.TB, name string) *FakeNode {
	n := &FakeNode{
		ID:        protocol.TestNodeID(name),
		usernames: make(map[string]protocol.PublicKeyHash),
		owners:    make(map[string]string),
		chains:    make(map[string]protocol.Chain),
		pointers:  make(map[string][]byte),
		peers:     make(map[string]*FakeNode),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(n.record)
	r.Post("/core/getPublicKey", n.handleGetPublicKey)
	r.Post("/core/getUsername", n.handleGetUsername)
	r.Post("/core/getChain", n.handleGetChain)
	r.Post("/core/updateChain", n.handleUpdateChain)
	r.Post("/core/getUsernamesGzip/*", n.handleGetUsernames)
	r.Post("/mutable/getPointer", n.handleGetPointer)
	r.Post("/mutable/setPointer", n.handleSetPointer)
	r.Post("/http/proxy/{target}/http/*", n.handleProxy)

	n.Server = httptest.NewServer(r)
	t.Cleanup(n.Server.Close)
	return n
}

// URL returns the node's base URL.
func (n *FakeNode) URL() string {
	return n.Server.URL
}

// AddPeers makes the nodes reachable through this node's proxy route.
func (n *FakeNode) AddPeers(peers ...*FakeNode) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, p := range peers {
		n.peers[p.ID.String()] = p
	}
}

// RegisterUsername binds username to owner without any chain, the state
// of a user in the middle of signing up.
func (n *FakeNode) RegisterUsername(username string, owner protocol.PublicKeyHash) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.usernames[username] = owner
	n.owners[owner.Key()] = username
}

// Register stores chain and binds its username to every owner in it.
func (n *FakeNode) Register(chain protocol.Chain) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.storeChain(chain)
}

func (n *FakeNode) storeChain(chain protocol.Chain) {
	latest := chain.Latest()
	if latest == nil {
		return
	}
	username := latest.Claim.Username
	n.chains[username] = chain
	n.usernames[username] = latest.Owner
	for _, link := range chain {
		n.owners[link.Owner.Key()] = username
	}
}

// Chain returns the chain stored for username.
func (n *FakeNode) Chain(username string) protocol.Chain {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chains[username]
}

// Pointer returns the pointer stored for (owner, writer).
func (n *FakeNode) Pointer(owner, writer protocol.PublicKeyHash) ([]byte, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	p, ok := n.pointers[pointerKey(owner, writer)]
	return p, ok
}

// PutPointer stores a pointer for (owner, writer).
func (n *FakeNode) PutPointer(owner, writer protocol.PublicKeyHash, signed []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pointers[pointerKey(owner, writer)] = signed
}

// Requests returns the paths of every request the node served, in order.
func (n *FakeNode) Requests() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.requests...)
}

func pointerKey(owner, writer protocol.PublicKeyHash) string {
	return owner.Key() + "/" + writer.Key()
}

func (n *FakeNode) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n.mu.Lock()
		n.requests = append(n.requests, r.URL.Path)
		n.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// readRequest reads the body and hands a wire.Reader over it to decode.
// decode must consume the whole body.
func readRequest(w http.ResponseWriter, r *http.Request, decode func(*wire.Reader) error) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	rd := wire.NewReader(body)
	if err := decode(rd); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := rd.Done(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func readKeyHash(rd *wire.Reader) (protocol.PublicKeyHash, error) {
	raw, err := rd.ReadBytes(protocol.MaxKeyHashSize)
	if err != nil {
		return protocol.PublicKeyHash{}, err
	}
	return protocol.PublicKeyHashFromCBOR(raw)
}

func writeGzip(w http.ResponseWriter, data []byte) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (n *FakeNode) handleGetPublicKey(w http.ResponseWriter, r *http.Request) {
	var username string
	if !readRequest(w, r, func(rd *wire.Reader) (err error) {
		username, err = rd.ReadString(protocol.MaxUsernameSize)
		return err
	}) {
		return
	}

	n.mu.Lock()
	owner, ok := n.usernames[username]
	n.mu.Unlock()

	out := wire.NewWriter()
	out.WriteBool(ok)
	if ok {
		ser, err := owner.Serialize()
		if err != nil {
			writeError(w, err)
			return
		}
		out.WriteBytes(ser)
	}
	writeGzip(w, out.Bytes())
}

func (n *FakeNode) handleGetUsername(w http.ResponseWriter, r *http.Request) {
	var owner protocol.PublicKeyHash
	if !readRequest(w, r, func(rd *wire.Reader) (err error) {
		owner, err = readKeyHash(rd)
		return err
	}) {
		return
	}

	n.mu.Lock()
	username := n.owners[owner.Key()]
	n.mu.Unlock()

	out := wire.NewWriter()
	out.WriteString(username)
	writeGzip(w, out.Bytes())
}

func (n *FakeNode) handleGetChain(w http.ResponseWriter, r *http.Request) {
	var username string
	if !readRequest(w, r, func(rd *wire.Reader) (err error) {
		username, err = rd.ReadString(protocol.MaxUsernameSize)
		return err
	}) {
		return
	}

	out := wire.NewWriter()
	if err := wire.EncodeChain(out, n.Chain(username)); err != nil {
		writeError(w, err)
		return
	}
	writeGzip(w, out.Bytes())
}

func (n *FakeNode) handleUpdateChain(w http.ResponseWriter, r *http.Request) {
	var username string
	var chain protocol.Chain
	if !readRequest(w, r, func(rd *wire.Reader) (err error) {
		if username, err = rd.ReadString(protocol.MaxUsernameSize); err != nil {
			return err
		}
		chain, err = wire.DecodeChain(rd)
		return err
	}) {
		return
	}

	n.mu.Lock()
	accepted := !n.RejectUpdates && n.acceptChain(username, chain)
	if accepted {
		n.storeChain(chain)
	}
	n.mu.Unlock()

	out := wire.NewWriter()
	out.WriteBool(accepted)
	writeGzip(w, out.Bytes())
}

// acceptChain only takes non-empty chains for username that extend the
// stored one.
func (n *FakeNode) acceptChain(username string, chain protocol.Chain) bool {
	latest := chain.Latest()
	if latest == nil || latest.Claim.Username != username {
		return false
	}
	ok, err := chain.HasPrefix(n.chains[username])
	return err == nil && ok
}

func (n *FakeNode) handleGetUsernames(w http.ResponseWriter, r *http.Request) {
	prefix, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	matches := []string{}
	for username := range n.usernames {
		if strings.HasPrefix(username, prefix) {
			matches = append(matches, username)
		}
	}
	n.mu.Unlock()
	sort.Strings(matches)

	out, err := json.Marshal(matches)
	if err != nil {
		writeError(w, err)
		return
	}
	writeGzip(w, out)
}

func (n *FakeNode) handleGetPointer(w http.ResponseWriter, r *http.Request) {
	var owner, writer protocol.PublicKeyHash
	if !readRequest(w, r, func(rd *wire.Reader) (err error) {
		if owner, err = readKeyHash(rd); err != nil {
			return err
		}
		writer, err = readKeyHash(rd)
		return err
	}) {
		return
	}

	signed, ok := n.Pointer(owner, writer)
	out := wire.NewWriter()
	out.WriteBool(ok)
	if ok {
		out.WriteBytes(signed)
	}
	w.Write(out.Bytes())
}

func (n *FakeNode) handleSetPointer(w http.ResponseWriter, r *http.Request) {
	var owner, writer protocol.PublicKeyHash
	var signed []byte
	if !readRequest(w, r, func(rd *wire.Reader) (err error) {
		if owner, err = readKeyHash(rd); err != nil {
			return err
		}
		if writer, err = readKeyHash(rd); err != nil {
			return err
		}
		signed, err = rd.ReadBytes(protocol.MaxPointerSize)
		return err
	}) {
		return
	}

	n.mu.Lock()
	accepted := !n.RejectPointers
	if accepted {
		n.pointers[pointerKey(owner, writer)] = signed
	}
	n.mu.Unlock()

	out := wire.NewWriter()
	out.WriteBool(accepted)
	w.Write(out.Bytes())
}

// handleProxy forwards the tunneled request to the target peer over HTTP
// and relays its answer.
func (n *FakeNode) handleProxy(w http.ResponseWriter, r *http.Request) {
	target := chi.URLParam(r, "target")
	n.mu.Lock()
	peer, ok := n.peers[target]
	n.mu.Unlock()
	if !ok {
		http.Error(w, fmt.Sprintf("unknown peer %s", target), http.StatusBadGateway)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost,
		peer.URL()+"/"+chi.URLParam(r, "*"), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := peer.Server.Client().Do(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}
