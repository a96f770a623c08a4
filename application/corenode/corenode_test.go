package corenode

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/application/testutil"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/protocol/wire"
	"github.com/stretchr/testify/require"
)

// stubPoster answers every request with a canned response.
type stubPoster struct {
	mu       sync.Mutex
	paths    []string
	unzipped []bool
	response []byte
	err      error
}

func (p *stubPoster) post(path string, unzip bool) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paths = append(p.paths, path)
	p.unzipped = append(p.unzipped, unzip)
	return p.response, p.err
}

func (p *stubPoster) Post(_ context.Context, path string, _ []byte) ([]byte, error) {
	return p.post(path, false)
}

func (p *stubPoster) PostUnzip(_ context.Context, path string, _ []byte) ([]byte, error) {
	return p.post(path, true)
}

func newNode(t *testing.T, fn *testutil.FakeNode) *HTTPCoreNode {
	poster := application.NewHTTPPoster(fn.URL(), 5*time.Second)
	return NewHTTPCoreNode(poster, poster, nil)
}

func TestAddressingPrefix(t *testing.T) {
	require.Equal(t, "", Direct().Prefix())
	require.Equal(t, "core/getChain", Direct().Path(OpGetChain))

	target := protocol.TestNodeID("remote9")
	addr := Proxy(target)
	require.True(t, addr.IsProxy())
	require.Equal(t, "/http/proxy/"+target.String()+"/http/", addr.Prefix())
	require.Equal(t, "/http/proxy/"+target.String()+"/http/core/getChain", addr.Path(OpGetChain))

	got, ok := addr.Target()
	require.True(t, ok)
	require.True(t, got.Equal(target))
	_, ok = Direct().Target()
	require.False(t, ok)
}

func TestGetPublicKeyHash(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	alice := protocol.NewTestIdentity("alice")
	fn.Register(protocol.NewTestChain(t, alice, fn.ID))
	node := newNode(t, fn)

	owner, ok, err := node.GetPublicKeyHash(context.Background(), Direct(), "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, owner.Equal(alice.Owner()))

	_, ok, err = node.GetPublicKeyHash(context.Background(), Direct(), "mallory")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetUsername(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	alice := protocol.NewTestIdentity("alice")
	fn.Register(protocol.NewTestChain(t, alice, fn.ID))
	node := newNode(t, fn)

	username, ok, err := node.GetUsername(context.Background(), Direct(), alice.Owner())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", username)

	_, ok, err = node.GetUsername(context.Background(), Direct(), protocol.NewTestIdentity("bob").Owner())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetUsernameInflatesResponse(t *testing.T) {
	w := wire.NewWriter()
	require.NoError(t, w.WriteString("alice"))
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(w.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		rw.Write(buf.Bytes())
	}))
	defer srv.Close()
	poster := application.NewHTTPPoster(srv.URL, 5*time.Second)
	node := NewHTTPCoreNode(poster, poster, nil)

	username, ok, err := node.GetUsername(context.Background(), Direct(), protocol.NewTestIdentity("alice").Owner())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", username)

	stub := &stubPoster{response: w.Bytes()}
	node = NewHTTPCoreNode(stub, stub, nil)
	_, _, err = node.GetUsername(context.Background(), Direct(), protocol.NewTestIdentity("alice").Owner())
	require.NoError(t, err)
	require.Equal(t, []string{"core/getUsername"}, stub.paths)
	require.Equal(t, []bool{true}, stub.unzipped)
}

func TestGetChain(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	alice := protocol.NewTestIdentity("alice")
	chain := protocol.NewTestChain(t, alice, fn.ID, protocol.TestNodeID("backup"))
	fn.Register(chain)
	node := newNode(t, fn)

	got, err := node.GetChain(context.Background(), Direct(), "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	same, err := got.HasPrefix(chain)
	require.NoError(t, err)
	require.True(t, same)
	require.Len(t, got.LatestStorageProviders(), 2)
	require.True(t, got.LatestStorageProviders()[0].Equal(fn.ID))

	got, err = node.GetChain(context.Background(), Direct(), "carol")
	require.NoError(t, err)
	require.True(t, got.IsEmpty())
}

func TestUpdateChain(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	bob := protocol.NewTestIdentity("bob")
	chain := protocol.NewTestChain(t, bob, fn.ID)
	node := newNode(t, fn)

	ok, err := node.UpdateChain(context.Background(), Direct(), "bob", chain)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, fn.Chain("bob"), 1)

	fn.RejectUpdates = true
	ok, err = node.UpdateChain(context.Background(), Direct(), "bob", chain)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateChainRejectedByte(t *testing.T) {
	poster := &stubPoster{response: []byte{0x00}}
	node := NewHTTPCoreNode(poster, nil, nil)
	chain := protocol.NewTestChain(t, protocol.NewTestIdentity("bob"))

	ok, err := node.UpdateChain(context.Background(), Direct(), "bob", chain)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{"core/updateChain"}, poster.paths)
}

func TestGetUsernamesJSON(t *testing.T) {
	poster := &stubPoster{response: []byte(`["alice","albert"]`)}
	node := NewHTTPCoreNode(poster, nil, nil)

	usernames, err := node.GetUsernames(context.Background(), Direct(), "al")
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "albert"}, usernames)
	require.Equal(t, []string{"core/getUsernamesGzip/al"}, poster.paths)
	require.Equal(t, []bool{true}, poster.unzipped)
}

func TestGetUsernamesFromNode(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	for _, name := range []string{"alice", "albert", "bob"} {
		fn.Register(protocol.NewTestChain(t, protocol.NewTestIdentity(name), fn.ID))
	}
	node := newNode(t, fn)

	usernames, err := node.GetUsernames(context.Background(), Direct(), "al")
	require.NoError(t, err)
	require.Equal(t, []string{"albert", "alice"}, usernames)

	usernames, err = node.GetUsernames(context.Background(), Direct(), "zed")
	require.NoError(t, err)
	require.Empty(t, usernames)
}

func TestProxiedRequestsReachTarget(t *testing.T) {
	local := testutil.NewFakeNode(t, "local1")
	remote := testutil.NewFakeNode(t, "remote9")
	local.AddPeers(remote)
	alice := protocol.NewTestIdentity("alice")
	remote.Register(protocol.NewTestChain(t, alice, remote.ID))

	direct := application.NewHTTPPoster("http://127.0.0.1:1", time.Second)
	p2p := application.NewHTTPPoster(local.URL(), 5*time.Second)
	node := NewHTTPCoreNode(direct, p2p, nil)

	chain, err := node.GetChain(context.Background(), Proxy(remote.ID), "alice")
	require.NoError(t, err)
	require.Len(t, chain, 1)

	username, ok, err := node.GetUsername(context.Background(), Proxy(remote.ID), alice.Owner())
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "alice", username)

	prefix := "/http/proxy/" + remote.ID.String() + "/http/"
	require.Equal(t, []string{prefix + "core/getChain", prefix + "core/getUsername"}, local.Requests())
	require.Equal(t, []string{"/core/getChain", "/core/getUsername"}, remote.Requests())
}

func TestTransportErrorSurfaces(t *testing.T) {
	local := testutil.NewFakeNode(t, "local1")
	node := newNode(t, local)

	_, err := node.GetChain(context.Background(), Proxy(protocol.TestNodeID("nowhere")), "alice")
	var se *application.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadGateway, se.StatusCode)

	poster := &stubPoster{err: errors.New("connection refused")}
	_, _, err = NewHTTPCoreNode(poster, nil, nil).GetPublicKeyHash(context.Background(), Direct(), "alice")
	require.Error(t, err)
}

func TestEncodingErrorDegrades(t *testing.T) {
	poster := &stubPoster{}
	node := NewHTTPCoreNode(poster, nil, nil)
	long := strings.Repeat("a", protocol.MaxUsernameSize+1)

	_, ok, err := node.GetPublicKeyHash(context.Background(), Direct(), long)
	require.NoError(t, err)
	require.False(t, ok)

	chain, err := node.GetChain(context.Background(), Direct(), long)
	require.NoError(t, err)
	require.True(t, chain.IsEmpty())
	require.Empty(t, poster.paths)
}

func TestMalformedResponses(t *testing.T) {
	for _, tc := range []struct {
		name     string
		response []byte
		call     func(*HTTPCoreNode) error
	}{
		{"truncated key hash", []byte{0x01, 0x00, 0x00, 0x00, 0x10, 0xaa}, func(n *HTTPCoreNode) error {
			_, _, err := n.GetPublicKeyHash(context.Background(), Direct(), "alice")
			return err
		}},
		{"empty bool", nil, func(n *HTTPCoreNode) error {
			_, err := n.UpdateChain(context.Background(), Direct(), "alice", nil)
			return err
		}},
		{"oversize username", []byte{0x00, 0x00, 0x01, 0x00}, func(n *HTTPCoreNode) error {
			_, _, err := n.GetUsername(context.Background(), Direct(), protocol.NewTestIdentity("alice").Owner())
			return err
		}},
		{"hostile chain count", []byte{0x00, 0x0f, 0x42, 0x40}, func(n *HTTPCoreNode) error {
			_, err := n.GetChain(context.Background(), Direct(), "alice")
			return err
		}},
		{"not json", []byte("alice,albert"), func(n *HTTPCoreNode) error {
			_, err := n.GetUsernames(context.Background(), Direct(), "al")
			return err
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			node := NewHTTPCoreNode(&stubPoster{response: tc.response}, nil, nil)
			require.ErrorIs(t, tc.call(node), protocol.ErrMalformedResponse)
		})
	}
}
