package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keylink-sys/keylink-go/application/testutil"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	require.NoError(t, RootCmd.PersistentFlags().Set("via", ""))
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func initConfig(t *testing.T, node *testutil.FakeNode) string {
	dir := t.TempDir()
	_, err := execute(t, "init", "--dir", dir, "--address", node.URL(),
		"--p2p-address", "", "--server-id", node.ID.String(), "--chain-db", "chains.db")
	require.NoError(t, err)
	return filepath.Join(dir, "config.toml")
}

func TestLookup(t *testing.T) {
	local := testutil.NewFakeNode(t, "local1")
	alice := protocol.NewTestIdentity("alice")
	local.Register(protocol.NewTestChain(t, alice, local.ID))
	config := initConfig(t, local)

	out, err := execute(t, "--config", config, "lookup", "alice", "mallory")
	require.NoError(t, err)
	require.Contains(t, out, "alice: "+alice.Owner().String())
	require.Contains(t, out, "mallory: not registered")

	out, err = execute(t, "--config", config, "whois", alice.Owner().String())
	require.NoError(t, err)
	require.Contains(t, out, ": alice")

	out, err = execute(t, "--config", config, "chain", "alice")
	require.NoError(t, err)
	require.Contains(t, out, "providers=["+local.ID.String()+"]")
}

func TestUsernamesVia(t *testing.T) {
	local := testutil.NewFakeNode(t, "local1")
	remote := testutil.NewFakeNode(t, "remote9")
	local.AddPeers(remote)
	remote.Register(protocol.NewTestChain(t, protocol.NewTestIdentity("albert"), remote.ID))
	config := initConfig(t, local)

	out, err := execute(t, "--config", config, "--via", remote.ID.String(), "usernames", "al")
	require.NoError(t, err)
	require.Equal(t, "albert", strings.TrimSpace(out))
	require.Contains(t, local.Requests(),
		"/http/proxy/"+remote.ID.String()+"/http/core/getUsernamesGzip/al")
}

func TestPointerSetGet(t *testing.T) {
	local := testutil.NewFakeNode(t, "local1")
	remote := testutil.NewFakeNode(t, "remote9")
	local.AddPeers(remote)
	alice := protocol.NewTestIdentity("alice")
	writer := protocol.NewTestIdentity("alice-writer").Owner()
	local.Register(protocol.NewTestChain(t, alice, remote.ID))
	config := initConfig(t, local)

	_, err := execute(t, "--config", config, "pointer", "set",
		alice.Owner().String(), writer.String(), "cafe")
	require.NoError(t, err)
	got, ok := remote.Pointer(alice.Owner(), writer)
	require.True(t, ok)
	require.Equal(t, []byte{0xca, 0xfe}, got)

	out, err := execute(t, "--config", config, "pointer", "get",
		alice.Owner().String(), writer.String())
	require.NoError(t, err)
	require.Equal(t, "cafe", strings.TrimSpace(out))
}

func TestMissingConfig(t *testing.T) {
	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.toml"), "lookup", "alice")
	require.Error(t, err)
	require.Contains(t, out, "keylinkclient init")
}
