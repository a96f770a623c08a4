package mutable

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/keylink-sys/keylink-go/application"
	"github.com/keylink-sys/keylink-go/application/corenode"
	"github.com/keylink-sys/keylink-go/application/testutil"
	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/stretchr/testify/require"
)

func TestHTTPMutablePointers(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	poster := application.NewHTTPPoster(fn.URL(), 5*time.Second)
	store := NewHTTPMutablePointers(poster, nil, nil)
	owner := protocol.NewTestIdentity("alice").Owner()
	writer := protocol.NewTestIdentity("alice-writer").Owner()

	_, ok, err := store.GetPointer(context.Background(), corenode.Direct(), owner, writer)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.SetPointer(context.Background(), corenode.Direct(), owner, writer, []byte{0xca, 0xfe})
	require.NoError(t, err)
	require.True(t, ok)

	signed, ok, err := store.GetPointer(context.Background(), corenode.Direct(), owner, writer)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{0xca, 0xfe}, signed)

	fn.RejectPointers = true
	ok, err = store.SetPointer(context.Background(), corenode.Direct(), owner, writer, []byte{0x00})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSetPointerTooLarge(t *testing.T) {
	fn := testutil.NewFakeNode(t, "local1")
	poster := application.NewHTTPPoster(fn.URL(), 5*time.Second)
	store := NewHTTPMutablePointers(poster, nil, nil)
	owner := protocol.NewTestIdentity("alice").Owner()

	big := bytes.Repeat([]byte{0x01}, protocol.MaxPointerSize+1)
	ok, err := store.SetPointer(context.Background(), corenode.Direct(), owner, owner, big)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, fn.Requests())
}
