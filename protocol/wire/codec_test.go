package wire

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/keylink-sys/keylink-go/protocol"
)

func TestPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter()
	if err := w.WriteString("alice"); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBytes([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteInt(42); err != nil {
		t.Fatal(err)
	}
	w.WriteBool(true)
	w.WriteBool(false)

	r := NewReader(w.Bytes())
	if s, err := r.ReadString(protocol.MaxUsernameSize); err != nil || s != "alice" {
		t.Fatal("Unexpected string", s, err)
	}
	if b, err := r.ReadBytes(3); err != nil || !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Fatal("Unexpected bytes", b, err)
	}
	if n, err := r.ReadInt(); err != nil || n != 42 {
		t.Fatal("Unexpected int", n, err)
	}
	if b, err := r.ReadBool(); err != nil || !b {
		t.Fatal("Expect true", err)
	}
	if b, err := r.ReadBool(); err != nil || b {
		t.Fatal("Expect false", err)
	}
	if err := r.Done(); err != nil {
		t.Fatal(err)
	}
}

func TestIntIsBigEndian(t *testing.T) {
	w := NewWriter()
	w.WriteInt(0x01020304)
	if !bytes.Equal(w.Bytes(), []byte{1, 2, 3, 4}) {
		t.Fatal("Expect a big-endian encoding, got", w.Bytes())
	}
	if err := NewWriter().WriteInt(-1); err == nil {
		t.Fatal("Expect negative ints to be rejected")
	}
}

func TestDecodeRejectsOversizeField(t *testing.T) {
	w := NewWriter()
	w.WriteString(strings.Repeat("a", protocol.MaxUsernameSize+1))
	_, err := NewReader(w.Bytes()).ReadString(protocol.MaxUsernameSize)
	if !errors.Is(err, protocol.ErrMalformedResponse) {
		t.Fatal("Expect", protocol.ErrMalformedResponse, "got", err)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
	}{
		{"short length", []byte{0, 0}},
		{"truncated body", []byte{0, 0, 0, 5, 'a', 'b'}},
		{"negative length", []byte{0xff, 0xff, 0xff, 0xff}},
		{"huge length", []byte{0x7f, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		if _, err := NewReader(tt.in).ReadBytes(1 << 30); !errors.Is(err, protocol.ErrMalformedResponse) {
			t.Errorf("%s: expect %v, got %v", tt.name, protocol.ErrMalformedResponse, err)
		}
	}
	if _, err := NewReader(nil).ReadBool(); !errors.Is(err, protocol.ErrMalformedResponse) {
		t.Error("Expect an empty payload to fail ReadBool, got", err)
	}
	if err := NewReader([]byte{1}).Done(); !errors.Is(err, protocol.ErrMalformedResponse) {
		t.Error("Expect trailing bytes to fail Done, got", err)
	}
}

func TestDecodeByteArraysHostileCount(t *testing.T) {
	// claims a million elements but carries none
	_, err := DecodeByteArrays(NewReader([]byte{0, 0x0f, 0x42, 0x40}), 16)
	if !errors.Is(err, protocol.ErrMalformedResponse) {
		t.Fatal("Expect", protocol.ErrMalformedResponse, "got", err)
	}
}

func TestChainRoundTrip(t *testing.T) {
	ids := []string{"alice", "bob", "carol", "dave"}
	for n := 0; n <= len(ids); n++ {
		var chain protocol.Chain
		for i := 0; i < n; i++ {
			id := protocol.NewTestIdentity(ids[i])
			chain = append(chain, protocol.NewTestChain(t, id, protocol.TestNodeID(ids[i]))...)
		}
		w := NewWriter()
		if err := EncodeChain(w, chain); err != nil {
			t.Fatal(err)
		}
		r := NewReader(w.Bytes())
		got, err := DecodeChain(r)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Done(); err != nil {
			t.Fatal(err)
		}
		if len(got) != n {
			t.Fatalf("Expect %d links, got %d", n, len(got))
		}
		for i := range got {
			if got[i].Claim.Username != ids[i] || !got[i].Owner.Equal(chain[i].Owner) {
				t.Fatalf("Link %d changed or reordered", i)
			}
		}
	}
}

func TestDecodeChainBadLink(t *testing.T) {
	w := NewWriter()
	EncodeByteArrays(w, [][]byte{{0xff, 0x00}})
	if _, err := DecodeChain(NewReader(w.Bytes())); !errors.Is(err, protocol.ErrMalformedResponse) {
		t.Fatal("Expect", protocol.ErrMalformedResponse, "got", err)
	}
}
