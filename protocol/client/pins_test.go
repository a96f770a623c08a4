package client

import (
	"errors"
	"testing"
	"time"

	"github.com/keylink-sys/keylink-go/protocol"
	"github.com/keylink-sys/keylink-go/storage/kv"
	"github.com/keylink-sys/keylink-go/storage/kv/leveldbkv"
)

var (
	alice   = protocol.NewTestIdentity("alice")
	rotated = protocol.NewTestIdentity("alice-rotated")
)

func twoLinkChain(t *testing.T) protocol.Chain {
	chain := protocol.NewTestChain(t, alice, protocol.TestNodeID("local1"))
	next, err := protocol.NewKeyChangeLink(chain[0], alice.Key, rotated.Key,
		time.Now().AddDate(1, 0, 0), []protocol.NodeID{protocol.TestNodeID("remote9")})
	if err != nil {
		t.Fatal(err)
	}
	return append(chain, next)
}

func TestHandleChainAppendOnly(t *testing.T) {
	leveldbkv.WithDB(t, func(db kv.DB) {
		pins := New(db, nil)
		full := twoLinkChain(t)

		if err := pins.HandleChain("alice", nil); err != nil {
			t.Fatal("An empty chain must be accepted when nothing is pinned:", err)
		}
		if err := pins.HandleChain("alice", full[:1]); err != nil {
			t.Fatal(err)
		}
		if err := pins.HandleChain("alice", full); err != nil {
			t.Fatal("Expect an extension of the pinned chain to be accepted:", err)
		}

		pinned, err := pins.Pinned("alice")
		if err != nil {
			t.Fatal(err)
		}
		if len(pinned) != 2 {
			t.Fatal("Expect 2 pinned links, got", len(pinned))
		}

		for _, rollback := range []protocol.Chain{nil, full[:1]} {
			if err := pins.HandleChain("alice", rollback); !errors.Is(err, protocol.ErrChainRollback) {
				t.Fatal("Expect", protocol.ErrChainRollback, "got", err)
			}
		}
	})
}

func TestHandleChainRewrite(t *testing.T) {
	pins := New(leveldbkv.OpenMemDB(), nil)
	if err := pins.HandleChain("alice", protocol.NewTestChain(t, alice, protocol.TestNodeID("local1"))); err != nil {
		t.Fatal(err)
	}
	forged := protocol.NewTestChain(t, alice, protocol.TestNodeID("evil"))
	if err := pins.HandleChain("alice", forged); !errors.Is(err, protocol.ErrChainRollback) {
		t.Fatal("Expect a rewritten link to be rejected, got", err)
	}
}

func TestHandleChainUsernameMismatch(t *testing.T) {
	pins := New(leveldbkv.OpenMemDB(), nil)
	chain := protocol.NewTestChain(t, protocol.NewTestIdentity("bob"))
	if err := pins.HandleChain("alice", chain); !errors.Is(err, protocol.ErrUsernameMismatch) {
		t.Fatal("Expect", protocol.ErrUsernameMismatch, "got", err)
	}
}

func TestHandleChainVerifier(t *testing.T) {
	full := twoLinkChain(t)

	pins := New(leveldbkv.OpenMemDB(), protocol.NewKeyRing(alice.Public(), rotated.Public()))
	if err := pins.HandleChain("alice", full); err != nil {
		t.Fatal(err)
	}

	// the verifier does not know the rotated key
	pins = New(leveldbkv.OpenMemDB(), protocol.NewKeyRing(alice.Public()))
	if err := pins.HandleChain("alice", full); !errors.Is(err, protocol.ErrBadSignature) {
		t.Fatal("Expect", protocol.ErrBadSignature, "got", err)
	}
	if pinned, _ := pins.Pinned("alice"); len(pinned) != 0 {
		t.Fatal("A rejected chain must not be pinned")
	}
}

func TestPinsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := leveldbkv.OpenDB(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := New(db, nil).HandleChain("alice", twoLinkChain(t)); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = leveldbkv.OpenDB(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	pinned, err := New(db, nil).Pinned("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(pinned) != 2 {
		t.Fatal("Expect the pinned chain to survive a reopen, got", len(pinned))
	}
}

func TestUsernamesDoNotShareKeys(t *testing.T) {
	pins := New(leveldbkv.OpenMemDB(), nil)
	al := protocol.NewTestIdentity("al")
	if err := pins.HandleChain("alice", protocol.NewTestChain(t, alice)); err != nil {
		t.Fatal(err)
	}
	if err := pins.HandleChain("al", protocol.NewTestChain(t, al)); err != nil {
		t.Fatal(err)
	}
	pinned, err := pins.Pinned("al")
	if err != nil {
		t.Fatal(err)
	}
	if len(pinned) != 1 || pinned[0].Claim.Username != "al" {
		t.Fatal("Expect only the chain of al")
	}
	if _, err := pins.Pinned(""); !errors.Is(err, kv.ErrBadKey) {
		t.Fatal("Expect", kv.ErrBadKey, "got", err)
	}
}
