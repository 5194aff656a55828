package ratchet_test

import (
	"bytes"
	"errors"
	"testing"

	"styx/internal/protocol/ratchet"
)

func TestMarshal_RoundTrip(t *testing.T) {
	a, _ := makeStates(t)
	a.SendCounter = 7
	a.RecvCounter = 3
	a.PrevChainLen = 12

	blob := ratchet.Marshal(a)
	if len(blob) != ratchet.StateSize {
		t.Fatalf("len = %d, want %d", len(blob), ratchet.StateSize)
	}

	got, err := ratchet.Unmarshal(blob)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.RootKey != a.RootKey ||
		got.SendChainKey != a.SendChainKey ||
		got.RecvChainKey != a.RecvChainKey ||
		got.EphPub != a.EphPub ||
		got.PeerEphPub != a.PeerEphPub ||
		got.SessionID != a.SessionID {
		t.Fatal("key material did not survive the round trip")
	}
	if got.SendCounter != 7 || got.RecvCounter != 3 || got.PrevChainLen != 12 {
		t.Fatalf("counters: %d/%d/%d", got.SendCounter, got.RecvCounter, got.PrevChainLen)
	}

	// The ephemeral private key is never part of the blob.
	var zero [32]byte
	if got.EphPriv != zero {
		t.Fatal("ephemeral private key leaked into the serialization")
	}

	// Re-encoding is bit-identical.
	if !bytes.Equal(ratchet.Marshal(got), blob) {
		t.Fatal("re-encode differs")
	}
}

func TestUnmarshal_RejectsWrongLength(t *testing.T) {
	for _, n := range []int{0, 211, 213, 424} {
		_, err := ratchet.Unmarshal(make([]byte, n))
		if !errors.Is(err, ratchet.ErrBadStateLength) {
			t.Fatalf("len %d: got %v, want ErrBadStateLength", n, err)
		}
	}
}
