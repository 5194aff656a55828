package ratchet_test

import (
	"bytes"
	"errors"
	"testing"

	"styx/internal/crypto"
	"styx/internal/domain"
	"styx/internal/protocol/ratchet"
)

// makePair returns a fresh X25519 key pair.
func makePair(t *testing.T) (domain.X25519Private, domain.X25519Public) {
	t.Helper()
	priv, pub, err := crypto.GenerateX25519()
	if err != nil {
		t.Fatalf("GenerateX25519: %v", err)
	}
	return priv, pub
}

// makeStates builds the two halves of a conversation from one shared
// secret, the way a completed handshake would.
func makeStates(t *testing.T) (a, b domain.RatchetState) {
	t.Helper()
	secret := bytes.Repeat([]byte{0x42}, 32)

	aPriv, aPub := makePair(t)
	bPriv, bPub := makePair(t)

	aInit := ratchet.Initiator(aPub[:], bPub[:])

	a, err := ratchet.NewState(secret, aPriv, aPub, bPub, aInit)
	if err != nil {
		t.Fatalf("NewState (a): %v", err)
	}
	b, err = ratchet.NewState(secret, bPriv, bPub, aPub, !aInit)
	if err != nil {
		t.Fatalf("NewState (b): %v", err)
	}
	return a, b
}

func TestInitiator_ExactlyOneSide(t *testing.T) {
	_, aPub := makePair(t)
	_, bPub := makePair(t)

	if ratchet.Initiator(aPub[:], bPub[:]) == ratchet.Initiator(bPub[:], aPub[:]) {
		t.Fatal("both sides computed the same role")
	}
	if ratchet.Initiator(aPub[:], aPub[:]) {
		t.Fatal("equal identifiers must not claim initiator")
	}
}

func TestNewState_SharedRootMirroredChains(t *testing.T) {
	a, b := makeStates(t)

	if a.RootKey != b.RootKey {
		t.Fatal("root keys differ")
	}
	if a.SendChainKey != b.RecvChainKey {
		t.Fatal("a.send != b.recv")
	}
	if a.RecvChainKey != b.SendChainKey {
		t.Fatal("a.recv != b.send")
	}
	if a.SendChainKey == a.RecvChainKey {
		t.Fatal("send and receive chains must start distinct")
	}
}

func TestNewState_RejectsShortSecret(t *testing.T) {
	priv, pub := makePair(t)
	_, peer := makePair(t)

	_, err := ratchet.NewState(make([]byte, 31), priv, pub, peer, true)
	if !errors.Is(err, ratchet.ErrBadSecretLength) {
		t.Fatalf("got %v, want ErrBadSecretLength", err)
	}
}

func TestSendReceive_Symmetry(t *testing.T) {
	a, b := makeStates(t)

	for i := uint64(0); i < 5; i++ {
		mk, err := ratchet.Send(&a)
		if err != nil {
			t.Fatalf("Send #%d: %v", i, err)
		}
		rk, err := ratchet.Receive(&b, i)
		if err != nil {
			t.Fatalf("Receive #%d: %v", i, err)
		}
		if mk != rk {
			t.Fatalf("message key mismatch at counter %d", i)
		}
	}
	if a.SendCounter != 5 || b.RecvCounter != 5 {
		t.Fatalf("counters: send=%d recv=%d, want 5/5", a.SendCounter, b.RecvCounter)
	}
}

func TestReceive_OutOfOrderSkipsForward(t *testing.T) {
	a, b := makeStates(t)

	var keys [][32]byte
	for i := 0; i < 4; i++ {
		mk, err := ratchet.Send(&a)
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		keys = append(keys, mk)
	}

	// Deliver counter 3 first: 0..2 are derived and discarded.
	rk, err := ratchet.Receive(&b, 3)
	if err != nil {
		t.Fatalf("Receive(3): %v", err)
	}
	if rk != keys[3] {
		t.Fatal("skipped-ahead key mismatch")
	}

	// The skipped counters are gone for good.
	if _, err := ratchet.Receive(&b, 1); !errors.Is(err, ratchet.ErrStaleCounter) {
		t.Fatalf("got %v, want ErrStaleCounter", err)
	}
}

func TestReceive_RejectsReplay(t *testing.T) {
	a, b := makeStates(t)

	if _, err := ratchet.Send(&a); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if _, err := ratchet.Receive(&b, 0); err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if _, err := ratchet.Receive(&b, 0); !errors.Is(err, ratchet.ErrStaleCounter) {
		t.Fatalf("got %v, want ErrStaleCounter", err)
	}
}

func TestSend_KeysNeverRepeat(t *testing.T) {
	a, _ := makeStates(t)

	seen := make(map[[32]byte]bool)
	for i := 0; i < 16; i++ {
		mk, err := ratchet.Send(&a)
		if err != nil {
			t.Fatalf("Send: %v", err)
		}
		if seen[mk] {
			t.Fatalf("message key repeated at counter %d", i)
		}
		seen[mk] = true
	}
}

func TestStep_NewEpoch(t *testing.T) {
	a, _ := makeStates(t)

	for i := 0; i < 3; i++ {
		if _, err := ratchet.Send(&a); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	before := a
	_, peerNew := makePair(t)
	if err := ratchet.Step(&a, peerNew); err != nil {
		t.Fatalf("Step: %v", err)
	}

	if a.PrevChainLen != 3 {
		t.Fatalf("PrevChainLen = %d, want 3", a.PrevChainLen)
	}
	if a.SendCounter != 0 || a.RecvCounter != 0 {
		t.Fatal("counters must reset after a step")
	}
	if a.RootKey == before.RootKey {
		t.Fatal("root key unchanged")
	}
	if a.SendChainKey == before.SendChainKey || a.RecvChainKey == before.RecvChainKey {
		t.Fatal("chain keys unchanged")
	}
	if a.EphPub == before.EphPub {
		t.Fatal("ephemeral key not rotated")
	}
	if a.PeerEphPub != peerNew {
		t.Fatal("peer ephemeral not adopted")
	}
}
