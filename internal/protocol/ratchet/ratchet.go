package ratchet

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"styx/internal/crypto"
	"styx/internal/domain"
	"styx/internal/util/memzero"
)

// KeySize is the size of every chain, root, and message key.
const KeySize = 32

// Key derivation domains, shared with the on-chain memo program.
const (
	rootDomain    = "STYX_RATCHET_ROOT_V1"
	chainDomain   = "STYX_RATCHET_CHAIN_V1"
	messageDomain = "STYX_RATCHET_MSG_V1"
)

// Markers appended to chain-step and root-step hashes.
const (
	markerChain   = 0x01
	markerMessage = 0x02
)

var (
	// ErrBadSecretLength is returned when a shared secret is not 32 bytes.
	ErrBadSecretLength = errors.New("ratchet: shared secret must be 32 bytes")

	// ErrStaleCounter is returned when Receive is asked for a counter the
	// chain has already advanced past. The application should treat this as
	// a duplicate or replay and drop the message.
	ErrStaleCounter = errors.New("ratchet: message counter already consumed")

	// errNoMessageKey reports a derivation loop that produced no key. It
	// indicates a programming error, not bad peer input.
	errNoMessageKey = errors.New("ratchet: derivation produced no message key")
)

// Initiator reports which of two parties takes the initiator chain
// assignment, by lexicographic comparison of their identifiers. Both
// parties compute this from the same two values, so exactly one side gets
// true.
func Initiator(ourID, theirID []byte) bool {
	return bytes.Compare(ourID, theirID) < 0
}

// NewState builds a RatchetState from a 32-byte shared secret (normally
// the X3DH output) and the two ephemeral public keys of the initial epoch.
//
// The root key is derived identically by both parties; the initiator flag
// only decides which of the two initial chain keys becomes the sending
// chain. Callers must derive the flag from a public deterministic rule
// such as Initiator.
func NewState(
	sharedSecret []byte,
	ephPriv domain.X25519Private,
	ephPub domain.X25519Public,
	peerEphPub domain.X25519Public,
	initiator bool,
) (domain.RatchetState, error) {
	if len(sharedSecret) != KeySize {
		return domain.RatchetState{}, ErrBadSecretLength
	}

	root := hash([]byte(rootDomain), sharedSecret)
	chainA := hash(root[:], []byte{markerChain})
	chainB := hash(root[:], []byte{markerMessage})

	st := domain.RatchetState{
		RootKey:    root,
		EphPriv:    ephPriv,
		EphPub:     ephPub,
		PeerEphPub: peerEphPub,
		SessionID:  hash(ephPub[:], peerEphPub[:], sharedSecret),
	}
	if initiator {
		st.SendChainKey, st.RecvChainKey = chainA, chainB
	} else {
		st.SendChainKey, st.RecvChainKey = chainB, chainA
	}
	return st, nil
}

// Send advances the sending chain one step and returns the one-time
// message key for the current send counter.
func Send(st *domain.RatchetState) ([KeySize]byte, error) {
	next, mk := chainStep(st.SendChainKey, st.SendCounter)
	memzero.Zero(st.SendChainKey[:])
	st.SendChainKey = next
	st.SendCounter++
	return mk, nil
}

// Receive derives the message key for counter, advancing the receive chain
// through counter inclusive. Counters between the current position and
// counter are skipped: their chain keys are derived and discarded, not
// cached. A counter below the current position fails with ErrStaleCounter.
func Receive(st *domain.RatchetState, counter uint64) ([KeySize]byte, error) {
	var mk [KeySize]byte
	if counter < st.RecvCounter {
		return mk, fmt.Errorf("%w (have %d, got %d)", ErrStaleCounter, st.RecvCounter, counter)
	}

	ck := st.RecvChainKey
	derived := false
	for n := st.RecvCounter; n <= counter; n++ {
		next, key := chainStep(ck, n)
		if n == counter {
			mk = key
			derived = true
		} else {
			memzero.Zero(key[:])
		}
		memzero.Zero(ck[:])
		ck = next
	}
	if !derived {
		return mk, errNoMessageKey
	}

	memzero.Zero(st.RecvChainKey[:])
	st.RecvChainKey = ck
	st.RecvCounter = counter + 1
	return mk, nil
}

// Step performs the asymmetric ratchet: it folds two fresh DH outputs into
// the root key, replacing both chains, and rotates our ephemeral pair.
// Call it when an incoming message carries an ephemeral public key that
// differs from PeerEphPub; detecting that is the caller's job.
func Step(st *domain.RatchetState, peerEphPub domain.X25519Public) error {
	newPriv, newPub, err := crypto.GenerateX25519()
	if err != nil {
		return err
	}

	dh1, err := crypto.DH(st.EphPriv, peerEphPub)
	if err != nil {
		return err
	}
	root, recvCK := rootStep(st.RootKey, dh1)
	memzero.Zero(dh1[:])

	dh2, err := crypto.DH(newPriv, peerEphPub)
	if err != nil {
		return err
	}
	root, sendCK := rootStep(root, dh2)
	memzero.Zero(dh2[:])

	st.PrevChainLen = uint32(st.SendCounter)
	memzero.Zero(st.RootKey[:])
	memzero.Zero(st.SendChainKey[:])
	memzero.Zero(st.RecvChainKey[:])
	memzero.Zero(st.EphPriv[:])
	st.RootKey = root
	st.SendChainKey = sendCK
	st.RecvChainKey = recvCK
	st.EphPriv, st.EphPub = newPriv, newPub
	st.PeerEphPub = peerEphPub
	st.SendCounter, st.RecvCounter = 0, 0
	return nil
}

// chainStep derives the next chain key and the message key for counter.
// The hash is one-way: neither output reveals the input chain key.
func chainStep(ck [KeySize]byte, counter uint64) (next, mk [KeySize]byte) {
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], counter)

	next = hash([]byte(chainDomain), ck[:], ctr[:], []byte{markerChain})
	mk = hash([]byte(messageDomain), ck[:], ctr[:], []byte{markerMessage})
	return next, mk
}

// rootStep mixes a DH output into the root key, yielding the new root and
// a fresh chain key.
func rootStep(root [KeySize]byte, dh [32]byte) (newRoot, ck [KeySize]byte) {
	mixed := hash([]byte(rootDomain), root[:], dh[:])
	newRoot = hash(mixed[:], []byte{markerChain})
	ck = hash(mixed[:], []byte{markerMessage})
	memzero.Zero(mixed[:])
	return newRoot, ck
}

func hash(parts ...[]byte) [KeySize]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [KeySize]byte
	copy(out[:], h.Sum(nil))
	return out
}
