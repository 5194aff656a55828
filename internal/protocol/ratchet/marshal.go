package ratchet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"styx/internal/domain"
)

// StateSize is the fixed serialized length of a RatchetState:
//
//	rootKey(32) sendChainKey(32) recvChainKey(32)
//	ephPub(32) peerEphPub(32)
//	sendCounter(8 LE) recvCounter(8 LE) prevChainLen(4 LE)
//	sessionID(32)
//
// The layout is normative for interoperability; the ephemeral private key
// is deliberately absent. A state restored from this blob can send and
// receive but cannot perform an asymmetric step until re-keyed.
const StateSize = 212

// ErrBadStateLength is returned by Unmarshal for any input that is not
// exactly StateSize bytes.
var ErrBadStateLength = errors.New("ratchet: serialized state must be 212 bytes")

// Marshal encodes st into the fixed 212-byte layout.
func Marshal(st domain.RatchetState) []byte {
	out := make([]byte, 0, StateSize)
	out = append(out, st.RootKey[:]...)
	out = append(out, st.SendChainKey[:]...)
	out = append(out, st.RecvChainKey[:]...)
	out = append(out, st.EphPub[:]...)
	out = append(out, st.PeerEphPub[:]...)
	out = binary.LittleEndian.AppendUint64(out, st.SendCounter)
	out = binary.LittleEndian.AppendUint64(out, st.RecvCounter)
	out = binary.LittleEndian.AppendUint32(out, st.PrevChainLen)
	out = append(out, st.SessionID[:]...)
	return out
}

// Unmarshal decodes a 212-byte blob produced by Marshal. Any other length
// is rejected; the layout never truncates or pads.
func Unmarshal(b []byte) (domain.RatchetState, error) {
	if len(b) != StateSize {
		return domain.RatchetState{}, fmt.Errorf("%w (got %d)", ErrBadStateLength, len(b))
	}

	var st domain.RatchetState
	o := 0
	o += copy(st.RootKey[:], b[o:o+32])
	o += copy(st.SendChainKey[:], b[o:o+32])
	o += copy(st.RecvChainKey[:], b[o:o+32])
	o += copy(st.EphPub[:], b[o:o+32])
	o += copy(st.PeerEphPub[:], b[o:o+32])
	st.SendCounter = binary.LittleEndian.Uint64(b[o:])
	o += 8
	st.RecvCounter = binary.LittleEndian.Uint64(b[o:])
	o += 8
	st.PrevChainLen = binary.LittleEndian.Uint32(b[o:])
	o += 4
	copy(st.SessionID[:], b[o:o+32])
	return st, nil
}
