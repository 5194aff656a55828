package envelope

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// TagRatchetMessage is the instruction tag for a forward-secret message.
const TagRatchetMessage = 7

// ratchetFrameMin is tag+flags+session(32)+counter(8)+ephemeral(32)+len(2).
const ratchetFrameMin = 1 + 1 + 32 + 8 + 32 + 2

var (
	ErrBadTag          = errors.New("envelope: unexpected frame tag")
	ErrCiphertextLen   = errors.New("envelope: ciphertext length mismatch")
	ErrCiphertextLarge = errors.New("envelope: ciphertext exceeds u16 length")
)

// RatchetMessage is the frame carried in a forward-secret message body:
//
//	[tag:1][flags:1][session_id:32][counter:8 LE][ephemeral_pub:32][len:2 LE][ciphertext]
type RatchetMessage struct {
	Flags        uint8
	SessionID    [32]byte
	Counter      uint64
	EphemeralPub [32]byte
	Ciphertext   []byte
}

// EncodeRatchetMessage serializes the frame.
func EncodeRatchetMessage(m RatchetMessage) ([]byte, error) {
	if len(m.Ciphertext) > math.MaxUint16 {
		return nil, ErrCiphertextLarge
	}
	out := make([]byte, 0, ratchetFrameMin+len(m.Ciphertext))
	out = append(out, TagRatchetMessage, m.Flags)
	out = append(out, m.SessionID[:]...)
	out = binary.LittleEndian.AppendUint64(out, m.Counter)
	out = append(out, m.EphemeralPub[:]...)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(m.Ciphertext)))
	out = append(out, m.Ciphertext...)
	return out, nil
}

// DecodeRatchetMessage parses a frame, enforcing exact bounds.
func DecodeRatchetMessage(data []byte) (RatchetMessage, error) {
	var m RatchetMessage
	if len(data) < ratchetFrameMin {
		return m, ErrTooShort
	}
	if data[0] != TagRatchetMessage {
		return m, fmt.Errorf("%w (got %d)", ErrBadTag, data[0])
	}
	m.Flags = data[1]

	o := 2
	copy(m.SessionID[:], data[o:o+32])
	o += 32
	m.Counter = binary.LittleEndian.Uint64(data[o:])
	o += 8
	copy(m.EphemeralPub[:], data[o:o+32])
	o += 32
	n := int(binary.LittleEndian.Uint16(data[o:]))
	o += 2

	if len(data) != o+n {
		return m, ErrCiphertextLen
	}
	m.Ciphertext = make([]byte, n)
	copy(m.Ciphertext, data[o:])
	return m, nil
}
