package envelope

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFrame() RatchetMessage {
	var sid, eph [32]byte
	for i := range sid {
		sid[i] = byte(i)
		eph[i] = byte(0xff - i)
	}
	return RatchetMessage{
		SessionID:    sid,
		Counter:      42,
		EphemeralPub: eph,
		Ciphertext:   []byte("sealed"),
	}
}

func TestRatchetMessage_RoundTrip(t *testing.T) {
	m := sampleFrame()

	raw, err := EncodeRatchetMessage(m)
	require.NoError(t, err)
	assert.Equal(t, byte(TagRatchetMessage), raw[0])

	got, err := DecodeRatchetMessage(raw)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

func TestRatchetMessage_EmptyCiphertext(t *testing.T) {
	m := sampleFrame()
	m.Ciphertext = nil

	raw, err := EncodeRatchetMessage(m)
	require.NoError(t, err)
	require.Len(t, raw, ratchetFrameMin)

	got, err := DecodeRatchetMessage(raw)
	require.NoError(t, err)
	assert.Empty(t, got.Ciphertext)
}

func TestEncodeRatchetMessage_RejectsOversize(t *testing.T) {
	m := sampleFrame()
	m.Ciphertext = bytes.Repeat([]byte{0x00}, 1<<16)

	_, err := EncodeRatchetMessage(m)
	assert.ErrorIs(t, err, ErrCiphertextLarge)
}

func TestDecodeRatchetMessage_Malformed(t *testing.T) {
	good, err := EncodeRatchetMessage(sampleFrame())
	require.NoError(t, err)

	t.Run("too short", func(t *testing.T) {
		_, err := DecodeRatchetMessage(good[:ratchetFrameMin-1])
		assert.ErrorIs(t, err, ErrTooShort)
	})

	t.Run("wrong tag", func(t *testing.T) {
		buf := append([]byte(nil), good...)
		buf[0] = 3
		_, err := DecodeRatchetMessage(buf)
		assert.ErrorIs(t, err, ErrBadTag)
	})

	t.Run("truncated ciphertext", func(t *testing.T) {
		_, err := DecodeRatchetMessage(good[:len(good)-1])
		assert.ErrorIs(t, err, ErrCiphertextLen)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		buf := append(append([]byte(nil), good...), 0x00)
		_, err := DecodeRatchetMessage(buf)
		assert.ErrorIs(t, err, ErrCiphertextLen)
	})
}
