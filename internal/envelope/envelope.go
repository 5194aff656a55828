package envelope

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Magic identifies a Styx envelope.
var Magic = [4]byte{'S', 'T', 'Y', 'X'}

// V1 is the only supported envelope version.
const V1 = 1

// MemoPrefix precedes the base64url envelope in a memo string.
const MemoPrefix = "styx1:"

// Kind discriminates envelope payloads.
type Kind uint8

const (
	KindMessage   Kind = 1
	KindReveal    Kind = 2
	KindKeybundle Kind = 3
)

// Algo identifies the payload encryption scheme.
type Algo uint8

// AlgoPMF1 is the private-memo-format v1 scheme (ChaCha20-Poly1305).
const AlgoPMF1 Algo = 1

// Flag bits marking which optional fields are present.
const (
	flagToHash uint16 = 1 << 0
	flagFrom   uint16 = 1 << 1
	flagNonce  uint16 = 1 << 2
	flagAAD    uint16 = 1 << 3
	flagSig    uint16 = 1 << 4
)

var (
	ErrTooShort      = errors.New("envelope: too short")
	ErrBadMagic      = errors.New("envelope: bad magic")
	ErrBadVersion    = errors.New("envelope: unsupported version")
	ErrBadKind       = errors.New("envelope: unknown kind")
	ErrBadAlgo       = errors.New("envelope: unknown algo")
	ErrTrailingBytes = errors.New("envelope: trailing bytes")
	ErrBadVarint     = errors.New("envelope: bad varint")
	ErrBadMemoPrefix = errors.New("envelope: memo missing styx1 prefix")
)

// Env is a decoded Styx envelope. Optional fields are nil when absent.
type Env struct {
	Kind   Kind
	Algo   Algo
	ID     [32]byte
	ToHash *[32]byte
	From   *[32]byte
	Nonce  []byte
	Body   []byte
	AAD    []byte
	Sig    []byte
}

// Encode serializes env into the canonical v1 binary form.
func Encode(env Env) ([]byte, error) {
	if !validKind(env.Kind) {
		return nil, ErrBadKind
	}
	if env.Algo != AlgoPMF1 {
		return nil, ErrBadAlgo
	}

	var flags uint16
	if env.ToHash != nil {
		flags |= flagToHash
	}
	if env.From != nil {
		flags |= flagFrom
	}
	if env.Nonce != nil {
		flags |= flagNonce
	}
	if env.AAD != nil {
		flags |= flagAAD
	}
	if env.Sig != nil {
		flags |= flagSig
	}

	out := make([]byte, 0, 64+len(env.Body))
	out = append(out, Magic[:]...)
	out = append(out, V1, byte(env.Kind))
	out = binary.LittleEndian.AppendUint16(out, flags)
	out = append(out, byte(env.Algo))
	out = append(out, env.ID[:]...)

	if env.ToHash != nil {
		out = append(out, env.ToHash[:]...)
	}
	if env.From != nil {
		out = append(out, env.From[:]...)
	}
	if env.Nonce != nil {
		out = appendVarBytes(out, env.Nonce)
	}
	out = appendVarBytes(out, env.Body)
	if env.AAD != nil {
		out = appendVarBytes(out, env.AAD)
	}
	if env.Sig != nil {
		out = appendVarBytes(out, env.Sig)
	}
	return out, nil
}

// Decode parses the canonical binary form. Trailing bytes are an error.
func Decode(buf []byte) (Env, error) {
	var env Env

	const minLen = 4 + 1 + 1 + 2 + 1 + 32
	if len(buf) < minLen {
		return env, ErrTooShort
	}
	if [4]byte(buf[0:4]) != Magic {
		return env, ErrBadMagic
	}
	if buf[4] != V1 {
		return env, fmt.Errorf("%w %d", ErrBadVersion, buf[4])
	}
	env.Kind = Kind(buf[5])
	if !validKind(env.Kind) {
		return env, ErrBadKind
	}
	flags := binary.LittleEndian.Uint16(buf[6:8])
	env.Algo = Algo(buf[8])
	if env.Algo != AlgoPMF1 {
		return env, ErrBadAlgo
	}

	o := 9
	copy(env.ID[:], buf[o:o+32])
	o += 32

	if flags&flagToHash != 0 {
		if len(buf) < o+32 {
			return env, ErrTooShort
		}
		var th [32]byte
		copy(th[:], buf[o:o+32])
		env.ToHash = &th
		o += 32
	}
	if flags&flagFrom != 0 {
		if len(buf) < o+32 {
			return env, ErrTooShort
		}
		var fr [32]byte
		copy(fr[:], buf[o:o+32])
		env.From = &fr
		o += 32
	}

	var err error
	if flags&flagNonce != 0 {
		if env.Nonce, o, err = readVarBytes(buf, o); err != nil {
			return env, err
		}
	}
	if env.Body, o, err = readVarBytes(buf, o); err != nil {
		return env, err
	}
	if flags&flagAAD != 0 {
		if env.AAD, o, err = readVarBytes(buf, o); err != nil {
			return env, err
		}
	}
	if flags&flagSig != 0 {
		if env.Sig, o, err = readVarBytes(buf, o); err != nil {
			return env, err
		}
	}

	if o != len(buf) {
		return env, ErrTrailingBytes
	}
	return env, nil
}

// EncodeMemo returns the memo string form: "styx1:" + base64url(envelope).
func EncodeMemo(env Env) (string, error) {
	raw, err := Encode(env)
	if err != nil {
		return "", err
	}
	return MemoPrefix + base64.RawURLEncoding.EncodeToString(raw), nil
}

// DecodeMemo parses a memo string produced by EncodeMemo.
func DecodeMemo(memo string) (Env, error) {
	rest, ok := strings.CutPrefix(memo, MemoPrefix)
	if !ok {
		return Env{}, ErrBadMemoPrefix
	}
	raw, err := base64.RawURLEncoding.DecodeString(rest)
	if err != nil {
		return Env{}, fmt.Errorf("envelope: memo base64: %w", err)
	}
	return Decode(raw)
}

func validKind(k Kind) bool {
	switch k {
	case KindMessage, KindReveal, KindKeybundle:
		return true
	}
	return false
}

// appendVarBytes writes a uleb128 length prefix followed by v.
func appendVarBytes(out, v []byte) []byte {
	n := len(v)
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return append(out, v...)
}

// readVarBytes reads a uleb128-prefixed byte field starting at o.
func readVarBytes(buf []byte, o int) ([]byte, int, error) {
	n := 0
	shift := 0
	for {
		if o >= len(buf) {
			return nil, 0, ErrBadVarint
		}
		b := buf[o]
		o++
		n |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift > 28 {
			return nil, 0, ErrBadVarint
		}
	}
	if o+n > len(buf) {
		return nil, 0, ErrTooShort
	}
	out := make([]byte, n)
	copy(out, buf[o:o+n])
	return out, o + n, nil
}
