package store

import (
	"crypto/rand"
	"encoding/json"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"styx/internal/util/memzero"
)

// scrypt envelope parameters; fixed so old blobs stay readable.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

type secretEnvelope struct {
	Salt []byte `json:"salt"`
	CT   []byte `json:"ct"`
}

// encrypt seals plaintext under a passphrase-derived key. The salt doubles
// as associated data.
func encrypt(passphrase string, plaintext []byte) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	ct := aead.Seal(nil, nonce, plaintext, salt)
	return json.Marshal(secretEnvelope{Salt: salt, CT: ct})
}

// decrypt opens a blob produced by encrypt.
func decrypt(passphrase string, blob []byte) ([]byte, error) {
	var env secretEnvelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, err
	}
	N, r, p := scryptParamsDefault()
	key, err := scrypt.Key([]byte(passphrase), env.Salt, N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	return aead.Open(nil, nonce, env.CT, env.Salt)
}
