package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/chacha20poly1305"
)

// NonceSize is the AEAD nonce length used for payload encryption.
const NonceSize = chacha20poly1305.NonceSize

// MessageNonceDomain separates nonces derived for ratchet message payloads.
const MessageNonceDomain = "STYX_MSG_NONCE_V3"

// DeriveNonce derives a 12-byte AEAD nonce from a domain label and public
// transport material (for example the session ID plus message counter).
// Nonce uniqueness follows from the material being unique per message key.
func DeriveNonce(domain string, material []byte) [NonceSize]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(material)
	sum := h.Sum(nil)

	var nonce [NonceSize]byte
	copy(nonce[:], sum[:NonceSize])
	return nonce
}

// SealPayload encrypts plaintext with ChaCha20-Poly1305 under a one-time
// message key.
func SealPayload(key [32]byte, nonce [NonceSize]byte, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// OpenPayload decrypts a ciphertext produced by SealPayload.
func OpenPayload(key [32]byte, nonce [NonceSize]byte, ciphertext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, nonce[:], ciphertext, nil)
}
