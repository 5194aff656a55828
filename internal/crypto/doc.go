// Package crypto wraps the low-level primitives used by the styx protocol:
// X25519 key agreement, Ed25519 signatures, payload AEAD, and fingerprints.
package crypto
