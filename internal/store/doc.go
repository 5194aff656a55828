// Package store persists identities, prekeys, sessions, and ratchet state
// as files under the styx home directory. The identity is encrypted with a
// passphrase-derived key; everything else relies on file permissions.
package store
