// Package session performs X3DH initiation against a peer's published
// bundle and persists the resulting session record.
package session
