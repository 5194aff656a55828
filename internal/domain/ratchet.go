package domain

// RatchetState holds the Double Ratchet state for one peer conversation.
//
// EphPriv is the secret half of our current ratchet epoch key. It is needed
// for the next asymmetric ratchet step but is not part of the portable
// serialized layout; the protocol/ratchet package documents the blob format.
type RatchetState struct {
	RootKey      [32]byte
	SendChainKey [32]byte
	RecvChainKey [32]byte

	EphPriv    X25519Private
	EphPub     X25519Public
	PeerEphPub X25519Public

	SendCounter  uint64
	RecvCounter  uint64
	PrevChainLen uint32

	// SessionID is a non-secret lookup identifier, stable across ratchet
	// steps. Never used as key material.
	SessionID [32]byte
}

// Conversation stores per-peer ratchet state.
type Conversation struct {
	Peer  string
	State RatchetState
}
