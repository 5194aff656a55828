// Package ratchet implements the styx Double Ratchet: a per-message
// symmetric hash chain in each direction plus an asymmetric X25519 step
// that rotates the ratchet epoch for post-compromise recovery.
//
// Every operation is a pure state transition on a single
// domain.RatchetState. The package performs no I/O and no locking; callers
// that share a state between goroutines must serialize access themselves
// (see services/message).
//
// Receive derives forward from the current receive chain, so a counter
// below the current position fails with ErrStaleCounter: the chain key it
// would need has already been discarded. Skipped message keys are not
// cached across calls.
package ratchet
