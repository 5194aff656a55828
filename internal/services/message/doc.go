// Package message sends and receives encrypted messages over the relay
// using the Double Ratchet.
//
// Send: if no conversation exists yet, build the ratchet state from the
// stored X3DH session and attach a PrekeyMessage so the receiver can run
// its half of the handshake. Each payload is sealed with a fresh ratchet
// message key and framed as a styx1 memo.
//
// Receive: fetch envelopes, bootstrap a conversation from the sender's
// PrekeyMessage when needed, perform the asymmetric ratchet step when an
// envelope carries a new ephemeral key, decrypt in order, persist state,
// then ack only what was processed. Replays, malformed memos, and
// envelopes that fail authentication are dropped and acked; one-time
// prekeys are consumed only after the first message authenticates.
//
// Conversations are guarded by one lock per peer: a send and a receive for
// the same peer must not interleave their read-modify-write of the ratchet
// state. Operations on different peers proceed independently.
package message
