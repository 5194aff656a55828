// Package envelope implements the Styx v1 wire formats.
//
// Two layers live here. The outer envelope frames an opaque body with magic
// bytes, a kind/algo tag, optional routing fields behind flag bits, and
// uleb128 length prefixes; its base64url form prefixed with "styx1:" is
// what gets carried in a transaction memo. The inner ratchet-message frame
// is the body format for forward-secret messages: session ID, message
// counter, and the sender's current ratchet ephemeral key alongside the
// ciphertext.
package envelope
