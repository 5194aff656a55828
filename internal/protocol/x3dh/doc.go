// Package x3dh implements the asynchronous Extended Triple Diffie-Hellman
// key agreement between an initiator and a responder who may not be online
// at the same time.
//
// Both sides compute four X25519 agreements and hash their concatenation
// with SHA-256:
//
//	DH1 = DH(IK_A, SPK_B)
//	DH2 = DH(EK_A, IK_B)
//	DH3 = DH(EK_A, SPK_B)
//	DH4 = DH(EK_A, OPK_B)   (32 zero bytes when no one-time prekey is used)
//
// The concatenation order is fixed; initiator and responder must produce
// byte-identical shared secrets.
//
// One-time prekeys are single-use by contract. The handshake functions are
// pure and cannot detect reuse; callers must consume each one-time prekey
// from their store before responding, and reject IDs that are gone.
package x3dh
