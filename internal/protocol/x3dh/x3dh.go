package x3dh

import (
	"crypto/sha256"
	"errors"

	"styx/internal/crypto"
	"styx/internal/domain"
	"styx/internal/util/memzero"
)

// SecretSize is the size of the derived shared secret.
const SecretSize = 32

// ErrBadSignature is returned when the responder's signed prekey does not
// verify against their signing key.
var ErrBadSignature = errors.New("x3dh: signed prekey signature invalid")

// Initiate runs the initiator side of X3DH against the peer's published
// bundle. It verifies the signed-prekey signature, generates a fresh
// ephemeral key pair, and returns the shared secret, the ephemeral pair
// (the public half travels with the first message, the private half seeds
// the initiator's ratchet epoch), and the IDs of the prekeys used.
func Initiate(id domain.Identity, bundle domain.PrekeyBundle) (
	secret [SecretSize]byte,
	ekPriv domain.X25519Private,
	ekPub domain.X25519Public,
	spkID, opkID string,
	err error,
) {
	if !crypto.VerifyEd25519(bundle.SignKey, bundle.SignedPrekey.Slice(), bundle.SignedPrekeySig) {
		err = ErrBadSignature
		return
	}

	ekPriv, ekPub, err = crypto.GenerateX25519()
	if err != nil {
		return
	}

	dh1, err := crypto.DH(id.XPriv, bundle.SignedPrekey) // DH(IK_A, SPK_B)
	if err != nil {
		return
	}
	dh2, err := crypto.DH(ekPriv, bundle.IdentityKey) // DH(EK_A, IK_B)
	if err != nil {
		return
	}
	dh3, err := crypto.DH(ekPriv, bundle.SignedPrekey) // DH(EK_A, SPK_B)
	if err != nil {
		return
	}

	var dh4 [32]byte // zero-filled when no one-time prekey is available
	if len(bundle.OneTime) > 0 {
		opk := bundle.OneTime[0]
		dh4, err = crypto.DH(ekPriv, opk.Pub) // DH(EK_A, OPK_B)
		if err != nil {
			return
		}
		opkID = opk.ID
	}

	secret = combine(dh1, dh2, dh3, dh4)
	spkID = bundle.SPKID
	return
}

// Respond runs the responder side of X3DH and must yield the same shared
// secret as Initiate. spkPriv is the private half of the signed prekey the
// initiator targeted; opkPriv is the consumed one-time prekey private, or
// nil when the initiator used none.
func Respond(
	id domain.Identity,
	spkPriv domain.X25519Private,
	opkPriv *domain.X25519Private,
	initiatorIK domain.X25519Public,
	initiatorEK domain.X25519Public,
) ([SecretSize]byte, error) {
	var secret [SecretSize]byte

	dh1, err := crypto.DH(spkPriv, initiatorIK) // DH(SPK_B, IK_A)
	if err != nil {
		return secret, err
	}
	dh2, err := crypto.DH(id.XPriv, initiatorEK) // DH(IK_B, EK_A)
	if err != nil {
		return secret, err
	}
	dh3, err := crypto.DH(spkPriv, initiatorEK) // DH(SPK_B, EK_A)
	if err != nil {
		return secret, err
	}

	var dh4 [32]byte
	if opkPriv != nil {
		dh4, err = crypto.DH(*opkPriv, initiatorEK) // DH(OPK_B, EK_A)
		if err != nil {
			return secret, err
		}
	}

	return combine(dh1, dh2, dh3, dh4), nil
}

// combine hashes the four DH outputs in fixed order and wipes them.
func combine(dh1, dh2, dh3, dh4 [32]byte) [SecretSize]byte {
	h := sha256.New()
	h.Write(dh1[:])
	h.Write(dh2[:])
	h.Write(dh3[:])
	h.Write(dh4[:])

	var secret [SecretSize]byte
	copy(secret[:], h.Sum(nil))

	memzero.Zero(dh1[:])
	memzero.Zero(dh2[:])
	memzero.Zero(dh3[:])
	memzero.Zero(dh4[:])
	return secret
}
