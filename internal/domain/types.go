package domain

// OneTimePub is a published one-time prekey (public only) with an ID.
type OneTimePub struct {
	ID  string       `json:"id"`
	Pub X25519Public `json:"pub"`
}

// OneTimePair is the full one-time prekey pair kept locally until consumed.
type OneTimePair struct {
	ID   string        `json:"id"`
	Priv X25519Private `json:"priv"`
	Pub  X25519Public  `json:"pub"`
}

// PrekeyBundle is served by the relay. IDs let initiators reference the
// signed prekey and one-time prekey they used.
type PrekeyBundle struct {
	Username        string        `json:"username"`
	IdentityKey     X25519Public  `json:"identity_key"`
	SignKey         Ed25519Public `json:"sign_key"`
	SPKID           string        `json:"spk_id"`
	SignedPrekey    X25519Public  `json:"signed_prekey"`
	SignedPrekeySig []byte        `json:"signed_prekey_sig"`
	OneTime         []OneTimePub  `json:"one_time,omitempty"`
}

// PrekeyMessage is attached to the first message from the initiator so the
// responder can run its half of X3DH.
type PrekeyMessage struct {
	InitiatorIK X25519Public `json:"initiator_ik"` // IK_A
	Ephemeral   X25519Public `json:"ephemeral"`    // EK_A
	SPKID       string       `json:"spk_id"`
	OPKID       string       `json:"opk_id,omitempty"` // optional
}

// Envelope is the wire message exchanged via the relay. Memo carries a
// styx1 envelope string wrapping the ratchet-message frame.
type Envelope struct {
	From      string         `json:"from"`
	To        string         `json:"to"`
	Memo      string         `json:"memo"`
	Prekey    *PrekeyMessage `json:"prekey,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Session is produced by X3DH; SharedSecret seeds the Double Ratchet.
type Session struct {
	Peer         string       `json:"peer"`
	SharedSecret []byte       `json:"shared_secret"`
	PeerSPK      X25519Public `json:"peer_spk"`
	PeerIK       X25519Public `json:"peer_ik"`
	CreatedUTC   int64        `json:"created_utc"`

	// X3DH parameters used by the initiator; echoed in the first PrekeyMessage.
	// EKPriv stays local so the ephemeral can seed the initiator's ratchet epoch.
	SPKID  string        `json:"spk_id"`
	OPKID  string        `json:"opk_id,omitempty"`
	EKPub  X25519Public  `json:"ek_pub"`
	EKPriv X25519Private `json:"ek_priv"`
}

// DecryptedMessage is returned by MessageService.Receive.
type DecryptedMessage struct {
	From      string
	To        string
	Plaintext []byte
	Timestamp int64
}
