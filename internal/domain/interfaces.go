package domain

import "context"

// IdentityStore persists the long-term identity keys.
type IdentityStore interface {
	SaveIdentity(passphrase string, id Identity) error
	LoadIdentity(passphrase string) (Identity, error)
}

// PrekeyStore manages signed and one-time prekeys on disk.
type PrekeyStore interface {
	// Signed prekey
	SaveSignedPrekey(id string, priv X25519Private, pub X25519Public, sig []byte) error
	LoadSignedPrekey(id string) (priv X25519Private, pub X25519Public, sig []byte, ok bool, err error)

	// One-time prekeys. Load returns a pair without removing it; Consume
	// removes the pair so it can never serve a second handshake. Callers
	// consume only once the handshake that used the pair authenticates.
	SaveOneTimePrekeys(pairs []OneTimePair) error
	LoadOneTimePrekey(id string) (priv X25519Private, pub X25519Public, ok bool, err error)
	ConsumeOneTimePrekey(id string) (priv X25519Private, pub X25519Public, ok bool, err error)
	ListOneTimePublics() ([]OneTimePub, error)

	// Current signed prekey selection
	SetCurrentSPKID(id string) error
	CurrentSPKID() (string, bool, error)
}

// PrekeyBundleStore caches the last bundle we registered.
type PrekeyBundleStore interface {
	SaveBundle(b PrekeyBundle) error
	LoadBundle(username string) (PrekeyBundle, bool, error)
}

// SessionStore persists established X3DH sessions.
type SessionStore interface {
	SaveSession(peer string, sess Session) error
	LoadSession(peer string) (Session, bool, error)
}

// RatchetStore keeps per-peer Double-Ratchet state.
type RatchetStore interface {
	SaveConversation(peer string, conv Conversation) error
	LoadConversation(peer string) (Conversation, bool, error)
}

// IdentityService creates and inspects the local identity.
type IdentityService interface {
	Generate(passphrase string) (Identity, string, error)
	Load(passphrase string) (Identity, error)
	Fingerprint(passphrase string) (string, error)
}

// PrekeyService generates and assembles prekey bundles.
type PrekeyService interface {
	GenerateAndStore(passphrase string, n int) (X25519Public, []X25519Public, error)
	LoadBundle(passphrase, username string) (PrekeyBundle, error)
}

// SessionService establishes or retrieves an X3DH session.
type SessionService interface {
	Initiate(ctx context.Context, passphrase, peer string) (Session, error)
	Get(peer string) (Session, bool, error)
}

// MessageService encrypts, sends, fetches and decrypts messages.
type MessageService interface {
	Send(ctx context.Context, passphrase, from, to string, plaintext []byte) error
	Receive(ctx context.Context, passphrase, me string, limit int) ([]DecryptedMessage, error)
}

// RelayClient is how we talk to the relay server.
type RelayClient interface {
	Register(ctx context.Context, b PrekeyBundle) error
	FetchPrekeyBundle(ctx context.Context, username string) (PrekeyBundle, error)

	SendMessage(ctx context.Context, env Envelope) error
	FetchMessages(ctx context.Context, username string, limit int) ([]Envelope, error)
	AckMessages(ctx context.Context, username string, count int) error
}
