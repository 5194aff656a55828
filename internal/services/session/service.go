package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"styx/internal/domain"
	"styx/internal/protocol/x3dh"
)

// Service performs X3DH initiation and persists sessions.
//
// A session is the shared secret plus the metadata needed to start a
// Double Ratchet conversation with a peer:
//   - our identity keys (from the identity store)
//   - the peer's prekey bundle (from the relay)
//   - the X3DH output and which prekeys were consumed
type Service struct {
	idStore      domain.IdentityStore
	sessionStore domain.SessionStore
	relay        domain.RelayClient
}

// New constructs a session service with the given stores and relay client.
func New(idStore domain.IdentityStore, sessionStore domain.SessionStore, relay domain.RelayClient) *Service {
	return &Service{idStore: idStore, sessionStore: sessionStore, relay: relay}
}

// Initiate runs X3DH against the peer's prekey bundle and stores the
// resulting session. The ephemeral private key stays in the record so the
// initiator's first ratchet epoch can use it.
func (s *Service) Initiate(ctx context.Context, passphrase, peer string) (domain.Session, error) {
	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Session{}, err
	}

	bundle, err := s.relay.FetchPrekeyBundle(ctx, peer)
	if err != nil {
		return domain.Session{}, err
	}

	secret, ekPriv, ekPub, spkID, opkID, err := x3dh.Initiate(id, bundle)
	if err != nil {
		return domain.Session{}, err
	}

	sess := domain.Session{
		Peer:         peer,
		SharedSecret: secret[:],
		PeerSPK:      bundle.SignedPrekey,
		PeerIK:       bundle.IdentityKey,
		CreatedUTC:   time.Now().Unix(),
		SPKID:        spkID,
		OPKID:        opkID,
		EKPub:        ekPub,
		EKPriv:       ekPriv,
	}
	if err := s.sessionStore.SaveSession(peer, sess); err != nil {
		return domain.Session{}, err
	}

	logrus.WithFields(logrus.Fields{
		"peer":   peer,
		"spk_id": spkID,
		"opk_id": opkID,
	}).Info("session established")
	return sess, nil
}

// Get retrieves a stored session for the given peer.
func (s *Service) Get(peer string) (domain.Session, bool, error) {
	return s.sessionStore.LoadSession(peer)
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
