package message

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"styx/internal/crypto"
	"styx/internal/domain"
	"styx/internal/envelope"
	"styx/internal/protocol/ratchet"
	"styx/internal/protocol/x3dh"
	"styx/internal/util/memzero"
)

var (
	// ErrNoSession indicates there is no stored session with the peer.
	ErrNoSession = errors.New("no session with peer; run start-session first")

	// ErrMissingPrekey indicates a first message arrived without the
	// handshake parameters needed to bootstrap a conversation.
	ErrMissingPrekey = errors.New("first message from peer carries no prekey message")

	// ErrPrekeyConsumed indicates the one-time prekey an initiator targeted
	// is gone, usually because another handshake already consumed it.
	ErrPrekeyConsumed = errors.New("one-time prekey already consumed")

	// errRejected marks envelope failures any sender can provoke: malformed
	// memos, handshakes that do not check out, ciphertexts that fail to
	// open. Receive drops and acks those instead of surfacing them, so a
	// forged envelope cannot block the queue behind it. Store and relay
	// failures are never wrapped and still abort the fetch.
	errRejected = errors.New("envelope rejected")
)

func reject(err error) error { return fmt.Errorf("%w: %w", errRejected, err) }

// Service sends and receives messages over the relay using Double Ratchet.
type Service struct {
	idStore      domain.IdentityStore
	prekeyStore  domain.PrekeyStore
	ratchetStore domain.RatchetStore
	sessions     domain.SessionService
	relay        domain.RelayClient

	locks *lockRegistry
}

// New constructs a message service with the given stores and relay client.
func New(
	idStore domain.IdentityStore,
	prekeyStore domain.PrekeyStore,
	ratchetStore domain.RatchetStore,
	sessions domain.SessionService,
	relay domain.RelayClient,
) *Service {
	return &Service{
		idStore:      idStore,
		prekeyStore:  prekeyStore,
		ratchetStore: ratchetStore,
		sessions:     sessions,
		relay:        relay,
		locks:        newLockRegistry(),
	}
}

// Send encrypts plaintext for to and posts it via the relay.
//
// The first message of a conversation attaches a PrekeyMessage so the
// receiver can derive the shared secret and initialize its own ratchet.
func (s *Service) Send(ctx context.Context, passphrase, from, to string, plaintext []byte) error {
	lock := s.locks.forPeer(to)
	lock.Lock()
	defer lock.Unlock()

	conv, found, err := s.ratchetStore.LoadConversation(to)
	if err != nil {
		return err
	}

	var prekey *domain.PrekeyMessage
	if !found {
		// No conversation yet: seed the ratchet from the session. Our X3DH
		// ephemeral pair becomes our first ratchet epoch key; the peer's
		// signed prekey is theirs. The chain assignment follows the public
		// tie-break on identity keys, so both sides agree without talking.
		// A responder that bootstrapped from an incoming prekey message
		// already has a conversation and never needs a session record.
		sess, ok, err := s.sessions.Get(to)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNoSession
		}

		id, err := s.idStore.LoadIdentity(passphrase)
		if err != nil {
			return err
		}
		st, err := ratchet.NewState(
			sess.SharedSecret,
			sess.EKPriv,
			sess.EKPub,
			sess.PeerSPK,
			ratchet.Initiator(id.XPub.Slice(), sess.PeerIK.Slice()),
		)
		if err != nil {
			return err
		}
		conv = domain.Conversation{Peer: to, State: st}

		prekey = &domain.PrekeyMessage{
			InitiatorIK: id.XPub,
			Ephemeral:   sess.EKPub,
			SPKID:       sess.SPKID,
			OPKID:       sess.OPKID,
		}
	}

	counter := conv.State.SendCounter
	mk, err := ratchet.Send(&conv.State)
	if err != nil {
		return err
	}

	nonce := crypto.DeriveNonce(crypto.MessageNonceDomain, nonceMaterial(conv.State.SessionID, counter))
	ct, err := crypto.SealPayload(mk, nonce, plaintext)
	memzero.Zero(mk[:])
	if err != nil {
		return err
	}

	memo, err := buildMemo(conv.State, counter, ct)
	if err != nil {
		return err
	}

	// Persist updated ratchet state before sending to avoid reusing a
	// message key if we crash between the two steps.
	if err := s.ratchetStore.SaveConversation(to, conv); err != nil {
		return err
	}

	env := domain.Envelope{
		From:      from,
		To:        to,
		Memo:      memo,
		Prekey:    prekey,
		Timestamp: time.Now().Unix(),
	}
	if err := s.relay.SendMessage(ctx, env); err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{
		"to":      to,
		"counter": counter,
	}).Debug("message sent")
	return nil
}

// Receive fetches pending envelopes for me, decrypts them in order, and
// acks only the prefix it fully processed. Envelopes that replay a stale
// counter, fail to parse, or fail to authenticate are dropped and acked
// rather than surfaced, so a bad envelope never blocks the ones behind it.
func (s *Service) Receive(ctx context.Context, passphrase, me string, limit int) ([]domain.DecryptedMessage, error) {
	envs, err := s.relay.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, err
	}

	out := make([]domain.DecryptedMessage, 0, len(envs))
	processed := 0
	for _, env := range envs {
		msg, ok, err := s.receiveOne(passphrase, env)
		if err != nil {
			// Ack what we handled so far; leave the rest queued.
			if processed > 0 {
				_ = s.relay.AckMessages(ctx, me, processed)
			}
			return out, err
		}
		processed++
		if ok {
			out = append(out, msg)
		}
	}

	if processed > 0 {
		if err := s.relay.AckMessages(ctx, me, processed); err != nil {
			return out, err
		}
	}
	return out, nil
}

// receiveOne handles a single envelope under the sender's conversation
// lock. ok=false with nil error means the envelope was dropped (replay,
// malformed, or forged); the caller still acks it.
func (s *Service) receiveOne(passphrase string, env domain.Envelope) (domain.DecryptedMessage, bool, error) {
	lock := s.locks.forPeer(env.From)
	lock.Lock()
	defer lock.Unlock()

	conv, found, err := s.ratchetStore.LoadConversation(env.From)
	if err != nil {
		return domain.DecryptedMessage{}, false, err
	}

	var opkID string
	if !found {
		conv, opkID, err = s.bootstrap(passphrase, env)
		if err != nil {
			return s.dispose(env, err)
		}
	}

	frame, err := parseMemo(env.Memo)
	if err != nil {
		return s.dispose(env, reject(err))
	}

	// A new remote ephemeral key means the peer rotated its epoch: fold it
	// in before deriving the message key.
	if peerEph := domain.X25519Public(frame.EphemeralPub); peerEph != conv.State.PeerEphPub {
		if err := ratchet.Step(&conv.State, peerEph); err != nil {
			return domain.DecryptedMessage{}, false, err
		}
	}

	mk, err := ratchet.Receive(&conv.State, frame.Counter)
	if errors.Is(err, ratchet.ErrStaleCounter) {
		logrus.WithFields(logrus.Fields{
			"from":    env.From,
			"counter": frame.Counter,
		}).Warn("dropping replayed message")
		return domain.DecryptedMessage{}, false, nil
	}
	if err != nil {
		return domain.DecryptedMessage{}, false, err
	}

	nonce := crypto.DeriveNonce(crypto.MessageNonceDomain, nonceMaterial(frame.SessionID, frame.Counter))
	pt, err := crypto.OpenPayload(mk, nonce, frame.Ciphertext)
	memzero.Zero(mk[:])
	if err != nil {
		return s.dispose(env, reject(err))
	}

	// Spend the one-time prekey only now that the first message
	// authenticated. A forged handshake naming a real prekey ID never gets
	// here, so it cannot burn the pair for the honest initiator.
	if opkID != "" {
		if _, _, _, err := s.prekeyStore.ConsumeOneTimePrekey(opkID); err != nil {
			return domain.DecryptedMessage{}, false, err
		}
	}

	if err := s.ratchetStore.SaveConversation(env.From, conv); err != nil {
		return domain.DecryptedMessage{}, false, err
	}

	return domain.DecryptedMessage{
		From:      env.From,
		To:        env.To,
		Plaintext: pt,
		Timestamp: env.Timestamp,
	}, true, nil
}

// dispose routes a processing failure: rejected envelopes are logged and
// dropped so the queue keeps draining, anything else surfaces to the
// caller.
func (s *Service) dispose(env domain.Envelope, err error) (domain.DecryptedMessage, bool, error) {
	if errors.Is(err, errRejected) {
		logrus.WithFields(logrus.Fields{
			"from": env.From,
		}).WithError(err).Warn("dropping undeliverable envelope")
		return domain.DecryptedMessage{}, false, nil
	}
	return domain.DecryptedMessage{}, false, err
}

// bootstrap builds the responder-side conversation from the initiator's
// PrekeyMessage: run X3DH with our signed prekey (and one-time prekey, if
// the initiator used one), then seed the ratchet with the signed prekey
// pair as our epoch key and the initiator's ephemeral as theirs.
//
// The one-time prekey is read but not consumed; the returned id is spent
// by the caller once the first message authenticates.
func (s *Service) bootstrap(passphrase string, env domain.Envelope) (domain.Conversation, string, error) {
	if env.Prekey == nil {
		return domain.Conversation{}, "", reject(fmt.Errorf("%w (from %q)", ErrMissingPrekey, env.From))
	}
	pm := env.Prekey

	id, err := s.idStore.LoadIdentity(passphrase)
	if err != nil {
		return domain.Conversation{}, "", err
	}

	spkPriv, spkPub, _, ok, err := s.prekeyStore.LoadSignedPrekey(pm.SPKID)
	if err != nil {
		return domain.Conversation{}, "", err
	}
	if !ok {
		return domain.Conversation{}, "", reject(fmt.Errorf("signed prekey %q not found", pm.SPKID))
	}

	var opkPriv *domain.X25519Private
	if pm.OPKID != "" {
		priv, _, ok, err := s.prekeyStore.LoadOneTimePrekey(pm.OPKID)
		if err != nil {
			return domain.Conversation{}, "", err
		}
		if !ok {
			return domain.Conversation{}, "", reject(fmt.Errorf("%w: %q", ErrPrekeyConsumed, pm.OPKID))
		}
		opkPriv = &priv
	}

	secret, err := x3dh.Respond(id, spkPriv, opkPriv, pm.InitiatorIK, pm.Ephemeral)
	if err != nil {
		return domain.Conversation{}, "", reject(err)
	}

	st, err := ratchet.NewState(
		secret[:],
		spkPriv,
		spkPub,
		pm.Ephemeral,
		ratchet.Initiator(id.XPub.Slice(), pm.InitiatorIK.Slice()),
	)
	if err != nil {
		return domain.Conversation{}, "", err
	}
	return domain.Conversation{Peer: env.From, State: st}, pm.OPKID, nil
}

// buildMemo frames the ciphertext as a forward-secret ratchet message
// inside a styx1 envelope memo string.
func buildMemo(st domain.RatchetState, counter uint64, ct []byte) (string, error) {
	body, err := envelope.EncodeRatchetMessage(envelope.RatchetMessage{
		SessionID:    st.SessionID,
		Counter:      counter,
		EphemeralPub: [32]byte(st.EphPub),
		Ciphertext:   ct,
	})
	if err != nil {
		return "", err
	}

	var msgID [32]byte
	if _, err := rand.Read(msgID[:]); err != nil {
		return "", err
	}
	return envelope.EncodeMemo(envelope.Env{
		Kind: envelope.KindMessage,
		Algo: envelope.AlgoPMF1,
		ID:   msgID,
		Body: body,
	})
}

// parseMemo unwraps a styx1 memo down to its ratchet-message frame.
func parseMemo(memo string) (envelope.RatchetMessage, error) {
	env, err := envelope.DecodeMemo(memo)
	if err != nil {
		return envelope.RatchetMessage{}, err
	}
	if env.Kind != envelope.KindMessage {
		return envelope.RatchetMessage{}, fmt.Errorf("unexpected envelope kind %d", env.Kind)
	}
	return envelope.DecodeRatchetMessage(env.Body)
}

// nonceMaterial binds the AEAD nonce to the sender's session ID and the
// message counter, both of which travel in the frame.
func nonceMaterial(sessionID [32]byte, counter uint64) []byte {
	material := make([]byte, 0, 40)
	material = append(material, sessionID[:]...)
	material = binary.LittleEndian.AppendUint64(material, counter)
	return material
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
