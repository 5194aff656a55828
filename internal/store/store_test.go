package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styx/internal/crypto"
	"styx/internal/domain"
	"styx/internal/protocol/ratchet"
)

func makeIdentity(t *testing.T) domain.Identity {
	t.Helper()
	xPriv, xPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	edPriv, edPub, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	return domain.Identity{XPub: xPub, XPriv: xPriv, EdPub: edPub, EdPriv: edPriv}
}

func TestIdentityFileStore_RoundTrip(t *testing.T) {
	s := NewIdentityFileStore(t.TempDir())
	id := makeIdentity(t)

	require.NoError(t, s.SaveIdentity("correct horse battery staple", id))

	got, err := s.LoadIdentity("correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestIdentityFileStore_WrongPassphrase(t *testing.T) {
	s := NewIdentityFileStore(t.TempDir())
	require.NoError(t, s.SaveIdentity("correct horse battery staple", makeIdentity(t)))

	_, err := s.LoadIdentity("incorrect horse battery staple")
	assert.Error(t, err)
}

func TestIdentityFileStore_Missing(t *testing.T) {
	s := NewIdentityFileStore(t.TempDir())
	_, err := s.LoadIdentity("whatever passphrase here")
	assert.Error(t, err)
}

func TestPrekeyFileStore_SignedPrekey(t *testing.T) {
	s := NewPrekeyFileStore(t.TempDir())

	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	sig := []byte("signature bytes")

	require.NoError(t, s.SaveSignedPrekey("spk-1", priv, pub, sig))
	require.NoError(t, s.SetCurrentSPKID("spk-1"))

	gotPriv, gotPub, gotSig, ok, err := s.LoadSignedPrekey("spk-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, priv, gotPriv)
	assert.Equal(t, pub, gotPub)
	assert.Equal(t, sig, gotSig)

	id, ok, err := s.CurrentSPKID()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "spk-1", id)

	_, _, _, ok, err = s.LoadSignedPrekey("spk-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPrekeyFileStore_ConsumeOnce(t *testing.T) {
	s := NewPrekeyFileStore(t.TempDir())

	priv, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	require.NoError(t, s.SaveOneTimePrekeys([]domain.OneTimePair{
		{ID: "opk-1-0", Priv: priv, Pub: pub},
	}))

	pubs, err := s.ListOneTimePublics()
	require.NoError(t, err)
	require.Len(t, pubs, 1)
	assert.Equal(t, pub, pubs[0].Pub)

	// Load does not remove the pair; only Consume does.
	gotPriv, gotPub, ok, err := s.LoadOneTimePrekey("opk-1-0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, priv, gotPriv)
	_, _, ok, err = s.LoadOneTimePrekey("opk-1-0")
	require.NoError(t, err)
	require.True(t, ok)

	gotPriv, gotPub, ok, err = s.ConsumeOneTimePrekey("opk-1-0")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, priv, gotPriv)
	assert.Equal(t, pub, gotPub)

	// The second consume must fail: this is the replay guard.
	_, _, ok, err = s.ConsumeOneTimePrekey("opk-1-0")
	require.NoError(t, err)
	assert.False(t, ok)

	pubs, err = s.ListOneTimePublics()
	require.NoError(t, err)
	assert.Empty(t, pubs)
}

func TestRatchetFileStore_RoundTrip(t *testing.T) {
	s := NewRatchetFileStore(t.TempDir())

	ourPriv, ourPub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	_, peerPub, err := crypto.GenerateX25519()
	require.NoError(t, err)

	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i)
	}
	st, err := ratchet.NewState(secret, ourPriv, ourPub, peerPub, true)
	require.NoError(t, err)
	st.SendCounter = 9
	st.RecvCounter = 4
	st.PrevChainLen = 2

	require.NoError(t, s.SaveConversation("bob", domain.Conversation{Peer: "bob", State: st}))

	got, ok, err := s.LoadConversation("bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "bob", got.Peer)
	assert.Equal(t, st, got.State)

	_, ok, err = s.LoadConversation("mallory")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionFileStore_RoundTrip(t *testing.T) {
	s := NewSessionFileStore(t.TempDir())

	sess := domain.Session{
		Peer:         "bob",
		SharedSecret: []byte("thirty-two bytes of shared key!!"),
		SPKID:        "spk-1",
		CreatedUTC:   1700000000,
	}
	require.NoError(t, s.SaveSession("bob", sess))

	got, ok, err := s.LoadSession("bob")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess, got)

	_, ok, err = s.LoadSession("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBundleFileStore_UsernameScoped(t *testing.T) {
	s := NewBundleFileStore(t.TempDir())

	b := domain.PrekeyBundle{Username: "alice", SPKID: "spk-1"}
	require.NoError(t, s.SaveBundle(b))

	got, ok, err := s.LoadBundle("alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok, err = s.LoadBundle("bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
