package relay_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styx/internal/domain"
	"styx/internal/relay"
)

func newTestClient(t *testing.T) *relay.Client {
	t.Helper()
	srv := httptest.NewServer(relay.NewServer())
	t.Cleanup(srv.Close)
	return relay.New(srv.URL, srv.Client())
}

func sampleBundle(opks int) domain.PrekeyBundle {
	b := domain.PrekeyBundle{
		Username:        "bob",
		SPKID:           "spk-1",
		SignedPrekeySig: []byte("sig"),
	}
	for i := 0; i < opks; i++ {
		b.OneTime = append(b.OneTime, domain.OneTimePub{
			ID:  "opk-" + string(rune('a'+i)),
			Pub: domain.X25519Public{byte(i + 1)},
		})
	}
	return b
}

func TestRelay_BundleServedWithSingleOPK(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	require.NoError(t, c.Register(ctx, sampleBundle(2)))

	// Each fetch serves a different one-time prekey, then none.
	b1, err := c.FetchPrekeyBundle(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, b1.OneTime, 1)

	b2, err := c.FetchPrekeyBundle(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, b2.OneTime, 1)
	assert.NotEqual(t, b1.OneTime[0].ID, b2.OneTime[0].ID)

	b3, err := c.FetchPrekeyBundle(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, b3.OneTime)
	assert.Equal(t, "spk-1", b3.SPKID)
}

func TestRelay_UnknownUser(t *testing.T) {
	c := newTestClient(t)

	_, err := c.FetchPrekeyBundle(context.Background(), "nobody")
	assert.Error(t, err)
}

func TestRelay_QueueFetchAck(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	for _, memo := range []string{"m1", "m2", "m3"} {
		require.NoError(t, c.SendMessage(ctx, domain.Envelope{
			From: "alice", To: "bob", Memo: memo,
		}))
	}

	// Fetch with a limit does not consume.
	envs, err := c.FetchMessages(ctx, "bob", 2)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	assert.Equal(t, "m1", envs[0].Memo)
	assert.Equal(t, "m2", envs[1].Memo)

	envs, err = c.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 3)

	// Ack removes only the processed prefix.
	require.NoError(t, c.AckMessages(ctx, "bob", 2))
	envs, err = c.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, "m3", envs[0].Memo)

	// Over-acking drains without error.
	require.NoError(t, c.AckMessages(ctx, "bob", 10))
	envs, err = c.FetchMessages(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestRelay_EmptyQueue(t *testing.T) {
	c := newTestClient(t)

	envs, err := c.FetchMessages(context.Background(), "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, envs)
}
