// Package persistenceTest holds the behaviour every ISessionPersistence
// backend must share, run against each implementation from its own tests.
package persistenceTest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) persistence.ISessionPersistence

func NewTestSession(topic string, expiry int64) *types.Session {
	return &types.Session{
		Topic:        topic,
		PairingTopic: "pairing-" + topic,
		Namespaces: types.Namespaces{
			"eip155": {
				Chains:   []string{"eip155:10"},
				Accounts: []string{"eip155:10:0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1"},
				Methods:  []string{"eth_sendTransaction", "personal_sign"},
				Events:   []string{"chainChanged", "accountsChanged"},
			},
		},
		Peer: types.Metadata{
			Name:  "Uniswap",
			Url:   "https://app.uniswap.org",
			Icons: []string{"https://app.uniswap.org/favicon.png"},
		},
		Expiry:       expiry,
		Acknowledged: true,
	}
}

func NewTestPairing(topic string, expiry int64) *persistence.Pairing {
	return &persistence.Pairing{
		Topic:          topic,
		SymKey:         "587d5484ce2a2a6ee3ba1962fdd7e8588e06200c46823bd18fbd67def96ad303",
		RelayProtocol:  "irn",
		Expiry:         expiry,
		Active:         true,
		CreatedAtEpoch: 1700000000,
	}
}

// RunSuite runs the shared behaviour tests against stores built by newStore.
func RunSuite(t *testing.T, newStore Factory) {
	t.Run("session round trip", func(t *testing.T) {
		store := newStore(t)
		s := NewTestSession("topic-a", 1800000000)

		require.NoError(t, store.SaveSession(s))
		loaded, err := store.LoadSession("topic-a")
		require.NoError(t, err)
		require.NotNil(t, loaded)
		assert.Equal(t, s, loaded)
	})

	t.Run("session not found", func(t *testing.T) {
		store := newStore(t)
		loaded, err := store.LoadSession("missing")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("nil session rejected", func(t *testing.T) {
		store := newStore(t)
		assert.Error(t, store.SaveSession(nil))
	})

	t.Run("session overwrite", func(t *testing.T) {
		store := newStore(t)
		s := NewTestSession("topic-a", 1800000000)
		require.NoError(t, store.SaveSession(s))

		s.Acknowledged = false
		s.Expiry = 1900000000
		require.NoError(t, store.SaveSession(s))

		loaded, err := store.LoadSession("topic-a")
		require.NoError(t, err)
		assert.False(t, loaded.Acknowledged)
		assert.Equal(t, int64(1900000000), loaded.Expiry)
	})

	t.Run("loaded session is a copy", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveSession(NewTestSession("topic-a", 1800000000)))

		loaded, err := store.LoadSession("topic-a")
		require.NoError(t, err)
		loaded.Peer.Name = "mutated"

		again, err := store.LoadSession("topic-a")
		require.NoError(t, err)
		assert.Equal(t, "Uniswap", again.Peer.Name)
	})

	t.Run("delete session is idempotent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.SaveSession(NewTestSession("topic-a", 1800000000)))

		require.NoError(t, store.DeleteSession("topic-a"))
		require.NoError(t, store.DeleteSession("topic-a"))

		loaded, err := store.LoadSession("topic-a")
		require.NoError(t, err)
		assert.Nil(t, loaded)
	})

	t.Run("list sessions sorted", func(t *testing.T) {
		store := newStore(t)
		empty, err := store.ListSessions()
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		require.NoError(t, store.SaveSession(NewTestSession("c", 300)))
		require.NoError(t, store.SaveSession(NewTestSession("b", 100)))
		require.NoError(t, store.SaveSession(NewTestSession("a", 300)))

		sessions, err := store.ListSessions()
		require.NoError(t, err)
		require.Len(t, sessions, 3)
		assert.Equal(t, "b", sessions[0].Topic)
		assert.Equal(t, "a", sessions[1].Topic)
		assert.Equal(t, "c", sessions[2].Topic)
	})

	t.Run("pairing lifecycle", func(t *testing.T) {
		store := newStore(t)
		p := NewTestPairing("pair-1", 1800000000)

		require.NoError(t, store.SavePairing(p))
		loaded, err := store.LoadPairing("pair-1")
		require.NoError(t, err)
		assert.Equal(t, p, loaded)

		require.NoError(t, store.SavePairing(NewTestPairing("pair-0", 1700000000)))
		pairings, err := store.ListPairings()
		require.NoError(t, err)
		require.Len(t, pairings, 2)
		assert.Equal(t, "pair-0", pairings[0].Topic)

		require.NoError(t, store.DeletePairing("pair-1"))
		require.NoError(t, store.DeletePairing("pair-1"))
		loaded, err = store.LoadPairing("pair-1")
		require.NoError(t, err)
		assert.Nil(t, loaded)

		assert.Error(t, store.SavePairing(nil))
	})

	t.Run("client identity", func(t *testing.T) {
		store := newStore(t)
		identity, err := store.LoadClientIdentity()
		require.NoError(t, err)
		assert.Nil(t, identity)

		want := &persistence.ClientIdentity{ClientID: "5b0d4f3e-2d2c-4e0b-9a61-2f1b3c7d8e9f", CreatedAt: 1700000000}
		require.NoError(t, store.SaveClientIdentity(want))

		identity, err = store.LoadClientIdentity()
		require.NoError(t, err)
		assert.Equal(t, want, identity)

		assert.Error(t, store.SaveClientIdentity(nil))
	})

	t.Run("concurrent writes", func(t *testing.T) {
		store := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				assert.NoError(t, store.SaveSession(NewTestSession(fmt.Sprintf("topic-%02d", i), int64(i))))
			}(i)
		}
		wg.Wait()

		sessions, err := store.ListSessions()
		require.NoError(t, err)
		assert.Len(t, sessions, 20)
	})

	t.Run("health and close", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.HealthCheck())

		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		assert.Error(t, store.HealthCheck())
		assert.Error(t, store.SaveSession(NewTestSession("topic-a", 1)))
		_, err := store.LoadSession("topic-a")
		assert.Error(t, err)
		_, err = store.ListSessions()
		assert.Error(t, err)
		assert.Error(t, store.DeletePairing("pair-1"))
		_, err = store.LoadClientIdentity()
		assert.Error(t, err)
	})
}
