package badger

import (
	"testing"

	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/persistence/persistenceTest"
	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBadgerPersistence(t *testing.T) {
	persistenceTest.RunSuite(t, func(t *testing.T) persistence.ISessionPersistence {
		bp, err := NewBadgerPersistence(t.TempDir(), zaptest.NewLogger(t))
		require.NoError(t, err)
		t.Cleanup(func() { _ = bp.Close() })
		return bp
	})
}

func TestBadgerPersistence_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	l := zaptest.NewLogger(t)

	bp, err := NewBadgerPersistence(dir, l)
	require.NoError(t, err)
	require.NoError(t, bp.SaveSession(persistenceTest.NewTestSession("topic-a", 1800000000)))
	require.NoError(t, bp.SavePairing(persistenceTest.NewTestPairing("pair-1", 1800000000)))
	require.NoError(t, bp.SaveClientIdentity(&persistence.ClientIdentity{ClientID: "client-1", CreatedAt: 1}))
	require.NoError(t, bp.Close())

	reopened, err := NewBadgerPersistence(dir, l)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	sessions, err := reopened.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "topic-a", sessions[0].Topic)

	pairing, err := reopened.LoadPairing("pair-1")
	require.NoError(t, err)
	require.NotNil(t, pairing)
	assert.Equal(t, "irn", pairing.RelayProtocol)

	identity, err := reopened.LoadClientIdentity()
	require.NoError(t, err)
	assert.Equal(t, "client-1", identity.ClientID)
}

func TestBadgerPersistence_SchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	l := zaptest.NewLogger(t)

	bp, err := NewBadgerPersistence(dir, l)
	require.NoError(t, err)
	require.NoError(t, bp.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(keySchemaVersion), []byte("v0"))
	}))
	require.NoError(t, bp.Close())

	_, err = NewBadgerPersistence(dir, l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported schema version")
}

func TestBadgerPersistence_ListSkipsCorruptEntries(t *testing.T) {
	bp, err := NewBadgerPersistence(t.TempDir(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { _ = bp.Close() }()

	require.NoError(t, bp.SaveSession(persistenceTest.NewTestSession("good", 1)))
	require.NoError(t, bp.put(keyPrefixSession+"bad", []byte("{not json")))

	sessions, err := bp.ListSessions()
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "good", sessions[0].Topic)
}
