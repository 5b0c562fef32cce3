package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// Key prefixes for namespacing
const (
	keyPrefixSession     = "session:"
	keyPrefixPairing     = "pairing:"
	keyClientIdentity    = "client:identity"
	keySchemaVersion     = "metadata:schema_version"
	currentSchemaVersion = "v1"
)

// BadgerPersistence stores relay state on disk with Badger so sessions
// survive restarts of the gateway.
type BadgerPersistence struct {
	db       *badgerdb.DB
	logger   *zap.Logger
	gcCancel context.CancelFunc
	gcWg     sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
}

// NewBadgerPersistence opens (or creates) the database at dataPath with
// SyncWrites enabled and starts a background value log GC.
func NewBadgerPersistence(dataPath string, logger *zap.Logger) (*BadgerPersistence, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = newBadgerLoggerAdapter(logger)
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	bp := &BadgerPersistence{
		db:     db,
		logger: logger,
	}

	if err := bp.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	bp.gcCancel = cancel
	bp.gcWg.Add(1)
	go bp.runGC(ctx)

	logger.Sugar().Infow("Badger persistence initialized", "path", absPath)
	return bp, nil
}

// initSchema initializes or validates the schema version
func (b *BadgerPersistence) initSchema() error {
	return b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return txn.Set([]byte(keySchemaVersion), []byte(currentSchemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		var existingVersion string
		err = item.Value(func(val []byte) error {
			existingVersion = string(val)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to read schema version value: %w", err)
		}

		if existingVersion != currentSchemaVersion {
			return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
		}
		return nil
	})
}

func (b *BadgerPersistence) runGC(ctx context.Context) {
	defer b.gcWg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			err := b.db.RunValueLogGC(0.5)
			if err != nil && err != badgerdb.ErrNoRewrite {
				b.logger.Sugar().Warnw("Badger GC error", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *BadgerPersistence) put(key string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// get returns nil data when the key does not exist.
func (b *BadgerPersistence) get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	var data []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})
	return data, err
}

func (b *BadgerPersistence) delete(key string) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// scan calls fn with a copy of every value under prefix.
func (b *BadgerPersistence) scan(prefix string, fn func(key string, data []byte)) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return fmt.Errorf("failed to read value: %w", err)
			}
			fn(string(item.Key()), data)
		}
		return nil
	})
}

func (b *BadgerPersistence) SaveSession(session *types.Session) error {
	if session == nil {
		return fmt.Errorf("cannot save nil Session")
	}
	data, err := persistence.MarshalSession(session)
	if err != nil {
		return err
	}
	if err := b.put(keyPrefixSession+session.Topic, data); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.Topic, err)
	}
	return nil
}

func (b *BadgerPersistence) LoadSession(topic string) (*types.Session, error) {
	data, err := b.get(keyPrefixSession + topic)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", topic, err)
	}
	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalSession(data)
}

func (b *BadgerPersistence) DeleteSession(topic string) error {
	return b.delete(keyPrefixSession + topic)
}

// ListSessions skips entries that fail to decode.
func (b *BadgerPersistence) ListSessions() ([]*types.Session, error) {
	sessions := make([]*types.Session, 0)
	err := b.scan(keyPrefixSession, func(key string, data []byte) {
		s, err := persistence.UnmarshalSession(data)
		if err != nil {
			b.logger.Sugar().Warnw("Failed to unmarshal session, skipping", "key", key, "error", err)
			return
		}
		sessions = append(sessions, s)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	persistence.SortSessions(sessions)
	return sessions, nil
}

func (b *BadgerPersistence) SavePairing(pairing *persistence.Pairing) error {
	if pairing == nil {
		return fmt.Errorf("cannot save nil Pairing")
	}
	data, err := persistence.MarshalPairing(pairing)
	if err != nil {
		return err
	}
	if err := b.put(keyPrefixPairing+pairing.Topic, data); err != nil {
		return fmt.Errorf("failed to save pairing %s: %w", pairing.Topic, err)
	}
	return nil
}

func (b *BadgerPersistence) LoadPairing(topic string) (*persistence.Pairing, error) {
	data, err := b.get(keyPrefixPairing + topic)
	if err != nil {
		return nil, fmt.Errorf("failed to load pairing %s: %w", topic, err)
	}
	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalPairing(data)
}

func (b *BadgerPersistence) DeletePairing(topic string) error {
	return b.delete(keyPrefixPairing + topic)
}

func (b *BadgerPersistence) ListPairings() ([]*persistence.Pairing, error) {
	pairings := make([]*persistence.Pairing, 0)
	err := b.scan(keyPrefixPairing, func(key string, data []byte) {
		p, err := persistence.UnmarshalPairing(data)
		if err != nil {
			b.logger.Sugar().Warnw("Failed to unmarshal pairing, skipping", "key", key, "error", err)
			return
		}
		pairings = append(pairings, p)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list pairings: %w", err)
	}
	persistence.SortPairings(pairings)
	return pairings, nil
}

func (b *BadgerPersistence) SaveClientIdentity(identity *persistence.ClientIdentity) error {
	data, err := persistence.MarshalClientIdentity(identity)
	if err != nil {
		return err
	}
	if err := b.put(keyClientIdentity, data); err != nil {
		return fmt.Errorf("failed to save client identity: %w", err)
	}
	return nil
}

func (b *BadgerPersistence) LoadClientIdentity() (*persistence.ClientIdentity, error) {
	data, err := b.get(keyClientIdentity)
	if err != nil {
		return nil, fmt.Errorf("failed to load client identity: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return persistence.UnmarshalClientIdentity(data)
}

// Close stops GC and closes the database. Idempotent.
func (b *BadgerPersistence) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.gcCancel != nil {
		b.gcCancel()
	}
	b.gcWg.Wait()

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	b.logger.Sugar().Info("Badger persistence closed")
	return nil
}

func (b *BadgerPersistence) HealthCheck() error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return b.db.View(func(txn *badgerdb.Txn) error {
		_, err := txn.Get([]byte(keySchemaVersion))
		if err == badgerdb.ErrKeyNotFound {
			return fmt.Errorf("schema version not found - database may be corrupted")
		}
		return err
	})
}

var _ persistence.ISessionPersistence = (*BadgerPersistence)(nil)
