package persistence

import "github.com/Layr-Labs/safe-connect-go/pkg/types"

// ISessionPersistence stores relay state that must survive restarts so an
// approved session can be restored without re-pairing.
// All implementations must be thread-safe.
type ISessionPersistence interface {
	// SaveSession persists a session keyed by topic, overwriting any existing one.
	SaveSession(session *types.Session) error

	// LoadSession returns nil if the topic is unknown, error only on storage failure.
	LoadSession(topic string) (*types.Session, error)

	// DeleteSession is idempotent.
	DeleteSession(topic string) error

	// ListSessions returns all sessions sorted by expiry, then topic.
	// Returns empty slice if none exist.
	ListSessions() ([]*types.Session, error)

	// SavePairing persists a pairing keyed by topic.
	SavePairing(pairing *Pairing) error

	// LoadPairing returns nil if the topic is unknown.
	LoadPairing(topic string) (*Pairing, error)

	// DeletePairing is idempotent.
	DeletePairing(topic string) error

	// ListPairings returns all pairings sorted by expiry, then topic.
	ListPairings() ([]*Pairing, error)

	// SaveClientIdentity stores the relay client identity, overwriting any existing one.
	SaveClientIdentity(identity *ClientIdentity) error

	// LoadClientIdentity returns nil on first run.
	LoadClientIdentity() (*ClientIdentity, error)

	// Close is idempotent. After Close(), all other operations return errors.
	Close() error

	// HealthCheck returns nil if the store is usable.
	HealthCheck() error
}
