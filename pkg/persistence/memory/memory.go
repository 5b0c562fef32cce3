package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
)

// MemoryPersistence is an in-memory implementation of ISessionPersistence.
//
// All data is lost when the process exits, so every restart requires pairing again.
// Values are copied on the way in and out to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// topic -> serialized session
	sessions map[string][]byte

	// topic -> serialized pairing
	pairings map[string][]byte

	identity *persistence.ClientIdentity

	closed bool
}

func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		sessions: make(map[string][]byte),
		pairings: make(map[string][]byte),
	}
}

func (m *MemoryPersistence) SaveSession(session *types.Session) error {
	if session == nil {
		return fmt.Errorf("cannot save nil Session")
	}
	data, err := persistence.MarshalSession(session)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	m.sessions[session.Topic] = data
	return nil
}

func (m *MemoryPersistence) LoadSession(topic string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}
	data, exists := m.sessions[topic]
	if !exists {
		return nil, nil
	}
	return persistence.UnmarshalSession(data)
}

func (m *MemoryPersistence) DeleteSession(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	delete(m.sessions, topic)
	return nil
}

func (m *MemoryPersistence) ListSessions() ([]*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	sessions := make([]*types.Session, 0, len(m.sessions))
	for topic, data := range m.sessions {
		s, err := persistence.UnmarshalSession(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", topic, err)
		}
		sessions = append(sessions, s)
	}
	persistence.SortSessions(sessions)
	return sessions, nil
}

func (m *MemoryPersistence) SavePairing(pairing *persistence.Pairing) error {
	if pairing == nil {
		return fmt.Errorf("cannot save nil Pairing")
	}
	data, err := persistence.MarshalPairing(pairing)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	m.pairings[pairing.Topic] = data
	return nil
}

func (m *MemoryPersistence) LoadPairing(topic string) (*persistence.Pairing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}
	data, exists := m.pairings[topic]
	if !exists {
		return nil, nil
	}
	return persistence.UnmarshalPairing(data)
}

func (m *MemoryPersistence) DeletePairing(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	delete(m.pairings, topic)
	return nil
}

func (m *MemoryPersistence) ListPairings() ([]*persistence.Pairing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	pairings := make([]*persistence.Pairing, 0, len(m.pairings))
	for topic, data := range m.pairings {
		p, err := persistence.UnmarshalPairing(data)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal pairing %s: %w", topic, err)
		}
		pairings = append(pairings, p)
	}
	persistence.SortPairings(pairings)
	return pairings, nil
}

func (m *MemoryPersistence) SaveClientIdentity(identity *persistence.ClientIdentity) error {
	if identity == nil {
		return fmt.Errorf("cannot save nil ClientIdentity")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	cp := *identity
	m.identity = &cp
	return nil
}

func (m *MemoryPersistence) LoadClientIdentity() (*persistence.ClientIdentity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}
	if m.identity == nil {
		return nil, nil
	}
	cp := *m.identity
	return &cp, nil
}

// Close is idempotent.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sessions = nil
	m.pairings = nil
	m.identity = nil
	return nil
}

func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}
	return nil
}

var _ persistence.ISessionPersistence = (*MemoryPersistence)(nil)
