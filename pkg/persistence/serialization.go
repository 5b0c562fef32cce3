package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
)

// MarshalSession serializes a Session to JSON bytes.
func MarshalSession(s *types.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("cannot marshal nil Session")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal Session to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalSession deserializes a Session from JSON bytes.
func UnmarshalSession(data []byte) (*types.Session, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var s types.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Session: %w", err)
	}
	if s.Topic == "" {
		return nil, fmt.Errorf("session has no topic")
	}
	return &s, nil
}

// MarshalPairing serializes a Pairing to JSON bytes.
func MarshalPairing(p *Pairing) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot marshal nil Pairing")
	}
	return json.Marshal(p)
}

// UnmarshalPairing deserializes a Pairing from JSON bytes.
func UnmarshalPairing(data []byte) (*Pairing, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var p Pairing
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to Pairing: %w", err)
	}
	return &p, nil
}

// MarshalClientIdentity serializes a ClientIdentity to JSON bytes.
func MarshalClientIdentity(ci *ClientIdentity) ([]byte, error) {
	if ci == nil {
		return nil, fmt.Errorf("cannot marshal nil ClientIdentity")
	}
	return json.Marshal(ci)
}

// UnmarshalClientIdentity deserializes a ClientIdentity from JSON bytes.
func UnmarshalClientIdentity(data []byte) (*ClientIdentity, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot unmarshal empty data")
	}

	var ci ClientIdentity
	if err := json.Unmarshal(data, &ci); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to ClientIdentity: %w", err)
	}
	return &ci, nil
}
