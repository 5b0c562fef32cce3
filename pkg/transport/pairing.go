package transport

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	PairingScheme        = "wc"
	PairingVersion       = "2"
	DefaultRelayProtocol = "irn"
	symKeyLength         = 32
	DefaultPairingExpiry = 5 * time.Minute
	queryRelayProtocol   = "relay-protocol"
	querySymKey          = "symKey"
	queryExpiryTimestamp = "expiryTimestamp"
)

// PairingURI is a parsed "wc:<topic>@2?relay-protocol=irn&symKey=<hex>" URI.
type PairingURI struct {
	Topic         string
	Version       string
	RelayProtocol string
	SymKey        string
	// ExpiryTimestamp is unix seconds, zero when the URI carries none.
	ExpiryTimestamp int64
}

// ParsePairingURI validates uri and rejects it when its expiry is not after now.
func ParsePairingURI(uri string, now time.Time) (*PairingURI, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPairingURI, err)
	}
	if u.Scheme != PairingScheme {
		return nil, fmt.Errorf("%w: scheme %q", ErrInvalidPairingURI, u.Scheme)
	}

	topic, version, found := strings.Cut(u.Opaque, "@")
	if !found || topic == "" {
		return nil, fmt.Errorf("%w: missing topic", ErrInvalidPairingURI)
	}
	if version != PairingVersion {
		return nil, fmt.Errorf("%w: unsupported version %q", ErrInvalidPairingURI, version)
	}

	q := u.Query()
	p := &PairingURI{
		Topic:         topic,
		Version:       version,
		RelayProtocol: q.Get(queryRelayProtocol),
		SymKey:        strings.ToLower(q.Get(querySymKey)),
	}
	if p.RelayProtocol == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidPairingURI, queryRelayProtocol)
	}
	key, err := hex.DecodeString(p.SymKey)
	if err != nil || len(key) != symKeyLength {
		return nil, fmt.Errorf("%w: %s must be %d bytes of hex", ErrInvalidPairingURI, querySymKey, symKeyLength)
	}

	if raw := q.Get(queryExpiryTimestamp); raw != "" {
		expiry, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidPairingURI, queryExpiryTimestamp, raw)
		}
		if expiry <= now.Unix() {
			return nil, fmt.Errorf("%w: expired at %d", ErrPairingExpired, expiry)
		}
		p.ExpiryTimestamp = expiry
	}
	return p, nil
}

// String formats the URI back into its wc: form.
func (p *PairingURI) String() string {
	q := url.Values{}
	q.Set(queryRelayProtocol, p.RelayProtocol)
	q.Set(querySymKey, p.SymKey)
	if p.ExpiryTimestamp != 0 {
		q.Set(queryExpiryTimestamp, strconv.FormatInt(p.ExpiryTimestamp, 10))
	}
	version := p.Version
	if version == "" {
		version = PairingVersion
	}
	return fmt.Sprintf("%s:%s@%s?%s", PairingScheme, p.Topic, version, q.Encode())
}
