package persistence

import (
	"sort"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
)

// Pairing is a pairing topic established from a wc: URI.
type Pairing struct {
	Topic          string `json:"topic"`
	SymKey         string `json:"symKey"`
	RelayProtocol  string `json:"relayProtocol"`
	Expiry         int64  `json:"expiry"`
	Active         bool   `json:"active"`
	PeerName       string `json:"peerName,omitempty"`
	CreatedAtEpoch int64  `json:"createdAt"`
}

// IsExpired reports whether the pairing expiry (unix seconds) has passed.
// A zero expiry never expires.
func (p *Pairing) IsExpired(now time.Time) bool {
	if p == nil {
		return true
	}
	return p.Expiry != 0 && now.Unix() >= p.Expiry
}

// ClientIdentity identifies this relay client across restarts.
type ClientIdentity struct {
	ClientID  string `json:"clientId"`
	CreatedAt int64  `json:"createdAt"`
}

// SortSessions orders sessions by expiry, then topic.
func SortSessions(sessions []*types.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Expiry != sessions[j].Expiry {
			return sessions[i].Expiry < sessions[j].Expiry
		}
		return sessions[i].Topic < sessions[j].Topic
	})
}

// SortPairings orders pairings by expiry, then topic.
func SortPairings(pairings []*Pairing) {
	sort.Slice(pairings, func(i, j int) bool {
		if pairings[i].Expiry != pairings[j].Expiry {
			return pairings[i].Expiry < pairings[j].Expiry
		}
		return pairings[i].Topic < pairings[j].Topic
	})
}
