// Package transport defines how the gateway talks to dApps: pairing, session
// negotiation and session requests, delivered as a stream of events.
package transport

import (
	"context"
	"errors"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
)

var (
	ErrInvalidPairingURI = errors.New("invalid pairing uri")
	ErrPairingExpired    = errors.New("pairing expired")
	ErrPairingExists     = errors.New("pairing already exists")
	ErrUnknownPairing    = errors.New("unknown pairing topic")
	ErrUnknownProposal   = errors.New("unknown proposal")
	ErrProposalExpired   = errors.New("proposal expired")
	ErrUnknownSession    = errors.New("unknown session")
	ErrUnknownRequest    = errors.New("unknown request")
	ErrNotInitialized    = errors.New("transport not initialized")
)

type EventKind int

const (
	EventProposalReceived EventKind = iota + 1
	EventRequestReceived
	EventSessionDeleted
	// EventRequestExpired means the dApp stopped waiting for a request; it
	// can no longer be answered.
	EventRequestExpired
)

func (k EventKind) String() string {
	switch k {
	case EventProposalReceived:
		return "session_proposal"
	case EventRequestReceived:
		return "session_request"
	case EventSessionDeleted:
		return "session_delete"
	case EventRequestExpired:
		return "session_request_expire"
	default:
		return "unknown"
	}
}

// Event is one inbound notification. Kind selects which fields are set.
type Event struct {
	Kind     EventKind
	Proposal *types.Proposal
	Request  *types.PendingRequest
	// Topic of the session for EventSessionDeleted and EventRequestExpired.
	Topic string
	// RequestID is set for EventRequestExpired.
	RequestID uint64
}

func NewProposalEvent(p *types.Proposal) Event {
	return Event{Kind: EventProposalReceived, Proposal: p}
}

func NewRequestEvent(r *types.PendingRequest) Event {
	return Event{Kind: EventRequestReceived, Request: r, Topic: r.Topic}
}

func NewSessionDeletedEvent(topic string) Event {
	return Event{Kind: EventSessionDeleted, Topic: topic}
}

func NewRequestExpiredEvent(topic string, id uint64) Event {
	return Event{Kind: EventRequestExpired, Topic: topic, RequestID: id}
}

// ITransport is the wallet side of the pairing protocol.
type ITransport interface {
	// Init prepares the transport and announces metadata to counterparties.
	Init(ctx context.Context, metadata types.Metadata) error

	// Pair registers a pairing from a wc: URI.
	Pair(ctx context.Context, uri string) error

	// Events is consumed by a single reader.
	Events() <-chan Event

	ApproveSession(ctx context.Context, proposalID uint64, namespaces types.Namespaces) (*types.Session, error)
	RejectSession(ctx context.Context, proposalID uint64, reason types.RpcError) error

	RespondSessionRequest(ctx context.Context, topic string, response types.JsonRpcResponse) error

	DisconnectSession(ctx context.Context, topic string, reason types.RpcError) error

	// GetActiveSessions returns unexpired sessions sorted by expiry, then topic.
	GetActiveSessions(ctx context.Context) ([]*types.Session, error)
}
