// Package transportTest provides an in-memory transport.ITransport that
// records every call, for testing code that drives a transport.
package transportTest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Layr-Labs/safe-connect-go/pkg/transport"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
)

type ApproveCall struct {
	ProposalID uint64
	Namespaces types.Namespaces
}

type RejectCall struct {
	ProposalID uint64
	Reason     types.RpcError
}

type RespondCall struct {
	Topic    string
	Response types.JsonRpcResponse
}

type DisconnectCall struct {
	Topic  string
	Reason types.RpcError
}

type FakeTransport struct {
	mu sync.Mutex

	InitCalls      int
	InitErr        error
	ActiveSessions []*types.Session
	ApproveErr     error
	RespondErr     error
	DisconnectErr  error
	PairErr        error

	Paired      []string
	Approved    []ApproveCall
	Rejected    []RejectCall
	Responses   []RespondCall
	Disconnects []DisconnectCall

	// SessionTTL is the Expiry given to approved sessions.
	SessionTTL int64

	events   chan transport.Event
	topicSeq int
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{events: make(chan transport.Event, 16)}
}

// Push queues an event for Events readers.
func (f *FakeTransport) Push(ev transport.Event) {
	f.events <- ev
}

// CloseEvents ends the event stream.
func (f *FakeTransport) CloseEvents() {
	close(f.events)
}

func (f *FakeTransport) Init(ctx context.Context, metadata types.Metadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.InitCalls++
	return f.InitErr
}

func (f *FakeTransport) Pair(ctx context.Context, uri string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PairErr != nil {
		return f.PairErr
	}
	f.Paired = append(f.Paired, uri)
	return nil
}

func (f *FakeTransport) Events() <-chan transport.Event {
	return f.events
}

// ApproveSession echoes the namespaces back in a session with topics
// "topic-1", "topic-2", ...
func (f *FakeTransport) ApproveSession(ctx context.Context, proposalID uint64, namespaces types.Namespaces) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ApproveErr != nil {
		return nil, f.ApproveErr
	}
	f.Approved = append(f.Approved, ApproveCall{ProposalID: proposalID, Namespaces: namespaces})
	f.topicSeq++
	return &types.Session{
		Topic:        fmt.Sprintf("topic-%d", f.topicSeq),
		Namespaces:   namespaces,
		Expiry:       f.SessionTTL,
		Acknowledged: true,
	}, nil
}

func (f *FakeTransport) RejectSession(ctx context.Context, proposalID uint64, reason types.RpcError) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Rejected = append(f.Rejected, RejectCall{ProposalID: proposalID, Reason: reason})
	return nil
}

func (f *FakeTransport) RespondSessionRequest(ctx context.Context, topic string, response types.JsonRpcResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RespondErr != nil {
		return f.RespondErr
	}
	f.Responses = append(f.Responses, RespondCall{Topic: topic, Response: response})
	return nil
}

func (f *FakeTransport) DisconnectSession(ctx context.Context, topic string, reason types.RpcError) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Disconnects = append(f.Disconnects, DisconnectCall{Topic: topic, Reason: reason})
	return f.DisconnectErr
}

func (f *FakeTransport) GetActiveSessions(ctx context.Context) ([]*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActiveSessions, nil
}

// LastResponse returns the most recent RespondSessionRequest call.
func (f *FakeTransport) LastResponse() (RespondCall, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Responses) == 0 {
		return RespondCall{}, false
	}
	return f.Responses[len(f.Responses)-1], true
}

var _ transport.ITransport = (*FakeTransport)(nil)
