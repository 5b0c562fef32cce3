// Package gateway holds the single session between the Safe and a dApp.
//
// Every session it approves is restricted to exactly one account, the Safe's
// eip155:<chainId>:<address>, so the owner's personal account is never
// exposed. Incoming requests queue up and the oldest is surfaced for a
// decision.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/transport"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"go.uber.org/zap"
)

const eip155 = "eip155"

var (
	ErrNotInitialized  = errors.New("gateway not initialized")
	ErrUnknownRequest  = errors.New("unknown request id")
	ErrProposalExpired = errors.New("session proposal expired")
)

type State int

const (
	StateUninitialized State = iota
	StateReady
	StateProposalPending
	StateSessionActive
	// StateClosed is transient; the gateway moves on to StateReady after observers see it.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateProposalPending:
		return "proposal_pending"
	case StateSessionActive:
		return "session_active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SessionChangeFunc receives the new session, or nil when the session closed.
type SessionChangeFunc func(session *types.Session)

// RequestFunc receives every request accepted into the queue.
type RequestFunc func(req *types.PendingRequest)

// StateFunc receives every state transition in order.
type StateFunc func(state State)

type Config struct {
	Safe     config.SafeDescriptor
	Methods  []string
	Metadata types.Metadata
}

type Gateway struct {
	transport   transport.ITransport
	safeAccount string
	chain       string
	methods     []string
	metadata    types.Metadata
	logger      *zap.Logger
	now         func() time.Time

	mu      sync.Mutex
	state   State
	session *types.Session
	queue   []*types.PendingRequest

	sessionObservers []SessionChangeFunc
	requestObservers []RequestFunc
	stateObservers   []StateFunc

	// collected under mu, delivered by unlockAndNotify
	pendingStates   []State
	sessionChanged  bool
	pendingRequests []*types.PendingRequest
}

func NewGateway(cfg *Config, t transport.ITransport, logger *zap.Logger) *Gateway {
	methods := cfg.Methods
	if len(methods) == 0 {
		methods = config.CompatibleSafeMethods
	}
	return &Gateway{
		transport:   t,
		safeAccount: cfg.Safe.CAIP10Account(),
		chain:       cfg.Safe.ChainID.CAIP2(),
		methods:     slices.Clone(methods),
		metadata:    cfg.Metadata,
		logger:      logger,
		now:         time.Now,
		state:       StateUninitialized,
	}
}

// SafeAccount is the only account any session is approved for.
func (g *Gateway) SafeAccount() string {
	return g.safeAccount
}

// Initialize sets up the transport once and adopts the first stored session
// restricted to the Safe account. Later calls are no-ops.
func (g *Gateway) Initialize(ctx context.Context) error {
	g.mu.Lock()
	defer g.unlockAndNotify()

	if g.state != StateUninitialized {
		return nil
	}
	if err := g.transport.Init(ctx, g.metadata); err != nil {
		return fmt.Errorf("failed to initialize transport: %w", err)
	}
	g.setStateLocked(StateReady)

	sessions, err := g.transport.GetActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active sessions: %w", err)
	}
	for _, s := range sessions {
		if !s.IsRestrictedTo(g.safeAccount) {
			continue
		}
		g.setSessionLocked(s)
		g.setStateLocked(StateSessionActive)
		g.logger.Sugar().Infow("Restored session",
			zap.String("topic", s.Topic),
			zap.String("peer", s.Peer.Name),
		)
		break
	}
	return nil
}

// Run handles transport events one at a time until ctx is done or the event
// stream ends.
func (g *Gateway) Run(ctx context.Context) error {
	events := g.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := g.HandleEvent(ctx, ev); err != nil {
				g.logger.Sugar().Warnw("Failed to handle event",
					zap.String("event", ev.Kind.String()),
					zap.Error(err),
				)
			}
		}
	}
}

func (g *Gateway) HandleEvent(ctx context.Context, ev transport.Event) error {
	switch ev.Kind {
	case transport.EventProposalReceived:
		return g.handleProposal(ctx, ev.Proposal)
	case transport.EventRequestReceived:
		return g.handleRequest(ctx, ev.Request)
	case transport.EventSessionDeleted:
		g.handleSessionDeleted(ev.Topic)
		return nil
	case transport.EventRequestExpired:
		g.handleRequestExpired(ev.Topic, ev.RequestID)
		return nil
	default:
		return fmt.Errorf("unknown event kind %d", ev.Kind)
	}
}

// Namespaces returns what the gateway approves for p: the Safe account on the
// Safe chain, the method allow-list and the eip155 events p requires.
func (g *Gateway) Namespaces(p *types.Proposal) types.Namespaces {
	return types.Namespaces{
		eip155: {
			Chains:   []string{g.chain},
			Accounts: []string{g.safeAccount},
			Methods:  slices.Clone(g.methods),
			Events:   p.RequiredEvents(eip155),
		},
	}
}

func (g *Gateway) handleProposal(ctx context.Context, p *types.Proposal) error {
	if p == nil {
		return fmt.Errorf("proposal event without proposal")
	}

	g.mu.Lock()
	defer g.unlockAndNotify()

	if g.state == StateUninitialized {
		return ErrNotInitialized
	}
	if p.Expiry != 0 && g.now().Unix() >= p.Expiry {
		return fmt.Errorf("%w: %d", ErrProposalExpired, p.ID)
	}

	g.setStateLocked(StateProposalPending)

	session, err := g.approve(ctx, p, g.Namespaces(p))
	if err != nil {
		g.logger.Sugar().Warnw("Rejecting session proposal",
			zap.Uint64("proposalId", p.ID),
			zap.String("proposer", p.Proposer.Name),
			zap.Error(err),
		)
		if rerr := g.transport.RejectSession(ctx, p.ID, types.WrongChainError); rerr != nil {
			g.logger.Sugar().Errorw("Failed to reject session proposal", zap.Uint64("proposalId", p.ID), zap.Error(rerr))
		}
		if g.session != nil {
			g.setSessionLocked(nil)
		}
		g.queue = nil
		g.setStateLocked(StateReady)
		return nil
	}

	previous := g.session
	g.setSessionLocked(session)
	g.queue = nil
	g.setStateLocked(StateSessionActive)

	if previous != nil && previous.Topic != session.Topic {
		if err := g.transport.DisconnectSession(ctx, previous.Topic, types.ReplacedError); err != nil {
			g.logger.Sugar().Warnw("Failed to disconnect replaced session", zap.String("topic", previous.Topic), zap.Error(err))
		}
	}

	g.logger.Sugar().Infow("Session approved",
		zap.String("topic", session.Topic),
		zap.String("peer", session.Peer.Name),
		zap.String("account", g.safeAccount),
	)
	return nil
}

// approve fails locally when the restricted namespaces cannot meet the
// proposal's requirements, so nothing wider or narrower is ever sent.
func (g *Gateway) approve(ctx context.Context, p *types.Proposal, namespaces types.Namespaces) (*types.Session, error) {
	if err := types.ValidateNamespacesSatisfy(p.RequiredNamespaces, namespaces); err != nil {
		return nil, err
	}
	session, err := g.transport.ApproveSession(ctx, p.ID, namespaces)
	if err != nil {
		return nil, err
	}
	if !session.IsRestrictedTo(g.safeAccount) {
		return nil, fmt.Errorf("transport approved accounts %v, expected only %s", session.EIP155Accounts(), g.safeAccount)
	}
	return session, nil
}

func (g *Gateway) handleRequest(ctx context.Context, req *types.PendingRequest) error {
	if req == nil {
		return fmt.Errorf("request event without request")
	}

	g.mu.Lock()
	defer g.unlockAndNotify()

	if g.state != StateSessionActive || g.session == nil || req.Topic != g.session.Topic {
		g.logger.Sugar().Warnw("Refusing request outside the active session",
			zap.String("topic", req.Topic),
			zap.String("method", req.Method),
			zap.String("state", g.state.String()),
		)
		if err := g.transport.RespondSessionRequest(ctx, req.Topic, types.NewErrorResponse(req.ID, types.UnauthorizedError)); err != nil {
			return fmt.Errorf("failed to refuse request %d: %w", req.ID, err)
		}
		return nil
	}

	g.queue = append(g.queue, req)
	g.pendingRequests = append(g.pendingRequests, req)

	g.logger.Sugar().Infow("Session request queued",
		zap.Uint64("id", req.ID),
		zap.String("method", req.Method),
		zap.Int("queued", len(g.queue)),
	)
	return nil
}

func (g *Gateway) handleSessionDeleted(topic string) {
	g.mu.Lock()
	defer g.unlockAndNotify()

	if g.session == nil || g.session.Topic != topic {
		g.logger.Sugar().Debugw("Ignoring deletion of inactive session", zap.String("topic", topic))
		return
	}
	g.closeLocked()
	g.logger.Sugar().Infow("Session deleted by peer", zap.String("topic", topic))
}

// handleRequestExpired drops a request the dApp stopped waiting for so the
// next one in the queue surfaces.
func (g *Gateway) handleRequestExpired(topic string, id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session == nil || g.session.Topic != topic {
		return
	}
	if g.dequeueLocked(id) {
		g.logger.Sugar().Infow("Session request expired", zap.String("topic", topic), zap.Uint64("id", id))
	}
}

func (g *Gateway) dequeueLocked(id uint64) bool {
	idx := slices.IndexFunc(g.queue, func(r *types.PendingRequest) bool { return r.ID == id })
	if idx < 0 {
		return false
	}
	g.queue = slices.Delete(g.queue, idx, idx+1)
	return true
}

// Approve answers request id with result. It is a no-op when no session is active.
func (g *Gateway) Approve(ctx context.Context, id uint64, result any) error {
	resp, err := types.NewResultResponse(id, result)
	if err != nil {
		return err
	}
	return g.respond(ctx, id, resp)
}

// Reject answers request id with rpcErr, or "User rejected request" when nil.
// It is a no-op when no session is active.
func (g *Gateway) Reject(ctx context.Context, id uint64, rpcErr *types.RpcError) error {
	reason := types.UserRejectedError
	if rpcErr != nil {
		reason = *rpcErr
	}
	return g.respond(ctx, id, types.NewErrorResponse(id, reason))
}

// respond sends resp and dequeues the request. On transport failure the
// request stays queued.
func (g *Gateway) respond(ctx context.Context, id uint64, resp types.JsonRpcResponse) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != StateSessionActive || g.session == nil {
		return nil
	}
	idx := slices.IndexFunc(g.queue, func(r *types.PendingRequest) bool { return r.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrUnknownRequest, id)
	}

	if err := g.transport.RespondSessionRequest(ctx, g.session.Topic, resp); err != nil {
		if errors.Is(err, transport.ErrUnknownRequest) {
			// the peer no longer waits for it; answering again cannot succeed
			g.queue = slices.Delete(g.queue, idx, idx+1)
			g.logger.Sugar().Warnw("Dropped request unknown to the transport", zap.Uint64("id", id), zap.Error(err))
		}
		return fmt.Errorf("failed to respond to request %d: %w", id, err)
	}
	g.queue = slices.Delete(g.queue, idx, idx+1)
	return nil
}

// Disconnect ends the active session. Local state is cleared even when the
// transport call fails.
func (g *Gateway) Disconnect(ctx context.Context) error {
	g.mu.Lock()
	defer g.unlockAndNotify()

	if g.session == nil {
		return nil
	}
	topic := g.session.Topic
	err := g.transport.DisconnectSession(ctx, topic, types.DisconnectedError)
	g.closeLocked()
	g.logger.Sugar().Infow("Session disconnected", zap.String("topic", topic))

	if err != nil && !errors.Is(err, transport.ErrUnknownSession) {
		return fmt.Errorf("failed to disconnect session %s: %w", topic, err)
	}
	return nil
}

func (g *Gateway) Pair(ctx context.Context, uri string) error {
	if err := g.transport.Pair(ctx, uri); err != nil {
		return fmt.Errorf("failed to pair: %w", err)
	}
	return nil
}

// closeLocked drops the session and queue, passing through StateClosed.
func (g *Gateway) closeLocked() {
	g.setSessionLocked(nil)
	g.queue = nil
	g.setStateLocked(StateClosed)
	g.setStateLocked(StateReady)
}

func (g *Gateway) setStateLocked(s State) {
	if g.state == s {
		return
	}
	g.state = s
	g.pendingStates = append(g.pendingStates, s)
}

func (g *Gateway) setSessionLocked(s *types.Session) {
	g.session = s
	g.sessionChanged = true
}

// unlockAndNotify releases mu, then delivers what changed while it was held.
// Observers may call back into the gateway.
func (g *Gateway) unlockAndNotify() {
	states := g.pendingStates
	requests := g.pendingRequests
	sessionChanged, session := g.sessionChanged, g.session
	g.pendingStates, g.pendingRequests, g.sessionChanged = nil, nil, false

	stateObservers := slices.Clone(g.stateObservers)
	sessionObservers := slices.Clone(g.sessionObservers)
	requestObservers := slices.Clone(g.requestObservers)
	g.mu.Unlock()

	for _, s := range states {
		for _, fn := range stateObservers {
			fn(s)
		}
	}
	if sessionChanged {
		for _, fn := range sessionObservers {
			fn(session)
		}
	}
	for _, r := range requests {
		for _, fn := range requestObservers {
			fn(r)
		}
	}
}

func (g *Gateway) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gateway) Session() *types.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

// PendingRequest is the request awaiting a decision, the oldest in the queue.
func (g *Gateway) PendingRequest() *types.PendingRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return nil
	}
	return g.queue[0]
}

func (g *Gateway) PendingRequests() []*types.PendingRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.queue)
}

func (g *Gateway) OnSessionChange(fn SessionChangeFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionObservers = append(g.sessionObservers, fn)
}

func (g *Gateway) OnRequest(fn RequestFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requestObservers = append(g.requestObservers, fn)
}

func (g *Gateway) OnStateChange(fn StateFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stateObservers = append(g.stateObservers, fn)
}
