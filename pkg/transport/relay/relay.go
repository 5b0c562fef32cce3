// Package relay is an in-process transport. The wallet side implements
// transport.ITransport for the gateway; the dApp side is an HTTP bridge that
// pairs, proposes sessions and sends session requests, blocking until the
// gateway answers.
package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/transport"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	eventBufferSize = 100
	// expiryNotifyTimeout bounds how long an expired request waits to tell the wallet.
	expiryNotifyTimeout = 5 * time.Second
)

var errDuplicateRequest = errors.New("request id already in flight for session")

type Config struct {
	Port int
	// RateLimit is requests per second across the HTTP bridge; zero disables it.
	RateLimit       float64
	SessionExpiry   time.Duration
	ProposalTimeout time.Duration
	RequestTimeout  time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Port:            config.DefaultRelayPort,
		RateLimit:       config.DefaultRelayRateLimit,
		SessionExpiry:   config.DefaultSessionExpiry,
		ProposalTimeout: config.DefaultProposalTimeout,
		RequestTimeout:  10 * time.Minute,
	}
}

type proposalOutcome struct {
	session *types.Session
	reason  *types.RpcError
}

type proposalWaiter struct {
	proposal *types.Proposal
	done     chan proposalOutcome
}

type requestKey struct {
	topic string
	id    uint64
}

type Relay struct {
	cfg     *Config
	store   persistence.ISessionPersistence
	limiter *rate.Limiter
	logger  *zap.Logger
	events  chan transport.Event
	now     func() time.Time

	mu          sync.Mutex
	initialized bool
	metadata    types.Metadata
	clientID    string
	lastID      uint64
	pairings    map[string]*persistence.Pairing
	sessions    map[string]*types.Session
	proposals   map[uint64]*proposalWaiter
	requests    map[requestKey]chan types.JsonRpcResponse

	server *Server
}

func NewRelay(cfg *Config, store persistence.ISessionPersistence, logger *zap.Logger) *Relay {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	r := &Relay{
		cfg:       cfg,
		store:     store,
		limiter:   rate.NewLimiter(limit, burst),
		logger:    logger,
		events:    make(chan transport.Event, eventBufferSize),
		now:       time.Now,
		pairings:  make(map[string]*persistence.Pairing),
		sessions:  make(map[string]*types.Session),
		proposals: make(map[uint64]*proposalWaiter),
		requests:  make(map[requestKey]chan types.JsonRpcResponse),
	}
	r.server = NewServer(r, cfg.Port)
	return r
}

// Server returns the HTTP bridge for the dApp side.
func (r *Relay) Server() *Server {
	return r.server
}

// ClientID is the persisted identity of this wallet, empty before Init.
func (r *Relay) ClientID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientID
}

// Init loads the client identity, sessions and pairings from the store and
// drops the expired ones. Calling it again is a no-op.
func (r *Relay) Init(ctx context.Context, metadata types.Metadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}
	now := r.now()

	identity, err := r.store.LoadClientIdentity()
	if err != nil {
		return fmt.Errorf("failed to load client identity: %w", err)
	}
	if identity == nil {
		identity = &persistence.ClientIdentity{ClientID: uuid.NewString(), CreatedAt: now.Unix()}
		if err := r.store.SaveClientIdentity(identity); err != nil {
			return fmt.Errorf("failed to save client identity: %w", err)
		}
	}

	sessions, err := r.store.ListSessions()
	if err != nil {
		return fmt.Errorf("failed to restore sessions: %w", err)
	}
	for _, s := range sessions {
		if s.Expiry <= now.Unix() {
			r.logger.Sugar().Infow("Dropping expired session", zap.String("topic", s.Topic))
			if err := r.store.DeleteSession(s.Topic); err != nil {
				return fmt.Errorf("failed to delete expired session %s: %w", s.Topic, err)
			}
			continue
		}
		r.sessions[s.Topic] = s
	}

	pairings, err := r.store.ListPairings()
	if err != nil {
		return fmt.Errorf("failed to restore pairings: %w", err)
	}
	for _, p := range pairings {
		if p.IsExpired(now) {
			if err := r.store.DeletePairing(p.Topic); err != nil {
				return fmt.Errorf("failed to delete expired pairing %s: %w", p.Topic, err)
			}
			continue
		}
		r.pairings[p.Topic] = p
	}

	r.metadata = metadata
	r.clientID = identity.ClientID
	r.initialized = true

	r.logger.Sugar().Infow("Relay initialized",
		zap.String("clientId", r.clientID),
		zap.String("wallet", metadata.Name),
		zap.Int("sessions", len(r.sessions)),
		zap.Int("pairings", len(r.pairings)),
	)
	return nil
}

func (r *Relay) Pair(ctx context.Context, uri string) error {
	_, err := r.pair(uri)
	return err
}

func (r *Relay) pair(uri string) (*persistence.Pairing, error) {
	now := r.now()
	p, err := transport.ParsePairingURI(uri, now)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil, transport.ErrNotInitialized
	}
	if existing, ok := r.pairings[p.Topic]; ok && !existing.IsExpired(now) {
		return nil, fmt.Errorf("%w: %s", transport.ErrPairingExists, p.Topic)
	}

	expiry := p.ExpiryTimestamp
	if expiry == 0 {
		expiry = now.Add(transport.DefaultPairingExpiry).Unix()
	}
	pairing := &persistence.Pairing{
		Topic:          p.Topic,
		SymKey:         p.SymKey,
		RelayProtocol:  p.RelayProtocol,
		Expiry:         expiry,
		CreatedAtEpoch: now.Unix(),
	}
	if err := r.store.SavePairing(pairing); err != nil {
		return nil, fmt.Errorf("failed to save pairing: %w", err)
	}
	r.pairings[p.Topic] = pairing

	r.logger.Sugar().Infow("Paired", zap.String("pairingTopic", p.Topic), zap.Int64("expiry", expiry))
	cp := *pairing
	return &cp, nil
}

func (r *Relay) Events() <-chan transport.Event {
	return r.events
}

func (r *Relay) ApproveSession(ctx context.Context, proposalID uint64, namespaces types.Namespaces) (*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.proposals[proposalID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", transport.ErrUnknownProposal, proposalID)
	}
	now := r.now()
	if now.Unix() >= w.proposal.Expiry {
		delete(r.proposals, proposalID)
		return nil, fmt.Errorf("%w: %d", transport.ErrProposalExpired, proposalID)
	}

	// The proposal stays open on failure so the caller can still reject it.
	if err := types.ValidateNamespacesSatisfy(w.proposal.RequiredNamespaces, namespaces); err != nil {
		return nil, fmt.Errorf("failed to approve proposal %d: %w", proposalID, err)
	}

	session := &types.Session{
		Topic:        newTopic(),
		PairingTopic: w.proposal.PairingTopic,
		Namespaces:   namespaces,
		Peer:         w.proposal.Proposer,
		Expiry:       now.Add(r.cfg.SessionExpiry).Unix(),
		Acknowledged: true,
	}
	if err := r.store.SaveSession(session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if pairing, ok := r.pairings[session.PairingTopic]; ok {
		pairing.Active = true
		pairing.PeerName = session.Peer.Name
		if err := r.store.SavePairing(pairing); err != nil {
			r.logger.Sugar().Warnw("Failed to activate pairing", zap.String("pairingTopic", pairing.Topic), zap.Error(err))
		}
	}
	r.sessions[session.Topic] = session

	delete(r.proposals, proposalID)
	w.done <- proposalOutcome{session: cloneSession(session)}

	r.logger.Sugar().Infow("Session approved",
		zap.Uint64("proposalId", proposalID),
		zap.String("topic", session.Topic),
		zap.String("peer", session.Peer.Name),
	)
	return cloneSession(session), nil
}

func (r *Relay) RejectSession(ctx context.Context, proposalID uint64, reason types.RpcError) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.proposals[proposalID]
	if !ok {
		return fmt.Errorf("%w: %d", transport.ErrUnknownProposal, proposalID)
	}
	delete(r.proposals, proposalID)
	w.done <- proposalOutcome{reason: &reason}

	r.logger.Sugar().Infow("Session rejected",
		zap.Uint64("proposalId", proposalID),
		zap.Int("code", reason.Code),
		zap.String("reason", reason.Message),
	)
	return nil
}

func (r *Relay) RespondSessionRequest(ctx context.Context, topic string, response types.JsonRpcResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := requestKey{topic: topic, id: response.ID}
	waiter, ok := r.requests[key]
	if !ok {
		return fmt.Errorf("%w: %d on %s", transport.ErrUnknownRequest, response.ID, topic)
	}
	delete(r.requests, key)

	response.JsonRpc = "2.0"
	waiter <- response
	return nil
}

func (r *Relay) DisconnectSession(ctx context.Context, topic string, reason types.RpcError) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.removeSessionLocked(topic, reason); err != nil {
		return err
	}
	r.logger.Sugar().Infow("Session disconnected",
		zap.String("topic", topic),
		zap.Int("code", reason.Code),
		zap.String("reason", reason.Message),
	)
	return nil
}

func (r *Relay) GetActiveSessions(ctx context.Context) ([]*types.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil, transport.ErrNotInitialized
	}
	now := r.now().Unix()
	sessions := make([]*types.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.Expiry > now {
			sessions = append(sessions, cloneSession(s))
		}
	}
	persistence.SortSessions(sessions)
	return sessions, nil
}

// propose registers a proposal on a known pairing, hands it to the wallet and
// waits for the decision. The returned RpcError is set when the wallet rejected.
func (r *Relay) propose(ctx context.Context, req ProposeRequest) (*types.Session, *types.RpcError, error) {
	r.mu.Lock()
	if !r.initialized {
		r.mu.Unlock()
		return nil, nil, transport.ErrNotInitialized
	}
	now := r.now()
	pairing, ok := r.pairings[req.PairingTopic]
	if !ok {
		r.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", transport.ErrUnknownPairing, req.PairingTopic)
	}
	if pairing.IsExpired(now) {
		r.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %s", transport.ErrPairingExpired, req.PairingTopic)
	}

	r.lastID++
	proposal := &types.Proposal{
		ID:                 r.lastID,
		PairingTopic:       req.PairingTopic,
		Proposer:           req.Proposer,
		RequiredNamespaces: req.RequiredNamespaces,
		OptionalNamespaces: req.OptionalNamespaces,
		Expiry:             now.Add(r.cfg.ProposalTimeout).Unix(),
	}
	w := &proposalWaiter{proposal: proposal, done: make(chan proposalOutcome, 1)}
	r.proposals[proposal.ID] = w
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.cfg.ProposalTimeout)
	defer cancel()

	if err := r.emit(ctx, transport.NewProposalEvent(proposal)); err != nil {
		r.dropProposal(proposal.ID)
		return nil, nil, err
	}

	select {
	case out := <-w.done:
		return out.session, out.reason, nil
	case <-ctx.Done():
		r.dropProposal(proposal.ID)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil, fmt.Errorf("%w: %d", transport.ErrProposalExpired, proposal.ID)
		}
		return nil, nil, ctx.Err()
	}
}

func (r *Relay) dropProposal(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.proposals, id)
}

// request forwards a session request to the wallet and waits for its response.
func (r *Relay) request(ctx context.Context, topic, chainID string, req types.JsonRpcRequest) (types.JsonRpcResponse, error) {
	r.mu.Lock()
	session, ok := r.sessions[topic]
	if !ok || session.Expiry <= r.now().Unix() {
		r.mu.Unlock()
		return types.JsonRpcResponse{}, fmt.Errorf("%w: %s", transport.ErrUnknownSession, topic)
	}
	if req.ID == 0 {
		r.lastID++
		req.ID = r.lastID
	}
	key := requestKey{topic: topic, id: req.ID}
	if _, exists := r.requests[key]; exists {
		r.mu.Unlock()
		return types.JsonRpcResponse{}, fmt.Errorf("%w: %d", errDuplicateRequest, req.ID)
	}
	waiter := make(chan types.JsonRpcResponse, 1)
	r.requests[key] = waiter
	pending := &types.PendingRequest{
		ID:         req.ID,
		Topic:      topic,
		Method:     req.Method,
		Params:     req.Params,
		ChainID:    chainID,
		ReceivedAt: r.now(),
	}
	r.mu.Unlock()

	if r.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RequestTimeout)
		defer cancel()
	}

	if err := r.emit(ctx, transport.NewRequestEvent(pending)); err != nil {
		r.dropRequest(key)
		return types.JsonRpcResponse{}, err
	}

	select {
	case resp := <-waiter:
		return resp, nil
	case <-ctx.Done():
	}

	if !r.dropRequest(key) {
		// answered while the deadline fired
		return <-waiter, nil
	}
	r.logger.Sugar().Infow("Session request expired",
		zap.String("topic", topic),
		zap.Uint64("id", req.ID),
		zap.Error(ctx.Err()),
	)
	notifyCtx, cancel := context.WithTimeout(context.Background(), expiryNotifyTimeout)
	defer cancel()
	if err := r.emit(notifyCtx, transport.NewRequestExpiredEvent(topic, req.ID)); err != nil {
		r.logger.Sugar().Warnw("Failed to report expired request", zap.Uint64("id", req.ID), zap.Error(err))
	}
	return types.JsonRpcResponse{}, ctx.Err()
}

// dropRequest forgets the waiter for key and reports whether it was still there.
func (r *Relay) dropRequest(key requestKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[key]; !ok {
		return false
	}
	delete(r.requests, key)
	return true
}

// deleteSession is the dApp hanging up: the session is removed and the wallet
// is told through EventSessionDeleted.
func (r *Relay) deleteSession(ctx context.Context, topic string) error {
	r.mu.Lock()
	err := r.removeSessionLocked(topic, types.DisconnectedError)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.logger.Sugar().Infow("Session deleted by peer", zap.String("topic", topic))
	return r.emit(ctx, transport.NewSessionDeletedEvent(topic))
}

// removeSessionLocked forgets the session and fails its in-flight requests with reason.
func (r *Relay) removeSessionLocked(topic string, reason types.RpcError) error {
	if _, ok := r.sessions[topic]; !ok {
		return fmt.Errorf("%w: %s", transport.ErrUnknownSession, topic)
	}
	delete(r.sessions, topic)
	if err := r.store.DeleteSession(topic); err != nil {
		r.logger.Sugar().Warnw("Failed to delete persisted session", zap.String("topic", topic), zap.Error(err))
	}

	for key, waiter := range r.requests {
		if key.topic != topic {
			continue
		}
		delete(r.requests, key)
		waiter <- types.NewErrorResponse(key.id, reason)
	}
	return nil
}

func (r *Relay) emit(ctx context.Context, ev transport.Event) error {
	select {
	case r.events <- ev:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to deliver %s: %w", ev.Kind, ctx.Err())
	}
}

// newTopic returns 32 random bytes as hex, the shape of a session topic.
func newTopic() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func cloneSession(s *types.Session) *types.Session {
	cp := *s
	cp.Namespaces = make(types.Namespaces, len(s.Namespaces))
	for k, ns := range s.Namespaces {
		cp.Namespaces[k] = ns
	}
	return &cp
}

var _ transport.ITransport = (*Relay)(nil)
