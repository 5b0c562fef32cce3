package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/transport"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"go.uber.org/zap"
)

/*
Server is the dApp side of the relay.

  POST   /v1/pair                      { uri }                       -> { topic, expiry }
  POST   /v1/proposals                 { pairingTopic, proposer, ... } -> { session } once approved
  GET    /v1/sessions                                                -> [ session ]
  POST   /v1/sessions/{topic}/requests { chainId, request }          -> JSON-RPC response
  DELETE /v1/sessions/{topic}                                        -> 204

Proposals and requests block until the wallet answers. A rejected proposal
returns 403 with the wallet's reason in rpcError.
*/
type Server struct {
	relay      *Relay
	httpServer *http.Server
	listener   net.Listener
}

type PairRequest struct {
	URI string `json:"uri"`
}

type PairResponse struct {
	Topic  string `json:"topic"`
	Expiry int64  `json:"expiry"`
}

type ProposeRequest struct {
	PairingTopic       string                   `json:"pairingTopic"`
	Proposer           types.Metadata           `json:"proposer"`
	RequiredNamespaces types.ProposalNamespaces `json:"requiredNamespaces"`
	OptionalNamespaces types.ProposalNamespaces `json:"optionalNamespaces,omitempty"`
}

type ProposeResponse struct {
	Session *types.Session `json:"session"`
}

type SessionRequest struct {
	ChainID string               `json:"chainId"`
	Request types.JsonRpcRequest `json:"request"`
}

type ErrorResponse struct {
	Message  string          `json:"message"`
	RpcError *types.RpcError `json:"rpcError,omitempty"`
}

func NewServer(relay *Relay, port int) *Server {
	s := &Server{relay: relay}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/pair", s.handlePair)
	mux.HandleFunc("POST /v1/proposals", s.handlePropose)
	mux.HandleFunc("GET /v1/sessions", s.handleListSessions)
	mux.HandleFunc("POST /v1/sessions/{topic}/requests", s.handleSessionRequest)
	mux.HandleFunc("DELETE /v1/sessions/{topic}", s.handleDeleteSession)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.rateLimited(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start binds the port and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln

	go func() {
		s.relay.logger.Sugar().Infow("Starting relay HTTP server", "address", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.relay.logger.Sugar().Errorw("Relay HTTP server error", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.relay.limiter.Allow() {
			s.relay.logger.Sugar().Warnw("Relay request rate limited",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote", r.RemoteAddr),
			)
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), nil)
		return
	}

	pairing, err := s.relay.pair(req.URI)
	if err != nil {
		writeError(w, statusFor(err), err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, PairResponse{Topic: pairing.Topic, Expiry: pairing.Expiry})
}

func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), nil)
		return
	}
	if req.PairingTopic == "" {
		writeError(w, http.StatusBadRequest, "pairingTopic is required", nil)
		return
	}

	session, reason, err := s.relay.propose(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err.Error(), nil)
		return
	}
	if reason != nil {
		s.relay.logger.Sugar().Infow("Proposal rejected by wallet",
			zap.String("pairingTopic", req.PairingTopic),
			zap.Int("code", reason.Code),
			zap.String("reason", reason.Message),
		)
		writeError(w, http.StatusForbidden, reason.Message, reason)
		return
	}
	writeJSON(w, http.StatusOK, ProposeResponse{Session: session})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.relay.GetActiveSessions(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleSessionRequest(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")

	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse request: %v", err), nil)
		return
	}
	if req.Request.Method == "" {
		writeError(w, http.StatusBadRequest, "request.method is required", nil)
		return
	}

	resp, err := s.relay.request(r.Context(), topic, req.ChainID, req.Request)
	if err != nil {
		s.relay.logger.Sugar().Debugw("Session request failed",
			zap.String("topic", topic),
			zap.String("method", req.Request.Method),
			zap.Error(err),
		)
		writeError(w, statusFor(err), err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.relay.deleteSession(r.Context(), r.PathValue("topic")); err != nil {
		writeError(w, statusFor(err), err.Error(), nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, transport.ErrInvalidPairingURI):
		return http.StatusBadRequest
	case errors.Is(err, transport.ErrUnknownPairing), errors.Is(err, transport.ErrUnknownSession):
		return http.StatusNotFound
	case errors.Is(err, transport.ErrPairingExists), errors.Is(err, errDuplicateRequest):
		return http.StatusConflict
	case errors.Is(err, transport.ErrPairingExpired):
		return http.StatusGone
	case errors.Is(err, transport.ErrProposalExpired), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, transport.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, rpcErr *types.RpcError) {
	writeJSON(w, status, ErrorResponse{Message: message, RpcError: rpcErr})
}
