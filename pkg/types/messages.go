package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Error codes sent back to dApps
const (
	ErrCodeUserRejected      = 4001
	ErrCodeUnauthorized      = 4100
	ErrCodeUnsupportedMethod = 4200
	ErrCodeUnsupportedChains = 5100
	ErrCodeUserDisconnected  = 6000
)

// RpcError is a JSON-RPC style error returned to the counterparty.
type RpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

var (
	UserRejectedError = RpcError{Code: ErrCodeUserRejected, Message: "User rejected request"}
	UnauthorizedError = RpcError{Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	WrongChainError   = RpcError{Code: ErrCodeUnsupportedChains, Message: "wrong chain"}
	DisconnectedError = RpcError{Code: ErrCodeUserDisconnected, Message: "User disconnected"}
	ReplacedError     = RpcError{Code: ErrCodeUserDisconnected, Message: "replaced"}
)

// UnsupportedMethodError builds the rejection for methods outside the allow-list.
func UnsupportedMethodError(method string) RpcError {
	return RpcError{Code: ErrCodeUnsupportedMethod, Message: fmt.Sprintf("unsupported method: %s", method)}
}

// JsonRpcRequest is a session request as sent by the dApp.
type JsonRpcRequest struct {
	JsonRpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JsonRpcResponse answers a session request with either a result or an error.
type JsonRpcResponse struct {
	JsonRpc string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RpcError       `json:"error,omitempty"`
}

// NewResultResponse marshals result into a successful response.
func NewResultResponse(id uint64, result any) (JsonRpcResponse, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return JsonRpcResponse{}, fmt.Errorf("failed to marshal result: %w", err)
	}
	return JsonRpcResponse{JsonRpc: "2.0", ID: id, Result: raw}, nil
}

// NewErrorResponse builds an error response.
func NewErrorResponse(id uint64, rpcErr RpcError) JsonRpcResponse {
	return JsonRpcResponse{JsonRpc: "2.0", ID: id, Error: &rpcErr}
}

// PendingRequest is a session request awaiting an answer.
type PendingRequest struct {
	ID         uint64          `json:"id"`
	Topic      string          `json:"topic"`
	Method     string          `json:"method"`
	Params     json.RawMessage `json:"params"`
	ChainID    string          `json:"chainId"`
	ReceivedAt time.Time       `json:"receivedAt"`
}

// ParamList decodes Params as an ordered positional list.
func (r *PendingRequest) ParamList() ([]json.RawMessage, error) {
	if len(r.Params) == 0 {
		return nil, nil
	}
	var params []json.RawMessage
	if err := json.Unmarshal(r.Params, &params); err != nil {
		return nil, fmt.Errorf("params for %s are not a list: %w", r.Method, err)
	}
	return params, nil
}
