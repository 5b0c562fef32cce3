package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"go.uber.org/zap"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts     int
	InitialBackoff  time.Duration
	MaxBackoff      time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides default retry settings
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialBackoff:  100 * time.Millisecond,
	MaxBackoff:      5 * time.Second,
	BackoffMultiple: 2.0,
}

// StatusError is a non-2xx answer from the relay.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the relay's HTTP bridge as a dApp would. Only idempotent
// calls (Pair, ListSessions) are retried.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig RetryConfig
	logger      *zap.Logger
}

func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{},
		retryConfig: DefaultRetryConfig,
		logger:      logger,
	}
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) SetRetryConfig(cfg RetryConfig) {
	c.retryConfig = cfg
}

func (c *Client) Pair(ctx context.Context, uri string) (*PairResponse, error) {
	var resp PairResponse
	if err := c.doWithRetry(ctx, http.MethodPost, "/v1/pair", PairRequest{URI: uri}, &resp); err != nil {
		return nil, fmt.Errorf("failed to pair: %w", err)
	}
	return &resp, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]*types.Session, error) {
	var sessions []*types.Session
	if err := c.doWithRetry(ctx, http.MethodGet, "/v1/sessions", nil, &sessions); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Propose blocks until the wallet decides. A rejection is returned as *types.RpcError.
func (c *Client) Propose(ctx context.Context, req ProposeRequest) (*types.Session, error) {
	var resp ProposeResponse
	if err := c.do(ctx, http.MethodPost, "/v1/proposals", req, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// Request sends a session request and returns the wallet's JSON-RPC response.
func (c *Client) Request(ctx context.Context, topic, chainID string, req types.JsonRpcRequest) (*types.JsonRpcResponse, error) {
	if req.JsonRpc == "" {
		req.JsonRpc = "2.0"
	}
	var resp types.JsonRpcResponse
	path := fmt.Sprintf("/v1/sessions/%s/requests", url.PathEscape(topic))
	if err := c.do(ctx, http.MethodPost, path, SessionRequest{ChainID: chainID, Request: req}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Disconnect(ctx context.Context, topic string) error {
	return c.do(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(topic), nil, nil)
}

func (c *Client) doWithRetry(ctx context.Context, method, path string, body, out any) error {
	backoff := c.retryConfig.InitialBackoff
	var lastErr error
	for attempt := 0; attempt < c.retryConfig.MaxAttempts; attempt++ {
		lastErr = c.do(ctx, method, path, body, out)
		if lastErr == nil || !retryable(lastErr) {
			return lastErr
		}

		if attempt < c.retryConfig.MaxAttempts-1 {
			c.logger.Sugar().Debugw("Retrying relay call",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(float64(backoff) * c.retryConfig.BackoffMultiple)
			if backoff > c.retryConfig.MaxBackoff {
				backoff = c.retryConfig.MaxBackoff
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", c.retryConfig.MaxAttempts, lastErr)
}

// retryable is true for connection failures and throttling.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode == http.StatusServiceUnavailable
	}
	var rpcErr *types.RpcError
	return !errors.As(err, &rpcErr)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call relay: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var errResp ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.RpcError != nil {
			return errResp.RpcError
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: errResp.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
