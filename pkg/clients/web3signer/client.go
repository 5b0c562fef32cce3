package web3signer

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// Config holds the connection settings for a Web3Signer instance.
type Config struct {
	BaseUrl string
	Timeout time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BaseUrl: "http://localhost:9000",
		Timeout: 30 * time.Second,
	}
}

// Client talks to Web3Signer's Ethereum JSON-RPC endpoint.
type Client struct {
	config     *Config
	logger     *zap.Logger
	mu         sync.Mutex
	httpClient *http.Client
	rpcClient  *rpc.Client
}

func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := &Client{
		config: cfg,
		logger: logger,
	}
	c.SetHttpClient(&http.Client{Timeout: cfg.Timeout})
	return c, nil
}

// NewWeb3SignerClientFromRemoteSignerConfig builds a client from the remote
// signer section of the service config, wiring mTLS when certs are given.
func NewWeb3SignerClientFromRemoteSignerConfig(rsc *config.RemoteSignerConfig, logger *zap.Logger) (*Client, error) {
	cfg := DefaultConfig()
	if rsc == nil {
		return NewClient(cfg, logger)
	}
	if rsc.Url != "" {
		cfg.BaseUrl = rsc.Url
	}

	client, err := NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	if rsc.CACert == "" && rsc.Cert == "" {
		return client, nil
	}

	tlsConfig, err := buildTLSConfig(rsc)
	if err != nil {
		return nil, fmt.Errorf("failed to build TLS config: %w", err)
	}
	client.SetHttpClient(&http.Client{
		Timeout:   cfg.Timeout,
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	})
	return client, nil
}

func buildTLSConfig(rsc *config.RemoteSignerConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	if rsc.CACert != "" {
		caPEM, err := readPEM(rsc.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("no certificates found in CA cert")
		}
		tlsConfig.RootCAs = pool
	}

	if rsc.Cert != "" || rsc.Key != "" {
		certPEM, err := readPEM(rsc.Cert)
		if err != nil {
			return nil, fmt.Errorf("failed to read client cert: %w", err)
		}
		keyPEM, err := readPEM(rsc.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to read client key: %w", err)
		}
		cert, err := tls.X509KeyPair(certPEM, keyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to load client key pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

// readPEM accepts either inline PEM data or a path to a PEM file.
func readPEM(value string) ([]byte, error) {
	if strings.HasPrefix(value, "-----BEGIN") {
		return []byte(value), nil
	}
	return os.ReadFile(value)
}

func (c *Client) SetHttpClient(client *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.httpClient = client
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}

func (c *Client) dial(ctx context.Context) (*rpc.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpcClient != nil {
		return c.rpcClient, nil
	}
	rc, err := rpc.DialOptions(ctx, c.config.BaseUrl, rpc.WithHTTPClient(c.httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to dial web3signer at %s: %w", c.config.BaseUrl, err)
	}
	c.rpcClient = rc
	return rc, nil
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	rc, err := c.dial(ctx)
	if err != nil {
		return err
	}
	c.logger.Sugar().Debugw("web3signer request", "method", method)
	if err := rc.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("web3signer %s failed: %w", method, err)
	}
	return nil
}

func (c *Client) EthAccounts(ctx context.Context) ([]string, error) {
	var accounts []string
	if err := c.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *Client) EthSignTransaction(ctx context.Context, from string, transaction map[string]interface{}) (string, error) {
	tx := make(map[string]interface{}, len(transaction)+1)
	for k, v := range transaction {
		tx[k] = v
	}
	tx["from"] = from

	var signed string
	if err := c.call(ctx, &signed, "eth_signTransaction", tx); err != nil {
		return "", err
	}
	return signed, nil
}

func (c *Client) EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error) {
	var sig string
	if err := c.call(ctx, &sig, "eth_signTypedData", account, typedData); err != nil {
		return "", err
	}
	return sig, nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rpcClient != nil {
		c.rpcClient.Close()
		c.rpcClient = nil
	}
}
