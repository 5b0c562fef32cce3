package web3signer

import (
	"context"
	"net/http"
)

// IWeb3Signer defines the interface for interacting with Web3Signer services.
// This interface abstracts the Web3Signer client implementation to allow for
// easier testing and potential alternative implementations.
type IWeb3Signer interface {
	// SetHttpClient allows setting a custom HTTP client for the Web3Signer client.
	SetHttpClient(client *http.Client)

	// EthAccounts returns a list of accounts available for signing.
	// This corresponds to the eth_accounts JSON-RPC method.
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSignTransaction signs a transaction and returns the RLP encoded signed transaction.
	// This corresponds to the eth_signTransaction JSON-RPC method.
	EthSignTransaction(ctx context.Context, from string, transaction map[string]interface{}) (string, error)

	// EthSignTypedData signs EIP-712 typed data with the specified account.
	// This corresponds to the eth_signTypedData JSON-RPC method.
	EthSignTypedData(ctx context.Context, account string, typedData interface{}) (string, error)
}

// Compile-time check to ensure Client implements IWeb3Signer
var _ IWeb3Signer = (*Client)(nil)
