// Package ownerSigner provides the Safe owner's signing capability for
// EIP-712 typed data.
package ownerSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/Layr-Labs/safe-connect-go/pkg/clients/web3signer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"go.uber.org/zap"
)

// IOwnerSigner signs typed data as one Safe owner.
type IOwnerSigner interface {
	Address() common.Address
	SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error)
}

// PrivateKeyOwnerSigner signs with an in-process key.
type PrivateKeyOwnerSigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	logger     *zap.Logger
}

func NewPrivateKeyOwnerSigner(privateKeyHex string, logger *zap.Logger) (*PrivateKeyOwnerSigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &PrivateKeyOwnerSigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		logger:     logger,
	}, nil
}

func (s *PrivateKeyOwnerSigner) Address() common.Address {
	return s.address
}

// SignTypedData returns a 65 byte signature over the EIP-712 digest with v in {0, 1}.
func (s *PrivateKeyOwnerSigner) SignTypedData(_ context.Context, typedData apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to hash typed data: %w", err)
	}
	sig, err := crypto.Sign(hash, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data: %w", err)
	}
	s.logger.Sugar().Debugw("Signed typed data",
		"signer", s.address.Hex(),
		"primaryType", typedData.PrimaryType,
		"digest", hexutil.Encode(hash),
	)
	return sig, nil
}

// Web3SignerOwnerSigner delegates signing to a remote Web3Signer.
type Web3SignerOwnerSigner struct {
	client  web3signer.IWeb3Signer
	address common.Address
	logger  *zap.Logger
}

func NewWeb3SignerOwnerSigner(client web3signer.IWeb3Signer, address common.Address, logger *zap.Logger) *Web3SignerOwnerSigner {
	return &Web3SignerOwnerSigner{
		client:  client,
		address: address,
		logger:  logger,
	}
}

func (s *Web3SignerOwnerSigner) Address() common.Address {
	return s.address
}

func (s *Web3SignerOwnerSigner) SignTypedData(ctx context.Context, typedData apitypes.TypedData) ([]byte, error) {
	sigHex, err := s.client.EthSignTypedData(ctx, s.address.Hex(), typedData)
	if err != nil {
		return nil, fmt.Errorf("failed to sign typed data with Web3Signer: %w", err)
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Web3Signer signature: %w", err)
	}
	if len(sig) != crypto.SignatureLength {
		return nil, fmt.Errorf("unexpected signature length %d from Web3Signer", len(sig))
	}
	s.logger.Sugar().Debugw("Signed typed data with Web3Signer",
		"signer", s.address.Hex(),
		"primaryType", typedData.PrimaryType,
	)
	return sig, nil
}

var (
	_ IOwnerSigner = (*PrivateKeyOwnerSigner)(nil)
	_ IOwnerSigner = (*Web3SignerOwnerSigner)(nil)
)
