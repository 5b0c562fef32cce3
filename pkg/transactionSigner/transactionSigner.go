package transactionSigner

import (
	"context"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// ITransactionSigner signs and submits transactions as the Safe owner
type ITransactionSigner interface {
	// GetTransactOpts returns transaction options for creating unsigned transactions
	GetTransactOpts(ctx context.Context) (*bind.TransactOpts, error)

	// SignAndSendTransaction fills fees, gas and nonce for tx, signs it and sends it to the network
	SignAndSendTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error)

	// WaitForReceipt blocks until tx is mined and fails if it reverted
	WaitForReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)

	// GetFromAddress returns the address that will be used for signing
	GetFromAddress() common.Address
}

// EthClient is the subset of *ethclient.Client the signers need.
type EthClient interface {
	bind.DeployBackend
	ChainID(ctx context.Context) (*big.Int, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type SignerConfig struct {
	PrivateKey string `json:"privateKey" yaml:"privateKey"`
}

func NewTransactionSigner(cfg *SignerConfig, ethClient EthClient, logger *zap.Logger) (ITransactionSigner, error) {
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}

	return NewPrivateKeySigner(cfg.PrivateKey, ethClient, logger)
}

// feeParams are the EIP-1559 values used for an outgoing transaction
type feeParams struct {
	gasTipCap *big.Int
	gasFeeCap *big.Int
	baseFee   *big.Int
	gasLimit  uint64
	nonce     uint64
}

// estimateFees computes tip, fee cap, gas limit and nonce for a transaction
// from `from` with the given destination, value and calldata.
func estimateFees(ctx context.Context, ethClient EthClient, chainID *big.Int, from common.Address, tx *types.Transaction, logger *zap.Logger) (*feeParams, error) {
	var fallbackGasTipCap *big.Int
	var baseFeeMultiplier int64

	if config.IsEthereum(config.ChainId(chainID.Uint64())) {
		fallbackGasTipCap = big.NewInt(1500000000) // 1.5 gwei
		baseFeeMultiplier = 3
	} else {
		fallbackGasTipCap = big.NewInt(1000000) // 0.001 gwei on L2s
		baseFeeMultiplier = 2
	}

	gasTipCap, err := ethClient.SuggestGasTipCap(ctx)
	if err != nil {
		// backends without eth_maxPriorityFeePerGas
		logger.Sugar().Warnw("cannot get gasTipCap, using fallback",
			zap.Error(err),
		)
		gasTipCap = fallbackGasTipCap
	}

	header, err := ethClient.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block header: %w", err)
	}
	baseFee := header.BaseFee
	if baseFee == nil {
		baseFee = big.NewInt(0)
	}

	maxFeePerGas := new(big.Int).Add(
		new(big.Int).Mul(baseFee, big.NewInt(baseFeeMultiplier)),
		gasTipCap,
	)

	gasLimit, err := ethClient.EstimateGas(ctx, ethereum.CallMsg{
		From:      from,
		To:        tx.To(),
		GasTipCap: gasTipCap,
		GasFeeCap: maxFeePerGas,
		Value:     tx.Value(),
		Data:      tx.Data(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	// tx.Nonce() of 0 is ambiguous, always ask the network
	nonce, err := ethClient.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	return &feeParams{
		gasTipCap: gasTipCap,
		gasFeeCap: maxFeePerGas,
		baseFee:   baseFee,
		gasLimit:  addGasBuffer(gasLimit),
		nonce:     nonce,
	}, nil
}

// addGasBuffer adds 20% to the estimated gas limit
func addGasBuffer(gasLimit uint64) uint64 {
	return gasLimit * 12 / 10
}

// waitForReceipt waits for tx to be mined and checks its status
func waitForReceipt(ctx context.Context, ethClient EthClient, tx *types.Transaction, logger *zap.Logger) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, ethClient, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for transaction receipt: %w", err)
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		logger.Error("transaction failed",
			zap.String("txHash", receipt.TxHash.Hex()),
			zap.Uint64("status", receipt.Status),
			zap.Uint64("gasUsed", receipt.GasUsed),
		)
		return nil, fmt.Errorf("transaction %s failed with status %d", receipt.TxHash.Hex(), receipt.Status)
	}

	fields := []zap.Field{
		zap.String("txHash", receipt.TxHash.Hex()),
		zap.Uint64("gasUsed", receipt.GasUsed),
	}
	if receipt.BlockNumber != nil {
		fields = append(fields, zap.Uint64("blockNumber", receipt.BlockNumber.Uint64()))
	}
	logger.Info("transaction succeeded", fields...)
	return receipt, nil
}

// unsignedTransactOpts returns opts whose Signer leaves the transaction
// unsigned; signing happens in SignAndSendTransaction.
func unsignedTransactOpts(ctx context.Context, from common.Address) *bind.TransactOpts {
	return &bind.TransactOpts{
		From:    from,
		Context: ctx,
		NoSend:  true,
		Signer: func(address common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}
}
