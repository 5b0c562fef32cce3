package transactionSigner

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// PrivateKeySigner implements ITransactionSigner with an in-process key
type PrivateKeySigner struct {
	ethClient   EthClient
	logger      *zap.Logger
	chainID     *big.Int
	privateKey  *ecdsa.PrivateKey
	fromAddress common.Address
}

func NewPrivateKeySigner(privateKeyHex string, ethClient EthClient, logger *zap.Logger) (*PrivateKeySigner, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	chainID, err := ethClient.ChainID(context.Background())
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}

	return &PrivateKeySigner{
		ethClient:   ethClient,
		logger:      logger,
		chainID:     chainID,
		privateKey:  privateKey,
		fromAddress: crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

func (pks *PrivateKeySigner) GetTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return unsignedTransactOpts(ctx, pks.fromAddress), nil
}

func (pks *PrivateKeySigner) SignAndSendTransaction(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	if tx.To() == nil {
		return nil, fmt.Errorf("contract creation is not supported")
	}

	fees, err := estimateFees(ctx, pks.ethClient, pks.chainID, pks.fromAddress, tx, pks.logger)
	if err != nil {
		return nil, err
	}

	signedTx, err := types.SignNewTx(pks.privateKey, types.LatestSignerForChainID(pks.chainID), &types.DynamicFeeTx{
		ChainID:   pks.chainID,
		Nonce:     fees.nonce,
		GasTipCap: fees.gasTipCap,
		GasFeeCap: fees.gasFeeCap,
		Gas:       fees.gasLimit,
		To:        tx.To(),
		Value:     tx.Value(),
		Data:      tx.Data(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	pks.logger.Info("SignAndSendTransaction: sending transaction",
		zap.String("to", tx.To().Hex()),
		zap.String("maxPriorityFeePerGas", fees.gasTipCap.String()),
		zap.String("maxFeePerGas", fees.gasFeeCap.String()),
		zap.String("baseFee", fees.baseFee.String()),
		zap.Uint64("gasLimit", fees.gasLimit),
		zap.Uint64("nonce", fees.nonce),
	)

	if err := pks.ethClient.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	pks.logger.Info("SignAndSendTransaction: transaction sent",
		zap.String("txHash", signedTx.Hash().Hex()),
	)
	return signedTx, nil
}

func (pks *PrivateKeySigner) WaitForReceipt(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	return waitForReceipt(ctx, pks.ethClient, tx, pks.logger)
}

func (pks *PrivateKeySigner) GetFromAddress() common.Address {
	return pks.fromAddress
}
