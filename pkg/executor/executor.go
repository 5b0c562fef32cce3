// Package executor executes dApp transactions through a 1-of-N Safe using the
// owner's pre-validated signature.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/Layr-Labs/safe-connect-go/pkg/safe"
	"github.com/Layr-Labs/safe-connect-go/pkg/signatures"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// ErrPreValidatedNotAllowed is returned when a single owner's pre-validated
// signature cannot satisfy the Safe on its own.
var ErrPreValidatedNotAllowed = errors.New("pre-validated execution requires threshold 1 and the signer to be an owner")

// TransactionParams are the eth_sendTransaction fields the Safe executes.
type TransactionParams struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

type Executor struct {
	logger *zap.Logger
}

func NewExecutor(logger *zap.Logger) *Executor {
	return &Executor{logger: logger}
}

// ExecuteTransaction runs params as a Safe call signed only by signer's
// pre-validated signature and returns the mined transaction hash.
func (e *Executor) ExecuteTransaction(ctx context.Context, s safe.ISafe, signer common.Address, params TransactionParams) (common.Hash, error) {
	threshold, err := s.GetThreshold(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	isOwner, err := s.IsOwner(ctx, signer)
	if err != nil {
		return common.Hash{}, err
	}
	if threshold != 1 || !isOwner {
		return common.Hash{}, fmt.Errorf("%w: threshold=%d owner=%t", ErrPreValidatedNotAllowed, threshold, isOwner)
	}

	value := params.Value
	if value == nil {
		value = big.NewInt(0)
	}
	data := params.Data
	if data == nil {
		data = []byte{}
	}

	tx, err := s.CreateTransaction(ctx, safe.TransactionData{
		To:        params.To,
		Value:     value,
		Data:      data,
		Operation: safe.OperationCall,
	}, true)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to create Safe transaction: %w", err)
	}
	tx.AddSignature(signer, signatures.PreValidatedSignature(signer))

	e.logger.Sugar().Infow("Executing pre-validated Safe transaction",
		zap.String("safe", s.GetAddress().Hex()),
		zap.String("signer", signer.Hex()),
		zap.String("to", params.To.Hex()),
		zap.String("value", value.String()),
	)

	result, err := s.ExecuteTransaction(ctx, tx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to execute Safe transaction: %w", err)
	}

	receipt, err := result.TransactionResponse.Wait(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed waiting for Safe transaction %s: %w", result.Hash.Hex(), err)
	}

	e.logger.Sugar().Infow("Safe transaction mined",
		zap.String("txHash", receipt.TxHash.Hex()),
	)
	return receipt.TxHash, nil
}
