// Package safe wraps a deployed Safe contract for reading its configuration
// and executing transactions through it.
package safe

import (
	"context"
	"math/big"
	"strings"

	SafeBinding "github.com/Layr-Labs/safe-connect-go/pkg/bindings/Safe"
	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/transactionSigner"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethereumTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrDelegateCallNotAllowed = errors.New("delegate calls are not allowed")
	ErrExecutionFailed        = errors.New("safe transaction execution failed")
)

// ISafe is the subset of a Safe needed to execute owner-approved transactions.
type ISafe interface {
	GetAddress() common.Address
	GetContractVersion(ctx context.Context) (config.SafeVersion, error)
	GetThreshold(ctx context.Context) (uint64, error)
	IsOwner(ctx context.Context, address common.Address) (bool, error)
	CreateTransaction(ctx context.Context, data TransactionData, onlyCalls bool) (*SafeTransaction, error)
	ExecuteTransaction(ctx context.Context, tx *SafeTransaction) (*ExecutionResult, error)
}

// Backend is the chain access a Safe needs: contract calls plus raw storage reads.
type Backend interface {
	bind.ContractBackend
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

// TransactionResponse is a submitted execTransaction call.
type TransactionResponse struct {
	Hash common.Hash
	wait func(ctx context.Context) (*ethereumTypes.Receipt, error)
}

func NewTransactionResponse(hash common.Hash, wait func(ctx context.Context) (*ethereumTypes.Receipt, error)) *TransactionResponse {
	return &TransactionResponse{Hash: hash, wait: wait}
}

// Wait blocks until the transaction is mined.
func (tr *TransactionResponse) Wait(ctx context.Context) (*ethereumTypes.Receipt, error) {
	return tr.wait(ctx)
}

type ExecutionResult struct {
	Hash                common.Hash
	TransactionResponse *TransactionResponse
}

type Safe struct {
	address  common.Address
	chainID  config.ChainId
	backend  Backend
	contract *SafeBinding.Safe
	signer   transactionSigner.ITransactionSigner
	logger   *zap.Logger
}

func NewSafe(
	address common.Address,
	chainID config.ChainId,
	backend Backend,
	signer transactionSigner.ITransactionSigner,
	logger *zap.Logger,
) (*Safe, error) {
	contract, err := SafeBinding.NewSafe(address, backend)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to bind Safe at %s", address.Hex())
	}
	return &Safe{
		address:  address,
		chainID:  chainID,
		backend:  backend,
		contract: contract,
		signer:   signer,
		logger:   logger,
	}, nil
}

func (s *Safe) GetAddress() common.Address {
	return s.address
}

func (s *Safe) GetContractVersion(ctx context.Context) (config.SafeVersion, error) {
	version, err := s.contract.VERSION(&bind.CallOpts{Context: ctx})
	if err != nil {
		return "", errors.Wrapf(err, "failed to read VERSION of Safe %s", s.address.Hex())
	}
	return config.SafeVersion(version), nil
}

func (s *Safe) GetThreshold(ctx context.Context) (uint64, error) {
	threshold, err := s.contract.GetThreshold(&bind.CallOpts{Context: ctx})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read threshold of Safe %s", s.address.Hex())
	}
	if !threshold.IsUint64() {
		return 0, errors.Errorf("threshold %s of Safe %s out of range", threshold, s.address.Hex())
	}
	return threshold.Uint64(), nil
}

func (s *Safe) GetOwners(ctx context.Context) ([]common.Address, error) {
	owners, err := s.contract.GetOwners(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read owners of Safe %s", s.address.Hex())
	}
	return owners, nil
}

func (s *Safe) IsOwner(ctx context.Context, address common.Address) (bool, error) {
	isOwner, err := s.contract.IsOwner(&bind.CallOpts{Context: ctx}, address)
	if err != nil {
		return false, errors.Wrapf(err, "failed to check owner %s of Safe %s", address.Hex(), s.address.Hex())
	}
	return isOwner, nil
}

func (s *Safe) GetNonce(ctx context.Context) (*big.Int, error) {
	nonce, err := s.contract.Nonce(&bind.CallOpts{Context: ctx})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read nonce of Safe %s", s.address.Hex())
	}
	return nonce, nil
}

// CreateTransaction builds a Safe transaction at the current nonce with no
// gas refund. onlyCalls rejects delegate calls.
func (s *Safe) CreateTransaction(ctx context.Context, data TransactionData, onlyCalls bool) (*SafeTransaction, error) {
	if onlyCalls && data.Operation != OperationCall {
		return nil, ErrDelegateCallNotAllowed
	}

	nonce, err := s.GetNonce(ctx)
	if err != nil {
		return nil, err
	}

	value := data.Value
	if value == nil {
		value = big.NewInt(0)
	}
	callData := data.Data
	if callData == nil {
		callData = []byte{}
	}

	return NewSafeTransaction(SafeTransactionData{
		To:             data.To,
		Value:          value,
		Data:           callData,
		Operation:      data.Operation,
		SafeTxGas:      big.NewInt(0),
		BaseGas:        big.NewInt(0),
		GasPrice:       big.NewInt(0),
		GasToken:       common.Address{},
		RefundReceiver: common.Address{},
		Nonce:          nonce,
	}), nil
}

// GetTransactionHash asks the Safe for the EIP-712 hash of tx.
func (s *Safe) GetTransactionHash(ctx context.Context, tx *SafeTransaction) (common.Hash, error) {
	d := tx.Data
	hash, err := s.contract.GetTransactionHash(&bind.CallOpts{Context: ctx},
		d.To, d.Value, d.Data, uint8(d.Operation), d.SafeTxGas, d.BaseGas, d.GasPrice, d.GasToken, d.RefundReceiver, d.Nonce)
	if err != nil {
		return common.Hash{}, errors.Wrapf(err, "failed to get transaction hash from Safe %s", s.address.Hex())
	}
	return common.Hash(hash), nil
}

// ExecuteTransaction submits execTransaction with the collected signatures
// from the configured owner account.
func (s *Safe) ExecuteTransaction(ctx context.Context, tx *SafeTransaction) (*ExecutionResult, error) {
	if tx.SignatureCount() == 0 {
		return nil, errors.New("safe transaction has no signatures")
	}

	opts, err := s.signer.GetTransactOpts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build transaction options")
	}

	d := tx.Data
	unsigned, err := s.contract.ExecTransaction(opts,
		d.To, d.Value, d.Data, uint8(d.Operation), d.SafeTxGas, d.BaseGas, d.GasPrice, d.GasToken, d.RefundReceiver,
		tx.EncodedSignatures(),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build execTransaction for Safe %s", s.address.Hex())
	}

	s.logger.Sugar().Infow("Executing Safe transaction",
		zap.String("safe", s.address.Hex()),
		zap.String("from", s.signer.GetFromAddress().Hex()),
		zap.String("to", d.To.Hex()),
		zap.String("value", d.Value.String()),
		zap.String("nonce", d.Nonce.String()),
	)

	sent, err := s.signer.SignAndSendTransaction(ctx, unsigned)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send execTransaction for Safe %s", s.address.Hex())
	}

	response := &TransactionResponse{
		Hash: sent.Hash(),
		wait: func(ctx context.Context) (*ethereumTypes.Receipt, error) {
			receipt, err := s.signer.WaitForReceipt(ctx, sent)
			if err != nil {
				return nil, err
			}
			if err := s.checkExecutionLogs(receipt); err != nil {
				return nil, err
			}
			return receipt, nil
		},
	}
	return &ExecutionResult{Hash: sent.Hash(), TransactionResponse: response}, nil
}

// checkExecutionLogs fails when the Safe emitted ExecutionFailure, which
// happens without a revert when safeTxGas or gasPrice is set.
func (s *Safe) checkExecutionLogs(receipt *ethereumTypes.Receipt) error {
	for _, log := range receipt.Logs {
		if log == nil || log.Address != s.address {
			continue
		}
		if failure, err := s.contract.ParseExecutionFailure(*log); err == nil {
			return errors.Wrapf(ErrExecutionFailed, "safeTxHash %s", common.Hash(failure.TxHash).Hex())
		}
	}
	return nil
}

// singletonSlot is storage slot 0, which holds the proxy's master copy.
var singletonSlot = common.Hash{}

// VerifySingleton reads the proxy's singleton and warns when it is not a known
// Safe master copy for the chain. It returns the singleton address.
func (s *Safe) VerifySingleton(ctx context.Context, version config.SafeVersion) (common.Address, error) {
	raw, err := s.backend.StorageAt(ctx, s.address, singletonSlot, nil)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "failed to read singleton of Safe %s", s.address.Hex())
	}
	singleton := common.BytesToAddress(raw)

	contracts, err := config.GetSafeContractsForChain(s.chainID, version)
	if err != nil {
		s.logger.Sugar().Warnw("No known Safe contracts for chain, skipping singleton check",
			zap.Uint("chainId", uint(s.chainID)),
			zap.String("version", version.String()),
		)
		return singleton, nil
	}

	if !strings.EqualFold(singleton.Hex(), contracts.SafeMasterCopy) {
		s.logger.Sugar().Warnw("Safe singleton does not match known master copy",
			zap.String("safe", s.address.Hex()),
			zap.String("singleton", singleton.Hex()),
			zap.String("expected", contracts.SafeMasterCopy),
		)
	}
	return singleton, nil
}

var _ ISafe = (*Safe)(nil)
