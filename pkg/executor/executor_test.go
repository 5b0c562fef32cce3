package executor

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/safe"
	"github.com/Layr-Labs/safe-connect-go/pkg/signatures"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	testSafeAddress = common.HexToAddress("0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1")
	testOwner       = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	minedHash       = common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
)

type fakeSafe struct {
	threshold uint64
	owners    map[common.Address]bool
	created   *safe.TransactionData
	executed  *safe.SafeTransaction
	execErr   error
	waitErr   error
}

func newFakeSafe() *fakeSafe {
	return &fakeSafe{threshold: 1, owners: map[common.Address]bool{testOwner: true}}
}

func (f *fakeSafe) GetAddress() common.Address { return testSafeAddress }
func (f *fakeSafe) GetContractVersion(context.Context) (config.SafeVersion, error) {
	return config.SafeVersion_1_3_0, nil
}
func (f *fakeSafe) GetThreshold(context.Context) (uint64, error) { return f.threshold, nil }
func (f *fakeSafe) IsOwner(_ context.Context, a common.Address) (bool, error) {
	return f.owners[a], nil
}
func (f *fakeSafe) CreateTransaction(_ context.Context, data safe.TransactionData, onlyCalls bool) (*safe.SafeTransaction, error) {
	if !onlyCalls {
		return nil, errors.New("expected onlyCalls")
	}
	f.created = &data
	return safe.NewSafeTransaction(safe.SafeTransactionData{
		To:        data.To,
		Value:     data.Value,
		Data:      data.Data,
		Operation: data.Operation,
		Nonce:     big.NewInt(0),
	}), nil
}
func (f *fakeSafe) ExecuteTransaction(_ context.Context, tx *safe.SafeTransaction) (*safe.ExecutionResult, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	f.executed = tx
	return &safe.ExecutionResult{
		Hash: minedHash,
		TransactionResponse: safe.NewTransactionResponse(minedHash, func(context.Context) (*types.Receipt, error) {
			if f.waitErr != nil {
				return nil, f.waitErr
			}
			return &types.Receipt{TxHash: minedHash, Status: types.ReceiptStatusSuccessful}, nil
		}),
	}, nil
}

func Test_ExecuteTransaction(t *testing.T) {
	e := NewExecutor(zaptest.NewLogger(t))
	to := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	t.Run("defaults value and data", func(t *testing.T) {
		s := newFakeSafe()
		hash, err := e.ExecuteTransaction(context.Background(), s, testOwner, TransactionParams{To: to})
		require.NoError(t, err)
		assert.Equal(t, minedHash, hash)

		require.NotNil(t, s.created)
		assert.Equal(t, 0, s.created.Value.Sign())
		assert.Equal(t, []byte{}, s.created.Data)
		assert.Equal(t, safe.OperationCall, s.created.Operation)

		require.NotNil(t, s.executed)
		assert.Equal(t, signatures.PreValidatedSignature(testOwner), s.executed.EncodedSignatures())
	})

	t.Run("passes value and data", func(t *testing.T) {
		s := newFakeSafe()
		_, err := e.ExecuteTransaction(context.Background(), s, testOwner, TransactionParams{
			To:    to,
			Value: big.NewInt(42),
			Data:  []byte{0xca, 0xfe},
		})
		require.NoError(t, err)
		assert.Equal(t, big.NewInt(42), s.created.Value)
		assert.Equal(t, []byte{0xca, 0xfe}, s.created.Data)
	})

	t.Run("threshold above one", func(t *testing.T) {
		s := newFakeSafe()
		s.threshold = 2
		_, err := e.ExecuteTransaction(context.Background(), s, testOwner, TransactionParams{To: to})
		assert.ErrorIs(t, err, ErrPreValidatedNotAllowed)
		assert.Nil(t, s.created)
	})

	t.Run("signer not an owner", func(t *testing.T) {
		s := newFakeSafe()
		_, err := e.ExecuteTransaction(context.Background(), s, common.HexToAddress("0x01"), TransactionParams{To: to})
		assert.ErrorIs(t, err, ErrPreValidatedNotAllowed)
	})

	t.Run("execution error propagates", func(t *testing.T) {
		s := newFakeSafe()
		s.execErr = errors.New("GS013")
		_, err := e.ExecuteTransaction(context.Background(), s, testOwner, TransactionParams{To: to})
		assert.ErrorContains(t, err, "GS013")
	})

	t.Run("wait error propagates", func(t *testing.T) {
		s := newFakeSafe()
		s.waitErr = safe.ErrExecutionFailed
		_, err := e.ExecuteTransaction(context.Background(), s, testOwner, TransactionParams{To: to})
		assert.ErrorIs(t, err, safe.ErrExecutionFailed)
	})
}
