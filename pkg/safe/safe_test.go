package safe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	SafeBinding "github.com/Layr-Labs/safe-connect-go/pkg/bindings/Safe"
	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/signatures"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	testSafeAddress = common.HexToAddress("0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1")
	testOwner       = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// fakeBackend answers Safe view calls from fixed values.
type fakeBackend struct {
	abi       *abi.ABI
	version   string
	threshold *big.Int
	owners    []common.Address
	nonce     *big.Int
	storage   map[common.Hash][]byte
	callErr   error
}

func newFakeBackend(t *testing.T) *fakeBackend {
	parsed, err := SafeBinding.SafeMetaData.GetAbi()
	require.NoError(t, err)
	return &fakeBackend{
		abi:       parsed,
		version:   "1.3.0",
		threshold: big.NewInt(1),
		owners:    []common.Address{testOwner},
		nonce:     big.NewInt(3),
		storage:   map[common.Hash][]byte{},
	}
}

func (f *fakeBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.callErr != nil {
		return nil, f.callErr
	}
	method, err := f.abi.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case "VERSION":
		return method.Outputs.Pack(f.version)
	case "getThreshold":
		return method.Outputs.Pack(f.threshold)
	case "getOwners":
		return method.Outputs.Pack(f.owners)
	case "nonce":
		return method.Outputs.Pack(f.nonce)
	case "isOwner":
		args, err := method.Inputs.Unpack(call.Data[4:])
		if err != nil {
			return nil, err
		}
		addr := args[0].(common.Address)
		for _, o := range f.owners {
			if o == addr {
				return method.Outputs.Pack(true)
			}
		}
		return method.Outputs.Pack(false)
	case "getTransactionHash":
		return method.Outputs.Pack([32]byte{0xaa})
	}
	return nil, fmt.Errorf("unexpected call %s", method.Name)
}

func (f *fakeBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1)}, nil
}
func (f *fakeBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return []byte{0x60}, nil
}
func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) { return 0, nil }
func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error)              { return big.NewInt(1), nil }
func (f *fakeBackend) SuggestGasTipCap(context.Context) (*big.Int, error)             { return big.NewInt(1), nil }
func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}
func (f *fakeBackend) SendTransaction(context.Context, *types.Transaction) error {
	return errors.New("backend must not send")
}
func (f *fakeBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}
func (f *fakeBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("not supported")
}
func (f *fakeBackend) StorageAt(_ context.Context, _ common.Address, key common.Hash, _ *big.Int) ([]byte, error) {
	return f.storage[key], nil
}

// fakeSigner records the unsigned execTransaction and returns a receipt.
type fakeSigner struct {
	mu       sync.Mutex
	sent     []*types.Transaction
	sendErr  error
	logs     []*types.Log
	status   uint64
	receipts int
}

func (s *fakeSigner) GetTransactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{
		From:    testOwner,
		Context: ctx,
		NoSend:  true,
		Signer: func(_ common.Address, tx *types.Transaction) (*types.Transaction, error) {
			return tx, nil
		},
	}, nil
}

func (s *fakeSigner) SignAndSendTransaction(_ context.Context, tx *types.Transaction) (*types.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sent = append(s.sent, tx)
	return tx, nil
}

func (s *fakeSigner) WaitForReceipt(_ context.Context, tx *types.Transaction) (*types.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts++
	return &types.Receipt{TxHash: tx.Hash(), Status: types.ReceiptStatusSuccessful, Logs: s.logs}, nil
}

func (s *fakeSigner) GetFromAddress() common.Address { return testOwner }

func newTestSafe(t *testing.T) (*Safe, *fakeBackend, *fakeSigner) {
	backend := newFakeBackend(t)
	signer := &fakeSigner{}
	s, err := NewSafe(testSafeAddress, config.ChainId_Optimism, backend, signer, zaptest.NewLogger(t))
	require.NoError(t, err)
	return s, backend, signer
}

func Test_Safe_Reads(t *testing.T) {
	s, backend, _ := newTestSafe(t)
	ctx := context.Background()

	assert.Equal(t, testSafeAddress, s.GetAddress())

	version, err := s.GetContractVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.SafeVersion_1_3_0, version)

	threshold, err := s.GetThreshold(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), threshold)

	owners, err := s.GetOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{testOwner}, owners)

	isOwner, err := s.IsOwner(ctx, testOwner)
	require.NoError(t, err)
	assert.True(t, isOwner)

	isOwner, err = s.IsOwner(ctx, common.HexToAddress("0x01"))
	require.NoError(t, err)
	assert.False(t, isOwner)

	backend.callErr = errors.New("rpc down")
	_, err = s.GetThreshold(ctx)
	assert.ErrorContains(t, err, "failed to read threshold")
}

func Test_Safe_CreateTransaction(t *testing.T) {
	s, _, _ := newTestSafe(t)
	ctx := context.Background()
	to := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	tx, err := s.CreateTransaction(ctx, TransactionData{To: to}, true)
	require.NoError(t, err)
	assert.Equal(t, to, tx.Data.To)
	assert.Equal(t, 0, tx.Data.Value.Sign())
	assert.Equal(t, []byte{}, tx.Data.Data)
	assert.Equal(t, OperationCall, tx.Data.Operation)
	assert.Equal(t, big.NewInt(3), tx.Data.Nonce)
	assert.Equal(t, 0, tx.Data.SafeTxGas.Sign())

	_, err = s.CreateTransaction(ctx, TransactionData{To: to, Operation: OperationDelegateCall}, true)
	assert.ErrorIs(t, err, ErrDelegateCallNotAllowed)

	tx, err = s.CreateTransaction(ctx, TransactionData{To: to, Operation: OperationDelegateCall}, false)
	require.NoError(t, err)
	assert.Equal(t, OperationDelegateCall, tx.Data.Operation)

	hash, err := s.GetTransactionHash(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, common.Hash{0xaa}, hash)
}

func Test_Safe_ExecuteTransaction(t *testing.T) {
	s, _, signer := newTestSafe(t)
	ctx := context.Background()
	to := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	tx, err := s.CreateTransaction(ctx, TransactionData{To: to, Value: big.NewInt(9), Data: []byte{1, 2}}, true)
	require.NoError(t, err)

	_, err = s.ExecuteTransaction(ctx, tx)
	assert.Error(t, err, "no signatures")

	tx.AddSignature(testOwner, signatures.PreValidatedSignature(testOwner))
	result, err := s.ExecuteTransaction(ctx, tx)
	require.NoError(t, err)

	require.Len(t, signer.sent, 1)
	sent := signer.sent[0]
	assert.Equal(t, testSafeAddress, *sent.To())
	assert.Equal(t, result.Hash, sent.Hash())

	parsed, err := SafeBinding.SafeMetaData.GetAbi()
	require.NoError(t, err)
	method, err := parsed.MethodById(sent.Data()[:4])
	require.NoError(t, err)
	assert.Equal(t, "execTransaction", method.Name)
	args, err := method.Inputs.Unpack(sent.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, to, args[0])
	assert.Equal(t, big.NewInt(9), args[1])
	assert.Equal(t, []byte{1, 2}, args[2])
	assert.Equal(t, uint8(0), args[3])
	assert.Equal(t, signatures.PreValidatedSignature(testOwner), args[9])

	receipt, err := result.TransactionResponse.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, sent.Hash(), receipt.TxHash)
}

func Test_Safe_ExecuteTransaction_Failures(t *testing.T) {
	ctx := context.Background()
	to := common.HexToAddress("0x0000000000000000000000000000000000000abc")

	t.Run("send error", func(t *testing.T) {
		s, _, signer := newTestSafe(t)
		signer.sendErr = errors.New("insufficient funds")
		tx, err := s.CreateTransaction(ctx, TransactionData{To: to}, true)
		require.NoError(t, err)
		tx.AddSignature(testOwner, signatures.PreValidatedSignature(testOwner))
		_, err = s.ExecuteTransaction(ctx, tx)
		assert.ErrorContains(t, err, "insufficient funds")
	})

	t.Run("execution failure event", func(t *testing.T) {
		s, _, signer := newTestSafe(t)
		parsed, err := SafeBinding.SafeMetaData.GetAbi()
		require.NoError(t, err)
		event := parsed.Events["ExecutionFailure"]
		data, err := event.Inputs.Pack([32]byte{0x01}, big.NewInt(0))
		require.NoError(t, err)
		signer.logs = []*types.Log{{
			Address: testSafeAddress,
			Topics:  []common.Hash{event.ID},
			Data:    data,
		}}

		tx, err := s.CreateTransaction(ctx, TransactionData{To: to}, true)
		require.NoError(t, err)
		tx.AddSignature(testOwner, signatures.PreValidatedSignature(testOwner))
		result, err := s.ExecuteTransaction(ctx, tx)
		require.NoError(t, err)
		_, err = result.TransactionResponse.Wait(ctx)
		assert.ErrorIs(t, err, ErrExecutionFailed)
	})

	t.Run("success event from safe is fine", func(t *testing.T) {
		s, _, signer := newTestSafe(t)
		parsed, err := SafeBinding.SafeMetaData.GetAbi()
		require.NoError(t, err)
		event := parsed.Events["ExecutionSuccess"]
		data, err := event.Inputs.Pack([32]byte{0x01}, big.NewInt(0))
		require.NoError(t, err)
		signer.logs = []*types.Log{{Address: testSafeAddress, Topics: []common.Hash{event.ID}, Data: data}}

		tx, err := s.CreateTransaction(ctx, TransactionData{To: to}, true)
		require.NoError(t, err)
		tx.AddSignature(testOwner, signatures.PreValidatedSignature(testOwner))
		result, err := s.ExecuteTransaction(ctx, tx)
		require.NoError(t, err)
		_, err = result.TransactionResponse.Wait(ctx)
		assert.NoError(t, err)
	})
}

func Test_SafeTransaction_EncodedSignatures(t *testing.T) {
	high := common.HexToAddress("0xf000000000000000000000000000000000000000")
	low := common.HexToAddress("0x0000000000000000000000000000000000000001")
	mid := common.HexToAddress("0x7000000000000000000000000000000000000000")

	tx := NewSafeTransaction(SafeTransactionData{})
	tx.AddSignature(high, signatures.PreValidatedSignature(high))
	tx.AddSignature(low, signatures.PreValidatedSignature(low))
	tx.AddSignature(mid, signatures.PreValidatedSignature(mid))
	tx.AddSignature(mid, signatures.PreValidatedSignature(mid))

	assert.Equal(t, 3, tx.SignatureCount())
	encoded := tx.EncodedSignatures()
	require.Len(t, encoded, 3*65)
	want := bytes.Join([][]byte{
		signatures.PreValidatedSignature(low),
		signatures.PreValidatedSignature(mid),
		signatures.PreValidatedSignature(high),
	}, nil)
	assert.Equal(t, want, encoded)
}

func Test_Safe_VerifySingleton(t *testing.T) {
	s, backend, _ := newTestSafe(t)
	ctx := context.Background()

	masterCopy := common.HexToAddress("0xfb1bffC9d739B8D520DaF37dF666da4C687191EA")
	backend.storage[common.Hash{}] = common.LeftPadBytes(masterCopy.Bytes(), 32)

	singleton, err := s.VerifySingleton(ctx, config.SafeVersion_1_3_0)
	require.NoError(t, err)
	assert.Equal(t, masterCopy, singleton)

	backend.storage[common.Hash{}] = common.LeftPadBytes([]byte{0x01}, 32)
	singleton, err = s.VerifySingleton(ctx, config.SafeVersion_1_3_0)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x01"), singleton)

	_, err = s.VerifySingleton(ctx, config.SafeVersion_1_1_1)
	assert.NoError(t, err)
}
