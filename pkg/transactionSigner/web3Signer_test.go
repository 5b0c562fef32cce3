package transactionSigner

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testOwnerKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

var testOwner = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

type fakeEthClient struct {
	mu            sync.Mutex
	chainID       *big.Int
	tipCap        *big.Int
	tipErr        error
	baseFee       *big.Int
	gas           uint64
	nonce         uint64
	receiptStatus uint64
	lastCall      ethereum.CallMsg
	sent          []*types.Transaction
	receipts      map[common.Hash]*types.Receipt
}

func newFakeEthClient(chainID int64) *fakeEthClient {
	return &fakeEthClient{
		chainID:       big.NewInt(chainID),
		tipCap:        big.NewInt(2_000_000_000),
		baseFee:       big.NewInt(100),
		gas:           100_000,
		nonce:         7,
		receiptStatus: types.ReceiptStatusSuccessful,
		receipts:      map[common.Hash]*types.Receipt{},
	}
}

func (f *fakeEthClient) ChainID(context.Context) (*big.Int, error) { return f.chainID, nil }
func (f *fakeEthClient) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tipCap, f.tipErr
}
func (f *fakeEthClient) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{BaseFee: f.baseFee, Number: big.NewInt(1)}, nil
}
func (f *fakeEthClient) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = msg
	return f.gas, nil
}
func (f *fakeEthClient) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}
func (f *fakeEthClient) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.receipts[tx.Hash()] = &types.Receipt{
		Status:      f.receiptStatus,
		TxHash:      tx.Hash(),
		GasUsed:     21000,
		BlockNumber: big.NewInt(2),
	}
	return nil
}
func (f *fakeEthClient) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}
func (f *fakeEthClient) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}

func unsignedCall(to common.Address) *types.Transaction {
	return types.NewTx(&types.DynamicFeeTx{
		To:    &to,
		Value: big.NewInt(5),
		Data:  []byte{0xde, 0xad},
	})
}

func Test_PrivateKeySigner_SignAndSendTransaction(t *testing.T) {
	client := newFakeEthClient(10)
	signer, err := NewPrivateKeySigner(testOwnerKey, client, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, testOwner, signer.GetFromAddress())

	to := common.HexToAddress("0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1")
	sent, err := signer.SignAndSendTransaction(context.Background(), unsignedCall(to))
	require.NoError(t, err)

	require.Len(t, client.sent, 1)
	assert.Equal(t, sent.Hash(), client.sent[0].Hash())
	assert.Equal(t, to, *sent.To())
	assert.Equal(t, big.NewInt(5), sent.Value())
	assert.Equal(t, []byte{0xde, 0xad}, sent.Data())
	assert.Equal(t, uint64(7), sent.Nonce())
	assert.Equal(t, uint64(120_000), sent.Gas())
	assert.Equal(t, big.NewInt(2_000_000_000), sent.GasTipCap())
	// L2: base fee * 2 + tip
	assert.Equal(t, big.NewInt(2_000_000_200), sent.GasFeeCap())

	from, err := types.Sender(types.LatestSignerForChainID(big.NewInt(10)), sent)
	require.NoError(t, err)
	assert.Equal(t, testOwner, from)
	assert.Equal(t, testOwner, client.lastCall.From)

	receipt, err := signer.WaitForReceipt(context.Background(), sent)
	require.NoError(t, err)
	assert.Equal(t, sent.Hash(), receipt.TxHash)
}

func Test_PrivateKeySigner_FeeFallbacks(t *testing.T) {
	client := newFakeEthClient(1)
	client.tipErr = errors.New("method not found")
	signer, err := NewPrivateKeySigner(testOwnerKey, client, zaptest.NewLogger(t))
	require.NoError(t, err)

	sent, err := signer.SignAndSendTransaction(context.Background(), unsignedCall(common.HexToAddress("0x01")))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_500_000_000), sent.GasTipCap())
	// L1: base fee * 3 + tip
	assert.Equal(t, big.NewInt(1_500_000_300), sent.GasFeeCap())
}

func Test_PrivateKeySigner_Failures(t *testing.T) {
	client := newFakeEthClient(10)
	signer, err := NewPrivateKeySigner(testOwnerKey, client, zaptest.NewLogger(t))
	require.NoError(t, err)

	t.Run("contract creation", func(t *testing.T) {
		_, err := signer.SignAndSendTransaction(context.Background(), types.NewTx(&types.DynamicFeeTx{}))
		assert.Error(t, err)
	})

	t.Run("reverted receipt", func(t *testing.T) {
		client.receiptStatus = types.ReceiptStatusFailed
		sent, err := signer.SignAndSendTransaction(context.Background(), unsignedCall(common.HexToAddress("0x01")))
		require.NoError(t, err)
		_, err = signer.WaitForReceipt(context.Background(), sent)
		assert.ErrorContains(t, err, "failed with status 0")
	})

	t.Run("never mined", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := signer.WaitForReceipt(ctx, unsignedCall(common.HexToAddress("0x02")))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("bad key", func(t *testing.T) {
		_, err := NewPrivateKeySigner("0x12", client, zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}

func Test_GetTransactOpts_DoesNotSign(t *testing.T) {
	client := newFakeEthClient(10)
	signer, err := NewPrivateKeySigner(testOwnerKey, client, zaptest.NewLogger(t))
	require.NoError(t, err)

	opts, err := signer.GetTransactOpts(context.Background())
	require.NoError(t, err)
	assert.True(t, opts.NoSend)
	assert.Equal(t, testOwner, opts.From)

	tx := unsignedCall(common.HexToAddress("0x01"))
	out, err := opts.Signer(opts.From, tx)
	require.NoError(t, err)
	assert.Same(t, tx, out)
}

// stubWeb3Signer signs eth_signTransaction requests with a local key.
type stubWeb3Signer struct {
	t      *testing.T
	lastTx map[string]interface{}
	from   string
}

func (s *stubWeb3Signer) SetHttpClient(*http.Client)                    {}
func (s *stubWeb3Signer) EthAccounts(context.Context) ([]string, error) { return nil, nil }
func (s *stubWeb3Signer) EthSignTypedData(context.Context, string, interface{}) (string, error) {
	return "", errors.New("not implemented")
}
func (s *stubWeb3Signer) EthSignTransaction(_ context.Context, from string, txData map[string]interface{}) (string, error) {
	s.from = from
	s.lastTx = txData

	key, err := crypto.HexToECDSA(testOwnerKey[2:])
	require.NoError(s.t, err)

	to := common.HexToAddress(txData["to"].(string))
	chainID := hexutil.MustDecodeBig(txData["chainId"].(string))
	signed, err := types.SignNewTx(key, types.LatestSignerForChainID(chainID), &types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     hexutil.MustDecodeUint64(txData["nonce"].(string)),
		GasTipCap: hexutil.MustDecodeBig(txData["maxPriorityFeePerGas"].(string)),
		GasFeeCap: hexutil.MustDecodeBig(txData["maxFeePerGas"].(string)),
		Gas:       hexutil.MustDecodeUint64(txData["gas"].(string)),
		To:        &to,
		Value:     hexutil.MustDecodeBig(txData["value"].(string)),
		Data:      hexutil.MustDecode(txData["data"].(string)),
	})
	require.NoError(s.t, err)
	raw, err := signed.MarshalBinary()
	require.NoError(s.t, err)
	return hexutil.Encode(raw), nil
}

func Test_Web3TransactionSigner_SignAndSendTransaction(t *testing.T) {
	client := newFakeEthClient(10)
	stub := &stubWeb3Signer{t: t}
	signer, err := NewWeb3TransactionSigner(stub, testOwner, client, zaptest.NewLogger(t))
	require.NoError(t, err)

	to := common.HexToAddress("0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1")
	sent, err := signer.SignAndSendTransaction(context.Background(), unsignedCall(to))
	require.NoError(t, err)

	assert.Equal(t, testOwner.Hex(), stub.from)
	assert.Equal(t, "0x2", stub.lastTx["type"])
	assert.Equal(t, "0xa", stub.lastTx["chainId"])
	assert.Equal(t, "0x7", stub.lastTx["nonce"])
	assert.Equal(t, "0xdead", stub.lastTx["data"])

	require.Len(t, client.sent, 1)
	assert.Equal(t, sent.Hash(), client.sent[0].Hash())

	receipt, err := signer.WaitForReceipt(context.Background(), sent)
	require.NoError(t, err)
	assert.Equal(t, sent.Hash(), receipt.TxHash)
}
