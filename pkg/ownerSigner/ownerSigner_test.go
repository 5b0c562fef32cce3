package ownerSigner

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testOwnerKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func testTypedData() apitypes.TypedData {
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "chainId", Type: "uint256"},
				{Name: "verifyingContract", Type: "address"},
			},
			"SafeMessage": {
				{Name: "message", Type: "bytes"},
			},
		},
		PrimaryType: "SafeMessage",
		Domain: apitypes.TypedDataDomain{
			ChainId:           math.NewHexOrDecimal256(10),
			VerifyingContract: "0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1",
		},
		Message: apitypes.TypedDataMessage{
			"message": "0x1234",
		},
	}
}

func Test_PrivateKeyOwnerSigner(t *testing.T) {
	signer, err := NewPrivateKeyOwnerSigner(testOwnerKey, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), signer.Address())

	td := testTypedData()
	sig, err := signer.SignTypedData(context.Background(), td)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{0, 1}, sig[64])

	hash, _, err := apitypes.TypedDataAndHash(td)
	require.NoError(t, err)
	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), crypto.PubkeyToAddress(*pub))
}

func Test_PrivateKeyOwnerSigner_InvalidKey(t *testing.T) {
	_, err := NewPrivateKeyOwnerSigner("0x1234", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func Test_PrivateKeyOwnerSigner_BadTypedData(t *testing.T) {
	signer, err := NewPrivateKeyOwnerSigner(testOwnerKey, zaptest.NewLogger(t))
	require.NoError(t, err)

	td := testTypedData()
	td.PrimaryType = "Missing"
	_, err = signer.SignTypedData(context.Background(), td)
	assert.Error(t, err)
}

type stubWeb3Signer struct {
	sig     string
	err     error
	account string
	typed   interface{}
}

func (s *stubWeb3Signer) SetHttpClient(*http.Client) {}
func (s *stubWeb3Signer) EthAccounts(context.Context) ([]string, error) {
	return []string{s.account}, nil
}
func (s *stubWeb3Signer) EthSignTransaction(context.Context, string, map[string]interface{}) (string, error) {
	return "", errors.New("not implemented")
}
func (s *stubWeb3Signer) EthSignTypedData(_ context.Context, account string, typedData interface{}) (string, error) {
	s.account = account
	s.typed = typedData
	return s.sig, s.err
}

func Test_Web3SignerOwnerSigner(t *testing.T) {
	owner := common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	raw := make([]byte, 65)
	raw[64] = 28

	t.Run("decodes signature", func(t *testing.T) {
		stub := &stubWeb3Signer{sig: hexutil.Encode(raw)}
		signer := NewWeb3SignerOwnerSigner(stub, owner, zaptest.NewLogger(t))
		sig, err := signer.SignTypedData(context.Background(), testTypedData())
		require.NoError(t, err)
		assert.Equal(t, raw, sig)
		assert.Equal(t, owner.Hex(), stub.account)
		assert.IsType(t, apitypes.TypedData{}, stub.typed)
	})

	t.Run("remote error", func(t *testing.T) {
		stub := &stubWeb3Signer{err: errors.New("locked")}
		signer := NewWeb3SignerOwnerSigner(stub, owner, zaptest.NewLogger(t))
		_, err := signer.SignTypedData(context.Background(), testTypedData())
		assert.ErrorContains(t, err, "locked")
	})

	t.Run("bad length", func(t *testing.T) {
		stub := &stubWeb3Signer{sig: "0x1234"}
		signer := NewWeb3SignerOwnerSigner(stub, owner, zaptest.NewLogger(t))
		_, err := signer.SignTypedData(context.Background(), testTypedData())
		assert.Error(t, err)
	})
}
