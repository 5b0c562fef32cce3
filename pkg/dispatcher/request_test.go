package dispatcher

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(method, params string) *types.PendingRequest {
	return &types.PendingRequest{ID: 1, Topic: "topic-1", Method: method, Params: json.RawMessage(params)}
}

func Test_DecodeRequest(t *testing.T) {
	t.Run("typed data takes the second param", func(t *testing.T) {
		for _, method := range []string{"eth_signTypedData", "eth_signTypedData_v4"} {
			r, err := DecodeRequest(pending(method, `["0xabc", {"primaryType":"Mail"}]`))
			require.NoError(t, err)
			typed, ok := r.(*SignTypedDataRequest)
			require.True(t, ok, method)
			assert.JSONEq(t, `{"primaryType":"Mail"}`, string(typed.TypedData))
			assert.Equal(t, method, typed.Pending().Method)
		}
	})

	t.Run("eth_sign takes the second param", func(t *testing.T) {
		r, err := DecodeRequest(pending("eth_sign", `["0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1", "0x68656c6c6f"]`))
		require.NoError(t, err)
		msg, ok := r.(*SignMessageRequest)
		require.True(t, ok)
		assert.Equal(t, "hello", msg.Message)
	})

	t.Run("personal_sign takes the first param", func(t *testing.T) {
		r, err := DecodeRequest(pending("personal_sign", `["gm", "0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1"]`))
		require.NoError(t, err)
		assert.Equal(t, "gm", r.(*SignMessageRequest).Message)
	})

	t.Run("send transaction defaults value and data", func(t *testing.T) {
		r, err := DecodeRequest(pending("eth_sendTransaction", `[{"to":"0x0000000000000000000000000000000000000abc"}]`))
		require.NoError(t, err)
		tx, ok := r.(*SendTransactionRequest)
		require.True(t, ok)
		assert.Equal(t, common.HexToAddress("0xabc"), tx.To)
		assert.Equal(t, 0, tx.Value.Sign())
		assert.Equal(t, []byte{}, tx.Data)
	})

	t.Run("send transaction with value and data", func(t *testing.T) {
		r, err := DecodeRequest(pending("eth_sendTransaction",
			`[{"from":"0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1","to":"0x0000000000000000000000000000000000000abc","value":"0x2a","data":"0xcafe"}]`))
		require.NoError(t, err)
		tx := r.(*SendTransactionRequest)
		assert.Equal(t, big.NewInt(42), tx.Value)
		assert.Equal(t, []byte{0xca, 0xfe}, tx.Data)
	})

	t.Run("account queries", func(t *testing.T) {
		for _, method := range []string{"eth_chainId", "eth_accounts", "net_version"} {
			r, err := DecodeRequest(pending(method, ``))
			require.NoError(t, err)
			q, ok := r.(*AccountQueryRequest)
			require.True(t, ok, method)
			assert.Equal(t, method, q.Method)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		r, err := DecodeRequest(pending("eth_getLogs", `[{}]`))
		require.NoError(t, err)
		u, ok := r.(*UnsupportedRequest)
		require.True(t, ok)
		assert.Equal(t, "eth_getLogs", u.Method)
	})

	errCases := []struct {
		name   string
		method string
		params string
	}{
		{"params not a list", "personal_sign", `{"message":"hi"}`},
		{"missing eth_sign message", "eth_sign", `["0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1"]`},
		{"message not a string", "personal_sign", `[42]`},
		{"missing typed data", "eth_signTypedData_v4", `["0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1"]`},
		{"missing transaction", "eth_sendTransaction", `[]`},
		{"transaction without to", "eth_sendTransaction", `[{"data":"0x"}]`},
		{"bad value", "eth_sendTransaction", `[{"to":"0x0000000000000000000000000000000000000abc","value":"42"}]`},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRequest(pending(tt.method, tt.params))
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}
}

func Test_tryHexBytesToUtf8(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0x68656c6c6f", "hello"},
		{"0X68656c6c6f", "hello"},
		{"0x48690a", "Hi\n"},
		{"hello", "hello"},
		{"0x", "0x"},
		{"0x123", "0x123"},
		{"0xzz", "0xzz"},
		{"0xff00", "0xff00"},
		{"0x0001", "0x0001"},
		{"0xb94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", "0xb94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, tryHexBytesToUtf8(tt.in))
		})
	}
}
