package dispatcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrInvalidParams = errors.New("invalid request params")

// Request is a session request decoded by method. The concrete types are
// SignTypedDataRequest, SignMessageRequest, SendTransactionRequest,
// AccountQueryRequest and UnsupportedRequest.
type Request interface {
	Pending() *types.PendingRequest
	isRequest()
}

type baseRequest struct {
	req *types.PendingRequest
}

func (b baseRequest) Pending() *types.PendingRequest { return b.req }
func (baseRequest) isRequest()                       {}

// SignTypedDataRequest is eth_signTypedData or eth_signTypedData_v4. TypedData
// is a JSON object or a JSON string holding one.
type SignTypedDataRequest struct {
	baseRequest
	TypedData json.RawMessage
}

// SignMessageRequest is eth_sign or personal_sign.
type SignMessageRequest struct {
	baseRequest
	Message string
}

type SendTransactionRequest struct {
	baseRequest
	To    common.Address
	Value *big.Int
	Data  []byte
}

// AccountQueryRequest is answered from configuration without the owner.
type AccountQueryRequest struct {
	baseRequest
	Method string
}

type UnsupportedRequest struct {
	baseRequest
	Method string
}

type transactionParams struct {
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Value *hexutil.Big    `json:"value"`
}

// DecodeRequest picks the variant for req.Method and extracts its payload.
func DecodeRequest(req *types.PendingRequest) (Request, error) {
	base := baseRequest{req: req}

	switch req.Method {
	case "eth_chainId", "eth_accounts", "net_version":
		return &AccountQueryRequest{baseRequest: base, Method: req.Method}, nil
	case "eth_signTypedData", "eth_signTypedData_v4", "eth_sign", "personal_sign", "eth_sendTransaction":
	default:
		return &UnsupportedRequest{baseRequest: base, Method: req.Method}, nil
	}

	params, err := req.ParamList()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	switch req.Method {
	case "eth_signTypedData", "eth_signTypedData_v4":
		raw, err := param(params, 1, req.Method)
		if err != nil {
			return nil, err
		}
		return &SignTypedDataRequest{baseRequest: base, TypedData: raw}, nil

	case "eth_sign", "personal_sign":
		idx := 0
		if req.Method == "eth_sign" {
			idx = 1
		}
		raw, err := param(params, idx, req.Method)
		if err != nil {
			return nil, err
		}
		var message string
		if err := json.Unmarshal(raw, &message); err != nil {
			return nil, fmt.Errorf("%w: %s message is not a string", ErrInvalidParams, req.Method)
		}
		return &SignMessageRequest{baseRequest: base, Message: tryHexBytesToUtf8(message)}, nil

	default:
		raw, err := param(params, 0, req.Method)
		if err != nil {
			return nil, err
		}
		var tx transactionParams
		if err := json.Unmarshal(raw, &tx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		if tx.To == nil {
			return nil, fmt.Errorf("%w: eth_sendTransaction without to", ErrInvalidParams)
		}
		value := big.NewInt(0)
		if tx.Value != nil {
			value = tx.Value.ToInt()
		}
		data := []byte(tx.Data)
		if data == nil {
			data = []byte{}
		}
		return &SendTransactionRequest{baseRequest: base, To: *tx.To, Value: value, Data: data}, nil
	}
}

func param(params []json.RawMessage, idx int, method string) (json.RawMessage, error) {
	if idx >= len(params) {
		return nil, fmt.Errorf("%w: %s expects at least %d params, got %d", ErrInvalidParams, method, idx+1, len(params))
	}
	return params[idx], nil
}

// tryHexBytesToUtf8 turns 0x-hex holding printable UTF-8 text into that text.
// Anything else is returned unchanged.
func tryHexBytesToUtf8(s string) string {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return s
	}
	b, err := hexutil.Decode("0x" + s[2:])
	if err != nil || len(b) == 0 || !utf8.Valid(b) {
		return s
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return s
		}
	}
	return string(b)
}
