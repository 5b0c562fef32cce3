package safe

import (
	"bytes"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// OperationType is the Safe execution mode.
type OperationType uint8

const (
	OperationCall         OperationType = 0
	OperationDelegateCall OperationType = 1
)

// TransactionData is what a caller asks the Safe to do.
type TransactionData struct {
	To        common.Address
	Value     *big.Int
	Data      []byte
	Operation OperationType
}

// SafeTransactionData mirrors the arguments of Safe.execTransaction minus signatures.
type SafeTransactionData struct {
	To             common.Address
	Value          *big.Int
	Data           []byte
	Operation      OperationType
	SafeTxGas      *big.Int
	BaseGas        *big.Int
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          *big.Int
}

// SafeTransaction is a Safe transaction plus the owner signatures collected for it.
type SafeTransaction struct {
	Data SafeTransactionData

	mu         sync.Mutex
	signatures map[common.Address][]byte
}

func NewSafeTransaction(data SafeTransactionData) *SafeTransaction {
	return &SafeTransaction{
		Data:       data,
		signatures: make(map[common.Address][]byte),
	}
}

// AddSignature records sig for owner, replacing any earlier one.
func (st *SafeTransaction) AddSignature(owner common.Address, sig []byte) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.signatures[owner] = bytes.Clone(sig)
}

func (st *SafeTransaction) SignatureCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.signatures)
}

// EncodedSignatures concatenates the signatures ordered by owner address
// ascending, as checkSignatures requires.
func (st *SafeTransaction) EncodedSignatures() []byte {
	st.mu.Lock()
	defer st.mu.Unlock()

	owners := make([]common.Address, 0, len(st.signatures))
	for owner := range st.signatures {
		owners = append(owners, owner)
	}
	sort.Slice(owners, func(i, j int) bool {
		return bytes.Compare(owners[i].Bytes(), owners[j].Bytes()) < 0
	})

	var out []byte
	for _, owner := range owners {
		out = append(out, st.signatures[owner]...)
	}
	return out
}
