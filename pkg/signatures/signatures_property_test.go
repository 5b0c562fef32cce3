package signatures

import (
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Property: eth_sign over the raw hash always ends up with v in {27, 28}, over
// the prefixed hash with v in {31, 32}.
func TestEthSignRecoveryByteProperty(t *testing.T) {
	key, err := crypto.HexToECDSA(testOwnerKey)
	if err != nil {
		t.Fatal(err)
	}
	owner := crypto.PubkeyToAddress(key.PublicKey)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("raw hash signatures keep 27/28", prop.ForAll(
		func(hash []byte) bool {
			sig, err := crypto.Sign(hash, key)
			if err != nil {
				return false
			}
			out, err := AdjustRecoveryByte(MethodEthSign, sig, hash, owner)
			if err != nil {
				return false
			}
			return out[64] == 27 || out[64] == 28
		},
		gen.SliceOfN(32, gen.UInt8()),
	))

	properties.Property("prefixed signatures get 31/32", prop.ForAll(
		func(hash []byte) bool {
			sig, err := crypto.Sign(accounts.TextHash(hash), key)
			if err != nil {
				return false
			}
			out, err := AdjustRecoveryByte(MethodEthSign, sig, hash, owner)
			if err != nil {
				return false
			}
			return out[64] == 31 || out[64] == 32
		},
		gen.SliceOfN(32, gen.UInt8()),
	))

	properties.TestingRun(t)
}

// Property: typed-data signatures end with v in {27, 28} and only byte 64 changes.
func TestTypedDataRecoveryByteProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("v normalized to 27/28", prop.ForAll(
		func(rs []byte, v uint8) bool {
			sig := append(rs, v%2)
			out, err := AdjustRecoveryByte(MethodEthSignTypedData, sig, nil, common.Address{})
			if err != nil {
				return false
			}
			for i := 0; i < 64; i++ {
				if out[i] != sig[i] {
					return false
				}
			}
			return out[64] == 27+v%2
		},
		gen.SliceOfN(64, gen.UInt8()),
		gen.UInt8(),
	))

	properties.Property("v outside {0,1,27,28} is rejected", prop.ForAll(
		func(rs []byte, v uint8) bool {
			sig := append(rs, v)
			_, err := AdjustRecoveryByte(MethodEthSignTypedData, sig, nil, common.Address{})
			return err != nil
		},
		gen.SliceOfN(64, gen.UInt8()),
		gen.UInt8().SuchThat(func(v uint8) bool { return v != 0 && v != 1 && v != 27 && v != 28 }),
	))

	properties.Property("pre-validated layout", prop.ForAll(
		func(raw []byte) bool {
			owner := common.BytesToAddress(raw)
			sig := PreValidatedSignature(owner)
			if len(sig) != 65 || sig[64] != 1 {
				return false
			}
			return common.BytesToAddress(sig[12:32]) == owner && common.BytesToHash(sig[32:64]) == (common.Hash{})
		},
		gen.SliceOfN(20, gen.UInt8()),
	))

	properties.TestingRun(t)
}
