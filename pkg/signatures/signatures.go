// Package signatures converts raw owner signatures into the encodings the Safe
// contract's signature checker accepts.
package signatures

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is r (32) + s (32) + v (1)
	SignatureLength = crypto.SignatureLength

	// Offset added to v for signatures over the EIP-191 prefixed hash.
	ethSignVOffset = 4
)

var ErrInvalidSignature = errors.New("invalid signature")

type SigningMethod string

const (
	MethodEthSign          SigningMethod = "eth_sign"
	MethodEthSignTypedData SigningMethod = "eth_signTypedData"
)

// PreValidatedSignature returns the Safe "approved by sender" signature for
// owner: r = owner left-padded to 32 bytes, s = 0, v = 1.
func PreValidatedSignature(owner common.Address) []byte {
	sig := make([]byte, SignatureLength)
	copy(sig[12:32], owner.Bytes())
	sig[64] = 1
	return sig
}

// AdjustRecoveryByte rewrites the v byte of an owner signature so the Safe
// contract verifies it. For eth_sign, signatures that do not recover to owner
// over the raw expectedHash are taken to be over the prefixed hash and get
// v + 4. Only byte 64 of the returned copy differs from sig.
func AdjustRecoveryByte(method SigningMethod, sig []byte, expectedHash []byte, owner common.Address) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}

	v := sig[64]
	switch v {
	case 0, 1, 27, 28:
	default:
		return nil, fmt.Errorf("%w: unexpected recovery byte %d", ErrInvalidSignature, v)
	}

	out := bytes.Clone(sig)
	if v < 27 {
		v += 27
	}

	switch method {
	case MethodEthSign:
		if IsSignedWithPrefix(out, expectedHash, owner) {
			v += ethSignVOffset
		}
	case MethodEthSignTypedData:
	default:
		return nil, fmt.Errorf("unsupported signing method %q", method)
	}

	out[64] = v
	return out, nil
}

// IsSignedWithPrefix reports whether sig does NOT recover to owner over the
// raw hash. Recovery errors count as prefixed.
func IsSignedWithPrefix(sig []byte, expectedHash []byte, owner common.Address) bool {
	signer, err := RecoverSigner(expectedHash, sig)
	if err != nil {
		return true
	}
	return signer != owner
}

// RecoverSigner recovers the address that produced sig over hash. Both the
// 0/1 and 27/28 v conventions are accepted.
func RecoverSigner(hash []byte, sig []byte) (common.Address, error) {
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}
	if len(hash) != common.HashLength {
		return common.Address{}, fmt.Errorf("hash must be %d bytes, got %d", common.HashLength, len(hash))
	}
	normalized := bytes.Clone(sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// ParseSignature decodes a 0x-prefixed (or bare) hex signature.
func ParseSignature(s string) ([]byte, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	sig, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureLength, len(sig))
	}
	return sig, nil
}

func FormatSignature(sig []byte) string {
	return hexutil.Encode(sig)
}
