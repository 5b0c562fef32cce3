// Package messageSigner produces Safe-compatible signatures for plain and
// typed-data messages by having one owner sign the Safe's SafeMessage wrapper.
package messageSigner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/ownerSigner"
	"github.com/Layr-Labs/safe-connect-go/pkg/signatures"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const safeMessageType = "SafeMessage"

// MessageHash returns the 32 byte value the Safe will wrap in a SafeMessage:
// the message itself when it is already a 0x-hex 32 byte hash, otherwise the
// EIP-191 hash of the decoded hex bytes or of the UTF-8 text.
func MessageHash(message string) ([]byte, error) {
	if isHex(message) {
		decoded, err := hexutil.Decode(message)
		if err != nil {
			return nil, fmt.Errorf("failed to decode hex message: %w", err)
		}
		if len(decoded) == common.HashLength {
			return decoded, nil
		}
		return accounts.TextHash(decoded), nil
	}
	return accounts.TextHash([]byte(message)), nil
}

func isHex(s string) bool {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return false
	}
	body := s[2:]
	if len(body)%2 != 0 {
		return false
	}
	for _, c := range body {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// SafeMessageTypedData builds the EIP-712 SafeMessage payload the owner signs.
// Safe 1.1.1 domains carry only the verifying contract.
func SafeMessageTypedData(safeAddress common.Address, version config.SafeVersion, chainID config.ChainId, messageHash []byte) apitypes.TypedData {
	domainType := []apitypes.Type{
		{Name: "verifyingContract", Type: "address"},
	}
	domain := apitypes.TypedDataDomain{
		VerifyingContract: safeAddress.Hex(),
	}
	if !version.IsLegacyDomain() {
		domainType = []apitypes.Type{
			{Name: "chainId", Type: "uint256"},
			{Name: "verifyingContract", Type: "address"},
		}
		domain.ChainId = math.NewHexOrDecimal256(int64(chainID))
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": domainType,
			safeMessageType: {
				{Name: "message", Type: "bytes"},
			},
		},
		PrimaryType: safeMessageType,
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"message": hexutil.Encode(messageHash),
		},
	}
}

// SafeMessageHash returns the digest the Safe contract checks signatures against.
func SafeMessageHash(safeAddress common.Address, version config.SafeVersion, chainID config.ChainId, message string) (common.Hash, error) {
	msgHash, err := MessageHash(message)
	if err != nil {
		return common.Hash{}, err
	}
	digest, _, err := apitypes.TypedDataAndHash(SafeMessageTypedData(safeAddress, version, chainID, msgHash))
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash SafeMessage: %w", err)
	}
	return common.BytesToHash(digest), nil
}

// SignMessage signs message on behalf of the Safe and returns the 0x-hex
// signature with v adjusted for the Safe verifier.
func SignMessage(
	ctx context.Context,
	signer ownerSigner.IOwnerSigner,
	safeAddress common.Address,
	version config.SafeVersion,
	chainID config.ChainId,
	message string,
) (string, error) {
	msgHash, err := MessageHash(message)
	if err != nil {
		return "", err
	}

	typedData := SafeMessageTypedData(safeAddress, version, chainID, msgHash)
	digest, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return "", fmt.Errorf("failed to hash SafeMessage: %w", err)
	}

	sig, err := signer.SignTypedData(ctx, typedData)
	if err != nil {
		return "", fmt.Errorf("owner failed to sign SafeMessage: %w", err)
	}

	adjusted, err := signatures.AdjustRecoveryByte(signatures.MethodEthSignTypedData, sig, digest, signer.Address())
	if err != nil {
		return "", err
	}
	return signatures.FormatSignature(adjusted), nil
}

// TypedDataHash computes the EIP-712 digest of typedData, which may be a JSON
// object or a JSON string containing the object.
func TypedDataHash(typedData json.RawMessage) (common.Hash, error) {
	raw := []byte(typedData)
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		raw = []byte(encoded)
	}

	var td apitypes.TypedData
	if err := json.Unmarshal(raw, &td); err != nil {
		return common.Hash{}, fmt.Errorf("failed to parse typed data: %w", err)
	}
	digest, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash typed data: %w", err)
	}
	return common.BytesToHash(digest), nil
}

// SignTypedMessage signs the EIP-712 digest of a dApp's typed data on behalf of the Safe.
func SignTypedMessage(
	ctx context.Context,
	signer ownerSigner.IOwnerSigner,
	safeAddress common.Address,
	version config.SafeVersion,
	chainID config.ChainId,
	typedData json.RawMessage,
) (string, error) {
	digest, err := TypedDataHash(typedData)
	if err != nil {
		return "", err
	}
	return SignMessage(ctx, signer, safeAddress, version, chainID, digest.Hex())
}
