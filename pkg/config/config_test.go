package config

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSafeAddress = "0x46abFE1C972fCa43766d6aD70E1c1Df72F4Bb4d1"

func validConfig() *SafeConnectConfig {
	return &SafeConnectConfig{
		SafeAddress:     testSafeAddress,
		ChainID:         ChainId_Optimism,
		RpcUrl:          "http://localhost:8545",
		OwnerPrivateKey: "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d",
		RelayPort:       DefaultRelayPort,
	}
}

func Test_SafeConnectConfig_Validate(t *testing.T) {
	t.Run("valid config fills defaults", func(t *testing.T) {
		c := validConfig()
		require.NoError(t, c.Validate())
		assert.Equal(t, ChainName_Optimism, c.ChainName)
		assert.Equal(t, PersistenceType_Memory, c.Persistence.Type)
		assert.Equal(t, DefaultRelayRateLimit, c.RelayRateLimit)
		assert.Equal(t, DefaultSessionExpiry, c.SessionExpiry)
		assert.Equal(t, DefaultWalletMetadata.Name, c.Metadata.Name)
	})

	tests := []struct {
		name   string
		mutate func(c *SafeConnectConfig)
		errMsg string
	}{
		{"missing safe", func(c *SafeConnectConfig) { c.SafeAddress = "" }, "safeAddress"},
		{"bad safe", func(c *SafeConnectConfig) { c.SafeAddress = "0x1234" }, "safeAddress"},
		{"unsupported chain", func(c *SafeConnectConfig) { c.ChainID = 56 }, "chainId"},
		{"missing rpc", func(c *SafeConnectConfig) { c.RpcUrl = "" }, "rpcUrl"},
		{"no signer", func(c *SafeConnectConfig) { c.OwnerPrivateKey = "" }, "ownerPrivateKey"},
		{"short key", func(c *SafeConnectConfig) { c.OwnerPrivateKey = "0xabcd" }, "ownerPrivateKey"},
		{"bad port", func(c *SafeConnectConfig) { c.RelayPort = 0 }, "relayPort"},
		{"badger without path", func(c *SafeConnectConfig) { c.Persistence.Type = PersistenceType_Badger }, "badgerPath"},
		{"redis without address", func(c *SafeConnectConfig) { c.Persistence.Type = PersistenceType_Redis }, "address"},
		{"unknown persistence", func(c *SafeConnectConfig) { c.Persistence.Type = "postgres" }, "persistence.type"},
		{"bad remote signer", func(c *SafeConnectConfig) {
			c.OwnerPrivateKey = ""
			c.RemoteSigner = &RemoteSignerConfig{Url: "http://localhost:9000", FromAddress: "nope"}
		}, "remoteSigner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	t.Run("remote signer instead of key", func(t *testing.T) {
		c := validConfig()
		c.OwnerPrivateKey = ""
		c.RemoteSigner = &RemoteSignerConfig{Url: "http://localhost:9000", FromAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"}
		assert.NoError(t, c.Validate())
	})
}

func Test_SafeDescriptor(t *testing.T) {
	c := validConfig()
	require.NoError(t, c.Validate())
	sd := c.SafeDescriptor(SafeVersion_1_3_0)
	assert.Equal(t, common.HexToAddress(testSafeAddress), sd.Address)
	assert.Equal(t, "eip155:10:"+testSafeAddress, sd.CAIP10Account())
	assert.Equal(t, "eip155:10", sd.ChainID.CAIP2())
}

func Test_GetSafeContractsForChain(t *testing.T) {
	contracts, err := GetSafeContractsForChain(ChainId_Optimism, SafeVersion_1_3_0)
	require.NoError(t, err)
	assert.Equal(t, "0x998739BFdAAdde7C933B942a68053933098f9EDa", contracts.MultiSend)
	assert.Equal(t, "0xfb1bffC9d739B8D520DaF37dF666da4C687191EA", contracts.SafeMasterCopy)

	_, err = GetSafeContractsForChain(ChainId(56), SafeVersion_1_3_0)
	assert.Error(t, err)
	_, err = GetSafeContractsForChain(ChainId_Optimism, SafeVersion_1_1_1)
	assert.Error(t, err)

	for chainId, byVersion := range SafeContracts {
		for version, c := range byVersion {
			for _, addr := range []string{c.MultiSend, c.MultiSendCallOnly, c.SafeProxyFactory, c.SafeMasterCopy, c.CreateCall, c.SignMessageLib, c.FallbackHandler} {
				assert.True(t, common.IsHexAddress(addr), "chain %d version %s: %s", chainId, version, addr)
			}
		}
	}
}

func Test_CompatibleSafeMethods(t *testing.T) {
	assert.Len(t, CompatibleSafeMethods, 24)
	seen := map[string]bool{}
	for _, m := range CompatibleSafeMethods {
		assert.False(t, seen[m], "duplicate method %s", m)
		seen[m] = true
	}
	assert.True(t, seen["eth_sendTransaction"])
	assert.False(t, seen["eth_signTransaction"])
}

func Test_SafeVersion_IsLegacyDomain(t *testing.T) {
	assert.True(t, SafeVersion_1_1_1.IsLegacyDomain())
	assert.False(t, SafeVersion_1_3_0.IsLegacyDomain())
	assert.False(t, SafeVersion("1.0.0").IsLegacyDomain())
}
