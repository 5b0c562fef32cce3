package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the safe-connect service
const (
	EnvSafeAddress      = "SAFE_CONNECT_SAFE_ADDRESS"
	EnvChainID          = "SAFE_CONNECT_CHAIN_ID"
	EnvSafeVersion      = "SAFE_CONNECT_SAFE_VERSION"
	EnvRPCURL           = "SAFE_CONNECT_RPC_URL"
	EnvRelayPort        = "SAFE_CONNECT_RELAY_PORT"
	EnvOwnerPrivateKey  = "SAFE_CONNECT_OWNER_PRIVATE_KEY"
	EnvOwnerAddress     = "SAFE_CONNECT_OWNER_ADDRESS"
	EnvWeb3SignerURL    = "SAFE_CONNECT_WEB3SIGNER_URL"
	EnvPersistenceType  = "SAFE_CONNECT_PERSISTENCE_TYPE"
	EnvBadgerPath       = "SAFE_CONNECT_BADGER_PATH"
	EnvRedisAddress     = "SAFE_CONNECT_REDIS_ADDRESS"
	EnvRedisPassword    = "SAFE_CONNECT_REDIS_PASSWORD"
	EnvRedisDB          = "SAFE_CONNECT_REDIS_DB"
	EnvRedisKeyPrefix   = "SAFE_CONNECT_REDIS_KEY_PREFIX"
	EnvPairURI          = "SAFE_CONNECT_PAIR_URI"
	EnvVerbose          = "SAFE_CONNECT_VERBOSE"
	EnvRelayRateLimit   = "SAFE_CONNECT_RELAY_RATE_LIMIT"
	EnvSessionExpiryHrs = "SAFE_CONNECT_SESSION_EXPIRY_HOURS"
	EnvRelayURL         = "SAFE_CONNECT_RELAY_URL"
)

// EIP155Namespace is the CAIP-2 namespace for EVM chains.
const EIP155Namespace = "eip155"

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_Optimism        ChainId = 10
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_Optimism        ChainName = "optimism"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_Optimism:        ChainName_Optimism,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_Optimism:        ChainId_Optimism,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
}

// IsEthereum reports whether the chain is an Ethereum L1 (or a fork of one),
// which drives fee estimation defaults.
func IsEthereum(chainId ChainId) bool {
	switch chainId {
	case ChainId_EthereumMainnet, ChainId_EthereumSepolia, ChainId_EthereumAnvil:
		return true
	default:
		return false
	}
}

// CAIP2 returns the chain identifier in "eip155:<id>" form.
func (c ChainId) CAIP2() string {
	return fmt.Sprintf("%s:%d", EIP155Namespace, c)
}

type SafeVersion string

const (
	SafeVersion_1_0_0 SafeVersion = "1.0.0"
	SafeVersion_1_1_1 SafeVersion = "1.1.1"
	SafeVersion_1_2_0 SafeVersion = "1.2.0"
	SafeVersion_1_3_0 SafeVersion = "1.3.0"
	SafeVersion_1_4_1 SafeVersion = "1.4.1"
)

func (v SafeVersion) String() string {
	return string(v)
}

// IsLegacyDomain is true for Safe versions whose EIP-712 domain omits chainId.
func (v SafeVersion) IsLegacyDomain() bool {
	return v == SafeVersion_1_1_1
}

// CompatibleSafeMethods is the JSON-RPC allow-list approved into every session.
var CompatibleSafeMethods = []string{
	"eth_accounts",
	"net_version",
	"eth_chainId",
	"personal_sign",
	"eth_sign",
	"eth_signTypedData",
	"eth_signTypedData_v4",
	"eth_sendTransaction",
	"eth_blockNumber",
	"eth_getBalance",
	"eth_getCode",
	"eth_getTransactionCount",
	"eth_getStorageAt",
	"eth_getBlockByNumber",
	"eth_getBlockByHash",
	"eth_getTransactionByHash",
	"eth_getTransactionReceipt",
	"eth_estimateGas",
	"eth_call",
	"eth_getLogs",
	"eth_gasPrice",
	"wallet_getPermissions",
	"wallet_requestPermissions",
	"safe_setSettings",
}

// SafeContractAddresses are the helper contracts deployed for a Safe version on a chain.
type SafeContractAddresses struct {
	MultiSend         string `json:"multiSendAddress"`
	MultiSendCallOnly string `json:"multiSendCallOnlyAddress"`
	SafeProxyFactory  string `json:"safeProxyFactoryAddress"`
	SafeMasterCopy    string `json:"safeMasterCopyAddress"`
	CreateCall        string `json:"createCallAddress"`
	SignMessageLib    string `json:"signMessageLibAddress"`
	FallbackHandler   string `json:"fallbackHandlerAddress"`
}

var (
	canonicalSafeContracts_1_3_0 = &SafeContractAddresses{
		MultiSend:         "0xA238CBeb142c10Ef7Ad8442C6D1f9E89e07e7761",
		MultiSendCallOnly: "0x40A2aCCbd92BCA938b02010E17A5b8929b49130D",
		SafeProxyFactory:  "0xa6B71E26C5e0845f74c812102Ca7114b6a896AB2",
		SafeMasterCopy:    "0xd9Db270c1B5E3Bd161E8c8503c55cEABeE709552",
		CreateCall:        "0x7cbB62EaA69F79e6873cD1ecB2392971036cFAa4",
		SignMessageLib:    "0xA65387F16B013cf2Af4605Ad8aA5ec25a2cbA3a2",
		FallbackHandler:   "0xf48f2B2d2a534e402487b3ee7C18c33Aec0Fe5e4",
	}

	// Optimism Safes were deployed from the EIP-155 singleton set.
	optimismSafeContracts_1_3_0 = &SafeContractAddresses{
		MultiSend:         "0x998739BFdAAdde7C933B942a68053933098f9EDa",
		MultiSendCallOnly: "0xA1dabEF33b3B82c7814B6D82A79e50F4AC44102B",
		SafeProxyFactory:  "0xC22834581EbC8527d974F8a1c97E1bEA4EF910BC",
		SafeMasterCopy:    "0xfb1bffC9d739B8D520DaF37dF666da4C687191EA",
		CreateCall:        "0xB19D6FFc2182150F8Eb585b79D4ABcd7C5640A9d",
		SignMessageLib:    "0x98FFBBF51bb33A056B08ddf711f289936AafF717",
		FallbackHandler:   "0x017062a1dE2FE6b99BE3d9d37841FeD19F573804",
	}

	SafeContracts = map[ChainId]map[SafeVersion]*SafeContractAddresses{
		ChainId_EthereumMainnet: {SafeVersion_1_3_0: canonicalSafeContracts_1_3_0},
		ChainId_Optimism:        {SafeVersion_1_3_0: optimismSafeContracts_1_3_0},
		ChainId_EthereumSepolia: {SafeVersion_1_3_0: canonicalSafeContracts_1_3_0},
		ChainId_EthereumAnvil:   {SafeVersion_1_3_0: canonicalSafeContracts_1_3_0}, // fork of ethereum mainnet
	}
)

func GetSafeContractsForChain(chainId ChainId, version SafeVersion) (*SafeContractAddresses, error) {
	byVersion, ok := SafeContracts[chainId]
	if !ok {
		return nil, fmt.Errorf("unsupported chain ID: %d", chainId)
	}
	contracts, ok := byVersion[version]
	if !ok {
		return nil, fmt.Errorf("no Safe contracts known for version %s on chain %d", version, chainId)
	}
	return contracts, nil
}

// SafeDescriptor identifies the Safe this process fronts. Immutable once built.
type SafeDescriptor struct {
	Address         common.Address
	ChainID         ChainId
	ContractVersion SafeVersion
}

// CAIP10Account formats the Safe as "eip155:<chainId>:<checksummed address>".
func (sd SafeDescriptor) CAIP10Account() string {
	return fmt.Sprintf("%s:%s", sd.ChainID.CAIP2(), sd.Address.Hex())
}

type PersistenceType string

const (
	PersistenceType_Memory PersistenceType = "memory"
	PersistenceType_Badger PersistenceType = "badger"
	PersistenceType_Redis  PersistenceType = "redis"
)

type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

type PersistenceConfig struct {
	Type       PersistenceType `json:"type" yaml:"type"`
	BadgerPath string          `json:"badgerPath" yaml:"badgerPath"`
	Redis      *RedisConfig    `json:"redis,omitempty" yaml:"redis,omitempty"`
}

// WalletMetadata is what the counterparty sees about this wallet during pairing.
type WalletMetadata struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Url         string   `json:"url"`
	Icons       []string `json:"icons"`
}

var DefaultWalletMetadata = WalletMetadata{
	Name:        "Safe Connect",
	Description: "Connect to dApps as your Safe",
	Url:         "https://github.com/Layr-Labs/safe-connect-go",
	Icons:       []string{},
}

const (
	DefaultRelayPort       = 8545 + 1000
	DefaultRelayRateLimit  = 20 // requests per second
	DefaultSessionExpiry   = 7 * 24 * time.Hour
	DefaultProposalTimeout = 5 * time.Minute
)

// SafeConnectConfig represents the complete configuration for the service
type SafeConnectConfig struct {
	// Safe identity
	SafeAddress string      `json:"safe_address"`
	ChainID     ChainId     `json:"chain_id"`
	ChainName   ChainName   `json:"chain_name"`
	SafeVersion SafeVersion `json:"safe_version,omitempty"` // read from chain when empty

	// Blockchain configuration
	RpcUrl string `json:"rpc_url"`

	// Owner key: either a raw private key or a remote signer
	OwnerPrivateKey string              `json:"owner_private_key,omitempty"`
	RemoteSigner    *RemoteSignerConfig `json:"remote_signer,omitempty"`

	// Relay bridge
	RelayPort      int            `json:"relay_port"`
	RelayRateLimit int            `json:"relay_rate_limit"`
	SessionExpiry  time.Duration  `json:"session_expiry"`
	Metadata       WalletMetadata `json:"metadata"`

	Persistence PersistenceConfig `json:"persistence"`

	Debug bool `json:"debug"`
}

// Validate validates the configuration and fills derived fields
func (c *SafeConnectConfig) Validate() error {
	var allErrors field.ErrorList

	if c.SafeAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("safeAddress"), "safe address cannot be empty"))
	} else if !common.IsHexAddress(c.SafeAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("safeAddress"), c.SafeAddress, "invalid address format"))
	}

	chainName, exists := ChainIdToName[c.ChainID]
	if !exists {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("chainId"), c.ChainID, supportedChainIDStrings()))
	} else {
		c.ChainName = chainName
	}

	if c.RpcUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "rpc url is required"))
	}

	if c.OwnerPrivateKey == "" && c.RemoteSigner == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("ownerPrivateKey"), "either an owner private key or a remote signer is required"))
	}
	if c.OwnerPrivateKey != "" {
		pk := strings.TrimPrefix(c.OwnerPrivateKey, "0x")
		if len(pk) != 64 {
			allErrors = append(allErrors, field.Invalid(field.NewPath("ownerPrivateKey"), "<redacted>", fmt.Sprintf("must be 32 bytes (64 hex chars), got %d chars", len(pk))))
		}
	}
	if c.RemoteSigner != nil {
		if err := c.RemoteSigner.Validate(); err != nil {
			allErrors = append(allErrors, field.Invalid(field.NewPath("remoteSigner"), c.RemoteSigner.Url, err.Error()))
		}
	}

	if c.RelayPort < 1 || c.RelayPort > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("relayPort"), c.RelayPort, "port must be between 1-65535"))
	}
	if c.RelayRateLimit <= 0 {
		c.RelayRateLimit = DefaultRelayRateLimit
	}
	if c.SessionExpiry <= 0 {
		c.SessionExpiry = DefaultSessionExpiry
	}
	if c.Metadata.Name == "" {
		c.Metadata = DefaultWalletMetadata
	}

	switch c.Persistence.Type {
	case "":
		c.Persistence.Type = PersistenceType_Memory
	case PersistenceType_Memory:
	case PersistenceType_Badger:
		if c.Persistence.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("persistence", "badgerPath"), "badger path is required"))
		}
	case PersistenceType_Redis:
		if c.Persistence.Redis == nil || c.Persistence.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("persistence", "redis", "address"), "redis address is required"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("persistence", "type"), c.Persistence.Type,
			[]string{string(PersistenceType_Memory), string(PersistenceType_Badger), string(PersistenceType_Redis)}))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// SafeDescriptor returns the Safe identity. Only meaningful after Validate.
func (c *SafeConnectConfig) SafeDescriptor(version SafeVersion) SafeDescriptor {
	return SafeDescriptor{
		Address:         common.HexToAddress(c.SafeAddress),
		ChainID:         c.ChainID,
		ContractVersion: version,
	}
}

// GetSupportedChainIDs returns all supported chain IDs
func GetSupportedChainIDs() []ChainId {
	return []ChainId{
		ChainId_EthereumMainnet,
		ChainId_Optimism,
		ChainId_EthereumSepolia,
		ChainId_EthereumAnvil,
	}
}

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (optimism), %d (sepolia), %d (anvil)",
		ChainId_EthereumMainnet, ChainId_Optimism, ChainId_EthereumSepolia, ChainId_EthereumAnvil)
}

func supportedChainIDStrings() []string {
	ids := GetSupportedChainIDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%d", id))
	}
	return out
}

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`
	PublicKey   string `json:"publicKey" yaml:"publicKey"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	}
	if rsc.FromAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("fromAddress"), "fromAddress is required"))
	} else if !common.IsHexAddress(rsc.FromAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("fromAddress"), rsc.FromAddress, "invalid address format"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
