package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/clients/web3signer"
	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/Layr-Labs/safe-connect-go/pkg/dispatcher"
	"github.com/Layr-Labs/safe-connect-go/pkg/gateway"
	"github.com/Layr-Labs/safe-connect-go/pkg/logger"
	"github.com/Layr-Labs/safe-connect-go/pkg/ownerSigner"
	"github.com/Layr-Labs/safe-connect-go/pkg/persistence"
	"github.com/Layr-Labs/safe-connect-go/pkg/persistence/badger"
	"github.com/Layr-Labs/safe-connect-go/pkg/persistence/memory"
	"github.com/Layr-Labs/safe-connect-go/pkg/persistence/redis"
	"github.com/Layr-Labs/safe-connect-go/pkg/safe"
	"github.com/Layr-Labs/safe-connect-go/pkg/transactionSigner"
	"github.com/Layr-Labs/safe-connect-go/pkg/transport/relay"
	"github.com/Layr-Labs/safe-connect-go/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func runServe(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg := parseServeConfig(c)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	l.Sugar().Infow("Using chain", "name", cfg.ChainName, "chain_id", cfg.ChainID)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpcClient, err := rpc.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", cfg.RpcUrl, err)
	}
	ethClient := ethclient.NewClient(rpcClient)
	defer ethClient.Close()

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain id: %w", err)
	}
	if chainID.Uint64() != uint64(cfg.ChainID) {
		return fmt.Errorf("rpc url serves chain %s, expected %d", chainID, cfg.ChainID)
	}

	owner, txSigner, err := newOwner(ctx, cfg, ethClient, l)
	if err != nil {
		return err
	}

	desc := cfg.SafeDescriptor(cfg.SafeVersion)
	s, err := safe.NewSafe(desc.Address, desc.ChainID, ethClient, txSigner, l)
	if err != nil {
		return err
	}
	if desc.ContractVersion, err = checkSafe(ctx, s, desc.ContractVersion, owner.Address(), l); err != nil {
		return err
	}

	store, err := newStore(&cfg.Persistence, l)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			l.Sugar().Warnw("Failed to close session store", "error", err)
		}
	}()

	relayCfg := relay.DefaultConfig()
	relayCfg.Port = cfg.RelayPort
	relayCfg.RateLimit = float64(cfg.RelayRateLimit)
	relayCfg.SessionExpiry = cfg.SessionExpiry
	r := relay.NewRelay(relayCfg, store, l)
	if err := r.Server().Start(); err != nil {
		return fmt.Errorf("failed to start relay: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Server().Stop(shutdownCtx); err != nil {
			l.Sugar().Warnw("Failed to stop relay", "error", err)
		}
	}()

	gw := gateway.NewGateway(&gateway.Config{
		Safe:     desc,
		Metadata: types.Metadata(cfg.Metadata),
	}, r, l)
	if err := gw.Initialize(ctx); err != nil {
		return err
	}

	d := dispatcher.NewDispatcher(gw, owner, s, desc, l)
	d.Register(ctx)

	if uri := c.String("pair-uri"); uri != "" {
		if err := gw.Pair(ctx, uri); err != nil {
			l.Sugar().Errorw("Failed to pair", "error", err)
		}
	}

	go func() {
		if err := gw.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			l.Sugar().Errorw("Gateway stopped", "error", err)
		}
	}()

	l.Sugar().Infow("Safe Connect running",
		"safe", gw.SafeAccount(),
		"owner", owner.Address().Hex(),
		"relay", r.Server().Addr(),
	)

	p := newPrompt(os.Stdin, os.Stdout, gw, dispatcher.NewOperator(d))
	return p.Run(ctx)
}

func parseServeConfig(c *cli.Context) *config.SafeConnectConfig {
	cfg := &config.SafeConnectConfig{
		SafeAddress:     c.String("safe-address"),
		ChainID:         config.ChainId(c.Uint64("chain-id")),
		SafeVersion:     config.SafeVersion(c.String("safe-version")),
		RpcUrl:          c.String("rpc-url"),
		OwnerPrivateKey: c.String("owner-private-key"),
		RelayPort:       c.Int("relay-port"),
		RelayRateLimit:  c.Int("relay-rate-limit"),
		SessionExpiry:   time.Duration(c.Int("session-expiry-hours")) * time.Hour,
		Persistence: config.PersistenceConfig{
			Type:       config.PersistenceType(c.String("persistence")),
			BadgerPath: c.String("badger-path"),
		},
		Debug: c.Bool("verbose"),
	}
	if url := c.String("web3signer-url"); url != "" {
		cfg.RemoteSigner = &config.RemoteSignerConfig{
			Url:         url,
			FromAddress: c.String("owner-address"),
		}
	}
	if addr := c.String("redis-address"); addr != "" {
		cfg.Persistence.Redis = &config.RedisConfig{
			Address:   addr,
			Password:  c.String("redis-password"),
			DB:        c.Int("redis-db"),
			KeyPrefix: c.String("redis-key-prefix"),
		}
	}
	return cfg
}

// newOwner builds the owner's typed data signer and the signer that submits
// execTransaction, both backed by the same key.
func newOwner(ctx context.Context, cfg *config.SafeConnectConfig, ethClient transactionSigner.EthClient, l *zap.Logger) (ownerSigner.IOwnerSigner, transactionSigner.ITransactionSigner, error) {
	if cfg.OwnerPrivateKey != "" {
		owner, err := ownerSigner.NewPrivateKeyOwnerSigner(cfg.OwnerPrivateKey, l)
		if err != nil {
			return nil, nil, err
		}
		txSigner, err := transactionSigner.NewTransactionSigner(&transactionSigner.SignerConfig{PrivateKey: cfg.OwnerPrivateKey}, ethClient, l)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create transaction signer: %w", err)
		}
		return owner, txSigner, nil
	}

	client, err := web3signer.NewWeb3SignerClientFromRemoteSignerConfig(cfg.RemoteSigner, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create web3signer client: %w", err)
	}
	from := common.HexToAddress(cfg.RemoteSigner.FromAddress)
	if err := requireSignerAccount(ctx, client, from); err != nil {
		return nil, nil, err
	}
	txSigner, err := transactionSigner.NewWeb3TransactionSigner(client, from, ethClient, l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create transaction signer: %w", err)
	}
	return ownerSigner.NewWeb3SignerOwnerSigner(client, from, l), txSigner, nil
}

// requireSignerAccount fails unless the remote signer holds a key for from.
func requireSignerAccount(ctx context.Context, client web3signer.IWeb3Signer, from common.Address) error {
	accounts, err := client.EthAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list web3signer accounts: %w", err)
	}
	for _, a := range accounts {
		if common.IsHexAddress(a) && common.HexToAddress(a) == from {
			return nil
		}
	}
	return fmt.Errorf("web3signer holds no key for owner %s", from.Hex())
}

// checkSafe resolves the Safe version and warns about setups where
// pre-validated execution will be refused.
func checkSafe(ctx context.Context, s *safe.Safe, version config.SafeVersion, owner common.Address, l *zap.Logger) (config.SafeVersion, error) {
	if version == "" {
		v, err := s.GetContractVersion(ctx)
		if err != nil {
			return "", err
		}
		version = v
	}
	if _, err := s.VerifySingleton(ctx, version); err != nil {
		return "", err
	}

	isOwner, err := s.IsOwner(ctx, owner)
	if err != nil {
		return "", err
	}
	if !isOwner {
		return "", fmt.Errorf("%s is not an owner of Safe %s", owner.Hex(), s.GetAddress().Hex())
	}
	threshold, err := s.GetThreshold(ctx)
	if err != nil {
		return "", err
	}
	if threshold != 1 {
		l.Sugar().Warnw("Safe threshold is above 1, transactions will be refused",
			"safe", s.GetAddress().Hex(),
			"threshold", threshold,
		)
	}
	l.Sugar().Infow("Safe ready", "safe", s.GetAddress().Hex(), "version", version, "threshold", threshold)
	return version, nil
}

func newStore(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.ISessionPersistence, error) {
	switch cfg.Type {
	case config.PersistenceType_Badger:
		return badger.NewBadgerPersistence(cfg.BadgerPath, l)
	case config.PersistenceType_Redis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, l)
	default:
		return memory.NewMemoryPersistence(), nil
	}
}
