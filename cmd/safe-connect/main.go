package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/safe-connect-go/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "safe-connect",
		Usage: "Connect dApps to a Safe multisig",
		Description: `Bridges dApp sessions to a Safe so the Safe, not the owner's personal
account, is the connected account.

- Sessions are approved for the Safe account only
- Message and typed data signatures are produced by the owner for the Safe
- Transactions execute through the Safe with the owner's pre-validated signature`,
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the relay bridge, the session gateway and the operator prompt",
				Flags:  serveFlags(),
				Action: runServe,
			},
			{
				Name:  "pair",
				Usage: "Send a pairing URI to a running relay",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "relay-url",
						Usage:   "Base URL of the relay bridge",
						Value:   fmt.Sprintf("http://localhost:%d", config.DefaultRelayPort),
						EnvVars: []string{config.EnvRelayURL},
					},
					&cli.StringFlag{
						Name:     "uri",
						Usage:    "Pairing URI (wc:<topic>@2?relay-protocol=irn&symKey=...)",
						EnvVars:  []string{config.EnvPairURI},
						Required: true,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Usage:   "Enable verbose logging",
						EnvVars: []string{config.EnvVerbose},
					},
				},
				Action: runPair,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "safe-address",
			Aliases:  []string{"safe"},
			Usage:    "Address of the Safe to connect as",
			EnvVars:  []string{config.EnvSafeAddress},
			Required: true,
		},
		&cli.Uint64Flag{
			Name:     "chain-id",
			Aliases:  []string{"chain"},
			Usage:    fmt.Sprintf("Chain ID of the Safe: %s", config.GetSupportedChainIDsString()),
			EnvVars:  []string{config.EnvChainID},
			Required: true,
		},
		&cli.StringFlag{
			Name:    "safe-version",
			Usage:   "Safe contract version; read from the chain when empty",
			EnvVars: []string{config.EnvSafeVersion},
		},
		&cli.StringFlag{
			Name:    "rpc-url",
			Aliases: []string{"rpc"},
			Usage:   "Ethereum RPC endpoint URL",
			Value:   "http://localhost:8545",
			EnvVars: []string{config.EnvRPCURL},
		},
		&cli.IntFlag{
			Name:    "relay-port",
			Aliases: []string{"p"},
			Usage:   "Port of the relay bridge",
			Value:   config.DefaultRelayPort,
			EnvVars: []string{config.EnvRelayPort},
		},
		&cli.IntFlag{
			Name:    "relay-rate-limit",
			Usage:   "Requests per second accepted by the relay bridge",
			Value:   config.DefaultRelayRateLimit,
			EnvVars: []string{config.EnvRelayRateLimit},
		},
		&cli.IntFlag{
			Name:    "session-expiry-hours",
			Usage:   "Lifetime of approved sessions",
			Value:   int(config.DefaultSessionExpiry.Hours()),
			EnvVars: []string{config.EnvSessionExpiryHrs},
		},
		&cli.StringFlag{
			Name:    "owner-private-key",
			Usage:   "Private key (hex) of a Safe owner",
			EnvVars: []string{config.EnvOwnerPrivateKey},
		},
		&cli.StringFlag{
			Name:    "web3signer-url",
			Usage:   "Web3Signer URL holding the owner key, used instead of --owner-private-key",
			EnvVars: []string{config.EnvWeb3SignerURL},
		},
		&cli.StringFlag{
			Name:    "owner-address",
			Usage:   "Owner address held by Web3Signer",
			EnvVars: []string{config.EnvOwnerAddress},
		},
		&cli.StringFlag{
			Name:    "persistence",
			Usage:   "Session store: memory, badger or redis",
			Value:   string(config.PersistenceType_Memory),
			EnvVars: []string{config.EnvPersistenceType},
		},
		&cli.StringFlag{
			Name:    "badger-path",
			Usage:   "Data directory for the badger session store",
			EnvVars: []string{config.EnvBadgerPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Address of the redis session store",
			EnvVars: []string{config.EnvRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Password of the redis session store",
			EnvVars: []string{config.EnvRedisPassword},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Database number of the redis session store",
			EnvVars: []string{config.EnvRedisDB},
		},
		&cli.StringFlag{
			Name:    "redis-key-prefix",
			Usage:   "Key prefix in the redis session store",
			EnvVars: []string{config.EnvRedisKeyPrefix},
		},
		&cli.StringFlag{
			Name:    "pair-uri",
			Usage:   "Pairing URI to pair with on startup",
			EnvVars: []string{config.EnvPairURI},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable verbose logging",
			EnvVars: []string{config.EnvVerbose},
		},
	}
}
