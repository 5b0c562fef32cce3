package main

import (
	"fmt"
	"time"

	"github.com/Layr-Labs/safe-connect-go/pkg/logger"
	"github.com/Layr-Labs/safe-connect-go/pkg/transport/relay"
	"github.com/urfave/cli/v2"
)

func runPair(c *cli.Context) error {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	client := relay.NewClient(c.String("relay-url"), l)
	resp, err := client.Pair(c.Context, c.String("uri"))
	if err != nil {
		return err
	}

	fmt.Printf("Paired with topic %s (expires %s)\n", resp.Topic, time.Unix(resp.Expiry, 0).UTC().Format(time.RFC3339))
	return nil
}
