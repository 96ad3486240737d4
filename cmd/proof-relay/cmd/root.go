package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/onflow/proof-relay/module/component"
)

var rootCmd = &cobra.Command{
	Use:   "proof-relay",
	Short: "Relay Sassafras ticket proofs over a libp2p gossip network",
	Long: `proof-relay joins the gossip network of a Sassafras chain and relays ticket
proofs between the network and local producers and consumers. Proofs are
submitted and retrieved through a REST API.`,
	SilenceUsage: true,
	RunE:         run,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	addFlags(rootCmd.Flags())
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(viper.New(), cmd.Flags())
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	// validated by loadConfig
	p2pLevel, _ := logging.LevelFromString(cfg.P2PLogLevel)
	logging.SetAllLoggers(p2pLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = component.RunComponent(ctx, func() (component.Component, error) {
		return NewRelayNode(ctx, log, cfg)
	}, func(err error) {
		log.Error().Err(err).Msg("proof relay node stopped on irrecoverable error")
	})
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("proof relay node shutdown complete")
		return nil
	}
	return err
}

func newLogger(cfg Config) zerolog.Logger {
	// validated by loadConfig
	lvl, _ := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
