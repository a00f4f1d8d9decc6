package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/avolkhov/driftchat-server/internal/app"
	"github.com/avolkhov/driftchat-server/internal/config"
	"github.com/avolkhov/driftchat-server/internal/log"
)

var (
	configPath string
	addrFlag   string
	dbPathFlag string
)

var rootCmd = &cobra.Command{
	Use:   "driftchat-server",
	Short: "Direct-messaging server with websocket presence",
	RunE:  runServer,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file (default: ./config.yaml)")
	rootCmd.Flags().StringVar(&addrFlag, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&dbPathFlag, "db", "", "SQLite database path (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	bootstrapLogger := log.New("info")

	cfg, cfgPath, err := config.Load(bootstrapLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if addrFlag != "" {
		cfg.Addr = addrFlag
	}
	if dbPathFlag != "" {
		cfg.DatabasePath = dbPathFlag
	}

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingSecret) {
			return fmt.Errorf("jwt_secret must be set in %s or via DRIFTCHAT_JWT_SECRET", cfgPath)
		}
		return err
	}

	logger := log.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting driftchat server")
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
