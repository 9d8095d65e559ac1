package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"blockCapture/internal/config"
	"blockCapture/internal/replay"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.PGDSN, cfg.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	logger.Info("replay start", zap.String("data", cfg.Data), zap.String("db", cfg.DB))

	summary, err := replay.Load(ctx, cfg.Data, store, logger)
	if err != nil {
		logger.Error("replay failed", zap.Error(err))
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d blocks, %d transactions, %d logs, %d traces\n",
		summary.Blocks, summary.Transactions, summary.Logs, summary.Traces)
	return nil
}
