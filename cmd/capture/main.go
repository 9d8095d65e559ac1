package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"blockCapture/internal/capture"
	"blockCapture/internal/chain"
	"blockCapture/internal/config"
	"blockCapture/internal/export"
	"blockCapture/internal/metrics"
	"blockCapture/internal/storage"
	"blockCapture/internal/storage/postgres"
	"blockCapture/internal/storage/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:          "capture",
		Short:        "Capture an Ethereum block range into a relational store and parquet files",
		SilenceUsage: true,
		RunE:         runCapture,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("pg-dsn", "", "Postgres DSN (uses Postgres instead of SQLite)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.Flags().Uint64("start", 0, "first block (inclusive)")
	root.Flags().Uint64("end", 0, "last block (inclusive)")
	root.Flags().String("out", "capture", "output directory")
	root.Flags().String("rpc", "", "JSON-RPC endpoint (env CAPTURE_RPC or RPC_URL)")
	root.Flags().Bool("traces", true, "fetch callTracer traces")
	root.Flags().Bool("no-traces", false, "skip traces")
	root.Flags().Bool("export-only", false, "skip capture, export the existing store")
	root.Flags().Int("max-attempts", chain.DefaultMaxAttempts, "RPC attempts per call")
	root.Flags().Int("trace-attempts", chain.DefaultTraceAttempts, "RPC attempts per trace call")
	root.Flags().Duration("retry-delay", chain.DefaultRetryDelay, "base RPC retry delay")
	root.Flags().Duration("block-delay", capture.DefaultBlockDelay, "pause after each block")
	root.Flags().Duration("rpc-timeout", chain.DefaultTimeout, "per-request HTTP timeout")
	root.Flags().String("metrics-addr", "", "serve Prometheus /metrics on this address")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Load exported parquet files into a store",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("data", "", "directory with blocks/transactions/logs parquet files")
	replayCmd.Flags().String("db", "ethereum.db", "SQLite database to create or extend")

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCapture(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	store, err := openStore(ctx, cfg.PGDSN, cfg.StorePath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if !cfg.ExportOnly {
		if err := runRange(ctx, cfg, store, logger); err != nil {
			logger.Error("capture failed", zap.Error(err))
			return err
		}
	}

	started := time.Now()
	results, err := export.NewExporter(store, cfg.Out, logger).Export(ctx)
	if err != nil {
		logger.Error("export failed", zap.Error(err))
		return err
	}

	var written int
	for _, res := range results {
		if !res.Skipped {
			written++
		}
	}
	logger.Info("export complete",
		zap.String("out", cfg.Out),
		zap.Int("files", written),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

func runRange(ctx context.Context, cfg config.Config, store storage.Store, logger *zap.Logger) error {
	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.Config{
		MaxAttempts:   cfg.MaxAttempts,
		TraceAttempts: cfg.TraceAttempts,
		RetryDelay:    cfg.RetryDelay,
		Timeout:       cfg.RPCTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	head, err := chainClient.Ping(ctx)
	if err != nil {
		return fmt.Errorf("rpc unreachable: %w", err)
	}

	logger.Info("capture start",
		zap.String("rpc_host", cfg.RPCHost()),
		zap.Uint64("head", head),
		zap.Uint64("start", cfg.Start),
		zap.Uint64("end", cfg.End),
		zap.Bool("traces", cfg.Traces),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
	)
	if cfg.End > head {
		logger.Warn("end block is beyond the provider head", zap.Uint64("end", cfg.End), zap.Uint64("head", head))
	}

	runner := capture.NewRunner(capture.RunConfig{
		Start:      cfg.Start,
		End:        cfg.End,
		Traces:     cfg.Traces,
		BlockDelay: cfg.BlockDelay,
	}, chainClient, store, logger)

	return runner.Run(ctx)
}

func openStore(ctx context.Context, pgDSN, sqlitePath string) (storage.Store, error) {
	if pgDSN != "" {
		store, err := postgres.NewStore(ctx, pgDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	}

	if dir := filepath.Dir(sqlitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, sqlitePath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
