package capture

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"blockCapture/internal/chain"
	"blockCapture/internal/metrics"
	"blockCapture/internal/storage"
)

const (
	DefaultBlockDelay    = 500 * time.Millisecond
	DefaultProgressEvery = 100
)

// Source fetches raw block documents. *chain.Client satisfies it.
type Source interface {
	FetchBlock(ctx context.Context, n uint64) (*chain.Block, error)
	FetchReceipts(ctx context.Context, n uint64) ([]chain.Receipt, error)
	FetchTraces(ctx context.Context, n uint64) []chain.Trace
}

// RunConfig holds runtime settings for a capture.
type RunConfig struct {
	Start         uint64
	End           uint64
	Traces        bool
	BlockDelay    time.Duration
	ProgressEvery uint64
}

// Runner captures a block range sequentially into a store.
type Runner struct {
	cfg    RunConfig
	source Source
	store  storage.Store
	logger *zap.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, source Source, store storage.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	return &Runner{
		cfg:    cfg,
		source: source,
		store:  store,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Run captures every block between the checkpoint and End, one at a time.
func (r *Runner) Run(ctx context.Context) error {
	if r.source == nil {
		return fmt.Errorf("source is nil")
	}
	if r.store == nil {
		return fmt.Errorf("store is nil")
	}

	last, hasCheckpoint, err := r.store.LastBlock(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	blocks, pending, err := ResumeRange(r.cfg.Start, r.cfg.End, last, hasCheckpoint)
	if err != nil {
		return err
	}
	if hasCheckpoint {
		r.logger.Info("resume from checkpoint", zap.Uint64("last_block", last), zap.Uint64("from", blocks.From))
		if blocks.From < r.cfg.Start {
			r.logger.Warn("checkpoint is below requested start, continuing from checkpoint",
				zap.Uint64("start", r.cfg.Start), zap.Uint64("from", blocks.From))
		}
	}
	if !pending {
		r.logger.Info("nothing to capture", zap.Uint64("from", blocks.From), zap.Uint64("to", blocks.To))
		return nil
	}

	batches, err := SplitRange(blocks.From, blocks.To, r.cfg.ProgressEvery)
	if err != nil {
		return err
	}

	for _, batch := range batches {
		started := time.Now()
		var txs, logs int
		for n := batch.From; ; n++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			stats, err := r.captureBlock(ctx, n)
			if err != nil {
				return fmt.Errorf("block %d: %w", n, err)
			}
			txs += stats.txs
			logs += stats.logs

			if n == batch.To {
				break
			}
			if err := r.pause(ctx); err != nil {
				return err
			}
		}

		r.logger.Info("batch complete",
			zap.Uint64("from", batch.From),
			zap.Uint64("to", batch.To),
			zap.Int("transactions", txs),
			zap.Int("logs", logs),
			zap.Duration("elapsed", time.Since(started)),
		)
		if batch.To != blocks.To {
			if err := r.pause(ctx); err != nil {
				return err
			}
		}
	}

	r.logger.Info("capture complete", zap.Uint64("from", blocks.From), zap.Uint64("to", blocks.To))
	return nil
}

type blockStats struct {
	txs  int
	logs int
}

func (r *Runner) captureBlock(ctx context.Context, n uint64) (blockStats, error) {
	started := time.Now()

	block, err := r.source.FetchBlock(ctx, n)
	if err != nil {
		return blockStats{}, fmt.Errorf("fetch block: %w", err)
	}
	receipts, err := r.source.FetchReceipts(ctx, n)
	if err != nil {
		return blockStats{}, fmt.Errorf("fetch receipts: %w", err)
	}
	traces := []chain.Trace{}
	if r.cfg.Traces {
		traces = r.source.FetchTraces(ctx, n)
	}
	// An interrupted trace call looks like a provider without tracing.
	// Leave the block uncommitted so a resumed run fetches it again.
	if err := ctx.Err(); err != nil {
		return blockStats{}, err
	}

	data, err := Normalize(block, receipts, traces)
	if err != nil {
		return blockStats{}, err
	}
	// A started transaction runs to commit or rollback even if ctx is cancelled.
	if err := r.store.WriteBlock(context.WithoutCancel(ctx), data); err != nil {
		return blockStats{}, fmt.Errorf("write: %w", err)
	}

	metrics.BlocksCaptured.Inc()
	metrics.LastCapturedBlock.Set(float64(n))
	metrics.BlockDuration.Observe(time.Since(started).Seconds())

	r.logger.Debug("block captured",
		zap.Uint64("block", n),
		zap.Int("transactions", len(data.Transactions)),
		zap.Int("logs", len(data.Logs)),
		zap.Int("traces", len(data.Traces)),
	)
	return blockStats{txs: len(data.Transactions), logs: len(data.Logs)}, nil
}

func (r *Runner) pause(ctx context.Context) error {
	if r.cfg.BlockDelay <= 0 {
		return nil
	}
	return r.sleep(ctx, r.cfg.BlockDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
