// Package replay rebuilds a store from a directory of exported parquet files.
package replay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"blockCapture/internal/model"
	"blockCapture/internal/storage"
)

// Summary counts the rows written by a replay.
type Summary struct {
	Blocks       int
	Transactions int
	Logs         int
	Traces       int
	Skipped      int
}

// Load reads blocks, transactions and logs (required) and traces (optional)
// from dir and writes them block by block in ascending order. Blocks at or
// below the store's checkpoint are skipped.
func Load(ctx context.Context, dir string, store storage.Store, logger *zap.Logger) (Summary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var summary Summary

	blocks, err := readRequired[blockRecord](dir, "blocks")
	if err != nil {
		return summary, err
	}
	txs, err := readRequired[transactionRecord](dir, "transactions")
	if err != nil {
		return summary, err
	}
	logs, err := readRequired[logRecord](dir, "logs")
	if err != nil {
		return summary, err
	}
	traces, err := readOptional[traceRecord](dir, "traces")
	if err != nil {
		return summary, err
	}

	byNumber := make(map[uint64]*model.BlockData, len(blocks))
	numbers := make([]uint64, 0, len(blocks))
	for _, rec := range blocks {
		b := rec.model()
		if _, dup := byNumber[b.Number]; dup {
			continue
		}
		byNumber[b.Number] = &model.BlockData{
			Block:        b,
			Transactions: []model.Transaction{},
			Logs:         []model.Log{},
			Traces:       []model.Trace{},
		}
		numbers = append(numbers, b.Number)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	lookup := func(table string, n uint64) (*model.BlockData, error) {
		data, ok := byNumber[n]
		if !ok {
			return nil, fmt.Errorf("%s row references block %d missing from blocks.parquet", table, n)
		}
		return data, nil
	}

	for _, rec := range sortedTransactions(txs) {
		tx := rec.model()
		data, err := lookup("transactions", tx.BlockNumber)
		if err != nil {
			return summary, err
		}
		data.Transactions = append(data.Transactions, tx)
	}
	for _, rec := range sortedByID(logs, func(r logRecord) *int64 { return r.ID }) {
		log := rec.model()
		data, err := lookup("logs", log.BlockNumber)
		if err != nil {
			return summary, err
		}
		data.Logs = append(data.Logs, log)
	}
	for _, rec := range sortedByID(traces, func(r traceRecord) *int64 { return r.ID }) {
		trace := rec.model()
		data, err := lookup("traces", trace.BlockNumber)
		if err != nil {
			return summary, err
		}
		data.Traces = append(data.Traces, trace)
	}

	last, hasCheckpoint, err := store.LastBlock(ctx)
	if err != nil {
		return summary, fmt.Errorf("load checkpoint: %w", err)
	}

	for _, n := range numbers {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if hasCheckpoint && n <= last {
			summary.Skipped++
			continue
		}
		data := byNumber[n]
		if err := store.WriteBlock(context.WithoutCancel(ctx), *data); err != nil {
			return summary, fmt.Errorf("block %d: %w", n, err)
		}
		summary.Blocks++
		summary.Transactions += len(data.Transactions)
		summary.Logs += len(data.Logs)
		summary.Traces += len(data.Traces)
	}

	if summary.Skipped > 0 {
		logger.Warn("skipped blocks at or below checkpoint",
			zap.Int("skipped", summary.Skipped), zap.Uint64("checkpoint", last))
	}
	logger.Info("replay complete",
		zap.Int("blocks", summary.Blocks),
		zap.Int("transactions", summary.Transactions),
		zap.Int("logs", summary.Logs),
		zap.Int("traces", summary.Traces),
	)
	return summary, nil
}

func readRequired[T any](dir, table string) ([]T, error) {
	path := filepath.Join(dir, table+".parquet")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("missing file: %s", path)
	}
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readOptional[T any](dir, table string) ([]T, error) {
	path := filepath.Join(dir, table+".parquet")
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return readRequired[T](dir, table)
}

func sortedTransactions(rows []transactionRecord) []transactionRecord {
	sort.SliceStable(rows, func(i, j int) bool {
		bi, bj := u64(rows[i].BlockNumber), u64(rows[j].BlockNumber)
		if bi != bj {
			return bi < bj
		}
		return u64(rows[i].TxIndex) < u64(rows[j].TxIndex)
	})
	return rows
}

func sortedByID[T any](rows []T, id func(T) *int64) []T {
	sort.SliceStable(rows, func(i, j int) bool {
		return u64(id(rows[i])) < u64(id(rows[j]))
	})
	return rows
}
