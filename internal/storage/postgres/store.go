package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blockCapture/internal/model"
	"blockCapture/internal/storage"
)

// Store provides Postgres persistence for captured blocks.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// LastBlock returns the checkpoint row, if any.
func (s *Store) LastBlock(ctx context.Context) (uint64, bool, error) {
	var last int64
	row := s.pool.QueryRow(ctx, `SELECT last_block FROM sync_state WHERE id = 1`)
	if err := row.Scan(&last); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(last), true, nil
}

// SetLastBlock upserts the checkpoint row.
func (s *Store) SetLastBlock(ctx context.Context, n uint64) error {
	_, err := s.pool.Exec(ctx, upsertSyncState, int64(n))
	return err
}

// WriteBlock queues every row of the block in one batch inside a transaction.
func (s *Store) WriteBlock(ctx context.Context, data model.BlockData) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	batch := &pgx.Batch{}
	b := data.Block
	batch.Queue(`
		INSERT INTO blocks (number, hash, parent_hash, timestamp, gas_used, gas_limit, base_fee, tx_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (number) DO NOTHING
	`,
		int64(b.Number),
		b.Hash,
		b.ParentHash,
		int64(b.Timestamp),
		int64(b.GasUsed),
		int64(b.GasLimit),
		b.BaseFee,
		int64(b.TxCount),
	)
	for _, t := range data.Transactions {
		batch.Queue(`
			INSERT INTO transactions (
				hash, block_number, tx_index, from_addr, to_addr, value, gas_used, gas_price, input, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (hash) DO NOTHING
		`,
			t.Hash,
			int64(t.BlockNumber),
			int64(t.TxIndex),
			t.From,
			t.To,
			t.Value,
			int64(t.GasUsed),
			t.GasPrice,
			nonNil(t.Input),
			int64(t.Status),
		)
	}
	for _, l := range data.Logs {
		batch.Queue(`
			INSERT INTO logs (
				block_number, tx_hash, log_index, address, topic0, topic1, topic2, topic3, data
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			int64(l.BlockNumber),
			l.TxHash,
			int64(l.LogIndex),
			l.Address,
			l.Topic0,
			l.Topic1,
			l.Topic2,
			l.Topic3,
			nonNil(l.Data),
		)
	}
	for _, tr := range data.Traces {
		batch.Queue(`
			INSERT INTO traces (block_number, tx_hash, tx_index, trace_json)
			VALUES ($1, $2, $3, $4)
		`,
			int64(tr.BlockNumber),
			tr.TxHash,
			int64(tr.TxIndex),
			tr.TraceJSON,
		)
	}
	batch.Queue(upsertSyncState, int64(b.Number))

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err = br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("block %d: %w", b.Number, err)
		}
	}
	if err = br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ScanTable streams the requested columns row by row.
func (s *Store) ScanTable(ctx context.Context, req storage.ScanRequest, fn func(row []any) error) error {
	query, err := req.Query()
	if err != nil {
		return err
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("scan %s: %w", req.Table, err)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("scan %s: %w", req.Table, err)
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	return rows.Err()
}

// pgx encodes a nil slice as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
