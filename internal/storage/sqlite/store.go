package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"blockCapture/internal/model"
	"blockCapture/internal/storage"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// Store persists captured blocks in a single SQLite file.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LastBlock returns the checkpoint row, if any.
func (s *Store) LastBlock(ctx context.Context) (uint64, bool, error) {
	var last int64
	err := s.db.GetContext(ctx, &last, `SELECT last_block FROM sync_state WHERE id = 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(last), true, nil
}

// SetLastBlock upserts the checkpoint row.
func (s *Store) SetLastBlock(ctx context.Context, n uint64) error {
	_, err := s.db.ExecContext(ctx, upsertSyncState, int64(n))
	return err
}

// WriteBlock inserts the block, its transactions, logs and traces and moves
// the checkpoint, all in one transaction.
func (s *Store) WriteBlock(ctx context.Context, data model.BlockData) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, insertBlock, data.Block); err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	if err = execEach(ctx, tx, insertTransaction, data.Transactions); err != nil {
		return fmt.Errorf("insert transactions: %w", err)
	}
	if err = execEach(ctx, tx, insertLog, data.Logs); err != nil {
		return fmt.Errorf("insert logs: %w", err)
	}
	if err = execEach(ctx, tx, insertTrace, data.Traces); err != nil {
		return fmt.Errorf("insert traces: %w", err)
	}
	if _, err = tx.ExecContext(ctx, upsertSyncState, int64(data.Block.Number)); err != nil {
		return fmt.Errorf("update sync state: %w", err)
	}
	return tx.Commit()
}

func execEach[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	stmt, err := tx.PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]); err != nil {
			return err
		}
	}
	return nil
}

// ScanTable streams the requested columns row by row.
func (s *Store) ScanTable(ctx context.Context, req storage.ScanRequest, fn func(row []any) error) error {
	query, err := req.Query()
	if err != nil {
		return err
	}
	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return fmt.Errorf("scan %s: %w", req.Table, err)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("scan %s: %w", req.Table, err)
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	return rows.Err()
}
