package storage

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"blockCapture/internal/model"
)

// ErrUnknownTable is returned when a scan names a table or column outside the catalogue.
var ErrUnknownTable = errors.New("unknown table")

// Store is the relational sink for captured blocks and the checkpoint that
// records how far a capture got.
type Store interface {
	// LastBlock returns the checkpoint, or false when nothing was captured yet.
	LastBlock(ctx context.Context) (uint64, bool, error)
	SetLastBlock(ctx context.Context, n uint64) error
	// WriteBlock persists every row of one block and advances the checkpoint
	// to its number in a single transaction.
	WriteBlock(ctx context.Context, data model.BlockData) error
	// ScanTable streams rows of a catalogued table in the requested order.
	ScanTable(ctx context.Context, req ScanRequest, fn func(row []any) error) error
	Close() error
}

// Catalogue lists the exportable tables and their columns in schema order.
var Catalogue = map[string][]string{
	"blocks": {
		"number", "hash", "parent_hash", "timestamp", "gas_used", "gas_limit", "base_fee", "tx_count",
	},
	"transactions": {
		"hash", "block_number", "tx_index", "from_addr", "to_addr", "value", "gas_used", "gas_price", "input", "status",
	},
	"logs": {
		"id", "block_number", "tx_hash", "log_index", "address", "topic0", "topic1", "topic2", "topic3", "data",
	},
	"traces": {
		"id", "block_number", "tx_hash", "tx_index", "trace_json",
	},
}

// ScanRequest names a table, the columns to read and the sort keys.
type ScanRequest struct {
	Table   string
	Columns []string
	OrderBy []string
}

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Query renders the SELECT statement for the request after checking every
// identifier against the catalogue.
func (r ScanRequest) Query() (string, error) {
	known, ok := Catalogue[r.Table]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, r.Table)
	}
	if len(r.Columns) == 0 {
		return "", fmt.Errorf("scan %s: no columns", r.Table)
	}
	for _, col := range append(append([]string{}, r.Columns...), r.OrderBy...) {
		if !identRe.MatchString(col) || !contains(known, col) {
			return "", fmt.Errorf("%w: column %q of %s", ErrUnknownTable, col, r.Table)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(r.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(r.Table)
	if len(r.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(r.OrderBy, ", "))
	}
	return sb.String(), nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
