package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"blockCapture/internal/model"
	"blockCapture/internal/storage"
	"blockCapture/internal/storage/sqlite"
)

type txRecord struct {
	Hash        *string `parquet:"hash,optional"`
	BlockNumber *int64  `parquet:"block_number,optional"`
	TxIndex     *int64  `parquet:"tx_index,optional"`
	FromAddr    *string `parquet:"from_addr,optional"`
	ToAddr      *string `parquet:"to_addr,optional"`
	Value       *string `parquet:"value,optional"`
	GasUsed     *int64  `parquet:"gas_used,optional"`
	GasPrice    *string `parquet:"gas_price,optional"`
	Input       []byte  `parquet:"input,optional"`
	Status      *int64  `parquet:"status,optional"`
}

func strPtr(s string) *string { return &s }

func seedStore(t *testing.T) *sqlite.Store {
	t.Helper()
	ctx := context.Background()
	store, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for n := uint64(1); n <= 2; n++ {
		hash := "0xaa"
		if n == 2 {
			hash = "0xbb"
		}
		log := model.Log{BlockNumber: n, TxHash: hash, Address: "0xcc", Data: []byte{0xde, 0xad}}
		log.SetTopics([]string{"0xtopic"})
		require.NoError(t, store.WriteBlock(ctx, model.BlockData{
			Block: model.Block{Number: n, Hash: "0xh", ParentHash: "0xp", TxCount: 1},
			Transactions: []model.Transaction{{
				Hash: hash, BlockNumber: n, From: "0x01", To: strPtr("0x02"),
				Value: "123456789012345678901234", GasPrice: "1000000007", Input: []byte{0x60}, Status: 1,
			}},
			Logs: []model.Log{log},
		}))
	}
	return store
}

func TestExportWritesTypedFiles(t *testing.T) {
	store := seedStore(t)
	dir := filepath.Join(t.TempDir(), "out")

	results, err := NewExporter(store, dir, zaptest.NewLogger(t)).Export(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 4)

	byTable := map[string]Result{}
	for _, res := range results {
		byTable[res.Table] = res
	}
	require.Equal(t, int64(2), byTable["blocks"].Rows)
	require.Equal(t, int64(2), byTable["transactions"].Rows)
	require.Equal(t, int64(2), byTable["logs"].Rows)
	require.True(t, byTable["traces"].Skipped)

	_, err = os.Stat(filepath.Join(dir, "traces.parquet"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "transactions.parquet.tmp"))
	require.True(t, os.IsNotExist(err))

	rows, err := parquet.ReadFile[txRecord](filepath.Join(dir, "transactions.parquet"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "123456789012345678901234", *rows[0].Value)
	require.Equal(t, "1000000007", *rows[0].GasPrice)
	require.Equal(t, []byte{0x60}, rows[0].Input)
	require.Equal(t, int64(1), *rows[0].BlockNumber)
	require.Equal(t, int64(2), *rows[1].BlockNumber)
}

func TestExportValueColumnIsString(t *testing.T) {
	store := seedStore(t)
	dir := t.TempDir()

	_, err := NewExporter(store, dir, nil).Export(context.Background())
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "transactions.parquet"))
	require.NoError(t, err)
	defer f.Close()
	stat, err := f.Stat()
	require.NoError(t, err)

	file, err := parquet.OpenFile(f, stat.Size())
	require.NoError(t, err)

	leaf, ok := file.Schema().Lookup("value")
	require.True(t, ok)
	require.Equal(t, parquet.ByteArray, leaf.Node.Type().Kind())
	require.NotNil(t, leaf.Node.Type().LogicalType())
	require.NotNil(t, leaf.Node.Type().LogicalType().UTF8)

	meta := file.Metadata()
	require.NotEmpty(t, meta.RowGroups)
	for _, chunk := range meta.RowGroups[0].Columns {
		require.Equal(t, format.Zstd, chunk.MetaData.Codec)
	}
}

type failingStore struct {
	storage.Store
	table string
}

func (s failingStore) ScanTable(ctx context.Context, req storage.ScanRequest, fn func([]any) error) error {
	if req.Table == s.table {
		return errors.New("disk on fire")
	}
	return s.Store.ScanTable(ctx, req, fn)
}

func TestExportIsolatesTableFailures(t *testing.T) {
	store := failingStore{Store: seedStore(t), table: "logs"}
	dir := t.TempDir()

	results, err := NewExporter(store, dir, zaptest.NewLogger(t)).Export(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "export logs")
	require.Len(t, results, 4)

	for _, table := range []string{"blocks", "transactions"} {
		_, statErr := os.Stat(filepath.Join(dir, table+".parquet"))
		require.NoError(t, statErr, table)
	}
	_, statErr := os.Stat(filepath.Join(dir, "logs.parquet"))
	require.True(t, os.IsNotExist(statErr))
}

func TestExportEmptyStoreWritesNothing(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	defer store.Close()
	dir := t.TempDir()

	results, err := NewExporter(store, dir, nil).Export(context.Background())
	require.NoError(t, err)
	for _, res := range results {
		require.True(t, res.Skipped, res.Table)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
