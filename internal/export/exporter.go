package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/parquet-go/parquet-go"
	"go.uber.org/zap"

	"blockCapture/internal/metrics"
	"blockCapture/internal/storage"
)

const writeBatchSize = 1024

// Result describes the outcome of exporting one table.
type Result struct {
	Table   string
	Path    string
	Rows    int64
	Skipped bool
}

// Exporter writes one zstd-compressed parquet file per table.
type Exporter struct {
	store   storage.Store
	dir     string
	layouts []Layout
	logger  *zap.Logger
}

func NewExporter(store storage.Store, dir string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		store:   store,
		dir:     dir,
		layouts: Layouts,
		logger:  logger,
	}
}

// Export writes every table concurrently. A failing table does not stop the
// others; all failures are joined in the returned error.
func (e *Exporter) Export(ctx context.Context) ([]Result, error) {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	pool := pond.NewPool(len(e.layouts))
	defer pool.StopAndWait()

	results := make([]Result, len(e.layouts))
	errs := make([]error, len(e.layouts))
	group := pool.NewGroup()
	for i, layout := range e.layouts {
		group.Submit(func() {
			started := time.Now()
			res, err := e.exportTable(ctx, layout)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("export %s: %w", layout.Table, err)
				e.logger.Error("table export failed", zap.String("table", layout.Table), zap.Error(err))
				return
			}
			if res.Skipped {
				e.logger.Info("table empty, skipping", zap.String("table", layout.Table))
				return
			}
			e.logger.Info("table exported",
				zap.String("table", layout.Table),
				zap.String("path", res.Path),
				zap.Int64("rows", res.Rows),
				zap.Duration("elapsed", time.Since(started)),
			)
		})
	}
	if err := group.Wait(); err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		return results, err
	}

	return results, errors.Join(errs...)
}

func (e *Exporter) exportTable(ctx context.Context, layout Layout) (res Result, err error) {
	res = Result{Table: layout.Table, Path: filepath.Join(e.dir, layout.Table+".parquet")}
	tmpPath := res.Path + ".tmp"

	schema := layout.Schema()
	indexes := make([]int, len(layout.Columns))
	for i, col := range layout.Columns {
		leaf, ok := schema.Lookup(col.Name)
		if !ok {
			return res, fmt.Errorf("column %s missing from schema", col.Name)
		}
		indexes[i] = leaf.ColumnIndex
	}

	var (
		file   *os.File
		writer *parquet.Writer
		batch  = make([]parquet.Row, 0, writeBatchSize)
	)
	defer func() {
		if err == nil {
			return
		}
		if writer != nil {
			_ = writer.Close()
		}
		if file != nil {
			_ = file.Close()
		}
		_ = os.Remove(tmpPath)
	}()

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := writer.WriteRows(batch); err != nil {
			return err
		}
		metrics.ExportRows.WithLabelValues(layout.Table).Add(float64(len(batch)))
		batch = batch[:0]
		return nil
	}

	req := storage.ScanRequest{Table: layout.Table, Columns: layout.ColumnNames(), OrderBy: layout.OrderBy}
	err = e.store.ScanTable(ctx, req, func(values []any) error {
		if len(values) != len(layout.Columns) {
			return fmt.Errorf("scan returned %d columns, want %d", len(values), len(layout.Columns))
		}
		// Files are created lazily so an empty table leaves nothing behind.
		if writer == nil {
			f, err := os.Create(tmpPath)
			if err != nil {
				return err
			}
			file = f
			writer = parquet.NewWriter(file, schema, parquet.Compression(&parquet.Zstd))
		}

		row := make(parquet.Row, len(layout.Columns))
		for i, col := range layout.Columns {
			idx := indexes[i]
			val, err := coerce(col.Kind, values[i])
			if err != nil {
				return fmt.Errorf("%s.%s: %w", layout.Table, col.Name, err)
			}
			if val == nil {
				row[idx] = parquet.NullValue().Level(0, 0, idx)
				continue
			}
			row[idx] = val.Level(0, 1, idx)
		}
		batch = append(batch, row)
		res.Rows++

		if len(batch) == writeBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return res, err
	}
	if writer == nil {
		res.Skipped = true
		return res, nil
	}

	if err = flush(); err != nil {
		return res, err
	}
	if err = writer.Close(); err != nil {
		return res, err
	}
	writer = nil
	if err = file.Close(); err != nil {
		return res, err
	}
	file = nil
	if err = os.Rename(tmpPath, res.Path); err != nil {
		return res, err
	}
	return res, nil
}
