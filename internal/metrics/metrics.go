// Package metrics exposes Prometheus collectors for the capture pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "capture_rpc_requests_total", Help: "JSON-RPC calls by final outcome"},
		[]string{"method", "outcome"},
	)
	RPCRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "capture_rpc_retries_total", Help: "JSON-RPC retries by failure class"},
		[]string{"method", "reason"},
	)
	BlocksCaptured = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "capture_blocks_total", Help: "Blocks committed to the store"},
	)
	LastCapturedBlock = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "capture_last_block", Help: "Highest committed block number"},
	)
	BlockDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "capture_block_duration_seconds", Help: "Fetch and write latency per block", Buckets: prometheus.DefBuckets},
	)
	ExportRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "capture_export_rows_total", Help: "Rows written to columnar files"},
		[]string{"table"},
	)
)

func init() {
	prometheus.MustRegister(RPCRequests, RPCRetries, BlocksCaptured, LastCapturedBlock, BlockDuration, ExportRows)
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("metrics listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
