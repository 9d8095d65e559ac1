package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegistered(t *testing.T) {
	before := testutil.ToFloat64(ExportRows.WithLabelValues("blocks"))
	ExportRows.WithLabelValues("blocks").Add(3)
	after := testutil.ToFloat64(ExportRows.WithLabelValues("blocks"))
	if after-before != 3 {
		t.Fatalf("export rows delta = %v, want 3", after-before)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", nil)
	}()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not stop after cancel")
	}
}
