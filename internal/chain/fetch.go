package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

var traceConfig = map[string]interface{}{
	"tracer":       "callTracer",
	"tracerConfig": map[string]interface{}{"withLog": true},
}

// FetchBlock returns block n with full transaction objects.
func (c *Client) FetchBlock(ctx context.Context, n uint64) (*Block, error) {
	raw, err := c.Call(ctx, "eth_getBlockByNumber", hexutil.EncodeUint64(n), true)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, fmt.Errorf("block %d not found", n)
	}

	var block Block
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("decode block %d: %w", n, err)
	}
	return &block, nil
}

// FetchReceipts returns every receipt of block n. A null result yields an empty slice.
func (c *Client) FetchReceipts(ctx context.Context, n uint64) ([]Receipt, error) {
	raw, err := c.Call(ctx, "eth_getBlockReceipts", hexutil.EncodeUint64(n))
	if err != nil {
		return nil, err
	}
	receipts := []Receipt{}
	if isNull(raw) {
		return receipts, nil
	}
	if err := json.Unmarshal(raw, &receipts); err != nil {
		return nil, fmt.Errorf("decode receipts %d: %w", n, err)
	}
	return receipts, nil
}

// FetchTraces returns the callTracer output for block n. Tracing is optional
// on most providers, so every failure is logged and yields an empty slice.
// The call gets Config.TraceAttempts attempts, not the full retry budget.
// Callers must check ctx after it returns: a cancelled call also yields an
// empty slice.
func (c *Client) FetchTraces(ctx context.Context, n uint64) []Trace {
	raw, err := c.call(ctx, c.cfg.TraceAttempts, "debug_traceBlockByNumber", hexutil.EncodeUint64(n), traceConfig)
	if err != nil {
		c.logger.Debug("traces unavailable", zap.Uint64("block", n), zap.Error(err))
		return []Trace{}
	}
	traces := []Trace{}
	if isNull(raw) {
		return traces
	}
	if err := json.Unmarshal(raw, &traces); err != nil {
		c.logger.Debug("traces undecodable", zap.Uint64("block", n), zap.Error(err))
		return []Trace{}
	}
	return traces
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
