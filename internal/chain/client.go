package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"blockCapture/internal/metrics"
)

const (
	DefaultMaxAttempts   = 8
	DefaultTraceAttempts = 1
	DefaultRetryDelay    = 2 * time.Second
	DefaultTimeout       = 60 * time.Second
)

// Config controls transport timeouts and the retry budget of a Client.
// TraceAttempts applies to debug_traceBlockByNumber only.
type Config struct {
	MaxAttempts   int
	TraceAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.TraceAttempts <= 0 {
		c.TraceAttempts = DefaultTraceAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// Client issues raw JSON-RPC calls with a uniform retry policy.
type Client struct {
	rpcClient *rpc.Client
	cfg       Config
	logger    *zap.Logger
	sleep     func(context.Context, time.Duration) error
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	rpcClient, err := rpc.DialOptions(ctx, rpcURL, rpc.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		cfg:       cfg,
		logger:    logger,
		sleep:     sleepContext,
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// Ping returns the provider's head block with a single, non-retried call.
func (c *Client) Ping(ctx context.Context) (uint64, error) {
	var head hexutil.Uint64
	if err := c.rpcClient.CallContext(ctx, &head, "eth_blockNumber"); err != nil {
		return 0, err
	}
	return uint64(head), nil
}

// Call performs method with params and returns the raw result document.
// Rate limits back off exponentially, server and transport failures back off
// linearly, everything else fails on the first attempt.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	return c.call(ctx, c.cfg.MaxAttempts, method, params...)
}

func (c *Client) call(ctx context.Context, maxAttempts int, method string, params ...interface{}) (json.RawMessage, error) {
	for attempt := 0; ; attempt++ {
		var result json.RawMessage
		err := c.rpcClient.CallContext(ctx, &result, method, params...)
		if err == nil {
			metrics.RPCRequests.WithLabelValues(method, "ok").Inc()
			return result, nil
		}

		class := classify(ctx, err)
		err = redactURL(err)
		wait, retry := backoff(class, attempt, c.cfg.RetryDelay)
		if !retry {
			metrics.RPCRequests.WithLabelValues(method, class.String()).Inc()
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		if attempt+1 >= maxAttempts {
			metrics.RPCRequests.WithLabelValues(method, "exhausted").Inc()
			return nil, fmt.Errorf("%s failed after %d attempts: %w", method, attempt+1, err)
		}

		c.logger.Warn("rpc call failed, retrying",
			zap.String("method", method),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxAttempts),
			zap.String("reason", class.String()),
			zap.Duration("retry_in", wait),
			zap.Error(err),
		)
		metrics.RPCRetries.WithLabelValues(method, class.String()).Inc()

		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// redactURL drops the path and query of the endpoint from transport errors.
// Provider URLs carry API keys there.
func redactURL(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	u, perr := url.Parse(urlErr.URL)
	if perr != nil {
		return &url.Error{Op: urlErr.Op, URL: "invalid", Err: urlErr.Err}
	}
	return &url.Error{Op: urlErr.Op, URL: u.Scheme + "://" + u.Host, Err: urlErr.Err}
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
