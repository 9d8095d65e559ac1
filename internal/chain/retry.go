package chain

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

type failureClass int

const (
	classTransport failureClass = iota
	classRateLimited
	classServer
	classClient
	classRPC
	classCanceled
)

func (f failureClass) String() string {
	switch f {
	case classRateLimited:
		return "rate_limited"
	case classServer:
		return "server_error"
	case classClient:
		return "client_error"
	case classRPC:
		return "rpc_error"
	case classCanceled:
		return "canceled"
	default:
		return "transport"
	}
}

// JSON-RPC codes some providers use to signal throttling on an HTTP 200.
var rateLimitCodes = map[int]struct{}{
	429:    {},
	-32005: {},
}

func classify(ctx context.Context, err error) failureClass {
	if ctx.Err() != nil {
		return classCanceled
	}

	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return classRateLimited
		case httpErr.StatusCode >= http.StatusInternalServerError:
			return classServer
		default:
			return classClient
		}
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		if isRateLimitError(rpcErr) {
			return classRateLimited
		}
		return classRPC
	}

	return classTransport
}

func isRateLimitError(err rpc.Error) bool {
	if _, ok := rateLimitCodes[err.ErrorCode()]; ok {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit")
}

// backoff returns the wait before the next attempt and whether to retry at all.
func backoff(class failureClass, attempt int, base time.Duration) (time.Duration, bool) {
	switch class {
	case classRateLimited:
		return base * time.Duration(uint64(1)<<uint(attempt)), true
	case classServer, classTransport:
		return base * time.Duration(attempt+1), true
	default:
		return 0, false
	}
}
