package chain

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchBlockDecodesTransactions(t *testing.T) {
	_, srv := newRPCStub(t, func(req rpcRequest, call int, w http.ResponseWriter) {
		assert.Equal(t, "eth_getBlockByNumber", req.Method)
		assert.JSONEq(t, `"0x64"`, string(req.Params[0]))
		assert.JSONEq(t, `true`, string(req.Params[1]))
		writeResult(w, req.ID, `{
			"number":"0x64","hash":"0xAA","parentHash":"0xBB","timestamp":"0x5f5e100",
			"gasUsed":"0x5208","gasLimit":"0x1c9c380","baseFeePerGas":"0x7",
			"transactions":[{"hash":"0xCC","from":"0xDD","to":null,"value":"0x0","input":"0x6080"}]
		}`)
	})
	client, _ := newTestClient(t, srv.URL, Config{})

	block, err := client.FetchBlock(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, "0x64", block.Number)
	require.NotNil(t, block.BaseFeePerGas)
	require.Len(t, block.Transactions, 1)
	require.Nil(t, block.Transactions[0].To)
	require.Equal(t, "0x6080", *block.Transactions[0].Input)
}

func TestFetchBlockNullIsError(t *testing.T) {
	_, srv := newRPCStub(t, func(req rpcRequest, call int, w http.ResponseWriter) {
		writeResult(w, req.ID, `null`)
	})
	client, _ := newTestClient(t, srv.URL, Config{})

	_, err := client.FetchBlock(context.Background(), 7)
	require.EqualError(t, err, "block 7 not found")
}

func TestFetchReceiptsNullIsEmpty(t *testing.T) {
	_, srv := newRPCStub(t, func(req rpcRequest, call int, w http.ResponseWriter) {
		writeResult(w, req.ID, `null`)
	})
	client, _ := newTestClient(t, srv.URL, Config{})

	receipts, err := client.FetchReceipts(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, receipts)
	require.Empty(t, receipts)
}

func TestFetchTracesKeepsRawEntries(t *testing.T) {
	_, srv := newRPCStub(t, func(req rpcRequest, call int, w http.ResponseWriter) {
		assert.JSONEq(t, `{"tracer":"callTracer","tracerConfig":{"withLog":true}}`, string(req.Params[1]))
		writeResult(w, req.ID, `[{"txHash":"0xAB","result":{"type":"CALL"}},{"result":null}]`)
	})
	client, _ := newTestClient(t, srv.URL, Config{})

	traces := client.FetchTraces(context.Background(), 7)
	require.Len(t, traces, 2)
	require.Equal(t, "0xAB", *traces[0].TxHash)
	require.True(t, traces[0].HasResult())
	require.JSONEq(t, `{"type":"CALL"}`, string(traces[0].Result))
	require.Nil(t, traces[1].TxHash)
	require.True(t, traces[1].HasResult())
	require.Equal(t, "null", string(traces[1].Result))
	require.JSONEq(t, `{"result":null}`, string(traces[1].Raw))
}

func TestFetchTracesFailsSoft(t *testing.T) {
	cases := []struct {
		name    string
		respond func(req rpcRequest, w http.ResponseWriter)
	}{
		{"method not found", func(req rpcRequest, w http.ResponseWriter) {
			writeRPCError(w, req.ID, -32601, "the method debug_traceBlockByNumber does not exist")
		}},
		{"server error", func(req rpcRequest, w http.ResponseWriter) {
			http.Error(w, "boom", http.StatusBadGateway)
		}},
		{"undecodable", func(req rpcRequest, w http.ResponseWriter) {
			writeResult(w, req.ID, `{"not":"a list"}`)
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, srv := newRPCStub(t, func(req rpcRequest, call int, w http.ResponseWriter) {
				tc.respond(req, w)
			})
			client, _ := newTestClient(t, srv.URL, Config{MaxAttempts: 2, RetryDelay: time.Millisecond})

			traces := client.FetchTraces(context.Background(), 7)
			require.NotNil(t, traces)
			require.Empty(t, traces)
		})
	}
}

func TestFetchTracesUsesTraceAttemptBudget(t *testing.T) {
	cases := []struct {
		name          string
		traceAttempts int
		wantCalls     int
	}{
		{"default gives up after one call", 0, 1},
		{"explicit budget", 3, 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub, srv := newRPCStub(t, func(req rpcRequest, call int, w http.ResponseWriter) {
				http.Error(w, "upstream timeout", http.StatusGatewayTimeout)
			})
			client, waits := newTestClient(t, srv.URL, Config{
				MaxAttempts:   8,
				TraceAttempts: tc.traceAttempts,
				RetryDelay:    time.Millisecond,
			})

			require.Empty(t, client.FetchTraces(context.Background(), 7))
			require.Equal(t, tc.wantCalls, stub.count("debug_traceBlockByNumber"))
			require.Len(t, *waits, tc.wantCalls-1)
		})
	}
}
