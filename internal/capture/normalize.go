package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethmath "github.com/ethereum/go-ethereum/common/math"

	"blockCapture/internal/chain"
	"blockCapture/internal/model"
	"blockCapture/internal/storage"
)

// WriteBlock normalizes one block with its receipts and traces and persists it
// through store in a single transaction.
func WriteBlock(ctx context.Context, store storage.Store, block *chain.Block, receipts []chain.Receipt, traces []chain.Trace) error {
	data, err := Normalize(block, receipts, traces)
	if err != nil {
		return err
	}
	return store.WriteBlock(ctx, data)
}

// Normalize maps raw RPC documents onto relational rows.
func Normalize(block *chain.Block, receipts []chain.Receipt, traces []chain.Trace) (model.BlockData, error) {
	if block == nil {
		return model.BlockData{}, fmt.Errorf("block is nil")
	}

	header, err := buildBlock(block)
	if err != nil {
		return model.BlockData{}, err
	}
	data := model.BlockData{
		Block:        header,
		Transactions: make([]model.Transaction, 0, len(block.Transactions)),
		Logs:         []model.Log{},
		Traces:       make([]model.Trace, 0, len(traces)),
	}

	byHash := make(map[string]*chain.Receipt, len(receipts))
	for i := range receipts {
		byHash[strings.ToLower(receipts[i].TransactionHash)] = &receipts[i]
	}

	for i, raw := range block.Transactions {
		hash := strings.ToLower(raw.Hash)
		receipt := byHash[hash]

		tx, err := buildTransaction(header.Number, uint64(i), raw, receipt)
		if err != nil {
			return model.BlockData{}, fmt.Errorf("block %d tx %s: %w", header.Number, hash, err)
		}
		data.Transactions = append(data.Transactions, tx)

		if receipt == nil {
			continue
		}
		for _, rawLog := range receipt.Logs {
			log, err := buildLog(header.Number, hash, rawLog)
			if err != nil {
				return model.BlockData{}, fmt.Errorf("block %d tx %s: %w", header.Number, hash, err)
			}
			data.Logs = append(data.Logs, log)
		}
	}

	indexByHash := make(map[string]uint64, len(data.Transactions))
	for _, tx := range data.Transactions {
		indexByHash[tx.Hash] = tx.TxIndex
	}
	for pos, raw := range traces {
		trace, err := buildTrace(header.Number, pos, raw, data.Transactions, indexByHash)
		if err != nil {
			return model.BlockData{}, fmt.Errorf("block %d trace %d: %w", header.Number, pos, err)
		}
		data.Traces = append(data.Traces, trace)
	}

	return data, nil
}

func buildBlock(raw *chain.Block) (model.Block, error) {
	number, err := parseQuantity("number", raw.Number)
	if err != nil {
		return model.Block{}, fmt.Errorf("block: %w", err)
	}
	fail := func(err error) (model.Block, error) {
		return model.Block{}, fmt.Errorf("block %d: %w", number, err)
	}

	ts, err := parseQuantity("timestamp", raw.Timestamp)
	if err != nil {
		return fail(err)
	}
	gasUsed, err := parseQuantity("gasUsed", raw.GasUsed)
	if err != nil {
		return fail(err)
	}
	gasLimit, err := parseQuantity("gasLimit", raw.GasLimit)
	if err != nil {
		return fail(err)
	}

	var baseFee *string
	if raw.BaseFeePerGas != nil {
		fee, err := parseDecimal("baseFeePerGas", *raw.BaseFeePerGas)
		if err != nil {
			return fail(err)
		}
		baseFee = &fee
	}

	return model.Block{
		Number:     number,
		Hash:       strings.ToLower(raw.Hash),
		ParentHash: strings.ToLower(raw.ParentHash),
		Timestamp:  ts,
		GasUsed:    gasUsed,
		GasLimit:   gasLimit,
		BaseFee:    baseFee,
		TxCount:    uint64(len(raw.Transactions)),
	}, nil
}

func buildTransaction(blockNumber, index uint64, raw chain.Transaction, receipt *chain.Receipt) (model.Transaction, error) {
	tx := model.Transaction{
		Hash:        strings.ToLower(raw.Hash),
		BlockNumber: blockNumber,
		TxIndex:     index,
		From:        strings.ToLower(raw.From),
		Value:       "0",
		GasPrice:    "0",
		Input:       []byte{},
		Status:      1,
	}
	if raw.To != nil && *raw.To != "" {
		to := strings.ToLower(*raw.To)
		tx.To = &to
	}

	var err error
	if raw.Value != nil {
		if tx.Value, err = parseDecimal("value", *raw.Value); err != nil {
			return tx, err
		}
	}

	input := raw.Input
	if input == nil {
		input = raw.Data
	}
	if input != nil {
		if tx.Input, err = decodeBytes("input", *input); err != nil {
			return tx, err
		}
	}

	gasPrice := raw.GasPrice
	if receipt != nil && receipt.EffectiveGasPrice != nil {
		gasPrice = receipt.EffectiveGasPrice
	}
	if gasPrice != nil {
		if tx.GasPrice, err = parseDecimal("gasPrice", *gasPrice); err != nil {
			return tx, err
		}
	}

	if receipt == nil {
		return tx, nil
	}
	if receipt.GasUsed != nil {
		if tx.GasUsed, err = parseQuantity("gasUsed", *receipt.GasUsed); err != nil {
			return tx, err
		}
	}
	if receipt.Status != nil {
		if tx.Status, err = parseQuantity("status", *receipt.Status); err != nil {
			return tx, err
		}
	}
	return tx, nil
}

func buildLog(blockNumber uint64, txHash string, raw chain.Log) (model.Log, error) {
	log := model.Log{
		BlockNumber: blockNumber,
		TxHash:      txHash,
		Address:     strings.ToLower(raw.Address),
		Data:        []byte{},
	}

	topics := make([]string, len(raw.Topics))
	for i, topic := range raw.Topics {
		topics[i] = strings.ToLower(topic)
	}
	log.SetTopics(topics)

	var err error
	if raw.LogIndex != nil {
		if log.LogIndex, err = parseQuantity("logIndex", *raw.LogIndex); err != nil {
			return log, err
		}
	}
	if raw.Data != nil {
		if log.Data, err = decodeBytes("data", *raw.Data); err != nil {
			return log, err
		}
	}
	return log, nil
}

// buildTrace aligns a trace entry to a transaction by its txHash when the
// provider sends one, and by position otherwise.
func buildTrace(blockNumber uint64, pos int, raw chain.Trace, txs []model.Transaction, indexByHash map[string]uint64) (model.Trace, error) {
	trace := model.Trace{
		BlockNumber: blockNumber,
		TxIndex:     uint64(pos),
	}

	switch {
	case raw.TxHash != nil:
		trace.TxHash = strings.ToLower(*raw.TxHash)
		if idx, ok := indexByHash[trace.TxHash]; ok {
			trace.TxIndex = idx
		}
	case pos < len(txs):
		trace.TxHash = txs[pos].Hash
	}

	doc := raw.Raw
	if raw.HasResult() {
		doc = raw.Result
	}
	if len(doc) == 0 {
		doc = json.RawMessage("null")
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, doc); err != nil {
		return trace, fmt.Errorf("trace json: %w", err)
	}
	trace.TraceJSON = buf.String()
	return trace, nil
}

func parseQuantity(field, s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("%s: empty quantity", field)
	}
	v, ok := gethmath.ParseUint64(s)
	if !ok {
		return 0, fmt.Errorf("%s: invalid quantity %q", field, s)
	}
	return v, nil
}

func parseDecimal(field, s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%s: empty quantity", field)
	}
	v, ok := gethmath.ParseBig256(s)
	if !ok {
		return "", fmt.Errorf("%s: invalid quantity %q", field, s)
	}
	return v.String(), nil
}

func decodeBytes(field, s string) ([]byte, error) {
	if s == "" || s == "0x" || s == "0X" {
		return []byte{}, nil
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return b, nil
}
