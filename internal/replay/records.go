package replay

import "blockCapture/internal/model"

// Records mirror the exported parquet columns. Every column is optional on
// disk, so every field is nullable here.

type blockRecord struct {
	Number     *int64  `parquet:"number,optional"`
	Hash       *string `parquet:"hash,optional"`
	ParentHash *string `parquet:"parent_hash,optional"`
	Timestamp  *int64  `parquet:"timestamp,optional"`
	GasUsed    *int64  `parquet:"gas_used,optional"`
	GasLimit   *int64  `parquet:"gas_limit,optional"`
	BaseFee    *string `parquet:"base_fee,optional"`
	TxCount    *int64  `parquet:"tx_count,optional"`
}

func (r blockRecord) model() model.Block {
	return model.Block{
		Number:     u64(r.Number),
		Hash:       str(r.Hash),
		ParentHash: str(r.ParentHash),
		Timestamp:  u64(r.Timestamp),
		GasUsed:    u64(r.GasUsed),
		GasLimit:   u64(r.GasLimit),
		BaseFee:    r.BaseFee,
		TxCount:    u64(r.TxCount),
	}
}

type transactionRecord struct {
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

func (r transactionRecord) model() model.Transaction {
	input := r.Input
	if input == nil {
		input = []byte{}
	}
	return model.Transaction{
		Hash:        str(r.Hash),
		BlockNumber: u64(r.BlockNumber),
		TxIndex:     u64(r.TxIndex),
		From:        str(r.FromAddr),
		To:          r.ToAddr,
		Value:       str(r.Value),
		GasUsed:     u64(r.GasUsed),
		GasPrice:    str(r.GasPrice),
		Input:       input,
		Status:      u64(r.Status),
	}
}

type logRecord struct {
	ID          *int64  `parquet:"id,optional"`
	BlockNumber *int64  `parquet:"block_number,optional"`
	TxHash      *string `parquet:"tx_hash,optional"`
	LogIndex    *int64  `parquet:"log_index,optional"`
	Address     *string `parquet:"address,optional"`
	Topic0      *string `parquet:"topic0,optional"`
	Topic1      *string `parquet:"topic1,optional"`
	Topic2      *string `parquet:"topic2,optional"`
	Topic3      *string `parquet:"topic3,optional"`
	Data        []byte  `parquet:"data,optional"`
}

func (r logRecord) model() model.Log {
	return model.Log{
		BlockNumber: u64(r.BlockNumber),
		TxHash:      str(r.TxHash),
		LogIndex:    u64(r.LogIndex),
		Address:     str(r.Address),
		Topic0:      r.Topic0,
		Topic1:      r.Topic1,
		Topic2:      r.Topic2,
		Topic3:      r.Topic3,
		Data:        r.Data,
	}
}

type traceRecord struct {
	ID          *int64  `parquet:"id,optional"`
	BlockNumber *int64  `parquet:"block_number,optional"`
	TxHash      *string `parquet:"tx_hash,optional"`
	TxIndex     *int64  `parquet:"tx_index,optional"`
	TraceJSON   *string `parquet:"trace_json,optional"`
}

func (r traceRecord) model() model.Trace {
	return model.Trace{
		BlockNumber: u64(r.BlockNumber),
		TxHash:      str(r.TxHash),
		TxIndex:     u64(r.TxIndex),
		TraceJSON:   str(r.TraceJSON),
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func u64(p *int64) uint64 {
	if p == nil || *p < 0 {
		return 0
	}
	return uint64(*p)
}
