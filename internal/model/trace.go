package model

// Trace stores a callTracer result for one transaction as an opaque JSON document.
type Trace struct {
	BlockNumber uint64 `db:"block_number" json:"block_number"`
	TxHash      string `db:"tx_hash" json:"tx_hash"`
	TxIndex     uint64 `db:"tx_index" json:"tx_index"`
	TraceJSON   string `db:"trace_json" json:"trace_json"`
}
