package model

// Block is the normalized representation of a block header row.
type Block struct {
	Number     uint64  `db:"number" json:"number"`
	Hash       string  `db:"hash" json:"hash"`
	ParentHash string  `db:"parent_hash" json:"parent_hash"`
	Timestamp  uint64  `db:"timestamp" json:"timestamp"`
	GasUsed    uint64  `db:"gas_used" json:"gas_used"`
	GasLimit   uint64  `db:"gas_limit" json:"gas_limit"`
	BaseFee    *string `db:"base_fee" json:"base_fee,omitempty"`
	TxCount    uint64  `db:"tx_count" json:"tx_count"`
}

// BlockData groups every row produced for a single block capture.
type BlockData struct {
	Block        Block
	Transactions []Transaction
	Logs         []Log
	Traces       []Trace
}
