package model

// Transaction is a transaction row joined with the execution outcome from its receipt.
// Value and GasPrice are base-10 decimal strings since they routinely exceed 64 bits.
type Transaction struct {
	Hash        string  `db:"hash" json:"hash"`
	BlockNumber uint64  `db:"block_number" json:"block_number"`
	TxIndex     uint64  `db:"tx_index" json:"tx_index"`
	From        string  `db:"from_addr" json:"from_addr"`
	To          *string `db:"to_addr" json:"to_addr,omitempty"`
	Value       string  `db:"value" json:"value"`
	GasUsed     uint64  `db:"gas_used" json:"gas_used"`
	GasPrice    string  `db:"gas_price" json:"gas_price"`
	Input       []byte  `db:"input" json:"input"`
	Status      uint64  `db:"status" json:"status"`
}
