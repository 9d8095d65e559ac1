package chain

import "encoding/json"

// Block is the eth_getBlockByNumber payload with full transaction objects.
// Quantities stay in their wire form; the normalizer decodes them.
type Block struct {
	Number        string        `json:"number"`
	Hash          string        `json:"hash"`
	ParentHash    string        `json:"parentHash"`
	Timestamp     string        `json:"timestamp"`
	GasUsed       string        `json:"gasUsed"`
	GasLimit      string        `json:"gasLimit"`
	BaseFeePerGas *string       `json:"baseFeePerGas"`
	Transactions  []Transaction `json:"transactions"`
}

// Transaction is a transaction object embedded in a block.
type Transaction struct {
	Hash     string  `json:"hash"`
	From     string  `json:"from"`
	To       *string `json:"to"`
	Value    *string `json:"value"`
	GasPrice *string `json:"gasPrice"`
	Input    *string `json:"input"`
	Data     *string `json:"data"`
}

// Receipt is one entry of eth_getBlockReceipts.
type Receipt struct {
	TransactionHash   string  `json:"transactionHash"`
	Status            *string `json:"status"`
	GasUsed           *string `json:"gasUsed"`
	EffectiveGasPrice *string `json:"effectiveGasPrice"`
	Logs              []Log   `json:"logs"`
}

// Log is a receipt log.
type Log struct {
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     *string  `json:"data"`
	LogIndex *string  `json:"logIndex"`
}

// Trace is one entry of debug_traceBlockByNumber. TxHash is only set by
// providers that attach it. Raw holds the whole entry.
type Trace struct {
	TxHash *string
	Result json.RawMessage
	Raw    json.RawMessage
}

// UnmarshalJSON keeps the raw entry in addition to the known fields.
func (t *Trace) UnmarshalJSON(data []byte) error {
	var fields struct {
		TxHash *string         `json:"txHash"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	t.TxHash = fields.TxHash
	t.Result = fields.Result
	t.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// HasResult reports whether the entry carries a result key. A null result
// still counts; RawMessage keeps it as the literal null.
func (t Trace) HasResult() bool {
	return len(t.Result) > 0
}
