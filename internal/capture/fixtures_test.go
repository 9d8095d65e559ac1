package capture

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"blockCapture/internal/chain"
)

func strPtr(s string) *string { return &s }

func txHashFor(n uint64, i int) string {
	return fmt.Sprintf("0xAB%04x%02x", n, i)
}

// rawBlock builds block n with txCount transactions, each with one receipt log.
func rawBlock(n uint64, txCount int) (*chain.Block, []chain.Receipt) {
	block := &chain.Block{
		Number:        hexutil.EncodeUint64(n),
		Hash:          fmt.Sprintf("0xB10C%04x", n),
		ParentHash:    fmt.Sprintf("0xB10C%04x", n-1),
		Timestamp:     hexutil.EncodeUint64(1700000000 + n*12),
		GasUsed:       "0x5208",
		GasLimit:      "0x1c9c380",
		BaseFeePerGas: strPtr("0x3b9aca00"),
	}
	receipts := make([]chain.Receipt, 0, txCount)
	for i := 0; i < txCount; i++ {
		hash := txHashFor(n, i)
		block.Transactions = append(block.Transactions, chain.Transaction{
			Hash:     hash,
			From:     "0xF00D000000000000000000000000000000000001",
			To:       strPtr("0xC0DE000000000000000000000000000000000002"),
			Value:    strPtr("0xde0b6b3a7640000"),
			GasPrice: strPtr("0x4a817c800"),
			Input:    strPtr("0xa9059cbb"),
		})
		receipts = append(receipts, chain.Receipt{
			TransactionHash: hash,
			Status:          strPtr("0x1"),
			GasUsed:         strPtr("0x5208"),
			Logs: []chain.Log{{
				Address:  "0xC0DE000000000000000000000000000000000002",
				Topics:   []string{"0xDDF252AD", "0x01"},
				Data:     strPtr("0x0102"),
				LogIndex: strPtr(hexutil.EncodeUint64(uint64(i))),
			}},
		})
	}
	return block, receipts
}
