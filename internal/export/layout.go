package export

import (
	"fmt"
	"math"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// Kind is the columnar type a store column is exported as.
type Kind int

const (
	KindInt64 Kind = iota
	KindString
	KindBinary
)

func (k Kind) String() string {
	switch k {
	case KindInt64:
		return "int64"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column pairs a store column with its export type.
type Column struct {
	Name string
	Kind Kind
}

// Layout is the export definition of one table.
type Layout struct {
	Table   string
	Columns []Column
	OrderBy []string
}

// Layouts is the explicit type map for every exported table. Decimal
// quantities stay strings because they routinely overflow 64 bits.
var Layouts = []Layout{
	{
		Table: "blocks",
		Columns: []Column{
			{"number", KindInt64},
			{"hash", KindString},
			{"parent_hash", KindString},
			{"timestamp", KindInt64},
			{"gas_used", KindInt64},
			{"gas_limit", KindInt64},
			{"base_fee", KindString},
			{"tx_count", KindInt64},
		},
		OrderBy: []string{"number"},
	},
	{
		Table: "transactions",
		Columns: []Column{
			{"hash", KindString},
			{"block_number", KindInt64},
			{"tx_index", KindInt64},
			{"from_addr", KindString},
			{"to_addr", KindString},
			{"value", KindString},
			{"gas_used", KindInt64},
			{"gas_price", KindString},
			{"input", KindBinary},
			{"status", KindInt64},
		},
		OrderBy: []string{"block_number", "tx_index"},
	},
	{
		Table: "logs",
		Columns: []Column{
			{"id", KindInt64},
			{"block_number", KindInt64},
			{"tx_hash", KindString},
			{"log_index", KindInt64},
			{"address", KindString},
			{"topic0", KindString},
			{"topic1", KindString},
			{"topic2", KindString},
			{"topic3", KindString},
			{"data", KindBinary},
		},
		OrderBy: []string{"id"},
	},
	{
		Table: "traces",
		Columns: []Column{
			{"id", KindInt64},
			{"block_number", KindInt64},
			{"tx_hash", KindString},
			{"tx_index", KindInt64},
			{"trace_json", KindString},
		},
		OrderBy: []string{"id"},
	},
}

// ColumnNames returns the column names in layout order.
func (l Layout) ColumnNames() []string {
	names := make([]string, len(l.Columns))
	for i, col := range l.Columns {
		names[i] = col.Name
	}
	return names
}

// Schema builds the parquet schema for the layout. Every column is optional.
func (l Layout) Schema() *parquet.Schema {
	group := make(parquet.Group, len(l.Columns))
	for _, col := range l.Columns {
		group[col.Name] = parquet.Optional(col.Kind.node())
	}
	return parquet.NewSchema(l.Table, group)
}

func (k Kind) node() parquet.Node {
	switch k {
	case KindInt64:
		return parquet.Int(64)
	case KindString:
		return parquet.String()
	default:
		return parquet.Leaf(parquet.ByteArrayType)
	}
}

// coerce converts a scanned store value to a parquet value of the column
// kind. A nil result with no error is a null.
func coerce(kind Kind, v any) (*parquet.Value, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindBinary:
		b, ok := v.([]byte)
		if !ok {
			return nil, nil
		}
		val := parquet.ByteArrayValue(b)
		return &val, nil
	case KindString:
		s := stringify(v)
		val := parquet.ByteArrayValue([]byte(s))
		return &val, nil
	default:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		val := parquet.Int64Value(n)
		return &val, nil
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, fmt.Errorf("value %v is not an integer", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
