package export

import (
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/require"

	"blockCapture/internal/storage"
)

func TestLayoutsCoverCatalogue(t *testing.T) {
	require.Len(t, Layouts, len(storage.Catalogue))
	for _, layout := range Layouts {
		columns, ok := storage.Catalogue[layout.Table]
		require.True(t, ok, layout.Table)
		require.Equal(t, columns, layout.ColumnNames(), layout.Table)
		for _, key := range layout.OrderBy {
			require.Contains(t, columns, key)
		}
	}
}

func TestLayoutKinds(t *testing.T) {
	want := map[string]Kind{
		"value":      KindString,
		"gas_price":  KindString,
		"base_fee":   KindString,
		"trace_json": KindString,
		"input":      KindBinary,
		"data":       KindBinary,
		"status":     KindInt64,
		"number":     KindInt64,
	}
	for _, layout := range Layouts {
		for _, col := range layout.Columns {
			if kind, ok := want[col.Name]; ok {
				require.Equal(t, kind, col.Kind, "%s.%s", layout.Table, col.Name)
			}
		}
	}
}

func TestSchemaColumnsAreOptional(t *testing.T) {
	schema := Layouts[1].Schema()
	for _, col := range Layouts[1].Columns {
		leaf, ok := schema.Lookup(col.Name)
		require.True(t, ok, col.Name)
		require.True(t, leaf.Node.Optional(), col.Name)
		if col.Kind == KindInt64 {
			require.Equal(t, parquet.Int64, leaf.Node.Type().Kind(), col.Name)
		} else {
			require.Equal(t, parquet.ByteArray, leaf.Node.Type().Kind(), col.Name)
		}
	}
}

func TestCoerceBinary(t *testing.T) {
	val, err := coerce(KindBinary, []byte{0x01, 0x02})
	require.NoError(t, err)
	require.Equal(t, []byte{0x01, 0x02}, val.ByteArray())

	for _, v := range []any{nil, "0x0102", int64(5)} {
		val, err := coerce(KindBinary, v)
		require.NoError(t, err)
		require.Nil(t, val, "%v", v)
	}
}

func TestCoerceString(t *testing.T) {
	cases := map[string]any{
		"123456789012345678901234": "123456789012345678901234",
		"42":                       int64(42),
		"raw":                      []byte("raw"),
		"1.5":                      1.5,
		"100000000000000000000":    1e20,
	}
	for want, in := range cases {
		val, err := coerce(KindString, in)
		require.NoError(t, err)
		require.Equal(t, want, string(val.ByteArray()))
	}

	val, err := coerce(KindString, nil)
	require.NoError(t, err)
	require.Nil(t, val)
}

func TestCoerceInt64(t *testing.T) {
	for _, in := range []any{int64(7), "7", []byte("7"), 7.0, uint64(7)} {
		val, err := coerce(KindInt64, in)
		require.NoError(t, err)
		require.Equal(t, int64(7), val.Int64())
	}

	for _, in := range []any{"abc", "123456789012345678901234", 7.5, uint64(1 << 63)} {
		_, err := coerce(KindInt64, in)
		require.Error(t, err, "%v", in)
	}
}
