package convert

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"

	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/errors"
)

const testFormat = "Arrow"

func int64Chunked(mem memory.Allocator, chunks ...[]int64) *arrow.Chunked {
	arrs := make([]arrow.Array, len(chunks))
	for i, values := range chunks {
		b := array.NewInt64Builder(mem)
		b.AppendValues(values, nil)
		arrs[i] = b.NewArray()
		b.Release()
	}
	return arrow.NewChunked(arrow.PrimitiveTypes.Int64, arrs)
}

func readPlain(t *testing.T, field arrow.Field, chunked *arrow.Chunked) column.Column {
	t.Helper()
	col, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, false)
	require.NoError(t, err)
	return col.Data
}

func TestReadColumnConservesRowsAcrossChunks(t *testing.T) {
	mem := memory.NewGoAllocator()
	chunked := int64Chunked(mem, []int64{1, 2, 3}, []int64{4, 5})
	field := arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Int64}

	data := readPlain(t, field, chunked)
	require.Equal(t, chunked.Len(), data.Rows())
	require.Equal(t, []int64{1, 2, 3, 4, 5}, data.(*column.Vector[int64]).Data)
}

func TestReadColumnNullableWrapsByteMap(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewInt32Builder(mem)
	b.AppendValues([]int32{10, 0, 30}, []bool{true, false, true})
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.PrimitiveTypes.Int32, []arrow.Array{arr})
	field := arrow.Field{Name: "v", Type: arrow.PrimitiveTypes.Int32, Nullable: true}

	col, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, false)
	require.NoError(t, err)
	n := col.Data.(*column.Nullable)
	require.Equal(t, 3, n.Rows())
	require.False(t, n.IsNull(0))
	require.True(t, n.IsNull(1))
	require.Equal(t, int32(30), n.Value(2))
}

func TestReadStringColumnOffsets(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewStringBuilder(mem)
	b.AppendValues([]string{"ab", "", "xyz"}, nil)
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.BinaryTypes.String, []arrow.Array{arr})
	field := arrow.Field{Name: "s", Type: arrow.BinaryTypes.String}

	data := readPlain(t, field, chunked).(*column.String)
	require.Equal(t, 3, data.Rows())
	// Shifted offsets with one terminator per value.
	require.Equal(t, []uint64{3, 4, 8}, data.Offsets)
	require.Equal(t, uint64(len(data.Chars)), data.Offsets[2])
	require.Equal(t, "xyz", data.Value(2))
}

func TestReadStringColumnNullBecomesEmpty(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewStringBuilder(mem)
	b.AppendValues([]string{"a", "", "c"}, []bool{true, false, true})
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.BinaryTypes.String, []arrow.Array{arr})
	field := arrow.Field{Name: "s", Type: arrow.BinaryTypes.String}

	data := readPlain(t, field, chunked).(*column.String)
	require.Equal(t, 3, data.Rows())
	require.Equal(t, "", data.Value(1))
}

func TestReadBooleanColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewBooleanBuilder(mem)
	b.AppendValues([]bool{true, false, true}, nil)
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.FixedWidthTypes.Boolean, []arrow.Array{arr})
	field := arrow.Field{Name: "b", Type: arrow.FixedWidthTypes.Boolean}

	data := readPlain(t, field, chunked)
	require.Equal(t, []uint8{1, 0, 1}, data.(*column.Vector[uint8]).Data)
}

func TestReadDate32ColumnBound(t *testing.T) {
	mem := memory.NewGoAllocator()
	field := arrow.Field{Name: "d", Type: arrow.FixedWidthTypes.Date32}

	build := func(days int32) *arrow.Chunked {
		b := array.NewDate32Builder(mem)
		b.Append(arrow.Date32(days))
		arr := b.NewArray()
		b.Release()
		return arrow.NewChunked(arrow.FixedWidthTypes.Date32, []arrow.Array{arr})
	}

	// The maximum representable day converts; one past it fails.
	data := readPlain(t, field, build(column.MaxDateDays))
	require.Equal(t, column.KindDate32, data.Type().Kind)
	require.Equal(t, []int32{column.MaxDateDays}, data.(*column.Vector[int32]).Data)

	_, err := ReadColumn(field, build(column.MaxDateDays+1), testFormat, DictionaryCache{}, false)
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.ErrorTypeValueOutOfRange))
}

func TestReadDate64ColumnNarrowsToSeconds(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewDate64Builder(mem)
	b.Append(arrow.Date64(86_400_000))
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.FixedWidthTypes.Date64, []arrow.Array{arr})
	field := arrow.Field{Name: "d", Type: arrow.FixedWidthTypes.Date64}

	data := readPlain(t, field, chunked)
	require.Equal(t, column.KindDateTime, data.Type().Kind)
	require.Equal(t, []uint32{86_400}, data.(*column.Vector[uint32]).Data)
}

func TestReadUint16AsDate(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewUint16Builder(mem)
	b.AppendValues([]uint16{0, 19723}, nil)
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.PrimitiveTypes.Uint16, []arrow.Array{arr})
	field := arrow.Field{Name: "d", Type: arrow.PrimitiveTypes.Uint16}

	plain, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, false)
	require.NoError(t, err)
	require.Equal(t, column.KindUInt16, plain.Type.Kind)

	dated, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, true)
	require.NoError(t, err)
	require.Equal(t, column.KindDate, dated.Type.Kind)
	// Reinterpretation changes the declared type only.
	require.Equal(t, []uint16{0, 19723}, dated.Data.(*column.Vector[uint16]).Data)
}

func TestReadUint32AsDateTime(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewUint32Builder(mem)
	b.AppendValues([]uint32{1700000000}, nil)
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arrow.PrimitiveTypes.Uint32, []arrow.Array{arr})
	field := arrow.Field{Name: "ts", Type: arrow.PrimitiveTypes.Uint32}

	dated, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, true)
	require.NoError(t, err)
	require.Equal(t, column.KindDateTime, dated.Type.Kind)
}

func TestReadTimestampColumnScale(t *testing.T) {
	mem := memory.NewGoAllocator()
	tests := []struct {
		unit  arrow.TimeUnit
		scale int
	}{
		{arrow.Second, 0},
		{arrow.Millisecond, 3},
		{arrow.Microsecond, 6},
		{arrow.Nanosecond, 9},
	}
	for _, tt := range tests {
		tsType := &arrow.TimestampType{Unit: tt.unit, TimeZone: "UTC"}
		b := array.NewTimestampBuilder(mem, tsType)
		b.Append(arrow.Timestamp(123456))
		arr := b.NewArray()
		b.Release()
		chunked := arrow.NewChunked(tsType, []arrow.Array{arr})
		field := arrow.Field{Name: "ts", Type: tsType}

		data := readPlain(t, field, chunked)
		typ := data.Type()
		require.Equal(t, column.KindDateTime64, typ.Kind)
		require.Equal(t, tt.scale, typ.Scale)
		require.Equal(t, "UTC", typ.Timezone)
		require.Equal(t, []int64{123456}, data.(*column.Vector[int64]).Data)
	}
}

func TestReadDecimal128WidthSelection(t *testing.T) {
	mem := memory.NewGoAllocator()

	read := func(precision int32) column.Column {
		dt := &arrow.Decimal128Type{Precision: precision, Scale: 2}
		b := array.NewDecimal128Builder(mem, dt)
		b.Append(decimal128.FromI64(12345))
		arr := b.NewArray()
		b.Release()
		chunked := arrow.NewChunked(dt, []arrow.Array{arr})
		field := arrow.Field{Name: "d", Type: dt}
		return readPlain(t, field, chunked)
	}

	d32 := read(5)
	require.Equal(t, column.KindDecimal32, d32.Type().Kind)
	require.Equal(t, []int32{12345}, d32.(*column.Vector[int32]).Data)

	d64 := read(10)
	require.Equal(t, column.KindDecimal64, d64.Type().Kind)
	require.Equal(t, []int64{12345}, d64.(*column.Vector[int64]).Data)

	d128 := read(30)
	require.Equal(t, column.KindDecimal128, d128.Type().Kind)
	require.Equal(t, decimal128.FromI64(12345), d128.(*column.Vector[decimal128.Num]).Data[0])
}

func TestReadDecimal256WidthSelection(t *testing.T) {
	mem := memory.NewGoAllocator()
	dt := &arrow.Decimal256Type{Precision: 50, Scale: 4}
	b := array.NewDecimal256Builder(mem, dt)
	b.Append(decimal256.FromI64(987))
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(dt, []arrow.Array{arr})
	field := arrow.Field{Name: "d", Type: dt}

	data := readPlain(t, field, chunked)
	require.Equal(t, column.KindDecimal256, data.Type().Kind)
	require.Equal(t, 50, data.Type().Precision)
	require.Equal(t, decimal256.FromI64(987), data.(*column.Vector[decimal256.Num]).Data[0])
}

func TestReadListColumnOffsetsAcrossChunks(t *testing.T) {
	mem := memory.NewGoAllocator()
	listType := arrow.ListOf(arrow.PrimitiveTypes.Int64)

	buildChunk := func(lists ...[]int64) arrow.Array {
		lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int64)
		vb := lb.ValueBuilder().(*array.Int64Builder)
		for _, l := range lists {
			lb.Append(true)
			vb.AppendValues(l, nil)
		}
		arr := lb.NewArray()
		lb.Release()
		return arr
	}

	chunked := arrow.NewChunked(listType, []arrow.Array{
		buildChunk([]int64{1, 2}, []int64{3}),
		buildChunk([]int64{4, 5, 6}),
	})
	field := arrow.Field{Name: "l", Type: listType}

	data := readPlain(t, field, chunked).(*column.Array)
	require.Equal(t, 3, data.Rows())
	// Cumulative across chunks, final offset equals flattened length.
	require.Equal(t, []uint64{2, 3, 6}, data.Offsets)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, data.Data.(*column.Vector[int64]).Data)
}

func TestReadMapColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	mapType := arrow.MapOf(arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64)

	mb := array.NewMapBuilder(mem, arrow.BinaryTypes.String, arrow.PrimitiveTypes.Int64, false)
	kb := mb.KeyBuilder().(*array.StringBuilder)
	ib := mb.ItemBuilder().(*array.Int64Builder)
	mb.Append(true)
	kb.AppendValues([]string{"a", "b"}, nil)
	ib.AppendValues([]int64{1, 2}, nil)
	mb.Append(true)
	kb.Append("c")
	ib.Append(3)
	arr := mb.NewArray()
	mb.Release()

	chunked := arrow.NewChunked(mapType, []arrow.Array{arr})
	field := arrow.Field{Name: "m", Type: mapType}

	data := readPlain(t, field, chunked).(*column.Map)
	require.Equal(t, 2, data.Rows())
	require.Equal(t, []uint64{2, 3}, data.Offsets)
	require.Equal(t, "c", data.Keys.Value(2))
	require.Equal(t, int64(3), data.Values.Value(2))
}

func TestReadStructColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	structType := arrow.StructOf(
		arrow.Field{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		arrow.Field{Name: "name", Type: arrow.BinaryTypes.String},
	)

	sb := array.NewStructBuilder(mem, structType)
	idb := sb.FieldBuilder(0).(*array.Int64Builder)
	nb := sb.FieldBuilder(1).(*array.StringBuilder)
	for i, name := range []string{"x", "y"} {
		sb.Append(true)
		idb.Append(int64(i + 1))
		nb.Append(name)
	}
	arr := sb.NewArray()
	sb.Release()

	chunked := arrow.NewChunked(structType, []arrow.Array{arr})
	field := arrow.Field{Name: "t", Type: structType}

	data := readPlain(t, field, chunked).(*column.Tuple)
	require.Equal(t, 2, data.Rows())
	id, ok := data.Field("id")
	require.True(t, ok)
	require.Equal(t, []int64{1, 2}, id.(*column.Vector[int64]).Data)
	name, ok := data.Field("name")
	require.True(t, ok)
	require.Equal(t, "y", name.Value(1))
}

func dictChunked(t *testing.T, mem memory.Allocator, values ...string) *arrow.Chunked {
	t.Helper()
	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	b := array.NewDictionaryBuilder(mem, dt).(*array.BinaryDictionaryBuilder)
	for _, v := range values {
		require.NoError(t, b.AppendString(v))
	}
	arr := b.NewArray()
	b.Release()
	return arrow.NewChunked(dt, []arrow.Array{arr})
}

func TestReadDictionaryColumn(t *testing.T) {
	mem := memory.NewGoAllocator()
	chunked := dictChunked(t, mem, "a", "b", "a", "c")
	field := arrow.Field{Name: "tags", Type: chunked.DataType()}

	col, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, false)
	require.NoError(t, err)
	lc := col.Data.(*column.LowCardinality)
	require.Equal(t, 4, lc.Rows())
	require.Equal(t, "a", lc.Value(0))
	require.Equal(t, "b", lc.Value(1))
	require.Equal(t, "a", lc.Value(2))
	require.Equal(t, "c", lc.Value(3))
	require.Equal(t, 3, lc.Dict.Rows())
}

func TestDictionaryMaterializedOncePerName(t *testing.T) {
	mem := memory.NewGoAllocator()
	cache := DictionaryCache{}
	field := arrow.Field{Name: "tags", Type: dictChunked(t, mem, "a").DataType()}

	first, err := ReadColumn(field, dictChunked(t, mem, "a", "b"), testFormat, cache, false)
	require.NoError(t, err)
	second, err := ReadColumn(field, dictChunked(t, mem, "a", "b"), testFormat, cache, false)
	require.NoError(t, err)

	lc1 := first.Data.(*column.LowCardinality)
	lc2 := second.Data.(*column.LowCardinality)
	// Shared by identity: the second conversion reuses the cached payload.
	require.Same(t, lc1.Dict, lc2.Dict)
	require.Len(t, cache, 1)
}

func TestReadColumnUnsupportedType(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewDurationBuilder(mem, &arrow.DurationType{Unit: arrow.Second})
	b.Append(1)
	arr := b.NewArray()
	b.Release()
	chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
	field := arrow.Field{Name: "dur", Type: arr.DataType()}

	_, err := ReadColumn(field, chunked, testFormat, DictionaryCache{}, false)
	require.Error(t, err)
	require.True(t, errors.IsType(err, errors.ErrorTypeUnsupportedType))

	e, ok := errors.As(err)
	require.True(t, ok)
	name, ok := e.Detail("column")
	require.True(t, ok)
	require.Equal(t, "dur", name)
}
