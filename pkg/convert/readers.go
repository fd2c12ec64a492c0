package convert

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"

	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/errors"
)

// numericReader copies one external numeric column into an internal vector.
type numericReader func(chunked *arrow.Chunked) column.Column

// numericReaders is the type dispatch table for plain numeric kinds: a pure
// mapping from the external type tag to a bulk-copy conversion. UINT16 and
// UINT32 are handled separately because of the date reinterpretation rule,
// and half floats are promoted to 32-bit.
var numericReaders = map[arrow.Type]numericReader{
	arrow.UINT8: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt8), func(a arrow.Array) []uint8 {
			return a.(*array.Uint8).Uint8Values()
		})
	},
	arrow.INT8: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindInt8), func(a arrow.Array) []int8 {
			return a.(*array.Int8).Int8Values()
		})
	},
	arrow.INT16: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindInt16), func(a arrow.Array) []int16 {
			return a.(*array.Int16).Int16Values()
		})
	},
	arrow.INT32: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindInt32), func(a arrow.Array) []int32 {
			return a.(*array.Int32).Int32Values()
		})
	},
	arrow.UINT64: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt64), func(a arrow.Array) []uint64 {
			return a.(*array.Uint64).Uint64Values()
		})
	},
	arrow.INT64: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindInt64), func(a arrow.Array) []int64 {
			return a.(*array.Int64).Int64Values()
		})
	},
	arrow.FLOAT16: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindFloat32), func(a arrow.Array) []float32 {
			nums := a.(*array.Float16).Values()
			out := make([]float32, len(nums))
			for i, n := range nums {
				out[i] = n.Float32()
			}
			return out
		})
	},
	arrow.FLOAT32: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindFloat32), func(a arrow.Array) []float32 {
			return a.(*array.Float32).Float32Values()
		})
	},
	arrow.FLOAT64: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindFloat64), func(a arrow.Array) []float64 {
			return a.(*array.Float64).Float64Values()
		})
	},
}

// indexReaders is the restricted dispatch for low-cardinality index columns:
// signed index types are reinterpreted as the unsigned type of the same
// width. Only 8/16/32/64-bit integers are supported.
var indexReaders = map[arrow.Type]numericReader{
	arrow.UINT8: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt8), func(a arrow.Array) []uint8 {
			return a.(*array.Uint8).Uint8Values()
		})
	},
	arrow.INT8: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt8), func(a arrow.Array) []uint8 {
			src := a.(*array.Int8).Int8Values()
			out := make([]uint8, len(src))
			for i, v := range src {
				out[i] = uint8(v)
			}
			return out
		})
	},
	arrow.UINT16: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt16), func(a arrow.Array) []uint16 {
			return a.(*array.Uint16).Uint16Values()
		})
	},
	arrow.INT16: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt16), func(a arrow.Array) []uint16 {
			src := a.(*array.Int16).Int16Values()
			out := make([]uint16, len(src))
			for i, v := range src {
				out[i] = uint16(v)
			}
			return out
		})
	},
	arrow.UINT32: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt32), func(a arrow.Array) []uint32 {
			return a.(*array.Uint32).Uint32Values()
		})
	},
	arrow.INT32: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt32), func(a arrow.Array) []uint32 {
			src := a.(*array.Int32).Int32Values()
			out := make([]uint32, len(src))
			for i, v := range src {
				out[i] = uint32(v)
			}
			return out
		})
	},
	arrow.UINT64: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt64), func(a arrow.Array) []uint64 {
			return a.(*array.Uint64).Uint64Values()
		})
	},
	arrow.INT64: func(c *arrow.Chunked) column.Column {
		return readNumeric(c, column.Simple(column.KindUInt64), func(a arrow.Array) []uint64 {
			src := a.(*array.Int64).Int64Values()
			out := make([]uint64, len(src))
			for i, v := range src {
				out[i] = uint64(v)
			}
			return out
		})
	},
}

// readUint16Column and readUint32Column sit outside numericReaders because
// their declared type depends on the date reinterpretation flag.
func readUint16Column(chunked *arrow.Chunked) *column.Vector[uint16] {
	return readNumeric(chunked, column.Simple(column.KindUInt16), func(a arrow.Array) []uint16 {
		return a.(*array.Uint16).Uint16Values()
	}).(*column.Vector[uint16])
}

func readUint32Column(chunked *arrow.Chunked) *column.Vector[uint32] {
	return readNumeric(chunked, column.Simple(column.KindUInt32), func(a arrow.Array) []uint32 {
		return a.(*array.Uint32).Uint32Values()
	}).(*column.Vector[uint32])
}

func readNumeric[T column.Scalar](chunked *arrow.Chunked, t *column.Type, values func(arrow.Array) []T) column.Column {
	data := make([]T, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		if chunk.Len() == 0 {
			continue
		}
		data = append(data, values(chunk)...)
	}
	return column.NewVector(t, data)
}

// readStringColumn copies chars and per-row end offsets. Each value is
// additionally null terminated; a null source row contributes only its
// terminator.
func readStringColumn(chunked *arrow.Chunked) column.Column {
	var totalBytes int
	for _, chunk := range chunked.Chunks() {
		switch arr := chunk.(type) {
		case *array.String:
			for i := 0; i < arr.Len(); i++ {
				if !arr.IsNull(i) {
					totalBytes += len(arr.Value(i))
				}
			}
		case *array.Binary:
			for i := 0; i < arr.Len(); i++ {
				if !arr.IsNull(i) {
					totalBytes += len(arr.Value(i))
				}
			}
		}
		totalBytes += chunk.Len() // one terminator per value
	}

	out := column.NewString(chunked.Len(), totalBytes)
	for _, chunk := range chunked.Chunks() {
		switch arr := chunk.(type) {
		case *array.String:
			for i := 0; i < arr.Len(); i++ {
				if arr.IsNull(i) {
					out.Append(nil)
				} else {
					out.AppendString(arr.Value(i))
				}
			}
		case *array.Binary:
			for i := 0; i < arr.Len(); i++ {
				if arr.IsNull(i) {
					out.Append(nil)
				} else {
					out.Append(arr.Value(i))
				}
			}
		}
	}
	return out
}

func readBooleanColumn(chunked *arrow.Chunked) column.Column {
	data := make([]uint8, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		arr := chunk.(*array.Boolean)
		for i := 0; i < arr.Len(); i++ {
			if arr.Value(i) {
				data = append(data, 1)
			} else {
				data = append(data, 0)
			}
		}
	}
	return column.NewVector(column.Simple(column.KindUInt8), data)
}

func readDate32Column(chunked *arrow.Chunked, name string) (column.Column, error) {
	data := make([]int32, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		arr := chunk.(*array.Date32)
		for _, v := range arr.Date32Values() {
			data = append(data, int32(v))
		}
	}
	for _, v := range data {
		if int(v) > column.MaxDateDays {
			return nil, errors.Newf(errors.ErrorTypeValueOutOfRange,
				"input value %d of a column %q is greater than max allowed Date value, which is %d",
				v, name, column.MaxDateDays).
				WithDetail("column", name).
				WithDetail("value", int64(v))
		}
	}
	return column.NewVector(column.Simple(column.KindDate32), data), nil
}

// readDate64Column narrows millisecond epoch values to whole seconds. The
// narrowing is deliberately unchecked, matching what existing writers expect
// on round trips; see the range-checked Date32 path for the contrast.
func readDate64Column(chunked *arrow.Chunked) column.Column {
	data := make([]uint32, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		arr := chunk.(*array.Date64)
		for _, v := range arr.Date64Values() {
			data = append(data, uint32(int64(v)/1000))
		}
	}
	return column.NewVector(column.Simple(column.KindDateTime), data)
}

func readTimestampColumn(chunked *arrow.Chunked) column.Column {
	ts := chunked.DataType().(*arrow.TimestampType)
	scale := int(ts.Unit) * 3
	t := column.DateTime64Type(scale, ts.TimeZone)
	data := make([]int64, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		arr := chunk.(*array.Timestamp)
		for _, v := range arr.TimestampValues() {
			data = append(data, int64(v))
		}
	}
	return column.NewVector(t, data)
}

// readDecimal128Column copies raw decimal bit patterns into the narrowest
// backing covering the source precision. Null source values map to zero;
// their nullness is carried by the nullable wrapper, not in-band.
func readDecimal128Column(chunked *arrow.Chunked) (column.Column, error) {
	dt := chunked.DataType().(*arrow.Decimal128Type)
	t, err := column.DecimalType(int(dt.Precision), int(dt.Scale))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValueOutOfRange, "decimal precision")
	}

	n := chunked.Len()
	switch t.Kind {
	case column.KindDecimal32:
		data := make([]int32, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Decimal128)
			for i := 0; i < arr.Len(); i++ {
				if arr.IsNull(i) {
					data = append(data, 0)
				} else {
					data = append(data, int32(arr.Value(i).LowBits()))
				}
			}
		}
		return column.NewVector(t, data), nil
	case column.KindDecimal64:
		data := make([]int64, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Decimal128)
			for i := 0; i < arr.Len(); i++ {
				if arr.IsNull(i) {
					data = append(data, 0)
				} else {
					data = append(data, int64(arr.Value(i).LowBits()))
				}
			}
		}
		return column.NewVector(t, data), nil
	default:
		data := make([]decimal128.Num, 0, n)
		for _, chunk := range chunked.Chunks() {
			arr := chunk.(*array.Decimal128)
			for i := 0; i < arr.Len(); i++ {
				if arr.IsNull(i) {
					data = append(data, decimal128.Num{})
				} else {
					data = append(data, arr.Value(i))
				}
			}
		}
		if t.Kind == column.KindDecimal256 {
			wide := make([]decimal256.Num, len(data))
			for i, v := range data {
				wide[i] = decimal256.FromDecimal128(v)
			}
			return column.NewVector(t, wide), nil
		}
		return column.NewVector(t, data), nil
	}
}

func readDecimal256Column(chunked *arrow.Chunked) (column.Column, error) {
	dt := chunked.DataType().(*arrow.Decimal256Type)
	t, err := column.DecimalType(int(dt.Precision), int(dt.Scale))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeValueOutOfRange, "decimal precision")
	}

	n := chunked.Len()
	nums := make([]decimal256.Num, 0, n)
	for _, chunk := range chunked.Chunks() {
		arr := chunk.(*array.Decimal256)
		for i := 0; i < arr.Len(); i++ {
			if arr.IsNull(i) {
				nums = append(nums, decimal256.Num{})
			} else {
				nums = append(nums, arr.Value(i))
			}
		}
	}

	switch t.Kind {
	case column.KindDecimal32:
		data := make([]int32, len(nums))
		for i, v := range nums {
			data[i] = int32(v.Array()[0])
		}
		return column.NewVector(t, data), nil
	case column.KindDecimal64:
		data := make([]int64, len(nums))
		for i, v := range nums {
			data[i] = int64(v.Array()[0])
		}
		return column.NewVector(t, data), nil
	case column.KindDecimal128:
		data := make([]decimal128.Num, len(nums))
		for i, v := range nums {
			words := v.Array()
			data[i] = decimal128.New(int64(words[1]), words[0])
		}
		return column.NewVector(t, data), nil
	default:
		return column.NewVector(t, nums), nil
	}
}

// readNullByteMap derives a byte map of per-row nullness from the external
// column's null bits.
func readNullByteMap(chunked *arrow.Chunked) []uint8 {
	mask := make([]uint8, 0, chunked.Len())
	for _, chunk := range chunked.Chunks() {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				mask = append(mask, 1)
			} else {
				mask = append(mask, 0)
			}
		}
	}
	return mask
}

type offsetsArray interface {
	Offsets() []int32
}

type listLikeArray interface {
	ListValues() arrow.Array
}

// readListOffsets walks each chunk's native offsets, accumulating a running
// start across chunks, and produces per-row end offsets into the flattened
// element column.
func readListOffsets(chunked *arrow.Chunked) ([]uint64, error) {
	offsets := make([]uint64, 0, chunked.Len())
	var start uint64
	for _, chunk := range chunked.Chunks() {
		arr, ok := chunk.(offsetsArray)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
				"expected a list-like chunk, got %s", chunk.DataType())
		}
		native := arr.Offsets()
		for i := 1; i < len(native); i++ {
			offsets = append(offsets, start+uint64(native[i]))
		}
		if len(native) > 0 {
			start += uint64(native[len(native)-1])
		}
	}
	return offsets, nil
}

// flattenListChunks concatenates every chunk's element array into one
// chunked view of the element column.
func flattenListChunks(chunked *arrow.Chunked, elemType arrow.DataType) (*arrow.Chunked, error) {
	chunks := make([]arrow.Array, 0, len(chunked.Chunks()))
	for _, chunk := range chunked.Chunks() {
		arr, ok := chunk.(listLikeArray)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
				"expected a list-like chunk, got %s", chunk.DataType())
		}
		chunks = append(chunks, arr.ListValues())
	}
	return arrow.NewChunked(elemType, chunks), nil
}
