package column

import (
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"

	"github.com/ditgittube/gluten/pkg/errors"
)

// NewDefault builds a column of the given type filled with rows default
// values: zeros for numerics, empty strings, empty arrays and maps, and all
// nulls for nullable types (the default value of a nullable column is null).
func NewDefault(t *Type, rows int) (Column, error) {
	switch t.Kind {
	case KindInt8:
		return NewVector(t, make([]int8, rows)), nil
	case KindInt16:
		return NewVector(t, make([]int16, rows)), nil
	case KindInt32, KindDate32, KindDecimal32:
		return NewVector(t, make([]int32, rows)), nil
	case KindInt64, KindDateTime64, KindDecimal64:
		return NewVector(t, make([]int64, rows)), nil
	case KindUInt8:
		return NewVector(t, make([]uint8, rows)), nil
	case KindUInt16, KindDate:
		return NewVector(t, make([]uint16, rows)), nil
	case KindUInt32, KindDateTime:
		return NewVector(t, make([]uint32, rows)), nil
	case KindUInt64:
		return NewVector(t, make([]uint64, rows)), nil
	case KindFloat32:
		return NewVector(t, make([]float32, rows)), nil
	case KindFloat64:
		return NewVector(t, make([]float64, rows)), nil
	case KindDecimal128:
		return NewVector(t, make([]decimal128.Num, rows)), nil
	case KindDecimal256:
		return NewVector(t, make([]decimal256.Num, rows)), nil
	case KindString:
		out := NewString(rows, rows)
		for i := 0; i < rows; i++ {
			out.Append(nil)
		}
		return out, nil
	case KindArray:
		elem, err := NewDefault(t.Elem, 0)
		if err != nil {
			return nil, err
		}
		return NewArray(elem, make([]uint64, rows)), nil
	case KindMap:
		keys, err := NewDefault(t.Key, 0)
		if err != nil {
			return nil, err
		}
		values, err := NewDefault(t.Value, 0)
		if err != nil {
			return nil, err
		}
		return NewMap(keys, values, make([]uint64, rows)), nil
	case KindTuple:
		cols := make([]Column, len(t.Fields))
		for i, f := range t.Fields {
			col, err := NewDefault(f, rows)
			if err != nil {
				return nil, err
			}
			cols[i] = col
		}
		return NewTuple(t.Names, cols), nil
	case KindLowCardinality:
		dict, err := NewDefault(t.Elem, 1)
		if err != nil {
			return nil, err
		}
		return NewLowCardinality(dict, NewVector(Simple(KindUInt8), make([]uint8, rows))), nil
	case KindNullable:
		inner, err := NewDefault(t.Elem, rows)
		if err != nil {
			return nil, err
		}
		mask := make([]uint8, rows)
		for i := range mask {
			mask[i] = 1
		}
		return NewNullable(inner, mask), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"no default construction for type %s", t)
	}
}
