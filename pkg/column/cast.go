package column

import (
	"github.com/ditgittube/gluten/pkg/errors"
)

type numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Cast converts a column to the target type. Supported conversions: identity,
// any numeric-family widening/narrowing (calendar kinds included, since they
// are numeric vectors under a calendar type), nullable wrapping and
// unwrap-free nullable inner casts, and elementwise casts of array and tuple
// children. Anything else fails with a type_cast error carrying both types.
func Cast(col Column, to *Type) (Column, error) {
	from := col.Type()
	if from.Equal(to) {
		return col, nil
	}

	if to.Kind == KindNullable {
		if n, ok := col.(*Nullable); ok {
			inner, err := Cast(n.Data, to.Elem)
			if err != nil {
				return nil, err
			}
			return NewNullable(inner, n.Mask), nil
		}
		inner, err := Cast(col, to.Elem)
		if err != nil {
			return nil, err
		}
		return NewNullable(inner, make([]uint8, col.Rows())), nil
	}

	switch c := col.(type) {
	case *Nullable:
		// Nullable source into a non-nullable target loses the null map.
		return nil, castError(from, to)
	case *Array:
		if to.Kind != KindArray {
			return nil, castError(from, to)
		}
		data, err := Cast(c.Data, to.Elem)
		if err != nil {
			return nil, err
		}
		return NewArray(data, c.Offsets), nil
	case *Map:
		if to.Kind != KindMap {
			return nil, castError(from, to)
		}
		keys, err := Cast(c.Keys, to.Key)
		if err != nil {
			return nil, err
		}
		values, err := Cast(c.Values, to.Value)
		if err != nil {
			return nil, err
		}
		return NewMap(keys, values, c.Offsets), nil
	case *Tuple:
		if to.Kind != KindTuple || len(to.Fields) != len(c.Columns) {
			return nil, castError(from, to)
		}
		cols := make([]Column, len(c.Columns))
		for i, child := range c.Columns {
			out, err := Cast(child, to.Fields[i])
			if err != nil {
				return nil, err
			}
			cols[i] = out
		}
		return NewTuple(to.Names, cols), nil
	case *LowCardinality:
		if to.Kind != KindLowCardinality {
			return nil, castError(from, to)
		}
		dict, err := Cast(c.Dict, to.Elem)
		if err != nil {
			return nil, err
		}
		return NewLowCardinality(dict, c.Indexes), nil
	}

	if numericTarget(to.Kind) {
		out, err := castNumeric(col, to)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, castError(from, to)
}

func castError(from, to *Type) error {
	return errors.Newf(errors.ErrorTypeTypeCast, "cannot cast column from type %s to type %s", from, to).
		WithDetail("source_type", from.String()).
		WithDetail("target_type", to.String())
}

func numericTarget(k Kind) bool {
	switch k {
	case KindDate, KindDate32, KindDateTime, KindDateTime64:
		return true
	}
	return k.IsNumeric()
}

func castNumeric(col Column, to *Type) (Column, error) {
	switch to.Kind {
	case KindInt8:
		return castVector[int8](col, to)
	case KindInt16:
		return castVector[int16](col, to)
	case KindInt32, KindDate32:
		return castVector[int32](col, to)
	case KindInt64, KindDateTime64:
		return castVector[int64](col, to)
	case KindUInt8:
		return castVector[uint8](col, to)
	case KindUInt16, KindDate:
		return castVector[uint16](col, to)
	case KindUInt32, KindDateTime:
		return castVector[uint32](col, to)
	case KindUInt64:
		return castVector[uint64](col, to)
	case KindFloat32:
		return castVector[float32](col, to)
	case KindFloat64:
		return castVector[float64](col, to)
	}
	return nil, castError(col.Type(), to)
}

func castVector[T numeric](col Column, to *Type) (Column, error) {
	out := make([]T, col.Rows())
	switch s := col.(type) {
	case *Vector[int8]:
		copyConvert(out, s.Data)
	case *Vector[int16]:
		copyConvert(out, s.Data)
	case *Vector[int32]:
		copyConvert(out, s.Data)
	case *Vector[int64]:
		copyConvert(out, s.Data)
	case *Vector[uint8]:
		copyConvert(out, s.Data)
	case *Vector[uint16]:
		copyConvert(out, s.Data)
	case *Vector[uint32]:
		copyConvert(out, s.Data)
	case *Vector[uint64]:
		copyConvert(out, s.Data)
	case *Vector[float32]:
		copyConvert(out, s.Data)
	case *Vector[float64]:
		copyConvert(out, s.Data)
	default:
		return nil, castError(col.Type(), to)
	}
	return NewVector(to, out), nil
}

func copyConvert[D numeric, S numeric](dst []D, src []S) {
	for i, v := range src {
		dst[i] = D(v)
	}
}
