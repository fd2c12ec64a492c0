package column

import (
	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"

	"github.com/ditgittube/gluten/pkg/errors"
)

// Concat concatenates columns of one type into a single flat column.
// Row order follows the input order.
func Concat(cols []Column) (Column, error) {
	if len(cols) == 0 {
		return nil, errors.New(errors.ErrorTypeEmptyInput, "no columns to concatenate")
	}
	if len(cols) == 1 {
		return cols[0], nil
	}
	t := cols[0].Type()
	for _, c := range cols[1:] {
		if !t.Equal(c.Type()) {
			return nil, errors.Newf(errors.ErrorTypeTypeCast,
				"cannot concatenate column of type %s with type %s", c.Type(), t)
		}
	}

	switch cols[0].(type) {
	case *Vector[int8]:
		return concatVectors[int8](cols), nil
	case *Vector[int16]:
		return concatVectors[int16](cols), nil
	case *Vector[int32]:
		return concatVectors[int32](cols), nil
	case *Vector[int64]:
		return concatVectors[int64](cols), nil
	case *Vector[uint8]:
		return concatVectors[uint8](cols), nil
	case *Vector[uint16]:
		return concatVectors[uint16](cols), nil
	case *Vector[uint32]:
		return concatVectors[uint32](cols), nil
	case *Vector[uint64]:
		return concatVectors[uint64](cols), nil
	case *Vector[float32]:
		return concatVectors[float32](cols), nil
	case *Vector[float64]:
		return concatVectors[float64](cols), nil
	case *Vector[decimal128.Num]:
		return concatVectors[decimal128.Num](cols), nil
	case *Vector[decimal256.Num]:
		return concatVectors[decimal256.Num](cols), nil
	case *String:
		return concatStrings(cols), nil
	case *Nullable:
		return concatNullables(cols)
	case *Array:
		return concatArrays(cols)
	case *Map:
		return concatMaps(cols)
	case *Tuple:
		return concatTuples(cols)
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"cannot concatenate columns of type %s", t)
	}
}

func concatVectors[T Scalar](cols []Column) Column {
	var total int
	for _, c := range cols {
		total += c.Rows()
	}
	out := make([]T, 0, total)
	for _, c := range cols {
		out = append(out, c.(*Vector[T]).Data...)
	}
	return NewVector(cols[0].Type(), out)
}

func concatStrings(cols []Column) Column {
	var rows, bytes int
	for _, c := range cols {
		s := c.(*String)
		rows += len(s.Offsets)
		bytes += len(s.Chars)
	}
	out := NewString(rows, bytes)
	for _, c := range cols {
		s := c.(*String)
		base := uint64(len(out.Chars))
		out.Chars = append(out.Chars, s.Chars...)
		for _, off := range s.Offsets {
			out.Offsets = append(out.Offsets, base+off)
		}
	}
	return out
}

func concatNullables(cols []Column) (Column, error) {
	inner := make([]Column, len(cols))
	var rows int
	for i, c := range cols {
		inner[i] = c.(*Nullable).Data
		rows += c.Rows()
	}
	data, err := Concat(inner)
	if err != nil {
		return nil, err
	}
	mask := make([]uint8, 0, rows)
	for _, c := range cols {
		mask = append(mask, c.(*Nullable).Mask...)
	}
	return NewNullable(data, mask), nil
}

func concatArrays(cols []Column) (Column, error) {
	elems := make([]Column, len(cols))
	var rows int
	for i, c := range cols {
		elems[i] = c.(*Array).Data
		rows += c.Rows()
	}
	data, err := Concat(elems)
	if err != nil {
		return nil, err
	}
	offsets := make([]uint64, 0, rows)
	var base uint64
	for _, c := range cols {
		a := c.(*Array)
		for _, off := range a.Offsets {
			offsets = append(offsets, base+off)
		}
		base += uint64(a.Data.Rows())
	}
	return NewArray(data, offsets), nil
}

func concatMaps(cols []Column) (Column, error) {
	keys := make([]Column, len(cols))
	values := make([]Column, len(cols))
	var rows int
	for i, c := range cols {
		m := c.(*Map)
		keys[i] = m.Keys
		values[i] = m.Values
		rows += c.Rows()
	}
	keyCol, err := Concat(keys)
	if err != nil {
		return nil, err
	}
	valueCol, err := Concat(values)
	if err != nil {
		return nil, err
	}
	offsets := make([]uint64, 0, rows)
	var base uint64
	for _, c := range cols {
		m := c.(*Map)
		for _, off := range m.Offsets {
			offsets = append(offsets, base+off)
		}
		base += uint64(m.Keys.Rows())
	}
	return NewMap(keyCol, valueCol, offsets), nil
}

func concatTuples(cols []Column) (Column, error) {
	first := cols[0].(*Tuple)
	out := make([]Column, len(first.Columns))
	for i := range first.Columns {
		fields := make([]Column, len(cols))
		for j, c := range cols {
			fields[j] = c.(*Tuple).Columns[i]
		}
		col, err := Concat(fields)
		if err != nil {
			return nil, err
		}
		out[i] = col
	}
	return NewTuple(first.typ.Names, out), nil
}
