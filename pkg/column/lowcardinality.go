package column

// LowCardinality is the dictionary-encoded column: a shared dictionary of
// distinct values plus a per-row unsigned index column. The dictionary is
// structurally shared between every column that references it; identity is
// managed by the conversion session, keyed by column name.
type LowCardinality struct {
	typ     *Type
	Dict    Column
	Indexes Column
}

// NewLowCardinality pairs a materialized dictionary with an index column.
func NewLowCardinality(dict, indexes Column) *LowCardinality {
	return &LowCardinality{typ: LowCardinalityOf(dict.Type()), Dict: dict, Indexes: indexes}
}

func (c *LowCardinality) Type() *Type     { return c.typ }
func (c *LowCardinality) Rows() int       { return c.Indexes.Rows() }
func (c *LowCardinality) ByteSize() int64 { return c.Dict.ByteSize() + c.Indexes.ByteSize() }

func (c *LowCardinality) Value(i int) interface{} {
	idx, ok := IndexAt(c.Indexes, i)
	if !ok {
		return nil
	}
	return c.Dict.Value(idx)
}

// IndexAt reads row i of an unsigned integer index column.
func IndexAt(c Column, i int) (int, bool) {
	switch v := c.(type) {
	case *Vector[uint8]:
		return int(v.Data[i]), true
	case *Vector[uint16]:
		return int(v.Data[i]), true
	case *Vector[uint32]:
		return int(v.Data[i]), true
	case *Vector[uint64]:
		return int(v.Data[i]), true
	}
	return 0, false
}

type uniquer interface {
	unique() Column
}

// Unique materializes a dictionary column: all values are inserted at once,
// duplicates dropped, first-seen positions preserved. A payload that is
// already distinct comes back value-identical, so index columns produced by
// the writer stay valid. Kinds without a uniquing strategy are returned
// unchanged.
func Unique(col Column) Column {
	if u, ok := col.(uniquer); ok {
		return u.unique()
	}
	return col
}

func (c *String) unique() Column {
	seen := make(map[string]struct{}, c.Rows())
	out := NewString(c.Rows(), len(c.Chars))
	for i := 0; i < c.Rows(); i++ {
		v := c.Bytes(i)
		if _, ok := seen[string(v)]; ok {
			continue
		}
		seen[string(v)] = struct{}{}
		out.Append(v)
	}
	return out
}

func (c *Vector[T]) unique() Column {
	seen := make(map[T]struct{}, len(c.Data))
	out := make([]T, 0, len(c.Data))
	for _, v := range c.Data {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return NewVector(c.typ, out)
}
