package column

// Array is the nested-array column: a flattened element column plus one
// monotonically non-decreasing end offset per row. The final offset equals
// the element column's length.
type Array struct {
	typ     *Type
	Data    Column
	Offsets []uint64
}

// NewArray creates an array column over the flattened element column and
// per-row end offsets.
func NewArray(data Column, offsets []uint64) *Array {
	return &Array{typ: ArrayOf(data.Type()), Data: data, Offsets: offsets}
}

func (c *Array) Type() *Type     { return c.typ }
func (c *Array) Rows() int       { return len(c.Offsets) }
func (c *Array) ByteSize() int64 { return c.Data.ByteSize() + int64(len(c.Offsets))*8 }

// Range returns the [start, end) element range of row i.
func (c *Array) Range(i int) (uint64, uint64) {
	var start uint64
	if i > 0 {
		start = c.Offsets[i-1]
	}
	return start, c.Offsets[i]
}

func (c *Array) Value(i int) interface{} {
	start, end := c.Range(i)
	out := make([]interface{}, 0, end-start)
	for j := start; j < end; j++ {
		out = append(out, c.Data.Value(int(j)))
	}
	return out
}

// Map is modeled as an array of key/value pairs: flattened key and value
// columns sharing one offsets array.
type Map struct {
	typ     *Type
	Keys    Column
	Values  Column
	Offsets []uint64
}

// NewMap creates a map column from flattened key and value columns plus
// per-row end offsets. Keys and Values must have equal length.
func NewMap(keys, values Column, offsets []uint64) *Map {
	return &Map{typ: MapOf(keys.Type(), values.Type()), Keys: keys, Values: values, Offsets: offsets}
}

func (c *Map) Type() *Type { return c.typ }
func (c *Map) Rows() int   { return len(c.Offsets) }
func (c *Map) ByteSize() int64 {
	return c.Keys.ByteSize() + c.Values.ByteSize() + int64(len(c.Offsets))*8
}

// Range returns the [start, end) pair range of row i.
func (c *Map) Range(i int) (uint64, uint64) {
	var start uint64
	if i > 0 {
		start = c.Offsets[i-1]
	}
	return start, c.Offsets[i]
}

func (c *Map) Value(i int) interface{} {
	start, end := c.Range(i)
	out := make(map[interface{}]interface{}, end-start)
	for j := start; j < end; j++ {
		out[c.Keys.Value(int(j))] = c.Values.Value(int(j))
	}
	return out
}

// Tuple is the struct column: named sibling columns sharing one row count.
type Tuple struct {
	typ     *Type
	Columns []Column
}

// NewTuple creates a tuple column from parallel names and columns.
func NewTuple(names []string, cols []Column) *Tuple {
	fields := make([]*Type, len(cols))
	for i, c := range cols {
		fields[i] = c.Type()
	}
	return &Tuple{typ: TupleOf(names, fields), Columns: cols}
}

func (c *Tuple) Type() *Type { return c.typ }

func (c *Tuple) Rows() int {
	if len(c.Columns) == 0 {
		return 0
	}
	return c.Columns[0].Rows()
}

func (c *Tuple) ByteSize() int64 {
	var total int64
	for _, col := range c.Columns {
		total += col.ByteSize()
	}
	return total
}

func (c *Tuple) Value(i int) interface{} {
	out := make(map[string]interface{}, len(c.Columns))
	for j, col := range c.Columns {
		out[c.typ.Names[j]] = col.Value(i)
	}
	return out
}

// Field returns the sibling column with the given name.
func (c *Tuple) Field(name string) (Column, bool) {
	for i, n := range c.typ.Names {
		if n == name {
			return c.Columns[i], true
		}
	}
	return nil, false
}
