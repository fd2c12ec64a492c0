package column

var stringType = Simple(KindString)

// String is the raw byte/string column. Values are stored back to back in
// Chars with one null terminator appended per value. Offsets are shifted by
// one relative to the external convention: Offsets[i] points to the end of
// row i (terminator included), so len(Offsets) equals the row count and the
// final offset equals len(Chars).
type String struct {
	Chars   []byte
	Offsets []uint64
}

// NewString creates an empty string column with capacity hints.
func NewString(rows, bytes int) *String {
	return &String{
		Chars:   make([]byte, 0, bytes),
		Offsets: make([]uint64, 0, rows),
	}
}

func (c *String) Type() *Type     { return stringType }
func (c *String) Rows() int       { return len(c.Offsets) }
func (c *String) ByteSize() int64 { return int64(len(c.Chars)) + int64(len(c.Offsets))*8 }

// Value returns the value at row i without its null terminator.
func (c *String) Value(i int) interface{} { return string(c.Bytes(i)) }

// Bytes returns the raw value bytes at row i, terminator excluded.
func (c *String) Bytes(i int) []byte {
	var start uint64
	if i > 0 {
		start = c.Offsets[i-1]
	}
	return c.Chars[start : c.Offsets[i]-1]
}

// Append adds one value, null-terminating it and recording the cumulative
// offset.
func (c *String) Append(v []byte) {
	c.Chars = append(c.Chars, v...)
	c.Chars = append(c.Chars, 0)
	c.Offsets = append(c.Offsets, uint64(len(c.Chars)))
}

// AppendString adds one string value.
func (c *String) AppendString(v string) { c.Append([]byte(v)) }
