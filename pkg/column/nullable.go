package column

// Nullable wraps any non-nullable column with a parallel byte map of
// nullness: Mask[i] != 0 means row i is null. The wrapped column still holds
// a default value at null rows.
type Nullable struct {
	typ  *Type
	Data Column
	Mask []uint8
}

// NewNullable wraps data with the given null byte map. len(mask) must equal
// data.Rows().
func NewNullable(data Column, mask []uint8) *Nullable {
	return &Nullable{typ: NullableOf(data.Type()), Data: data, Mask: mask}
}

func (c *Nullable) Type() *Type     { return c.typ }
func (c *Nullable) Rows() int       { return c.Data.Rows() }
func (c *Nullable) ByteSize() int64 { return c.Data.ByteSize() + int64(len(c.Mask)) }

// IsNull reports whether row i is null.
func (c *Nullable) IsNull(i int) bool { return c.Mask[i] != 0 }

func (c *Nullable) Value(i int) interface{} {
	if c.Mask[i] != 0 {
		return nil
	}
	return c.Data.Value(i)
}
