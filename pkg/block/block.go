// Package block provides the internal row batch: an ordered set of named,
// typed columns sharing one row count, tagged with shuffle partition
// identity.
package block

import (
	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/errors"
)

// NamedColumn is one column of a block together with its name and resolved
// type.
type NamedColumn struct {
	Name string
	Type *column.Type
	Data column.Column
}

// Info carries the shuffle identity tags of a block. Blocks with differing
// identity must never be merged into one chunk.
type Info struct {
	// IsOverflow marks rows belonging to an aggregation overflow bucket.
	IsOverflow bool
	// BucketNum is the shuffle partition number, -1 when unset.
	BucketNum int32
}

// Block is one row batch. The zero value is an empty block with no columns.
type Block struct {
	Columns []NamedColumn
	Info    Info

	rows int
}

// New creates a block from columns. All columns must share one row count.
func New(cols []NamedColumn) (*Block, error) {
	b := &Block{Columns: cols}
	if len(cols) > 0 {
		b.rows = cols[0].Data.Rows()
		for _, c := range cols[1:] {
			if c.Data.Rows() != b.rows {
				return nil, errors.Newf(errors.ErrorTypeData,
					"column %q has %d rows, expected %d", c.Name, c.Data.Rows(), b.rows)
			}
		}
	}
	return b, nil
}

// SetColumns replaces the block's columns with an explicitly supplied row
// count, for batches whose count was fixed before the columns were built.
func (b *Block) SetColumns(cols []NamedColumn, rows int) {
	b.Columns = cols
	b.rows = rows
}

// Rows returns the row count.
func (b *Block) Rows() int { return b.rows }

// ByteSize returns the approximate payload size of all columns.
func (b *Block) ByteSize() int64 {
	var total int64
	for _, c := range b.Columns {
		total += c.Data.ByteSize()
	}
	return total
}

// Empty reports whether the block has no rows.
func (b *Block) Empty() bool { return b == nil || b.rows == 0 }

// Has reports whether a column with the given name exists.
func (b *Block) Has(name string) bool {
	_, ok := b.IndexOf(name)
	return ok
}

// IndexOf returns the position of the named column.
func (b *Block) IndexOf(name string) (int, bool) {
	for i, c := range b.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ByName returns the named column.
func (b *Block) ByName(name string) (NamedColumn, bool) {
	if i, ok := b.IndexOf(name); ok {
		return b.Columns[i], true
	}
	return NamedColumn{}, false
}

// CloneEmpty returns a zero-row block with the same column names and types,
// usable as a header.
func (b *Block) CloneEmpty() (*Block, error) {
	cols := make([]NamedColumn, len(b.Columns))
	for i, c := range b.Columns {
		data, err := column.NewDefault(c.Type, 0)
		if err != nil {
			return nil, err
		}
		cols[i] = NamedColumn{Name: c.Name, Type: c.Type, Data: data}
	}
	return &Block{Columns: cols, Info: b.Info}, nil
}

// Concat merges blocks into one, preserving the first block's identity tags.
// All blocks must share one layout.
func Concat(blocks []*Block) (*Block, error) {
	if len(blocks) == 0 {
		return &Block{}, nil
	}
	if len(blocks) == 1 {
		return blocks[0], nil
	}
	first := blocks[0]
	cols := make([]NamedColumn, len(first.Columns))
	var rows int
	for _, blk := range blocks {
		if len(blk.Columns) != len(first.Columns) {
			return nil, errors.Newf(errors.ErrorTypeData,
				"cannot concatenate blocks with %d and %d columns", len(first.Columns), len(blk.Columns))
		}
		rows += blk.rows
	}
	for i := range first.Columns {
		parts := make([]column.Column, len(blocks))
		for j, blk := range blocks {
			parts[j] = blk.Columns[i].Data
		}
		data, err := column.Concat(parts)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData,
				"concatenating column "+first.Columns[i].Name)
		}
		cols[i] = NamedColumn{Name: first.Columns[i].Name, Type: first.Columns[i].Type, Data: data}
	}
	out := &Block{Columns: cols, Info: first.Info, rows: rows}
	return out, nil
}
