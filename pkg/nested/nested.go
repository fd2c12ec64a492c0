// Package nested resolves the flattening convention where a record-valued
// column is addressed through several dotted names sharing one prefix:
// "t.a" names the leaf "a" inside the converted column "t".
package nested

import (
	"strings"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/column"
)

// Separator is the reserved nesting separator inside column names.
const Separator = "."

// TableName returns the table prefix of a dotted column name, or the name
// itself when it has no separator.
func TableName(name string) string {
	if i := strings.Index(name, Separator); i >= 0 {
		return name[:i]
	}
	return name
}

// Leaf returns the part after the table prefix, or "" when the name has no
// separator.
func Leaf(name string) string {
	if i := strings.Index(name, Separator); i >= 0 {
		return name[i+len(Separator):]
	}
	return ""
}

// IsNested reports whether the name uses the nesting separator.
func IsNested(name string) bool { return strings.Contains(name, Separator) }

// Extractor answers leaf-path lookups against a block of converted columns.
type Extractor struct {
	source *block.Block
}

// NewExtractor creates an extractor over the given block.
func NewExtractor(b *block.Block) *Extractor {
	return &Extractor{source: b}
}

// Extract resolves a possibly dotted column name. An exact column wins;
// otherwise the table prefix is looked up and the leaf is pulled out of a
// tuple column, or out of an array-of-tuple column keeping the row offsets.
func (e *Extractor) Extract(name string) (block.NamedColumn, bool) {
	if col, ok := e.source.ByName(name); ok {
		return col, true
	}
	if !IsNested(name) {
		return block.NamedColumn{}, false
	}

	table, ok := e.source.ByName(TableName(name))
	if !ok {
		return block.NamedColumn{}, false
	}
	leaf := Leaf(name)

	switch data := table.Data.(type) {
	case *column.Tuple:
		child, ok := data.Field(leaf)
		if !ok {
			return block.NamedColumn{}, false
		}
		return block.NamedColumn{Name: name, Type: child.Type(), Data: child}, true
	case *column.Array:
		tuple, ok := data.Data.(*column.Tuple)
		if !ok {
			return block.NamedColumn{}, false
		}
		child, ok := tuple.Field(leaf)
		if !ok {
			return block.NamedColumn{}, false
		}
		wrapped := column.NewArray(child, data.Offsets)
		return block.NamedColumn{Name: name, Type: wrapped.Type(), Data: wrapped}, true
	}
	return block.NamedColumn{}, false
}
