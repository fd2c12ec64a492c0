package convert

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/engine"
	"github.com/ditgittube/gluten/pkg/errors"
)

// SchemaToHeader derives an empty internal row layout from an external
// schema: each field is materialized as a zero-length synthetic column of
// its declared type, converted, and reduced to name plus type. The result
// is usable as a conversion target or for missing-column diagnostics.
func SchemaToHeader(schema *arrow.Schema, formatName string) (*block.Block, error) {
	cols := make([]block.NamedColumn, 0, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		field := schema.Field(i)

		builder := array.NewBuilder(engine.Allocator(), field.Type)
		empty := builder.NewArray()
		builder.Release()

		chunked := arrow.NewChunked(field.Type, []arrow.Array{empty})
		col, err := ReadColumn(field, chunked, formatName, DictionaryCache{}, false)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData,
				"deriving header for column "+field.Name)
		}
		cols = append(cols, col)
	}
	return block.New(cols)
}
