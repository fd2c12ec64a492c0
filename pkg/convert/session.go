package convert

import (
	"go.uber.org/zap"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/errors"
	"github.com/ditgittube/gluten/pkg/logger"
	"github.com/ditgittube/gluten/pkg/nested"
)

// Session converts successive external tables into internal row batches
// matching one fixed target header. It owns the dictionary cache, which
// lives until the session is discarded. A session is not safe for
// concurrent use.
type Session struct {
	header       *block.Block
	formatName   string
	importNested bool
	allowMissing bool

	dict DictionaryCache
	log  *zap.Logger
}

// NewSession creates a conversion session bound to a target header.
// importNested enables resolving dotted header names against flattened
// nested tables; allowMissing replaces absent columns with default-filled
// ones instead of failing.
func NewSession(header *block.Block, formatName string, importNested, allowMissing bool) *Session {
	return &Session{
		header:       header,
		formatName:   formatName,
		importNested: importNested,
		allowMissing: allowMissing,
		dict:         DictionaryCache{},
		log:          logger.With(zap.String("format", formatName)),
	}
}

// Header returns the session's fixed target header.
func (s *Session) Header() *block.Block { return s.header }

// ConvertTable converts one external table into an internal row batch with
// exactly the header's columns in its order.
func (s *Session) ConvertTable(table arrow.Table) (*block.Block, error) {
	schema := table.Schema()
	byName := make(map[string]*arrow.Chunked, table.NumCols())
	for i := 0; i < int(table.NumCols()); i++ {
		name := schema.Field(i).Name
		if _, ok := byName[name]; ok {
			return nil, errors.Newf(errors.ErrorTypeDuplicateColumn,
				"column '%s' is duplicated", name).WithDetail("column", name)
		}
		byName[name] = table.Column(i).Data()
	}
	return s.ConvertColumns(byName, schema)
}

// ConvertColumns converts a set of external columns keyed by name. All
// columns are assumed to share one row count; the batch's count is fixed
// from an arbitrary input column (a table-level invariant, not re-validated
// per column).
func (s *Session) ConvertColumns(byName map[string]*arrow.Chunked, schema *arrow.Schema) (*block.Block, error) {
	if len(byName) == 0 {
		return nil, errors.New(errors.ErrorTypeEmptyInput, "columns is empty")
	}

	rows := -1
	for i := 0; i < schema.NumFields(); i++ {
		if c, ok := byName[schema.Field(i).Name]; ok {
			rows = c.Len()
			break
		}
	}
	if rows < 0 {
		for _, c := range byName {
			rows = c.Len()
			break
		}
	}

	cols := make([]block.NamedColumn, 0, len(s.header.Columns))
	nestedTables := make(map[string]*nested.Extractor)

	for _, headerCol := range s.header.Columns {
		col, found, err := s.resolveColumn(headerCol, byName, schema, nestedTables)
		if err != nil {
			return nil, err
		}
		if !found {
			if !s.allowMissing {
				return nil, errors.Newf(errors.ErrorTypeMissingColumn,
					"column '%s' is not presented in input data", headerCol.Name).
					WithDetail("column", headerCol.Name)
			}
			data, err := column.NewDefault(headerCol.Type, rows)
			if err != nil {
				return nil, err
			}
			cols = append(cols, block.NamedColumn{Name: headerCol.Name, Type: headerCol.Type, Data: data})
			continue
		}

		casted, err := column.Cast(col.Data, headerCol.Type)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeTypeCast,
				"while converting column "+headerCol.Name+
					" from type "+col.Type.String()+" to type "+headerCol.Type.String()).
				WithDetail("column", headerCol.Name).
				WithDetail("source_type", col.Type.String()).
				WithDetail("target_type", headerCol.Type.String())
		}
		cols = append(cols, block.NamedColumn{Name: headerCol.Name, Type: headerCol.Type, Data: casted})
	}

	res := &block.Block{}
	res.SetColumns(cols, rows)
	return res, nil
}

// resolveColumn implements the per-target-column resolution order: exact
// name match, then nested-table leaf extraction, then the missing policy.
func (s *Session) resolveColumn(
	headerCol block.NamedColumn,
	byName map[string]*arrow.Chunked,
	schema *arrow.Schema,
	nestedTables map[string]*nested.Extractor,
) (block.NamedColumn, bool, error) {
	if chunked, ok := byName[headerCol.Name]; ok {
		field, ok := fieldByName(schema, headerCol.Name)
		if !ok {
			field = arrow.Field{Name: headerCol.Name, Type: chunked.DataType(), Nullable: true}
		}
		col, err := ReadColumn(field, chunked, s.formatName, s.dict, true)
		if err != nil {
			return block.NamedColumn{}, false, err
		}
		return col, true, nil
	}

	if !s.importNested {
		return block.NamedColumn{}, false, nil
	}
	tableName := nested.TableName(headerCol.Name)
	chunked, ok := byName[tableName]
	if !ok {
		return block.NamedColumn{}, false, nil
	}

	extractor, ok := nestedTables[tableName]
	if !ok {
		field, ok := fieldByName(schema, tableName)
		if !ok {
			field = arrow.Field{Name: tableName, Type: chunked.DataType(), Nullable: true}
		}
		col, err := ReadColumn(field, chunked, s.formatName, s.dict, true)
		if err != nil {
			return block.NamedColumn{}, false, err
		}
		group, err := block.New([]block.NamedColumn{col})
		if err != nil {
			return block.NamedColumn{}, false, err
		}
		extractor = nested.NewExtractor(group)
		nestedTables[tableName] = extractor
	}

	if col, ok := extractor.Extract(headerCol.Name); ok {
		return col, true, nil
	}
	return block.NamedColumn{}, false, nil
}

// MissingColumns runs the resolution logic in dry-run form against a
// schema-derived header and reports which target columns a table with that
// schema would not provide. With the strict missing-columns policy the
// first gap is an error instead.
func (s *Session) MissingColumns(schema *arrow.Schema) ([]int, error) {
	derived, err := SchemaToHeader(schema, s.formatName)
	if err != nil {
		return nil, err
	}
	extractor := nested.NewExtractor(derived)

	var missing []int
	for i, headerCol := range s.header.Columns {
		if derived.Has(headerCol.Name) {
			continue
		}
		if s.importNested && derived.Has(nested.TableName(headerCol.Name)) {
			if _, ok := extractor.Extract(headerCol.Name); ok {
				continue
			}
		}
		if !s.allowMissing {
			return nil, errors.Newf(errors.ErrorTypeMissingColumn,
				"column '%s' is not presented in input data", headerCol.Name).
				WithDetail("column", headerCol.Name)
		}
		missing = append(missing, i)
	}
	if len(missing) > 0 {
		s.log.Debug("input schema lacks target columns", zap.Int("missing", len(missing)))
	}
	return missing, nil
}

func fieldByName(schema *arrow.Schema, name string) (arrow.Field, bool) {
	for i := 0; i < schema.NumFields(); i++ {
		if schema.Field(i).Name == name {
			return schema.Field(i), true
		}
	}
	return arrow.Field{}, false
}
