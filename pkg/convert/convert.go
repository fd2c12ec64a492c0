// Package convert translates external (Arrow) columnar data into the
// engine-internal column representation and derives internal headers from
// external schemas.
package convert

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/errors"
)

// DictionaryCache memoizes materialized dictionary columns by column name.
// A dictionary is materialized at most once per conversion session and
// structurally shared by every chunk that references it. The cache is only
// written on fully successful materialization, so a failed build never
// leaves a partial entry behind.
type DictionaryCache map[string]*block.NamedColumn

// ReadColumn converts one external typed column into an internal column with
// its resolved type and name. formatName only feeds diagnostics. When
// intsAsDates is set, 16-bit unsigned columns are reinterpreted as calendar
// dates and 32-bit unsigned ones as date-times, bit patterns untouched; this
// round-trips values that some writers encode as small integers to mean
// dates.
func ReadColumn(
	field arrow.Field,
	chunked *arrow.Chunked,
	formatName string,
	dict DictionaryCache,
	intsAsDates bool,
) (block.NamedColumn, error) {
	name := field.Name

	if field.Nullable {
		inner := field
		inner.Nullable = false
		converted, err := ReadColumn(inner, chunked, formatName, dict, intsAsDates)
		if err != nil {
			return block.NamedColumn{}, err
		}
		// The child was converted as if always non-null; the wrapper's map
		// must reflect the external source's null bits.
		mask := readNullByteMap(chunked)
		data := column.NewNullable(converted.Data, mask)
		return block.NamedColumn{Name: name, Type: data.Type(), Data: data}, nil
	}

	switch chunked.DataType().ID() {
	case arrow.STRING, arrow.BINARY:
		data := readStringColumn(chunked)
		return named(name, data), nil

	case arrow.BOOL:
		return named(name, readBooleanColumn(chunked)), nil

	case arrow.DATE32:
		data, err := readDate32Column(chunked, name)
		if err != nil {
			return block.NamedColumn{}, err
		}
		return named(name, data), nil

	case arrow.DATE64:
		return named(name, readDate64Column(chunked)), nil

	case arrow.UINT16:
		// Some writers store Date as UINT16 and DateTime as UINT32; with the
		// flag set, only the declared type changes.
		data := readUint16Column(chunked)
		if intsAsDates {
			data = data.WithType(column.Simple(column.KindDate))
		}
		return named(name, data), nil

	case arrow.UINT32:
		data := readUint32Column(chunked)
		if intsAsDates {
			data = data.WithType(column.Simple(column.KindDateTime))
		}
		return named(name, data), nil

	case arrow.TIMESTAMP:
		return named(name, readTimestampColumn(chunked)), nil

	case arrow.DECIMAL128:
		data, err := readDecimal128Column(chunked)
		if err != nil {
			return block.NamedColumn{}, err
		}
		return named(name, data), nil

	case arrow.DECIMAL256:
		data, err := readDecimal256Column(chunked)
		if err != nil {
			return block.NamedColumn{}, err
		}
		return named(name, data), nil

	case arrow.LIST:
		return readListColumn(field, chunked, formatName, dict, intsAsDates)

	case arrow.MAP:
		return readMapColumn(field, chunked, formatName, dict, intsAsDates)

	case arrow.STRUCT:
		return readStructColumn(field, chunked, formatName, dict, intsAsDates)

	case arrow.DICTIONARY:
		return readDictionaryColumn(field, chunked, formatName, dict, intsAsDates)

	default:
		if reader, ok := numericReaders[chunked.DataType().ID()]; ok {
			return named(name, reader(chunked)), nil
		}
		return block.NamedColumn{}, errors.Newf(errors.ErrorTypeUnsupportedType,
			"unsupported %s type '%s' of an input column '%s'",
			formatName, chunked.DataType(), name).
			WithDetail("column", name).
			WithDetail("source_type", chunked.DataType().String()).
			WithDetail("format", formatName)
	}
}

func named(name string, data column.Column) block.NamedColumn {
	return block.NamedColumn{Name: name, Type: data.Type(), Data: data}
}

func readListColumn(
	field arrow.Field,
	chunked *arrow.Chunked,
	formatName string,
	dict DictionaryCache,
	intsAsDates bool,
) (block.NamedColumn, error) {
	listType := chunked.DataType().(*arrow.ListType)
	elemField := listType.ElemField()

	elemChunks, err := flattenListChunks(chunked, elemField.Type)
	if err != nil {
		return block.NamedColumn{}, err
	}
	elem, err := ReadColumn(elemField, elemChunks, formatName, dict, intsAsDates)
	if err != nil {
		return block.NamedColumn{}, err
	}
	offsets, err := readListOffsets(chunked)
	if err != nil {
		return block.NamedColumn{}, err
	}
	data := column.NewArray(elem.Data, offsets)
	return named(field.Name, data), nil
}

func readMapColumn(
	field arrow.Field,
	chunked *arrow.Chunked,
	formatName string,
	dict DictionaryCache,
	intsAsDates bool,
) (block.NamedColumn, error) {
	mapType := chunked.DataType().(*arrow.MapType)
	entriesField := mapType.ElemField()

	entryChunks, err := flattenListChunks(chunked, entriesField.Type)
	if err != nil {
		return block.NamedColumn{}, err
	}
	entries, err := ReadColumn(entriesField, entryChunks, formatName, dict, intsAsDates)
	if err != nil {
		return block.NamedColumn{}, err
	}
	offsets, err := readListOffsets(chunked)
	if err != nil {
		return block.NamedColumn{}, err
	}

	// The entry column is a struct of exactly (key, value); unwrap its two
	// children directly rather than nesting the tuple.
	tuple, ok := entries.Data.(*column.Tuple)
	if !ok || len(tuple.Columns) != 2 {
		return block.NamedColumn{}, errors.Newf(errors.ErrorTypeUnsupportedType,
			"map column '%s' does not decompose into key/value pairs", field.Name).
			WithDetail("column", field.Name)
	}
	data := column.NewMap(tuple.Columns[0], tuple.Columns[1], offsets)
	return named(field.Name, data), nil
}

func readStructColumn(
	field arrow.Field,
	chunked *arrow.Chunked,
	formatName string,
	dict DictionaryCache,
	intsAsDates bool,
) (block.NamedColumn, error) {
	structType := chunked.DataType().(*arrow.StructType)
	numFields := structType.NumFields()

	// Reassemble one synthetic chunked column per declared child field.
	childChunks := make([][]arrow.Array, numFields)
	for _, chunk := range chunked.Chunks() {
		structChunk := chunk.(*array.Struct)
		for i := 0; i < numFields; i++ {
			childChunks[i] = append(childChunks[i], structChunk.Field(i))
		}
	}

	names := make([]string, numFields)
	cols := make([]column.Column, numFields)
	for i := 0; i < numFields; i++ {
		childField := structType.Field(i)
		childChunked := arrow.NewChunked(childField.Type, childChunks[i])
		child, err := ReadColumn(childField, childChunked, formatName, dict, intsAsDates)
		if err != nil {
			return block.NamedColumn{}, err
		}
		names[i] = child.Name
		cols[i] = child.Data
	}
	return named(field.Name, column.NewTuple(names, cols)), nil
}

func readDictionaryColumn(
	field arrow.Field,
	chunked *arrow.Chunked,
	formatName string,
	dict DictionaryCache,
	intsAsDates bool,
) (block.NamedColumn, error) {
	name := field.Name
	dictType := chunked.DataType().(*arrow.DictionaryType)

	cached, ok := dict[name]
	if !ok {
		// First sight of this column name: concatenate every chunk's
		// dictionary payload, convert it, and materialize it once.
		payloadChunks := make([]arrow.Array, 0, len(chunked.Chunks()))
		for _, chunk := range chunked.Chunks() {
			payloadChunks = append(payloadChunks, chunk.(*array.Dictionary).Dictionary())
		}
		payloadField := arrow.Field{Name: "dict", Type: dictType.ValueType}
		payload, err := ReadColumn(payloadField, arrow.NewChunked(dictType.ValueType, payloadChunks),
			formatName, dict, intsAsDates)
		if err != nil {
			return block.NamedColumn{}, err
		}
		unique := column.Unique(payload.Data)
		cached = &block.NamedColumn{Name: name, Type: unique.Type(), Data: unique}
		dict[name] = cached
	}

	indexChunks := make([]arrow.Array, 0, len(chunked.Chunks()))
	for _, chunk := range chunked.Chunks() {
		indexChunks = append(indexChunks, chunk.(*array.Dictionary).Indices())
	}
	indexChunked := arrow.NewChunked(dictType.IndexType, indexChunks)
	reader, ok := indexReaders[dictType.IndexType.ID()]
	if !ok {
		return block.NamedColumn{}, errors.Newf(errors.ErrorTypeMalformedDictionary,
			"unsupported type for indexes in a low-cardinality column: %s", dictType.IndexType).
			WithDetail("column", name).
			WithDetail("index_type", dictType.IndexType.String())
	}
	indexes := reader(indexChunked)

	data := column.NewLowCardinality(cached.Data, indexes)
	return named(name, data), nil
}
