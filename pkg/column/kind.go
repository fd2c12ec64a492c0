// Package column provides the engine-internal columnar value representation:
// flat, homogeneous columns tagged with a closed set of type kinds, plus the
// nested, nullable and low-cardinality wrappers built on top of them.
package column

// Kind identifies the type of an internal column. The set is closed: every
// consumer dispatches over it exhaustively, so adding a kind is a
// compile-time-checked exercise.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUInt8
	KindUInt16
	KindUInt32
	KindUInt64
	KindFloat32
	KindFloat64
	KindString
	KindDate       // days since epoch, 16-bit
	KindDate32     // days since epoch, 32-bit extended range
	KindDateTime   // seconds since epoch, 32-bit
	KindDateTime64 // scaled ticks since epoch, 64-bit
	KindDecimal32
	KindDecimal64
	KindDecimal128
	KindDecimal256
	KindArray
	KindMap
	KindTuple
	KindLowCardinality
	KindNullable
)

var kindNames = [...]string{
	KindInvalid:        "Invalid",
	KindInt8:           "Int8",
	KindInt16:          "Int16",
	KindInt32:          "Int32",
	KindInt64:          "Int64",
	KindUInt8:          "UInt8",
	KindUInt16:         "UInt16",
	KindUInt32:         "UInt32",
	KindUInt64:         "UInt64",
	KindFloat32:        "Float32",
	KindFloat64:        "Float64",
	KindString:         "String",
	KindDate:           "Date",
	KindDate32:         "Date32",
	KindDateTime:       "DateTime",
	KindDateTime64:     "DateTime64",
	KindDecimal32:      "Decimal32",
	KindDecimal64:      "Decimal64",
	KindDecimal128:     "Decimal128",
	KindDecimal256:     "Decimal256",
	KindArray:          "Array",
	KindMap:            "Map",
	KindTuple:          "Tuple",
	KindLowCardinality: "LowCardinality",
	KindNullable:       "Nullable",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// IsNumeric reports whether the kind is a plain numeric vector kind.
func (k Kind) IsNumeric() bool {
	return k >= KindInt8 && k <= KindFloat64
}

// IsDecimal reports whether the kind is one of the decimal backings.
func (k Kind) IsDecimal() bool {
	return k >= KindDecimal32 && k <= KindDecimal256
}

// IsNested reports whether the kind carries child columns.
func (k Kind) IsNested() bool {
	switch k {
	case KindArray, KindMap, KindTuple, KindLowCardinality, KindNullable:
		return true
	}
	return false
}
