package column

import (
	"fmt"
	"strings"
)

// Decimal backing widths by maximum representable precision.
const (
	MaxDecimal32Precision  = 9
	MaxDecimal64Precision  = 18
	MaxDecimal128Precision = 38
	MaxDecimal256Precision = 76
)

// MaxDateDays is the largest day number a date column may hold (2299-12-31).
// Converting a day value beyond it is a range error, never a silent clamp.
const MaxDateDays = 120529

// Type describes the resolved type of an internal column, including the
// parameters that distinguish instances of the same kind (decimal precision
// and scale, sub-second scale and timezone for date-times, child types for
// the nested kinds).
type Type struct {
	Kind      Kind
	Precision int    // decimals
	Scale     int    // decimals and DateTime64
	Timezone  string // DateTime64

	Elem   *Type    // Array element, Nullable inner, LowCardinality value
	Key    *Type    // Map key
	Value  *Type    // Map value
	Names  []string // Tuple field names
	Fields []*Type  // Tuple field types
}

// Simple returns the type for a parameterless kind.
func Simple(k Kind) *Type { return &Type{Kind: k} }

// DecimalType selects the narrowest decimal backing whose maximum precision
// covers the requested one.
func DecimalType(precision, scale int) (*Type, error) {
	var k Kind
	switch {
	case precision <= MaxDecimal32Precision:
		k = KindDecimal32
	case precision <= MaxDecimal64Precision:
		k = KindDecimal64
	case precision <= MaxDecimal128Precision:
		k = KindDecimal128
	case precision <= MaxDecimal256Precision:
		k = KindDecimal256
	default:
		return nil, fmt.Errorf("decimal precision %d exceeds maximum %d", precision, MaxDecimal256Precision)
	}
	return &Type{Kind: k, Precision: precision, Scale: scale}, nil
}

// DateTime64Type returns a sub-second date-time type with the given decimal
// scale and timezone name (empty for server default).
func DateTime64Type(scale int, timezone string) *Type {
	return &Type{Kind: KindDateTime64, Scale: scale, Timezone: timezone}
}

// ArrayOf returns the nested-array type over elem.
func ArrayOf(elem *Type) *Type { return &Type{Kind: KindArray, Elem: elem} }

// MapOf returns the map type with the given key and value types.
func MapOf(key, value *Type) *Type { return &Type{Kind: KindMap, Key: key, Value: value} }

// TupleOf returns the named-siblings tuple type. names and fields must have
// equal length.
func TupleOf(names []string, fields []*Type) *Type {
	return &Type{Kind: KindTuple, Names: names, Fields: fields}
}

// LowCardinalityOf returns the dictionary-encoded type over value.
func LowCardinalityOf(value *Type) *Type { return &Type{Kind: KindLowCardinality, Elem: value} }

// NullableOf wraps inner with per-row nullness. Wrapping an already nullable
// type returns it unchanged.
func NullableOf(inner *Type) *Type {
	if inner.Kind == KindNullable {
		return inner
	}
	return &Type{Kind: KindNullable, Elem: inner}
}

// IsNullable reports whether the type is the nullable wrapper.
func (t *Type) IsNullable() bool { return t.Kind == KindNullable }

// Unwrap strips the nullable wrapper, if present.
func (t *Type) Unwrap() *Type {
	if t.Kind == KindNullable {
		return t.Elem
	}
	return t
}

// Equal reports deep structural equality including type parameters.
func (t *Type) Equal(other *Type) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return t.Precision == other.Precision && t.Scale == other.Scale
	case KindDateTime64:
		return t.Scale == other.Scale && t.Timezone == other.Timezone
	case KindArray, KindNullable, KindLowCardinality:
		return t.Elem.Equal(other.Elem)
	case KindMap:
		return t.Key.Equal(other.Key) && t.Value.Equal(other.Value)
	case KindTuple:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for i := range t.Fields {
			if t.Names[i] != other.Names[i] || !t.Fields[i].Equal(other.Fields[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the type in the engine's display syntax, e.g.
// "Nullable(Array(String))" or "DateTime64(3, 'UTC')".
func (t *Type) String() string {
	switch t.Kind {
	case KindDecimal32, KindDecimal64, KindDecimal128, KindDecimal256:
		return fmt.Sprintf("Decimal(%d, %d)", t.Precision, t.Scale)
	case KindDateTime64:
		if t.Timezone != "" {
			return fmt.Sprintf("DateTime64(%d, '%s')", t.Scale, t.Timezone)
		}
		return fmt.Sprintf("DateTime64(%d)", t.Scale)
	case KindArray:
		return "Array(" + t.Elem.String() + ")"
	case KindMap:
		return "Map(" + t.Key.String() + ", " + t.Value.String() + ")"
	case KindTuple:
		parts := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			parts[i] = t.Names[i] + " " + f.String()
		}
		return "Tuple(" + strings.Join(parts, ", ") + ")"
	case KindLowCardinality:
		return "LowCardinality(" + t.Elem.String() + ")"
	case KindNullable:
		return "Nullable(" + t.Elem.String() + ")"
	default:
		return t.Kind.String()
	}
}
