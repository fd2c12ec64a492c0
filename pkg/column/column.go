package column

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"
)

// Column is a flat, homogeneous, immutable-by-convention columnar value
// store. Implementations are not safe for concurrent mutation.
type Column interface {
	// Type returns the column's resolved internal type.
	Type() *Type
	// Rows returns the number of rows.
	Rows() int
	// ByteSize returns the approximate in-memory payload size in bytes.
	ByteSize() int64
	// Value returns the boxed value at row i. Intended for casts, default
	// filling and tests, not for bulk data paths.
	Value(i int) interface{}
}

// Scalar enumerates the value types a Vector may hold.
type Scalar interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 |
		decimal128.Num | decimal256.Num
}

// Vector is the numeric column: a plain slice of fixed-width values tagged
// with its resolved type. Date, date-time and decimal columns are vectors
// whose type carries the calendar or decimal semantics.
type Vector[T Scalar] struct {
	typ  *Type
	Data []T
}

// NewVector creates a vector column of the given type over data. The caller
// is responsible for matching T to the type's kind.
func NewVector[T Scalar](t *Type, data []T) *Vector[T] {
	return &Vector[T]{typ: t, Data: data}
}

func (c *Vector[T]) Type() *Type { return c.typ }
func (c *Vector[T]) Rows() int   { return len(c.Data) }

func (c *Vector[T]) ByteSize() int64 {
	var zero T
	return int64(len(c.Data)) * int64(unsafe.Sizeof(zero))
}

func (c *Vector[T]) Value(i int) interface{} { return c.Data[i] }

// Append adds one value. Used by builders and casts.
func (c *Vector[T]) Append(v T) { c.Data = append(c.Data, v) }

// WithType returns a view of the same data under a different declared type.
// The bit pattern is left untouched; the caller guarantees the widths match.
func (c *Vector[T]) WithType(t *Type) *Vector[T] { return &Vector[T]{typ: t, Data: c.Data} }
