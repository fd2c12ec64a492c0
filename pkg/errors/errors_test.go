package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(ErrorTypeMissingColumn, "column 'x' is not presented in input data")
	require.Equal(t, ErrorTypeMissingColumn, err.Type)
	require.Contains(t, err.Error(), "missing_column")
	require.Contains(t, err.Error(), "column 'x'")
	require.NotEmpty(t, err.Stack)
}

func TestNewf(t *testing.T) {
	err := Newf(ErrorTypeValueOutOfRange, "value %d exceeds %d", 120530, 120529)
	require.Equal(t, "value 120530 exceeds 120529", err.Message)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(cause, ErrorTypeData, "reading block")
	require.Equal(t, ErrorTypeData, err.Type)
	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "boom")
}

func TestWrapNilReturnsNil(t *testing.T) {
	require.Nil(t, Wrap(nil, ErrorTypeData, "nope"))
}

func TestWrapKeepsOriginalStack(t *testing.T) {
	inner := New(ErrorTypeTypeCast, "cannot cast")
	outer := Wrap(inner, ErrorTypeData, "while converting column v")
	require.Equal(t, inner.Stack, outer.Stack)
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeDuplicateColumn, "column 'a' is duplicated")
	require.True(t, IsType(err, ErrorTypeDuplicateColumn))
	require.False(t, IsType(err, ErrorTypeEmptyInput))
	require.False(t, IsType(stderrors.New("plain"), ErrorTypeDuplicateColumn))
	require.False(t, IsType(nil, ErrorTypeDuplicateColumn))

	wrapped := fmt.Errorf("context: %w", err)
	require.True(t, IsType(wrapped, ErrorTypeDuplicateColumn))
}

func TestDetails(t *testing.T) {
	err := New(ErrorTypeUnsupportedType, "unsupported type").
		WithDetail("column", "v").
		WithDetail("source_type", "duration[s]")

	v, ok := err.Detail("column")
	require.True(t, ok)
	require.Equal(t, "v", v)
	_, ok = err.Detail("absent")
	require.False(t, ok)
}

func TestAs(t *testing.T) {
	err := New(ErrorTypeInternal, "oops")
	got, ok := As(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	require.Same(t, err, got)

	_, ok = As(stderrors.New("plain"))
	require.False(t, ok)
}
