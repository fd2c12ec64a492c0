package nested

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/column"
)

func TestNames(t *testing.T) {
	tests := []struct {
		name   string
		table  string
		leaf   string
		nested bool
	}{
		{"plain", "plain", "", false},
		{"t.a", "t", "a", true},
		{"t.a.b", "t", "a.b", true},
	}
	for _, tt := range tests {
		require.Equal(t, tt.table, TableName(tt.name))
		require.Equal(t, tt.leaf, Leaf(tt.name))
		require.Equal(t, tt.nested, IsNested(tt.name))
	}
}

func TestExtractExactMatchWins(t *testing.T) {
	dotted := column.NewVector(column.Simple(column.KindInt32), []int32{1})
	b, err := block.New([]block.NamedColumn{{Name: "t.a", Type: dotted.Type(), Data: dotted}})
	require.NoError(t, err)

	col, ok := NewExtractor(b).Extract("t.a")
	require.True(t, ok)
	require.Same(t, column.Column(dotted), col.Data)
}

func TestExtractTupleLeaf(t *testing.T) {
	a := column.NewVector(column.Simple(column.KindInt64), []int64{1, 2})
	s := column.NewString(2, 8)
	s.AppendString("x")
	s.AppendString("y")
	tuple := column.NewTuple([]string{"a", "s"}, []column.Column{a, s})

	b, err := block.New([]block.NamedColumn{{Name: "t", Type: tuple.Type(), Data: tuple}})
	require.NoError(t, err)
	ex := NewExtractor(b)

	col, ok := ex.Extract("t.s")
	require.True(t, ok)
	require.Equal(t, "t.s", col.Name)
	require.Equal(t, column.KindString, col.Type.Kind)
	require.Equal(t, "y", col.Data.Value(1))

	_, ok = ex.Extract("t.missing")
	require.False(t, ok)
	_, ok = ex.Extract("u.a")
	require.False(t, ok)
}

func TestExtractArrayOfTupleKeepsOffsets(t *testing.T) {
	a := column.NewVector(column.Simple(column.KindInt64), []int64{1, 2, 3})
	tuple := column.NewTuple([]string{"a"}, []column.Column{a})
	arr := column.NewArray(tuple, []uint64{2, 3})

	b, err := block.New([]block.NamedColumn{{Name: "t", Type: arr.Type(), Data: arr}})
	require.NoError(t, err)

	col, ok := NewExtractor(b).Extract("t.a")
	require.True(t, ok)
	wrapped := col.Data.(*column.Array)
	require.Equal(t, []uint64{2, 3}, wrapped.Offsets)
	require.Equal(t, []int64{1, 2, 3}, wrapped.Data.(*column.Vector[int64]).Data)
}
