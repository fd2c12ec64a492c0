package shuffle

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/compression"
)

// sliceDecoder feeds a fixed block sequence, then reports end-of-stream.
type sliceDecoder struct {
	blocks []*block.Block
	next   int
}

func (d *sliceDecoder) Read() (*block.Block, error) {
	if d.next >= len(d.blocks) {
		return &block.Block{}, nil
	}
	b := d.blocks[d.next]
	d.next++
	return b, nil
}

func testBlock(t *testing.T, bucket int32, overflow bool, values ...int64) *block.Block {
	t.Helper()
	data := column.NewVector(column.Simple(column.KindInt64), values)
	b, err := block.New([]block.NamedColumn{{Name: "v", Type: data.Type(), Data: data}})
	require.NoError(t, err)
	b.Info = block.Info{IsOverflow: overflow, BucketNum: bucket}
	return b
}

func rows(t *testing.T, n int) []int64 {
	t.Helper()
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(i)
	}
	return out
}

func TestReaderMergesUntilBoundary(t *testing.T) {
	dec := &sliceDecoder{blocks: []*block.Block{
		testBlock(t, 0, false, rows(t, 5)...),
		testBlock(t, 0, false, rows(t, 5)...),
		testBlock(t, 1, false, rows(t, 5)...),
	}}
	r := NewReaderFromDecoder(dec, 100, -1)

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 10, first.Rows())
	require.Equal(t, int32(0), first.Info.BucketNum)

	second, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 5, second.Rows())
	require.Equal(t, int32(1), second.Info.BucketNum)

	last, err := r.Next()
	require.NoError(t, err)
	require.True(t, last.Empty())
}

func TestReaderOverflowIsABoundary(t *testing.T) {
	dec := &sliceDecoder{blocks: []*block.Block{
		testBlock(t, 0, false, rows(t, 2)...),
		testBlock(t, 0, true, rows(t, 2)...),
	}}
	r := NewReaderFromDecoder(dec, -1, -1)

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 2, first.Rows())
	require.False(t, first.Info.IsOverflow)

	second, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 2, second.Rows())
	require.True(t, second.Info.IsOverflow)
}

func TestReaderRowThresholdNeverSplitsBlocks(t *testing.T) {
	dec := &sliceDecoder{blocks: []*block.Block{
		testBlock(t, 0, false, rows(t, 5)...),
		testBlock(t, 0, false, rows(t, 5)...),
		testBlock(t, 0, false, rows(t, 5)...),
	}}
	r := NewReaderFromDecoder(dec, 8, -1)

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 10, first.Rows())

	second, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 5, second.Rows())
}

func TestReaderByteThreshold(t *testing.T) {
	dec := &sliceDecoder{blocks: []*block.Block{
		testBlock(t, 0, false, rows(t, 4)...), // 32 payload bytes
		testBlock(t, 0, false, rows(t, 4)...),
		testBlock(t, 0, false, rows(t, 4)...),
	}}
	r := NewReaderFromDecoder(dec, -1, 40)

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 8, first.Rows())

	second, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 4, second.Rows())
}

func TestReaderDisabledThresholdsDrainIdentity(t *testing.T) {
	dec := &sliceDecoder{blocks: []*block.Block{
		testBlock(t, 0, false, rows(t, 5)...),
		testBlock(t, 0, false, rows(t, 5)...),
		testBlock(t, 0, false, rows(t, 5)...),
	}}
	r := NewReaderFromDecoder(dec, -1, -1)

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 15, first.Rows())
}

func TestReaderEndOfStreamRepeats(t *testing.T) {
	dec := &sliceDecoder{blocks: []*block.Block{
		testBlock(t, 0, false, rows(t, 3)...),
	}}
	r := NewReaderFromDecoder(dec, -1, -1)

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 3, first.Rows())

	for i := 0; i < 3; i++ {
		empty, err := r.Next()
		require.NoError(t, err)
		require.True(t, empty.Empty())
		// The adopted layout types even the empty results.
		require.Len(t, empty.Columns, 1)
		require.Equal(t, "v", empty.Columns[0].Name)
	}
}

func TestReaderImmediateEndOfStream(t *testing.T) {
	r := NewReaderFromDecoder(&sliceDecoder{}, -1, -1)
	out, err := r.Next()
	require.NoError(t, err)
	require.True(t, out.Empty())
	require.Empty(t, out.Columns)
}

func TestCodecRoundTrip(t *testing.T) {
	s := column.NewString(2, 16)
	s.AppendString("hello")
	s.AppendString("world")
	nullable := column.NewNullable(
		column.NewVector(column.Simple(column.KindInt32), []int32{1, 0}), []uint8{0, 1})
	arr := column.NewArray(
		column.NewVector(column.Simple(column.KindFloat64), []float64{1.5, 2.5, 3.5}), []uint64{1, 3})

	src, err := block.New([]block.NamedColumn{
		{Name: "s", Type: s.Type(), Data: s},
		{Name: "n", Type: nullable.Type(), Data: nullable},
		{Name: "a", Type: arr.Type(), Data: arr},
	})
	require.NoError(t, err)
	src.Info = block.Info{IsOverflow: true, BucketNum: 9}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteBlock(src))

	out, err := NewBlockDecoder(&buf).Read()
	require.NoError(t, err)
	require.Equal(t, src.Info, out.Info)
	require.Equal(t, 2, out.Rows())

	gotS := out.Columns[0].Data.(*column.String)
	require.Equal(t, "hello", gotS.Value(0))
	require.Equal(t, "world", gotS.Value(1))

	gotN := out.Columns[1].Data.(*column.Nullable)
	require.True(t, gotN.IsNull(1))
	require.Equal(t, int32(1), gotN.Value(0))

	gotA := out.Columns[2].Data.(*column.Array)
	require.Equal(t, []uint64{1, 3}, gotA.Offsets)
	require.Equal(t, []float64{1.5, 2.5, 3.5}, gotA.Data.(*column.Vector[float64]).Data)
}

func TestReaderOverCompressedStream(t *testing.T) {
	var buf bytes.Buffer
	wc, err := compression.NewStreamWriter(compression.Zstd, &buf)
	require.NoError(t, err)
	w := NewWriter(wc)
	require.NoError(t, w.WriteBlock(testBlock(t, 2, false, rows(t, 4)...)))
	require.NoError(t, w.WriteBlock(testBlock(t, 2, false, rows(t, 4)...)))
	require.NoError(t, wc.Close())

	r, err := NewReader(&buf, true, -1, -1)
	require.NoError(t, err)
	defer r.Close()

	out, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 8, out.Rows())
	require.Equal(t, int32(2), out.Info.BucketNum)

	empty, err := r.Next()
	require.NoError(t, err)
	require.True(t, empty.Empty())
}
