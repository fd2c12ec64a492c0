// Package shuffle re-batches streamed row blocks into size-bounded chunks
// while preserving partition identity: no output chunk ever mixes rows from
// two buckets or mixes overflow and non-overflow rows.
package shuffle

import (
	"io"

	"go.uber.org/zap"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/compression"
	"github.com/ditgittube/gluten/pkg/errors"
	"github.com/ditgittube/gluten/pkg/logger"
)

// Reader pulls blocks from a decoder and merges consecutive same-identity
// blocks until an output threshold is reached. At most one block is ever
// held across Next calls: the look-ahead block that revealed an identity
// boundary.
type Reader struct {
	dec      Decoder
	stream   io.Closer
	maxRows  int64
	maxBytes int64

	pending *block.Block
	header  *block.Block
	log     *zap.Logger
}

// NewReader creates a reader over a raw byte source carrying blocks in the
// native layout. When compressed is true the source is wrapped with a
// zstd-decompressing reader first. A negative maxRows or maxBytes disables
// that threshold.
func NewReader(src io.Reader, compressed bool, maxRows, maxBytes int64) (*Reader, error) {
	var closer io.Closer
	if compressed {
		rc, err := compression.NewStreamReader(compression.Zstd, src)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "opening compressed shuffle stream")
		}
		src = rc
		closer = rc
	}
	return &Reader{
		dec:      NewBlockDecoder(src),
		stream:   closer,
		maxRows:  maxRows,
		maxBytes: maxBytes,
		log:      logger.Get().Named("shuffle"),
	}, nil
}

// NewReaderFromDecoder creates a reader over an already-constructed block
// decoder. Used when the block layout is owned by another codec.
func NewReaderFromDecoder(dec Decoder, maxRows, maxBytes int64) *Reader {
	return &Reader{
		dec:      dec,
		maxRows:  maxRows,
		maxBytes: maxBytes,
		log:      logger.Get().Named("shuffle"),
	}
}

// Next returns the next merged chunk. An empty chunk is returned only at
// true end-of-stream, and every call after that keeps returning empty
// chunks. The returned chunk carries the identity tags of its first block.
func (r *Reader) Next() (*block.Block, error) {
	var accumulated []*block.Block
	var rows, bytes int64

	if r.pending != nil {
		accumulated = append(accumulated, r.pending)
		rows = int64(r.pending.Rows())
		bytes = r.pending.ByteSize()
		r.pending = nil
	}

	for !r.full(rows, bytes) {
		blk, err := r.dec.Read()
		if err != nil {
			return nil, err
		}
		if blk.Empty() {
			break
		}
		if len(accumulated) > 0 && blk.Info != accumulated[0].Info {
			r.pending = blk
			break
		}
		accumulated = append(accumulated, blk)
		rows += int64(blk.Rows())
		bytes += blk.ByteSize()
	}

	if len(accumulated) == 0 {
		return r.emptyChunk()
	}

	out, err := block.Concat(accumulated)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "merging shuffle blocks")
	}
	if r.header == nil {
		r.header, err = out.CloneEmpty()
		if err != nil {
			return nil, err
		}
	}
	r.log.Debug("merged shuffle chunk",
		zap.Int("blocks", len(accumulated)),
		zap.Int("rows", out.Rows()),
		zap.Int32("bucket", out.Info.BucketNum),
		zap.Bool("overflow", out.Info.IsOverflow))
	return out, nil
}

// full reports whether the accumulated totals have reached an enabled
// threshold. With both thresholds disabled only end-of-stream or an identity
// boundary stops accumulation.
func (r *Reader) full(rows, bytes int64) bool {
	if rows == 0 {
		return false
	}
	if r.maxRows >= 0 && rows >= r.maxRows {
		return true
	}
	if r.maxBytes >= 0 && bytes >= r.maxBytes {
		return true
	}
	return false
}

// emptyChunk returns a zero-row chunk typed with the layout adopted from the
// first non-empty result, or a bare empty block if nothing was ever read.
func (r *Reader) emptyChunk() (*block.Block, error) {
	if r.header != nil {
		return r.header.CloneEmpty()
	}
	return &block.Block{}, nil
}

// Close releases the decompressing stream, if any.
func (r *Reader) Close() error {
	if r.stream != nil {
		return r.stream.Close()
	}
	return nil
}
