package shuffle

import (
	"encoding/binary"
	"io"

	"github.com/apache/arrow-go/v18/arrow/decimal128"
	"github.com/apache/arrow-go/v18/arrow/decimal256"

	"github.com/ditgittube/gluten/pkg/block"
	"github.com/ditgittube/gluten/pkg/column"
	"github.com/ditgittube/gluten/pkg/errors"
)

// Decoder turns a block-oriented stream into one structured row block at a
// time. An empty block with a nil error denotes end-of-stream; subsequent
// calls keep returning empty blocks.
type Decoder interface {
	Read() (*block.Block, error)
}

// Writer serializes blocks onto a byte stream in the native block layout
// understood by BlockDecoder.
type Writer struct {
	w io.Writer
}

// NewWriter creates a block writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteBlock serializes one block. An empty block is a valid terminator: a
// decoder on the other end reports end-of-stream when it reads one.
func (bw *Writer) WriteBlock(b *block.Block) error {
	if err := writeUint32(bw.w, uint32(len(b.Columns))); err != nil {
		return err
	}
	if err := writeUint64(bw.w, uint64(b.Rows())); err != nil {
		return err
	}
	if err := writeUint32(bw.w, uint32(b.Info.BucketNum)); err != nil {
		return err
	}
	var overflow uint8
	if b.Info.IsOverflow {
		overflow = 1
	}
	if err := writeUint8(bw.w, overflow); err != nil {
		return err
	}
	for _, c := range b.Columns {
		if err := writeString(bw.w, c.Name); err != nil {
			return err
		}
		if err := writeType(bw.w, c.Type); err != nil {
			return err
		}
		if err := writeColumn(bw.w, c.Data); err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, "serializing column "+c.Name)
		}
	}
	return nil
}

// BlockDecoder reads blocks in the native layout produced by Writer.
type BlockDecoder struct {
	r    io.Reader
	done bool
}

// NewBlockDecoder creates a decoder over r.
func NewBlockDecoder(r io.Reader) *BlockDecoder {
	return &BlockDecoder{r: r}
}

// Read returns the next block. After the underlying stream ends or an empty
// block is read, it returns empty blocks forever.
func (d *BlockDecoder) Read() (*block.Block, error) {
	if d.done {
		return &block.Block{}, nil
	}
	numCols, err := readUint32(d.r)
	if err == io.EOF {
		d.done = true
		return &block.Block{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "reading block header")
	}
	rows, err := readUint64(d.r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "reading block row count")
	}
	bucket, err := readUint32(d.r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "reading block bucket")
	}
	overflow, err := readUint8(d.r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "reading block overflow flag")
	}

	cols := make([]block.NamedColumn, numCols)
	for i := range cols {
		name, err := readString(d.r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "reading column name")
		}
		typ, err := readType(d.r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "reading type of column "+name)
		}
		data, err := readColumn(d.r, typ, int(rows))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "reading column "+name)
		}
		cols[i] = block.NamedColumn{Name: name, Type: typ, Data: data}
	}

	out := &block.Block{Info: block.Info{IsOverflow: overflow != 0, BucketNum: int32(bucket)}}
	out.SetColumns(cols, int(rows))
	if out.Empty() {
		d.done = true
	}
	return out, nil
}

func writeType(w io.Writer, t *column.Type) error {
	if err := writeUint8(w, uint8(t.Kind)); err != nil {
		return err
	}
	switch t.Kind {
	case column.KindDecimal32, column.KindDecimal64, column.KindDecimal128, column.KindDecimal256:
		if err := writeUint8(w, uint8(t.Precision)); err != nil {
			return err
		}
		return writeUint8(w, uint8(t.Scale))
	case column.KindDateTime64:
		if err := writeUint8(w, uint8(t.Scale)); err != nil {
			return err
		}
		return writeString(w, t.Timezone)
	case column.KindArray, column.KindNullable, column.KindLowCardinality:
		return writeType(w, t.Elem)
	case column.KindMap:
		if err := writeType(w, t.Key); err != nil {
			return err
		}
		return writeType(w, t.Value)
	case column.KindTuple:
		if err := writeUint32(w, uint32(len(t.Fields))); err != nil {
			return err
		}
		for i, f := range t.Fields {
			if err := writeString(w, t.Names[i]); err != nil {
				return err
			}
			if err := writeType(w, f); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

func readType(r io.Reader) (*column.Type, error) {
	k, err := readUint8(r)
	if err != nil {
		return nil, err
	}
	kind := column.Kind(k)
	switch kind {
	case column.KindDecimal32, column.KindDecimal64, column.KindDecimal128, column.KindDecimal256:
		precision, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		scale, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		return &column.Type{Kind: kind, Precision: int(precision), Scale: int(scale)}, nil
	case column.KindDateTime64:
		scale, err := readUint8(r)
		if err != nil {
			return nil, err
		}
		tz, err := readString(r)
		if err != nil {
			return nil, err
		}
		return column.DateTime64Type(int(scale), tz), nil
	case column.KindArray, column.KindNullable, column.KindLowCardinality:
		elem, err := readType(r)
		if err != nil {
			return nil, err
		}
		return &column.Type{Kind: kind, Elem: elem}, nil
	case column.KindMap:
		key, err := readType(r)
		if err != nil {
			return nil, err
		}
		value, err := readType(r)
		if err != nil {
			return nil, err
		}
		return column.MapOf(key, value), nil
	case column.KindTuple:
		count, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		names := make([]string, count)
		fields := make([]*column.Type, count)
		for i := range fields {
			if names[i], err = readString(r); err != nil {
				return nil, err
			}
			if fields[i], err = readType(r); err != nil {
				return nil, err
			}
		}
		return column.TupleOf(names, fields), nil
	default:
		return column.Simple(kind), nil
	}
}

func writeColumn(w io.Writer, col column.Column) error {
	switch c := col.(type) {
	case *column.Vector[int8]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[int16]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[int32]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[int64]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[uint8]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[uint16]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[uint32]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[uint64]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[float32]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[float64]:
		return binary.Write(w, binary.LittleEndian, c.Data)
	case *column.Vector[decimal128.Num]:
		for _, v := range c.Data {
			if err := writeUint64(w, v.LowBits()); err != nil {
				return err
			}
			if err := writeUint64(w, uint64(v.HighBits())); err != nil {
				return err
			}
		}
		return nil
	case *column.Vector[decimal256.Num]:
		for _, v := range c.Data {
			arr := v.Array()
			for _, word := range arr {
				if err := writeUint64(w, word); err != nil {
					return err
				}
			}
		}
		return nil
	case *column.String:
		if err := writeUint64(w, uint64(len(c.Chars))); err != nil {
			return err
		}
		if _, err := w.Write(c.Chars); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, c.Offsets)
	case *column.Nullable:
		if _, err := w.Write(c.Mask); err != nil {
			return err
		}
		return writeColumn(w, c.Data)
	case *column.Array:
		if err := binary.Write(w, binary.LittleEndian, c.Offsets); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(c.Data.Rows())); err != nil {
			return err
		}
		return writeColumn(w, c.Data)
	case *column.Map:
		if err := binary.Write(w, binary.LittleEndian, c.Offsets); err != nil {
			return err
		}
		if err := writeUint64(w, uint64(c.Keys.Rows())); err != nil {
			return err
		}
		if err := writeColumn(w, c.Keys); err != nil {
			return err
		}
		return writeColumn(w, c.Values)
	case *column.Tuple:
		for _, field := range c.Columns {
			if err := writeColumn(w, field); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Newf(errors.ErrorTypeUnsupportedType,
			"cannot serialize column of type %s", col.Type())
	}
}

func readColumn(r io.Reader, t *column.Type, rows int) (column.Column, error) {
	switch t.Kind {
	case column.KindInt8:
		return readVector[int8](r, t, rows)
	case column.KindInt16:
		return readVector[int16](r, t, rows)
	case column.KindInt32, column.KindDate32, column.KindDecimal32:
		return readVector[int32](r, t, rows)
	case column.KindInt64, column.KindDateTime64, column.KindDecimal64:
		return readVector[int64](r, t, rows)
	case column.KindUInt8:
		return readVector[uint8](r, t, rows)
	case column.KindUInt16, column.KindDate:
		return readVector[uint16](r, t, rows)
	case column.KindUInt32, column.KindDateTime:
		return readVector[uint32](r, t, rows)
	case column.KindUInt64:
		return readVector[uint64](r, t, rows)
	case column.KindFloat32:
		return readVector[float32](r, t, rows)
	case column.KindFloat64:
		return readVector[float64](r, t, rows)
	case column.KindDecimal128:
		data := make([]decimal128.Num, rows)
		for i := range data {
			lo, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			hi, err := readUint64(r)
			if err != nil {
				return nil, err
			}
			data[i] = decimal128.New(int64(hi), lo)
		}
		return column.NewVector(t, data), nil
	case column.KindDecimal256:
		data := make([]decimal256.Num, rows)
		for i := range data {
			var arr [4]uint64
			for j := range arr {
				word, err := readUint64(r)
				if err != nil {
					return nil, err
				}
				arr[j] = word
			}
			data[i] = decimal256.New(arr[3], arr[2], arr[1], arr[0])
		}
		return column.NewVector(t, data), nil
	case column.KindString:
		charLen, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		chars := make([]byte, charLen)
		if _, err := io.ReadFull(r, chars); err != nil {
			return nil, err
		}
		offsets := make([]uint64, rows)
		if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
			return nil, err
		}
		return &column.String{Chars: chars, Offsets: offsets}, nil
	case column.KindNullable:
		mask := make([]uint8, rows)
		if _, err := io.ReadFull(r, mask); err != nil {
			return nil, err
		}
		inner, err := readColumn(r, t.Elem, rows)
		if err != nil {
			return nil, err
		}
		return column.NewNullable(inner, mask), nil
	case column.KindArray:
		offsets := make([]uint64, rows)
		if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
			return nil, err
		}
		elemRows, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		elem, err := readColumn(r, t.Elem, int(elemRows))
		if err != nil {
			return nil, err
		}
		return column.NewArray(elem, offsets), nil
	case column.KindMap:
		offsets := make([]uint64, rows)
		if err := binary.Read(r, binary.LittleEndian, offsets); err != nil {
			return nil, err
		}
		pairRows, err := readUint64(r)
		if err != nil {
			return nil, err
		}
		keys, err := readColumn(r, t.Key, int(pairRows))
		if err != nil {
			return nil, err
		}
		values, err := readColumn(r, t.Value, int(pairRows))
		if err != nil {
			return nil, err
		}
		return column.NewMap(keys, values, offsets), nil
	case column.KindTuple:
		fields := make([]column.Column, len(t.Fields))
		for i, ft := range t.Fields {
			field, err := readColumn(r, ft, rows)
			if err != nil {
				return nil, err
			}
			fields[i] = field
		}
		return column.NewTuple(t.Names, fields), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeUnsupportedType,
			"cannot deserialize column of type %s", t)
	}
}

func readVector[T column.Scalar](r io.Reader, t *column.Type, rows int) (column.Column, error) {
	data := make([]T, rows)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return nil, err
	}
	return column.NewVector(t, data), nil
}

func writeUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeUint32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readUint32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
