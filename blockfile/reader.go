package blockfile

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/meta"
	"github.com/fusetable/fusetable/stats"
)

const (
	fixedHeaderSize = 4 + 2 + 1 + 8
	footerSize      = 8
)

// Read parses a whole block file, returning the batch and its embedded
// statistics. Only files produced by Write in this module are understood.
func Read(data []byte) (*datablocks.DataBlock, stats.BlockStatistics, error) {
	if len(data) < fixedHeaderSize+footerSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrTruncated, len(data))
	}

	body := data[:len(data)-footerSize]
	wantHash := binary.LittleEndian.Uint64(data[len(data)-footerSize:])
	if gotHash := xxhash.Sum64(body); gotHash != wantHash {
		return nil, nil, fmt.Errorf("%w: expected=%d got=%d", ErrChecksumMismatch, wantHash, gotHash)
	}

	r := &sliceReader{data: body}
	if magic := r.u32(); magic != Magic {
		return nil, nil, fmt.Errorf("%w: magic %#x", ErrBadMagic, magic)
	}
	if version := r.u16(); version != FormatVersion {
		return nil, nil, fmt.Errorf("%w: expected=%d got=%d", ErrUnknownVersion, FormatVersion, version)
	}
	codec := Codec(r.u8())
	if codec > CodecZstd {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(codec))
	}
	rowCount := int(r.u64())

	schemaJSON := r.bytes(int(r.u32()))
	statsJSON := r.bytes(int(r.u32()))
	if r.failed {
		return nil, nil, fmt.Errorf("%w: header overruns file", ErrTruncated)
	}

	var schema datavalues.DataSchema
	if err := json.Unmarshal(schemaJSON, &schema); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding schema: %v", meta.ErrSerialization, err)
	}
	var blockStats stats.BlockStatistics
	if err := json.Unmarshal(statsJSON, &blockStats); err != nil {
		return nil, nil, fmt.Errorf("%w: decoding block statistics: %v", meta.ErrSerialization, err)
	}

	columns := make([]datablocks.DataColumn, 0, schema.NumFields())
	for i, field := range schema.Fields {
		rawLen := r.u32()
		encoded := r.bytes(int(r.u32()))
		if r.failed {
			return nil, nil, fmt.Errorf("%w: column %d overruns file", ErrTruncated, i)
		}
		raw, err := decodeSection(codec, encoded, rawLen)
		if err != nil {
			return nil, nil, fmt.Errorf("column %d: %w", i, err)
		}
		col, err := decodeColumn(field.Type, raw, rowCount)
		if err != nil {
			return nil, nil, fmt.Errorf("column %d: %w", i, err)
		}
		columns = append(columns, col)
	}

	block, err := datablocks.NewDataBlock(schema, columns)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", meta.ErrSerialization, err)
	}
	return block, blockStats, nil
}

func decodeColumn(typ datavalues.DataType, raw []byte, rows int) (datablocks.DataColumn, error) {
	bitmapLen := (rows + 7) / 8
	if len(raw) < bitmapLen {
		return nil, fmt.Errorf("%w: null bitmap", ErrTruncated)
	}
	bitmap := raw[:bitmapLen]
	r := &sliceReader{data: raw[bitmapLen:]}

	values := make([]datavalues.Value, rows)
	for i := 0; i < rows; i++ {
		isNull := bitmap[i/8]&(1<<(i%8)) != 0
		switch typ {
		case datavalues.TypeInt64:
			v := int64(r.u64())
			values[i] = datavalues.Int64Value(v)
		case datavalues.TypeTimestamp:
			v := int64(r.u64())
			values[i] = datavalues.TimestampValue(v)
		case datavalues.TypeUInt64:
			values[i] = datavalues.UInt64Value(r.u64())
		case datavalues.TypeFloat64:
			values[i] = datavalues.Float64Value(math.Float64frombits(r.u64()))
		case datavalues.TypeBoolean:
			values[i] = datavalues.BooleanValue(r.u8() == 1)
		case datavalues.TypeString:
			values[i] = datavalues.StringValue(r.bytes(int(r.u32())))
		default:
			return nil, fmt.Errorf("%w: %s", datavalues.ErrUnsupportedType, typ)
		}
		if isNull {
			values[i] = datavalues.Null()
		}
	}
	if r.failed {
		return nil, fmt.Errorf("%w: column body", ErrTruncated)
	}
	return datablocks.NewArrayColumn(typ, values), nil
}

// sliceReader cursors over a byte slice, latching the first overrun instead
// of panicking so callers check failure once.
type sliceReader struct {
	data   []byte
	off    int
	failed bool
}

func (r *sliceReader) bytes(n int) []byte {
	if r.failed || n < 0 || r.off+n > len(r.data) {
		r.failed = true
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *sliceReader) u8() uint8 {
	b := r.bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *sliceReader) u16() uint16 {
	b := r.bytes(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *sliceReader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *sliceReader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
