package blockfile

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/stats"
)

// Written reports how many bytes a block file occupies and how large its
// embedded statistics section is.
type Written struct {
	FileSize  uint64
	StatsSize uint64
}

// Write persists one batch as a block file. Constant columns are
// materialized; the constant representation is an in-memory optimization,
// not an on-disk one.
func Write(w io.Writer, block *datablocks.DataBlock, blockStats stats.BlockStatistics, codec Codec) (Written, error) {
	buf := &bytes.Buffer{}

	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], Magic)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint16(scratch[:2], FormatVersion)
	buf.Write(scratch[:2])
	buf.WriteByte(byte(codec))
	binary.LittleEndian.PutUint64(scratch[:], uint64(block.NumRows()))
	buf.Write(scratch[:])

	schemaJSON, err := json.Marshal(block.Schema)
	if err != nil {
		return Written{}, fmt.Errorf("encoding schema: %w", err)
	}
	writeLenPrefixed(buf, schemaJSON)

	statsJSON, err := json.Marshal(blockStats)
	if err != nil {
		return Written{}, fmt.Errorf("encoding block statistics: %w", err)
	}
	writeLenPrefixed(buf, statsJSON)

	for i, col := range block.Columns {
		raw, err := encodeColumn(col)
		if err != nil {
			return Written{}, fmt.Errorf("encoding column %d: %w", i, err)
		}
		encoded, err := encodeSection(codec, raw)
		if err != nil {
			return Written{}, fmt.Errorf("compressing column %d: %w", i, err)
		}
		binary.LittleEndian.PutUint32(scratch[:4], uint32(len(raw)))
		buf.Write(scratch[:4])
		writeLenPrefixed(buf, encoded)
	}

	binary.LittleEndian.PutUint64(scratch[:], xxhash.Sum64(buf.Bytes()))
	buf.Write(scratch[:])

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return Written{}, err
	}
	if n != buf.Len() {
		return Written{}, fmt.Errorf("short write: %d of %d bytes", n, buf.Len())
	}
	return Written{FileSize: uint64(n), StatsSize: uint64(len(statsJSON))}, nil
}

func writeLenPrefixed(buf *bytes.Buffer, b []byte) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], uint32(len(b)))
	buf.Write(scratch[:])
	buf.Write(b)
}

// encodeColumn lays out a null bitmap (bit set = null) followed by one value
// slot per row. Fixed-width slots are written even for nulls so row offsets
// stay computable; null strings write a zero length.
func encodeColumn(col datablocks.DataColumn) ([]byte, error) {
	rows := col.Len()
	bitmap := make([]byte, (rows+7)/8)
	body := &bytes.Buffer{}

	var scratch [8]byte
	for i := 0; i < rows; i++ {
		v := col.Get(i)
		if v.IsNull() {
			bitmap[i/8] |= 1 << (i % 8)
		}
		switch col.DataType() {
		case datavalues.TypeInt64, datavalues.TypeTimestamp:
			var raw int64
			if !v.IsNull() {
				switch tv := v.(type) {
				case datavalues.Int64Value:
					raw = int64(tv)
				case datavalues.TimestampValue:
					raw = int64(tv)
				}
			}
			binary.LittleEndian.PutUint64(scratch[:], uint64(raw))
			body.Write(scratch[:])
		case datavalues.TypeUInt64:
			var raw uint64
			if !v.IsNull() {
				raw = uint64(v.(datavalues.UInt64Value))
			}
			binary.LittleEndian.PutUint64(scratch[:], raw)
			body.Write(scratch[:])
		case datavalues.TypeFloat64:
			var raw float64
			if !v.IsNull() {
				raw = float64(v.(datavalues.Float64Value))
			}
			binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(raw))
			body.Write(scratch[:])
		case datavalues.TypeBoolean:
			var raw byte
			if !v.IsNull() && bool(v.(datavalues.BooleanValue)) {
				raw = 1
			}
			body.WriteByte(raw)
		case datavalues.TypeString:
			var raw string
			if !v.IsNull() {
				raw = string(v.(datavalues.StringValue))
			}
			binary.LittleEndian.PutUint32(scratch[:4], uint32(len(raw)))
			body.Write(scratch[:4])
			body.WriteString(raw)
		default:
			return nil, fmt.Errorf("%w: %s", datavalues.ErrUnsupportedType, col.DataType())
		}
	}

	out := &bytes.Buffer{}
	out.Write(bitmap)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
