package blockfile

import (
	"fmt"

	"github.com/fusetable/fusetable/meta"
)

// Block files are self-describing: schema and column statistics are embedded
// so a block can be interpreted without consulting segment metadata.
//
// Layout, all integers little-endian:
//
//	u32 magic  u16 version  u8 codec  u64 row count
//	u32 schema length   schema JSON
//	u32 stats length    block statistics JSON
//	per column, in schema order:
//	    u32 raw length  u32 encoded length  encoded bytes
//	u64 xxhash64 of everything above
const (
	Magic         uint32 = 0x46424c4b // "FBLK"
	FormatVersion uint16 = 1
)

// Codec is the compression policy applied to column sections. The default is
// CodecNone: a conservative choice, and deliberately a parameter rather than
// a fixed algorithm of this layer.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecSnappy
	CodecZstd
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecSnappy:
		return "snappy"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("Codec(%d)", uint8(c))
	}
}

var (
	ErrBadMagic         = fmt.Errorf("%w: not a block file", meta.ErrSerialization)
	ErrUnknownVersion   = fmt.Errorf("%w: unknown block file version", meta.ErrSerialization)
	ErrUnknownCodec     = fmt.Errorf("%w: unknown block file codec", meta.ErrSerialization)
	ErrChecksumMismatch = fmt.Errorf("%w: block file checksum mismatch", meta.ErrSerialization)
	ErrTruncated        = fmt.Errorf("%w: block file truncated", meta.ErrSerialization)
)
