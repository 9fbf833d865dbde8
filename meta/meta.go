package meta

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fusetable/fusetable/stats"
)

// ErrSerialization reports a malformed or schema-incompatible metadata
// record (snapshot, segment, or block).
var ErrSerialization = errors.New("meta: malformed metadata record")

// SegmentFormatVersion and SnapshotFormatVersion gate the on-disk record
// shapes. Readers reject versions they do not know.
const (
	SegmentFormatVersion  uint32 = 1
	SnapshotFormatVersion uint32 = 1
)

// BlockLocation is where a block file lives within the storage namespace.
// MetaSize is the byte length of the statistics section embedded in the file.
type BlockLocation struct {
	Location string `json:"location"`
	MetaSize uint64 `json:"meta_size"`
}

// BlockMeta describes one physical block file. It is created only by the
// block appender and never mutated afterwards; segments reference it, query
// state holds pointers to it.
type BlockMeta struct {
	Location BlockLocation `json:"location"`
	RowCount uint64        `json:"row_count"`
	// BlockSize is the in-memory (uncompressed) size estimate of the block.
	BlockSize uint64                `json:"block_size"`
	ColStats  stats.BlockStatistics `json:"col_stats"`
	// BloomIndex holds optional serialized bloom filters keyed by column id,
	// used for equality pruning. Absent unless the appender was configured
	// to build them.
	BloomIndex map[stats.ColumnID][]byte `json:"bloom_index,omitempty"`
}

// Stats is a segment's aggregate summary over all of its blocks.
type Stats struct {
	RowCount             uint64                `json:"row_count"`
	BlockCount           uint64                `json:"block_count"`
	UncompressedByteSize uint64                `json:"uncompressed_byte_size"`
	CompressedByteSize   uint64                `json:"compressed_byte_size"`
	ColStats             stats.BlockStatistics `json:"col_stats"`
}

// SegmentInfo is an immutable, ordered collection of blocks plus their
// summary. Its on-disk identity is its storage location, generated once and
// never reused.
type SegmentInfo struct {
	FormatVersion uint32      `json:"format_version"`
	Blocks        []BlockMeta `json:"blocks"`
	Summary       Stats       `json:"summary"`
}

// TableSnapshot is the versioned root of a table: an id and the ordered
// locations of every segment visible in this version. Immutable once
// published; a writer produces a new snapshot by copying the previous
// segment list, appending, and publishing a new id as current. Readers that
// resolved a snapshot keep a fixed, consistent view regardless of what is
// published afterwards.
type TableSnapshot struct {
	FormatVersion  uint32   `json:"format_version"`
	SnapshotID     string   `json:"snapshot_id"`
	PrevSnapshotID string   `json:"prev_snapshot_id,omitempty"`
	Segments       []string `json:"segments"`
}

func EncodeSegment(seg *SegmentInfo) ([]byte, error) {
	b, err := json.Marshal(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding segment: %v", ErrSerialization, err)
	}
	return b, nil
}

func DecodeSegment(data []byte) (*SegmentInfo, error) {
	var seg SegmentInfo
	if err := json.Unmarshal(data, &seg); err != nil {
		return nil, fmt.Errorf("%w: decoding segment: %v", ErrSerialization, err)
	}
	if seg.FormatVersion != SegmentFormatVersion {
		return nil, fmt.Errorf("%w: unknown segment format version %d", ErrSerialization, seg.FormatVersion)
	}
	return &seg, nil
}

func EncodeSnapshot(snap *TableSnapshot) ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding snapshot: %v", ErrSerialization, err)
	}
	return b, nil
}

func DecodeSnapshot(data []byte) (*TableSnapshot, error) {
	var snap TableSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: decoding snapshot: %v", ErrSerialization, err)
	}
	if snap.FormatVersion != SnapshotFormatVersion {
		return nil, fmt.Errorf("%w: unknown snapshot format version %d", ErrSerialization, snap.FormatVersion)
	}
	return &snap, nil
}
