package meta

import (
	"github.com/google/uuid"
)

const (
	blockLocationPrefix    = "_b/"
	segmentLocationPrefix  = "_sg/"
	snapshotLocationPrefix = "_ss/"
)

// LocationGenerator produces fresh, collision-free storage locations. No two
// calls within the system's lifetime may collide: a location identifies an
// immutable object forever.
type LocationGenerator interface {
	BlockLocation() string
	SegmentLocation() string
}

// UUIDLocationGenerator derives locations from random v4 UUIDs.
type UUIDLocationGenerator struct{}

func (UUIDLocationGenerator) BlockLocation() string {
	return blockLocationPrefix + uuid.NewString()
}

func (UUIDLocationGenerator) SegmentLocation() string {
	return segmentLocationPrefix + uuid.NewString() + ".json"
}

// NewSnapshotID mints the id for a snapshot about to be published.
func NewSnapshotID() string {
	return uuid.NewString()
}

// SnapshotLocation maps a snapshot id to where its record is stored.
func SnapshotLocation(snapshotID string) string {
	return snapshotLocationPrefix + snapshotID + ".json"
}
