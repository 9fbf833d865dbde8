package fuse

import (
	"github.com/fusetable/fusetable/blockfile"
	"github.com/fusetable/fusetable/meta"
	"github.com/rs/zerolog"
)

// AppenderOptions configures one BlockAppender.
type AppenderOptions struct {
	// Codec is the compression policy for block files.
	Codec blockfile.Codec
	// Locations generates unique block and segment locations.
	Locations meta.LocationGenerator
	// BloomColumns lists column names to build per-block bloom indexes for.
	// Only string columns take effect.
	BloomColumns []string
	Logger       zerolog.Logger
}

func DefaultAppenderOptions() AppenderOptions {
	return AppenderOptions{
		Codec:     blockfile.CodecNone,
		Locations: meta.UUIDLocationGenerator{},
		Logger:    zerolog.Nop(),
	}
}

// defaultMaxConcurrentSegmentReads caps simultaneous segment loads to bound
// open handles against the storage backend. A policy constant, not a
// structural requirement.
const defaultMaxConcurrentSegmentReads = 10

// PrunerOptions configures one BlockPruner.
type PrunerOptions struct {
	// MaxConcurrentSegmentReads bounds segment fan-out; the effective bound
	// is min of this and the snapshot's segment count.
	MaxConcurrentSegmentReads int
	// Cache optionally satisfies snapshot and segment reads. Nil disables
	// caching; the pruner is correct with a cache that is always empty.
	Cache  Cache
	Logger zerolog.Logger
}

func DefaultPrunerOptions() PrunerOptions {
	return PrunerOptions{
		MaxConcurrentSegmentReads: defaultMaxConcurrentSegmentReads,
		Logger:                    zerolog.Nop(),
	}
}
