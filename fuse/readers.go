package fuse

import (
	"context"
	"fmt"

	"github.com/fusetable/fusetable/dal"
	"github.com/fusetable/fusetable/meta"
)

// ReadSnapshot resolves a table snapshot record, optionally satisfied from a
// caller-supplied cache. Whoever resolves a location first populates the
// cache for everyone else.
func ReadSnapshot(ctx context.Context, da dal.DataAccessor, location string, cache Cache) (*meta.TableSnapshot, error) {
	if cache != nil {
		if entry, ok := cache.Get(location); ok {
			if snap, ok := entry.(*meta.TableSnapshot); ok {
				return snap, nil
			}
		}
	}
	data, err := da.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot %s: %w", location, err)
	}
	snap, err := meta.DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot %s: %w", location, err)
	}
	if cache != nil {
		cache.Put(location, snap)
	}
	return snap, nil
}

// ReadSegment loads one segment record, cache-checked the same way as
// ReadSnapshot.
func ReadSegment(ctx context.Context, da dal.DataAccessor, location string, cache Cache) (*meta.SegmentInfo, error) {
	if cache != nil {
		if entry, ok := cache.Get(location); ok {
			if seg, ok := entry.(*meta.SegmentInfo); ok {
				return seg, nil
			}
		}
	}
	data, err := da.Read(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("resolve segment %s: %w", location, err)
	}
	seg, err := meta.DecodeSegment(data)
	if err != nil {
		return nil, fmt.Errorf("resolve segment %s: %w", location, err)
	}
	if cache != nil {
		cache.Put(location, seg)
	}
	return seg, nil
}
