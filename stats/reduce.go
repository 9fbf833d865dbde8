package stats

import (
	"errors"
	"fmt"
)

// ErrColumnMismatch reports a column id present in some blocks of a segment
// but not others. The schema is fixed for the life of a segment, so this is
// always a format error in the writer, never valid data.
var ErrColumnMismatch = errors.New("stats: column id set differs between blocks of one segment")

// Reduce folds per-block statistics into one aggregate map per column id:
// min of mins, max of maxes, sums of null and row counts. The fold is pure
// and order-independent, so reducing twice (or in any block order) yields
// the same result.
func Reduce(perBlock []map[ColumnID]TypedColumnStatistics) (BlockStatistics, error) {
	if len(perBlock) == 0 {
		return BlockStatistics{}, nil
	}

	acc := make(map[ColumnID]TypedColumnStatistics, len(perBlock[0]))
	for id, t := range perBlock[0] {
		acc[id] = TypedColumnStatistics{Type: t.Type, Stats: t.Stats}
	}

	for _, blk := range perBlock[1:] {
		if len(blk) != len(acc) {
			return nil, fmt.Errorf("%w: %d columns vs %d", ErrColumnMismatch, len(blk), len(acc))
		}
		for id, t := range blk {
			cur, ok := acc[id]
			if !ok {
				return nil, fmt.Errorf("%w: column id %d", ErrColumnMismatch, id)
			}
			merged, err := mergeColumnStats(cur.Stats, t.Stats)
			if err != nil {
				return nil, fmt.Errorf("column id %d: %w", id, err)
			}
			acc[id] = TypedColumnStatistics{Type: cur.Type, Stats: merged}
		}
	}

	out := make(BlockStatistics, len(acc))
	for id, t := range acc {
		out[id] = t.Stats
	}
	return out, nil
}

func mergeColumnStats(a, b ColumnStatistics) (ColumnStatistics, error) {
	merged := ColumnStatistics{
		Min:       a.Min,
		Max:       a.Max,
		NullCount: a.NullCount + b.NullCount,
		RowCount:  a.RowCount + b.RowCount,
	}

	// An all-null block contributes counts but no bounds.
	if !b.Min.IsNull() {
		if merged.Min.IsNull() {
			merged.Min = b.Min
		} else {
			cmp, err := b.Min.Compare(merged.Min)
			if err != nil {
				return ColumnStatistics{}, err
			}
			if cmp < 0 {
				merged.Min = b.Min
			}
		}
	}
	if !b.Max.IsNull() {
		if merged.Max.IsNull() {
			merged.Max = b.Max
		} else {
			cmp, err := b.Max.Compare(merged.Max)
			if err != nil {
				return ColumnStatistics{}, err
			}
			if cmp > 0 {
				merged.Max = b.Max
			}
		}
	}
	return merged, nil
}
