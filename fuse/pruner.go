package fuse

import (
	"context"
	"fmt"
	"sync"

	"github.com/fusetable/fusetable/dal"
	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/expr"
	"github.com/fusetable/fusetable/index"
	"github.com/fusetable/fusetable/meta"
	"github.com/fusetable/fusetable/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// BlockPruner resolves a snapshot and returns the metadata of every block a
// scan might need, using statistics alone. It never reads row data and never
// mutates anything it loads.
type BlockPruner struct {
	da               dal.DataAccessor
	snapshotLocation string
	opts             PrunerOptions
}

func NewBlockPruner(da dal.DataAccessor, snapshotLocation string, opts PrunerOptions) *BlockPruner {
	if opts.MaxConcurrentSegmentReads <= 0 {
		opts.MaxConcurrentSegmentReads = defaultMaxConcurrentSegmentReads
	}
	return &BlockPruner{da: da, snapshotLocation: snapshotLocation, opts: opts}
}

// Apply prunes the snapshot down to candidate blocks for the given filters.
// Only the first filter is compiled; pruning is best-effort, and conjoining
// the remaining clauses for tighter pruning is a possible future
// optimization, not a correctness requirement. With no filters every block
// survives.
//
// The returned slice is a set: segment fan-out does not preserve order.
// The first error aborts the whole call — partial results are never
// returned.
func (p *BlockPruner) Apply(ctx context.Context, schema datavalues.DataSchema, filters []expr.Expression) ([]meta.BlockMeta, error) {
	// compile before any I/O so a bad filter fails fast
	var rf *index.RangeFilter
	if len(filters) > 0 {
		compiled, err := index.NewRangeFilter(filters[0], schema)
		if err != nil {
			return nil, err
		}
		rf = compiled
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "BlockPruner.Apply")
	defer span.End()

	snap, err := ReadSnapshot(ctx, p.da, p.snapshotLocation, p.opts.Cache)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(snap.Segments) == 0 {
		return []meta.BlockMeta{}, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(min(p.opts.MaxConcurrentSegmentReads, len(snap.Segments)))

	var (
		mu              sync.Mutex
		result          []meta.BlockMeta
		segmentsPruned  int
		segmentsVisited int
	)
	for _, segmentLocation := range snap.Segments {
		segmentLocation := segmentLocation
		g.Go(func() error {
			seg, err := ReadSegment(ctx, p.da, segmentLocation, p.opts.Cache)
			if err != nil {
				return err
			}
			kept, err := p.filterSegment(seg, rf)
			if err != nil {
				return fmt.Errorf("pruning segment %s: %w", segmentLocation, err)
			}
			mu.Lock()
			defer mu.Unlock()
			segmentsVisited++
			if kept == nil {
				segmentsPruned++
			}
			result = append(result, kept...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("prune.segments", segmentsVisited),
		attribute.Int("prune.segments_pruned", segmentsPruned),
		attribute.Int("prune.blocks_selected", len(result)),
	)
	p.opts.Logger.Debug().
		Str("snapshot", snap.SnapshotID).
		Int("segments", segmentsVisited).
		Int("segments_pruned", segmentsPruned).
		Int("blocks", len(result)).
		Msg("block pruning complete")

	return result, nil
}

// filterSegment applies the predicate at segment granularity first — a
// summary miss discards the whole segment without looking at its block list
// — then at block granularity.
func (p *BlockPruner) filterSegment(seg *meta.SegmentInfo, rf *index.RangeFilter) ([]meta.BlockMeta, error) {
	if rf == nil {
		return seg.Blocks, nil
	}
	ok, err := rf.Eval(seg.Summary.ColStats)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	kept := make([]meta.BlockMeta, 0, len(seg.Blocks))
	for _, block := range seg.Blocks {
		ok, err := rf.Eval(block.ColStats)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ok, err = p.probeBloomIndexes(block, rf)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, block)
		}
	}
	return kept, nil
}

// probeBloomIndexes consults per-block bloom filters for equality terms. A
// definitive bloom miss prunes a block the range check alone could not. Each
// column's filter is decoded once per block, however many terms probe it.
func (p *BlockPruner) probeBloomIndexes(block meta.BlockMeta, rf *index.RangeFilter) (bool, error) {
	if len(block.BloomIndex) == 0 {
		return true, nil
	}
	decoded := make(map[stats.ColumnID]*index.Bloom, len(block.BloomIndex))
	for _, probe := range rf.EqualityProbes() {
		serialized, ok := block.BloomIndex[probe.ColumnID]
		if !ok {
			continue
		}
		b, ok := decoded[probe.ColumnID]
		if !ok {
			var err error
			b, err = index.DecodeBloom(serialized)
			if err != nil {
				return false, err
			}
			decoded[probe.ColumnID] = b
		}
		if !b.MayContain(probe.Value) {
			return false, nil
		}
	}
	return true, nil
}
