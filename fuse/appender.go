package fuse

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fusetable/fusetable/blockfile"
	"github.com/fusetable/fusetable/dal"
	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/index"
	"github.com/fusetable/fusetable/meta"
	"github.com/fusetable/fusetable/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/fusetable/fusetable/fuse"

// BlockAppender persists a stream of batches as block files and assembles
// them into one segment. One appender may serve many AppendBlocks calls;
// each call owns its own accumulators.
type BlockAppender struct {
	da   dal.DataAccessor
	opts AppenderOptions
}

func NewBlockAppender(da dal.DataAccessor, opts AppenderOptions) *BlockAppender {
	if opts.Locations == nil {
		opts.Locations = meta.UUIDLocationGenerator{}
	}
	return &BlockAppender{da: da, opts: opts}
}

// segmentAccumulator carries the running state of a single append call.
// Batches are processed strictly sequentially, so nothing here needs to be
// concurrency-safe.
type segmentAccumulator struct {
	blockMetas  []meta.BlockMeta
	blocksStats []map[stats.ColumnID]stats.TypedColumnStatistics

	rowCount             uint64
	blockCount           uint64
	uncompressedByteSize uint64
	compressedByteSize   uint64
}

// AppendBlocks consumes the batch stream in arrival order, persisting each
// batch as a block file with its statistics embedded, and returns the
// resulting segment. The first error aborts the call: no partial segment is
// ever returned, so a failed append can never leak into a published
// snapshot. A block file already written when the error hit stays orphaned
// in storage — unreferenced, eligible for later garbage collection.
func (a *BlockAppender) AppendBlocks(ctx context.Context, stream datablocks.BlockStream) (*meta.SegmentInfo, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "BlockAppender.AppendBlocks")
	defer span.End()

	acc := &segmentAccumulator{}
	for {
		block, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("reading batch stream: %w", err)
		}
		if err := a.appendOne(block, acc); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	summary, err := stats.Reduce(acc.blocksStats)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("reducing segment statistics: %w", err)
	}

	span.SetAttributes(
		attribute.Int64("segment.blocks", int64(acc.blockCount)),
		attribute.Int64("segment.rows", int64(acc.rowCount)),
	)
	a.opts.Logger.Debug().
		Uint64("blocks", acc.blockCount).
		Uint64("rows", acc.rowCount).
		Uint64("bytes", acc.compressedByteSize).
		Msg("appended blocks into segment")

	return &meta.SegmentInfo{
		FormatVersion: meta.SegmentFormatVersion,
		Blocks:        acc.blockMetas,
		Summary: meta.Stats{
			RowCount:             acc.rowCount,
			BlockCount:           acc.blockCount,
			UncompressedByteSize: acc.uncompressedByteSize,
			CompressedByteSize:   acc.compressedByteSize,
			ColStats:             summary,
		},
	}, nil
}

func (a *BlockAppender) appendOne(block *datablocks.DataBlock, acc *segmentAccumulator) error {
	typed, err := stats.CalcBlockStatistics(block)
	if err != nil {
		return fmt.Errorf("computing block statistics: %w", err)
	}
	colStats := stats.StatsOnly(typed)

	location := a.opts.Locations.BlockLocation()
	written, err := a.persistBlock(location, block, colStats)
	if err != nil {
		return fmt.Errorf("write block %s: %w", location, err)
	}

	bloomIndex, err := a.buildBloomIndex(block)
	if err != nil {
		return fmt.Errorf("building bloom index for block %s: %w", location, err)
	}

	rowCount := uint64(block.NumRows())
	memorySize := block.MemorySize()

	acc.blockMetas = append(acc.blockMetas, meta.BlockMeta{
		Location: meta.BlockLocation{
			Location: location,
			MetaSize: written.StatsSize,
		},
		RowCount:   rowCount,
		BlockSize:  memorySize,
		ColStats:   colStats,
		BloomIndex: bloomIndex,
	})
	acc.blocksStats = append(acc.blocksStats, typed)

	acc.blockCount++
	acc.rowCount += rowCount
	acc.uncompressedByteSize += memorySize
	acc.compressedByteSize += written.FileSize
	return nil
}

func (a *BlockAppender) persistBlock(location string, block *datablocks.DataBlock, colStats stats.BlockStatistics) (blockfile.Written, error) {
	w, err := a.da.GetWriter(location)
	if err != nil {
		return blockfile.Written{}, err
	}
	written, err := blockfile.Write(w, block, colStats, a.opts.Codec)
	if err != nil {
		w.Close()
		return blockfile.Written{}, err
	}
	if err := w.Close(); err != nil {
		return blockfile.Written{}, err
	}
	return written, nil
}

func (a *BlockAppender) buildBloomIndex(block *datablocks.DataBlock) (map[stats.ColumnID][]byte, error) {
	if len(a.opts.BloomColumns) == 0 {
		return nil, nil
	}
	var out map[stats.ColumnID][]byte
	for _, name := range a.opts.BloomColumns {
		idx, ok := block.Schema.FieldIndex(name)
		if !ok {
			continue
		}
		serialized, err := index.BuildBloom(block.Columns[idx])
		if err != nil {
			return nil, err
		}
		if serialized == nil {
			continue
		}
		if out == nil {
			out = make(map[stats.ColumnID][]byte)
		}
		out[stats.ColumnID(idx)] = serialized
	}
	return out, nil
}

// WriteSegment persists a segment record to a freshly generated location and
// returns that location for the snapshot publisher to reference.
func (a *BlockAppender) WriteSegment(ctx context.Context, seg *meta.SegmentInfo) (string, error) {
	data, err := meta.EncodeSegment(seg)
	if err != nil {
		return "", err
	}
	location := a.opts.Locations.SegmentLocation()
	w, err := a.da.GetWriter(location)
	if err != nil {
		return "", fmt.Errorf("write segment %s: %w", location, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write segment %s: %w", location, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write segment %s: %w", location, err)
	}
	return location, nil
}
