package fuse

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fusetable/fusetable/dal"
	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/meta"
)

func xSchema() datavalues.DataSchema {
	return datavalues.NewSchema(datavalues.DataField{Name: "x", Type: datavalues.TypeInt64})
}

func xBlock(t *testing.T, vals ...int64) *datablocks.DataBlock {
	t.Helper()
	values := make([]datavalues.Value, len(vals))
	for i, v := range vals {
		values[i] = datavalues.Int64Value(v)
	}
	block, err := datablocks.NewDataBlock(xSchema(), []datablocks.DataColumn{
		datablocks.NewArrayColumn(datavalues.TypeInt64, values),
	})
	if err != nil {
		t.Fatal(err)
	}
	return block
}

// buildSegment appends one block per value range and persists the segment
// record, returning its location.
func buildSegment(t *testing.T, da dal.DataAccessor, ranges ...[2]int64) (string, *meta.SegmentInfo) {
	t.Helper()
	appender := NewBlockAppender(da, DefaultAppenderOptions())
	blocks := make([]*datablocks.DataBlock, len(ranges))
	for i, r := range ranges {
		blocks[i] = xBlock(t, r[0], r[1])
	}
	seg, err := appender.AppendBlocks(context.Background(), datablocks.NewSliceStream(blocks...))
	if err != nil {
		t.Fatal(err)
	}
	location, err := appender.WriteSegment(context.Background(), seg)
	if err != nil {
		t.Fatal(err)
	}
	return location, seg
}

// publishSnapshot writes a snapshot record referencing the given segments and
// returns its location.
func publishSnapshot(t *testing.T, da dal.DataAccessor, segments ...string) string {
	t.Helper()
	snap := &meta.TableSnapshot{
		FormatVersion: meta.SnapshotFormatVersion,
		SnapshotID:    meta.NewSnapshotID(),
		Segments:      segments,
	}
	data, err := meta.EncodeSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	location := meta.SnapshotLocation(snap.SnapshotID)
	w, err := da.GetWriter(location)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return location
}

// countingAccessor counts Read calls per location, the instrumentation hook
// pruning tests use to verify what was and wasn't loaded.
type countingAccessor struct {
	inner dal.DataAccessor

	mu    sync.Mutex
	reads map[string]int
}

func newCountingAccessor(inner dal.DataAccessor) *countingAccessor {
	return &countingAccessor{inner: inner, reads: make(map[string]int)}
}

func (c *countingAccessor) GetWriter(location string) (io.WriteCloser, error) {
	return c.inner.GetWriter(location)
}

func (c *countingAccessor) Read(ctx context.Context, location string) ([]byte, error) {
	c.mu.Lock()
	c.reads[location]++
	c.mu.Unlock()
	return c.inner.Read(ctx, location)
}

func (c *countingAccessor) totalReads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.reads {
		total += n
	}
	return total
}

// slowAccessor delays reads and records the highest number in flight at once.
type slowAccessor struct {
	inner    dal.DataAccessor
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (s *slowAccessor) GetWriter(location string) (io.WriteCloser, error) {
	return s.inner.GetWriter(location)
}

func (s *slowAccessor) Read(ctx context.Context, location string) ([]byte, error) {
	cur := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if cur <= seen || s.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	time.Sleep(s.delay)
	return s.inner.Read(ctx, location)
}

// brokenWriterAccessor fails every write.
type brokenWriterAccessor struct{}

func (brokenWriterAccessor) GetWriter(location string) (io.WriteCloser, error) {
	return nil, fmt.Errorf("%w: allocating writer for %s: backend offline", dal.ErrStorageIO, location)
}

func (brokenWriterAccessor) Read(ctx context.Context, location string) ([]byte, error) {
	return nil, fmt.Errorf("%w: reading %s: backend offline", dal.ErrStorageIO, location)
}
