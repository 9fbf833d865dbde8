package datablocks

import (
	"context"
	"io"
)

// BlockStream is a finite, non-restartable sequence of batches from an
// upstream producer. Next returns io.EOF once the sequence is exhausted.
// Batches are delivered in the order their blocks should be persisted.
type BlockStream interface {
	Next(ctx context.Context) (*DataBlock, error)
}

// SliceStream serves a fixed set of blocks in order.
type SliceStream struct {
	blocks []*DataBlock
	idx    int
}

func NewSliceStream(blocks ...*DataBlock) *SliceStream {
	return &SliceStream{blocks: blocks}
}

func (s *SliceStream) Next(ctx context.Context) (*DataBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.idx >= len(s.blocks) {
		return nil, io.EOF
	}
	b := s.blocks[s.idx]
	s.idx++
	return b, nil
}
