package index

import (
	"bytes"
	"fmt"

	"github.com/bits-and-blooms/bloom"
	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/meta"
)

const bloomFalsePositiveRate = 0.01

// BuildBloom builds a serialized bloom filter over the non-null values of a
// string column. Returns nil for other column types: range statistics
// already cover them well and hashing numerics per block isn't worth the
// metadata weight.
func BuildBloom(col datablocks.DataColumn) ([]byte, error) {
	if col.DataType() != datavalues.TypeString {
		return nil, nil
	}
	f := bloom.NewWithEstimates(uint(col.Len())+1, bloomFalsePositiveRate)
	for i := 0; i < col.Len(); i++ {
		v := col.Get(i)
		if v.IsNull() {
			continue
		}
		f.Add([]byte(string(v.(datavalues.StringValue))))
	}
	buf := &bytes.Buffer{}
	if _, err := f.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("serializing bloom filter: %w", err)
	}
	return buf.Bytes(), nil
}

// Bloom is one block's deserialized filter, parsed once and probed many
// times.
type Bloom struct {
	f *bloom.BloomFilter
}

func DecodeBloom(serialized []byte) (*Bloom, error) {
	f := &bloom.BloomFilter{}
	if _, err := f.ReadFrom(bytes.NewReader(serialized)); err != nil {
		return nil, fmt.Errorf("%w: bloom index: %v", meta.ErrSerialization, err)
	}
	return &Bloom{f: f}, nil
}

// MayContain tests whether a value might be present in the block. A negative
// is definitive; a positive is not. Values the filter was never built for
// always report a possible hit.
func (b *Bloom) MayContain(v datavalues.Value) bool {
	sv, ok := v.(datavalues.StringValue)
	if !ok {
		return true
	}
	return b.f.Test([]byte(string(sv)))
}
