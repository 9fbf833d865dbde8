package datablocks

import (
	"errors"
	"fmt"

	"github.com/fusetable/fusetable/datavalues"
)

var ErrMalformedBlock = errors.New("datablocks: malformed block")

// DataBlock is one in-memory columnar batch: a schema and one column per
// schema field, all of equal length.
type DataBlock struct {
	Schema  datavalues.DataSchema
	Columns []DataColumn
}

func NewDataBlock(schema datavalues.DataSchema, columns []DataColumn) (*DataBlock, error) {
	if len(columns) != schema.NumFields() {
		return nil, fmt.Errorf("%w: %d columns for %d schema fields", ErrMalformedBlock, len(columns), schema.NumFields())
	}
	for i, col := range columns {
		if i > 0 && col.Len() != columns[0].Len() {
			return nil, fmt.Errorf("%w: column %d has %d rows, column 0 has %d", ErrMalformedBlock, i, col.Len(), columns[0].Len())
		}
		if col.DataType() != schema.Fields[i].Type {
			return nil, fmt.Errorf("%w: column %d is %s, schema field %q is %s",
				ErrMalformedBlock, i, col.DataType(), schema.Fields[i].Name, schema.Fields[i].Type)
		}
	}
	return &DataBlock{Schema: schema, Columns: columns}, nil
}

func (b *DataBlock) NumRows() int {
	if len(b.Columns) == 0 {
		return 0
	}
	return b.Columns[0].Len()
}

func (b *DataBlock) NumColumns() int {
	return len(b.Columns)
}

// MemorySize estimates the heap footprint of all column data.
func (b *DataBlock) MemorySize() uint64 {
	var n uint64
	for _, col := range b.Columns {
		n += col.MemorySize()
	}
	return n
}
