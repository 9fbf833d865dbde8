package datablocks

import (
	"github.com/fusetable/fusetable/datavalues"
)

// DataColumn is one column of an in-memory batch. The two implementations
// mirror how batches arrive from upstream: fully materialized arrays, or a
// single repeated value.
type DataColumn interface {
	DataType() datavalues.DataType
	Len() int
	// Get returns the value at i; nulls come back as datavalues.Null().
	Get(i int) datavalues.Value
	NullCount() uint64
	// MemorySize is an estimate of the heap footprint of the column data.
	MemorySize() uint64
}

// ArrayColumn holds one value per row. Nulls are represented in-band as
// datavalues.Null().
type ArrayColumn struct {
	Typ    datavalues.DataType
	Values []datavalues.Value
}

func NewArrayColumn(typ datavalues.DataType, values []datavalues.Value) *ArrayColumn {
	return &ArrayColumn{Typ: typ, Values: values}
}

func (c *ArrayColumn) DataType() datavalues.DataType { return c.Typ }
func (c *ArrayColumn) Len() int                      { return len(c.Values) }

func (c *ArrayColumn) Get(i int) datavalues.Value {
	return c.Values[i]
}

func (c *ArrayColumn) NullCount() uint64 {
	var n uint64
	for _, v := range c.Values {
		if v.IsNull() {
			n++
		}
	}
	return n
}

func (c *ArrayColumn) MemorySize() uint64 {
	var n uint64
	for _, v := range c.Values {
		n += valueMemorySize(c.Typ, v)
	}
	return n
}

// ConstantColumn repeats a single value for every row. Statistics over it are
// O(1): the constant is both min and max.
type ConstantColumn struct {
	Typ   datavalues.DataType
	Value datavalues.Value
	Rows  int
}

func NewConstantColumn(typ datavalues.DataType, value datavalues.Value, rows int) *ConstantColumn {
	return &ConstantColumn{Typ: typ, Value: value, Rows: rows}
}

func (c *ConstantColumn) DataType() datavalues.DataType { return c.Typ }
func (c *ConstantColumn) Len() int                      { return c.Rows }

func (c *ConstantColumn) Get(i int) datavalues.Value {
	return c.Value
}

func (c *ConstantColumn) NullCount() uint64 {
	if c.Value.IsNull() {
		return uint64(c.Rows)
	}
	return 0
}

func (c *ConstantColumn) MemorySize() uint64 {
	return valueMemorySize(c.Typ, c.Value) * uint64(c.Rows)
}

func valueMemorySize(typ datavalues.DataType, v datavalues.Value) uint64 {
	if v.IsNull() {
		return 1
	}
	switch typ {
	case datavalues.TypeBoolean:
		return 1
	case datavalues.TypeString:
		return uint64(len(string(v.(datavalues.StringValue))))
	default:
		return 8
	}
}
