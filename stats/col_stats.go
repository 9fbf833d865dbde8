package stats

import (
	"encoding/json"

	"github.com/fusetable/fusetable/datavalues"
)

// ColumnID identifies a column within one segment's blocks. IDs are assigned
// positionally (0, 1, 2... in schema order) for the scope of a single append
// call. They are stable only as long as the table schema does not change
// between writes; that is a known limitation, not something this layer
// corrects.
type ColumnID = uint32

// ColumnStatistics is the min/max/null profile of one column at one
// granularity (a single block, or a whole segment).
//
// For a column with at least one non-null value, Min and Max are the lowest
// and highest observed values and Min <= Max under the column type's order.
// For an all-null column both are null. NullCount never exceeds RowCount.
type ColumnStatistics struct {
	Min       datavalues.Value
	Max       datavalues.Value
	NullCount uint64
	RowCount  uint64
}

// BlockStatistics maps every column of a block's schema to its statistics.
// All blocks of one segment share an identical key set.
type BlockStatistics map[ColumnID]ColumnStatistics

// TypedColumnStatistics pairs statistics with the column's declared type, as
// produced per block during an append.
type TypedColumnStatistics struct {
	Type  datavalues.DataType
	Stats ColumnStatistics
}

type colStatsWire struct {
	Min       json.RawMessage `json:"min"`
	Max       json.RawMessage `json:"max"`
	NullCount uint64          `json:"null_count"`
	RowCount  uint64          `json:"row_count"`
}

func (c ColumnStatistics) MarshalJSON() ([]byte, error) {
	minRaw, err := datavalues.MarshalValue(c.Min)
	if err != nil {
		return nil, err
	}
	maxRaw, err := datavalues.MarshalValue(c.Max)
	if err != nil {
		return nil, err
	}
	return json.Marshal(colStatsWire{
		Min:       minRaw,
		Max:       maxRaw,
		NullCount: c.NullCount,
		RowCount:  c.RowCount,
	})
}

func (c *ColumnStatistics) UnmarshalJSON(b []byte) error {
	var wire colStatsWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	minVal, err := datavalues.UnmarshalValue(wire.Min)
	if err != nil {
		return err
	}
	maxVal, err := datavalues.UnmarshalValue(wire.Max)
	if err != nil {
		return err
	}
	c.Min = minVal
	c.Max = maxVal
	c.NullCount = wire.NullCount
	c.RowCount = wire.RowCount
	return nil
}
