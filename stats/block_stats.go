package stats

import (
	"fmt"

	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/datavalues"
)

// CalcBlockStatistics derives per-column statistics for one batch. Constant
// columns take the O(1) path: the constant itself is both min and max, and
// the null count is 0 or the row count depending on whether it is null.
func CalcBlockStatistics(block *datablocks.DataBlock) (map[ColumnID]TypedColumnStatistics, error) {
	out := make(map[ColumnID]TypedColumnStatistics, block.NumColumns())
	rowCount := uint64(block.NumRows())

	for idx, col := range block.Columns {
		var cs ColumnStatistics
		switch c := col.(type) {
		case *datablocks.ConstantColumn:
			cs = constantStats(c, rowCount)
		default:
			derived, err := arrayStats(col, rowCount)
			if err != nil {
				return nil, fmt.Errorf("column %d (%s): %w", idx, col.DataType(), err)
			}
			cs = derived
		}
		out[ColumnID(idx)] = TypedColumnStatistics{Type: col.DataType(), Stats: cs}
	}
	return out, nil
}

// StatsOnly strips the declared types, leaving the statistics map stored in
// block metadata.
func StatsOnly(typed map[ColumnID]TypedColumnStatistics) BlockStatistics {
	out := make(BlockStatistics, len(typed))
	for id, t := range typed {
		out[id] = t.Stats
	}
	return out
}

func constantStats(c *datablocks.ConstantColumn, rowCount uint64) ColumnStatistics {
	if c.Value.IsNull() {
		return ColumnStatistics{
			Min:       datavalues.Null(),
			Max:       datavalues.Null(),
			NullCount: rowCount,
			RowCount:  rowCount,
		}
	}
	return ColumnStatistics{
		Min:       c.Value,
		Max:       c.Value,
		NullCount: 0,
		RowCount:  rowCount,
	}
}

func arrayStats(col datablocks.DataColumn, rowCount uint64) (ColumnStatistics, error) {
	var (
		minVal    datavalues.Value = datavalues.Null()
		maxVal    datavalues.Value = datavalues.Null()
		nullCount uint64
	)
	for i := 0; i < col.Len(); i++ {
		v := col.Get(i)
		if v.IsNull() {
			nullCount++
			continue
		}
		if minVal.IsNull() {
			minVal, maxVal = v, v
			continue
		}
		cmp, err := v.Compare(minVal)
		if err != nil {
			return ColumnStatistics{}, err
		}
		if cmp < 0 {
			minVal = v
		}
		cmp, err = v.Compare(maxVal)
		if err != nil {
			return ColumnStatistics{}, err
		}
		if cmp > 0 {
			maxVal = v
		}
	}
	return ColumnStatistics{
		Min:       minVal,
		Max:       maxVal,
		NullCount: nullCount,
		RowCount:  rowCount,
	}, nil
}
