package index

import (
	"errors"
	"math"
	"testing"

	"github.com/fusetable/fusetable/datablocks"
	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/expr"
	"github.com/fusetable/fusetable/stats"
)

func testSchema() datavalues.DataSchema {
	return datavalues.NewSchema(
		datavalues.DataField{Name: "x", Type: datavalues.TypeInt64},
		datavalues.DataField{Name: "name", Type: datavalues.TypeString, Nullable: true},
	)
}

// statsX builds statistics with column x spanning [lo, hi]
func statsX(lo, hi int64) stats.BlockStatistics {
	return stats.BlockStatistics{
		0: {Min: datavalues.Int64Value(lo), Max: datavalues.Int64Value(hi), RowCount: 10},
		1: {Min: datavalues.StringValue("a"), Max: datavalues.StringValue("z"), RowCount: 10},
	}
}

func TestRangeFilterComparisons(t *testing.T) {
	tests := []struct {
		name     string
		filter   expr.Expression
		lo, hi   int64
		expected bool
	}{
		{"eq inside range", expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(5))), 0, 10, true},
		{"eq at lower bound", expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(0))), 0, 10, true},
		{"eq at upper bound", expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(10))), 0, 10, true},
		{"eq below range", expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(-1))), 0, 10, false},
		{"eq above range", expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(11))), 0, 10, false},

		{"lt intersects", expr.Cmp(expr.OpLt, expr.Col("x"), expr.Lit(datavalues.Int64Value(1))), 0, 10, true},
		{"lt at min excludes", expr.Cmp(expr.OpLt, expr.Col("x"), expr.Lit(datavalues.Int64Value(0))), 0, 10, false},
		{"lteq at min includes", expr.Cmp(expr.OpLtEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(0))), 0, 10, true},

		{"gt intersects", expr.Cmp(expr.OpGt, expr.Col("x"), expr.Lit(datavalues.Int64Value(9))), 0, 10, true},
		{"gt at max excludes", expr.Cmp(expr.OpGt, expr.Col("x"), expr.Lit(datavalues.Int64Value(10))), 0, 10, false},
		{"gteq at max includes", expr.Cmp(expr.OpGtEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(10))), 0, 10, true},

		{"noteq single-value range excludes", expr.Cmp(expr.OpNotEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(5))), 5, 5, false},
		{"noteq wide range includes", expr.Cmp(expr.OpNotEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(5))), 0, 10, true},

		{"mirrored literal-left", expr.Cmp(expr.OpLt, expr.Lit(datavalues.Int64Value(25)), expr.Col("x")), 0, 10, false},
		{"mirrored literal-left matches", expr.Cmp(expr.OpLt, expr.Lit(datavalues.Int64Value(25)), expr.Col("x")), 20, 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf, err := NewRangeFilter(tt.filter, testSchema())
			if err != nil {
				t.Fatal(err)
			}
			got, err := rf.Eval(statsX(tt.lo, tt.hi))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.expected {
				t.Fatalf("filter %s over [%d,%d]: expected %v, got %v", tt.filter, tt.lo, tt.hi, tt.expected, got)
			}
		})
	}
}

func TestRangeFilterConjunction(t *testing.T) {
	// x > 5 AND x < 8
	filter := expr.And{
		Left:  expr.Cmp(expr.OpGt, expr.Col("x"), expr.Lit(datavalues.Int64Value(5))),
		Right: expr.Cmp(expr.OpLt, expr.Col("x"), expr.Lit(datavalues.Int64Value(8))),
	}
	rf, err := NewRangeFilter(filter, testSchema())
	if err != nil {
		t.Fatal(err)
	}

	ok, err := rf.Eval(statsX(0, 10))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("[0,10] intersects (5,8), must survive")
	}

	ok, err = rf.Eval(statsX(10, 20))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("[10,20] cannot satisfy x < 8, must be pruned")
	}
}

func TestRangeFilterUnknownColumn(t *testing.T) {
	filter := expr.Cmp(expr.OpEq, expr.Col("missing"), expr.Lit(datavalues.Int64Value(1)))
	_, err := NewRangeFilter(filter, testSchema())
	if !errors.Is(err, ErrPredicateCompilation) {
		t.Fatal("expected ErrPredicateCompilation, got", err)
	}
}

func TestRangeFilterUnsupportedOperator(t *testing.T) {
	filter := expr.Cmp(expr.OpLike, expr.Col("name"), expr.Lit(datavalues.StringValue("a%")))
	_, err := NewRangeFilter(filter, testSchema())
	if !errors.Is(err, ErrPredicateCompilation) {
		t.Fatal("expected ErrPredicateCompilation, got", err)
	}
}

func TestRangeFilterLiteralTypeMismatch(t *testing.T) {
	filter := expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.StringValue("5")))
	_, err := NewRangeFilter(filter, testSchema())
	if !errors.Is(err, ErrPredicateCompilation) {
		t.Fatal("expected ErrPredicateCompilation, got", err)
	}
}

func TestRangeFilterFailsClosed(t *testing.T) {
	// shapes with no relaxation must not prune anything
	unrecognized := []expr.Expression{
		expr.Or{
			Left:  expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(1))),
			Right: expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(2))),
		},
		expr.Opaque{Repr: "rand() < 0.5"},
		expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Null())),
		expr.Cmp(expr.OpEq, expr.Col("x"), expr.Col("x")),
	}
	for _, e := range unrecognized {
		rf, err := NewRangeFilter(e, testSchema())
		if err != nil {
			t.Fatalf("%s: %v", e, err)
		}
		ok, err := rf.Eval(statsX(100, 200))
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("%s: unrecognized shape must fail closed to true", e)
		}
	}
}

// A float block whose first value is NaN must stay prunable-safe: the block
// holds 1.0, so x < 5 can never rule it out.
func TestRangeFilterFloatNaN(t *testing.T) {
	schema := datavalues.NewSchema(datavalues.DataField{Name: "x", Type: datavalues.TypeFloat64})
	block, err := datablocks.NewDataBlock(schema, []datablocks.DataColumn{
		datablocks.NewArrayColumn(datavalues.TypeFloat64, []datavalues.Value{
			datavalues.Float64Value(math.NaN()),
			datavalues.Float64Value(1.0),
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	typed, err := stats.CalcBlockStatistics(block)
	if err != nil {
		t.Fatal(err)
	}

	rf, err := NewRangeFilter(expr.Cmp(expr.OpLt, expr.Col("x"), expr.Lit(datavalues.Float64Value(5))), schema)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := rf.Eval(stats.StatsOnly(typed))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("block contains 1.0 which satisfies x < 5, it must not be pruned")
	}

	// the NaN row itself never matches an ordered comparison, so pruning on
	// the real max is still allowed
	rf, err = NewRangeFilter(expr.Cmp(expr.OpGt, expr.Col("x"), expr.Lit(datavalues.Float64Value(5))), schema)
	if err != nil {
		t.Fatal(err)
	}
	ok, err = rf.Eval(stats.StatsOnly(typed))
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("no row satisfies x > 5, the block should be pruned")
	}
}

func TestRangeFilterAllNullColumn(t *testing.T) {
	rf, err := NewRangeFilter(expr.Cmp(expr.OpEq, expr.Col("x"), expr.Lit(datavalues.Int64Value(1))), testSchema())
	if err != nil {
		t.Fatal(err)
	}
	bs := stats.BlockStatistics{
		0: {Min: datavalues.Null(), Max: datavalues.Null(), NullCount: 10, RowCount: 10},
	}
	ok, err := rf.Eval(bs)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("column without bounds cannot be pruned on")
	}
}

func TestRangeFilterEqualityProbes(t *testing.T) {
	filter := expr.And{
		Left:  expr.Cmp(expr.OpEq, expr.Col("name"), expr.Lit(datavalues.StringValue("alice"))),
		Right: expr.Cmp(expr.OpGt, expr.Col("x"), expr.Lit(datavalues.Int64Value(0))),
	}
	rf, err := NewRangeFilter(filter, testSchema())
	if err != nil {
		t.Fatal(err)
	}
	probes := rf.EqualityProbes()
	if len(probes) != 1 {
		t.Fatal("expected exactly one equality probe, got", len(probes))
	}
	if probes[0].ColumnID != 1 || probes[0].Value != datavalues.StringValue("alice") {
		t.Fatalf("unexpected probe: %+v", probes[0])
	}
}
