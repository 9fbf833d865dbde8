// Package index turns planner filter expressions into predicates evaluable
// against column statistics alone, without touching row data.
package index

import (
	"errors"
	"fmt"

	"github.com/fusetable/fusetable/datavalues"
	"github.com/fusetable/fusetable/expr"
	"github.com/fusetable/fusetable/stats"
)

// ErrPredicateCompilation reports a filter that cannot be compiled for
// pruning: an unknown column, a type-mismatched literal, or an operator with
// no statistics-based relaxation.
var ErrPredicateCompilation = errors.New("index: cannot compile filter for pruning")

// Predicate decides from statistics alone whether a block might contain a
// matching row. It is conservative: false negatives are forbidden, false
// positives are fine — pruning is a performance device, never a correctness
// device.
type Predicate func(stats.BlockStatistics) (bool, error)

// EqProbe is an equality term extracted during compilation, usable against
// per-block bloom indexes.
type EqProbe struct {
	ColumnID stats.ColumnID
	Value    datavalues.Value
}

// RangeFilter is one compiled filter expression.
type RangeFilter struct {
	pred     Predicate
	eqProbes []EqProbe
}

// NewRangeFilter compiles a filter expression against the scan schema.
// Recognized shapes are comparisons between a column and a literal, and
// conjunctions of those; anything else fails closed to "might match" rather
// than pruning incorrectly.
func NewRangeFilter(e expr.Expression, schema datavalues.DataSchema) (*RangeFilter, error) {
	rf := &RangeFilter{}
	pred, err := rf.compile(e, schema)
	if err != nil {
		return nil, err
	}
	rf.pred = pred
	return rf, nil
}

// Eval applies the compiled predicate to one statistics map (a block's own
// stats, or a segment summary).
func (rf *RangeFilter) Eval(bs stats.BlockStatistics) (bool, error) {
	return rf.pred(bs)
}

// EqualityProbes returns the equality terms found during compilation.
func (rf *RangeFilter) EqualityProbes() []EqProbe {
	return rf.eqProbes
}

func alwaysTrue(stats.BlockStatistics) (bool, error) {
	return true, nil
}

func (rf *RangeFilter) compile(e expr.Expression, schema datavalues.DataSchema) (Predicate, error) {
	switch node := e.(type) {
	case expr.And:
		left, err := rf.compile(node.Left, schema)
		if err != nil {
			return nil, err
		}
		right, err := rf.compile(node.Right, schema)
		if err != nil {
			return nil, err
		}
		return func(bs stats.BlockStatistics) (bool, error) {
			ok, err := left(bs)
			if err != nil || !ok {
				return false, err
			}
			return right(bs)
		}, nil
	case expr.Comparison:
		return rf.compileComparison(node, schema)
	default:
		// Or, bare literals, column refs, opaque planner nodes: no
		// relaxation exists, skip pruning for this clause.
		return alwaysTrue, nil
	}
}

func (rf *RangeFilter) compileComparison(node expr.Comparison, schema datavalues.DataSchema) (Predicate, error) {
	op := node.Op
	colRef, colOK := node.Left.(expr.ColumnRef)
	lit, litOK := node.Right.(expr.Literal)
	if !colOK || !litOK {
		// literal-on-left comparisons mirror to column-on-left form
		if litLeft, ok := node.Left.(expr.Literal); ok {
			if colRight, ok := node.Right.(expr.ColumnRef); ok {
				colRef, lit = colRight, litLeft
				op = mirrorOp(op)
				colOK, litOK = true, true
			}
		}
	}
	if !colOK || !litOK {
		// column-vs-column and nested operands have no range relaxation
		return alwaysTrue, nil
	}

	if op == expr.OpLike {
		return nil, fmt.Errorf("%w: operator %s in %s", ErrPredicateCompilation, op, node)
	}

	fieldIdx, ok := schema.FieldIndex(colRef.Name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown column %q in %s", ErrPredicateCompilation, colRef.Name, node)
	}
	if lit.Value == nil || lit.Value.IsNull() {
		// comparisons with NULL are not usable for range pruning
		return alwaysTrue, nil
	}
	if lit.Value.Type() != schema.Fields[fieldIdx].Type {
		return nil, fmt.Errorf("%w: literal type %s does not match column %q of type %s",
			ErrPredicateCompilation, lit.Value.Type(), colRef.Name, schema.Fields[fieldIdx].Type)
	}

	colID := stats.ColumnID(fieldIdx)
	if op == expr.OpEq {
		rf.eqProbes = append(rf.eqProbes, EqProbe{ColumnID: colID, Value: lit.Value})
	}
	litVal := lit.Value

	return func(bs stats.BlockStatistics) (bool, error) {
		cs, ok := bs[colID]
		if !ok {
			return true, nil
		}
		// all-null columns have no bounds to decide with
		if cs.Min.IsNull() || cs.Max.IsNull() {
			return true, nil
		}
		cmpMin, err := cs.Min.Compare(litVal)
		if err != nil {
			return false, fmt.Errorf("evaluating %s: %w", node, err)
		}
		cmpMax, err := cs.Max.Compare(litVal)
		if err != nil {
			return false, fmt.Errorf("evaluating %s: %w", node, err)
		}
		switch op {
		case expr.OpEq:
			return cmpMin <= 0 && cmpMax >= 0, nil
		case expr.OpNotEq:
			return !(cmpMin == 0 && cmpMax == 0), nil
		case expr.OpLt:
			return cmpMin < 0, nil
		case expr.OpLtEq:
			return cmpMin <= 0, nil
		case expr.OpGt:
			return cmpMax > 0, nil
		case expr.OpGtEq:
			return cmpMax >= 0, nil
		default:
			return true, nil
		}
	}, nil
}

func mirrorOp(op expr.CmpOp) expr.CmpOp {
	switch op {
	case expr.OpLt:
		return expr.OpGt
	case expr.OpLtEq:
		return expr.OpGtEq
	case expr.OpGt:
		return expr.OpLt
	case expr.OpGtEq:
		return expr.OpLtEq
	default:
		return op
	}
}
