// Package expr is the shape of filter expressions handed over by the query
// planner. The tree is a closed algebra: pruning recognizes column refs,
// literals, comparisons and conjunctions, and treats everything else as
// opaque.
package expr

import (
	"fmt"

	"github.com/fusetable/fusetable/datavalues"
)

type Expression interface {
	fmt.Stringer
	isExpression()
}

// CmpOp is a comparison operator as the planner spells it.
type CmpOp uint8

const (
	OpEq CmpOp = iota
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq
	OpLike
)

func (op CmpOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNotEq:
		return "!="
	case OpLt:
		return "<"
	case OpLtEq:
		return "<="
	case OpGt:
		return ">"
	case OpGtEq:
		return ">="
	case OpLike:
		return "LIKE"
	default:
		return "UNKNOWN"
	}
}

// ColumnRef names a column of the scan schema.
type ColumnRef struct {
	Name string
}

// Literal is a constant scalar operand.
type Literal struct {
	Value datavalues.Value
}

// Comparison applies Op between Left and Right.
type Comparison struct {
	Op    CmpOp
	Left  Expression
	Right Expression
}

// And is a conjunction of two sub-expressions.
type And struct {
	Left  Expression
	Right Expression
}

// Or is a disjunction. Pruning has no relaxation for it and skips the clause.
type Or struct {
	Left  Expression
	Right Expression
}

// Opaque stands in for any planner node pruning does not understand.
type Opaque struct {
	Repr string
}

func (ColumnRef) isExpression()  {}
func (Literal) isExpression()    {}
func (Comparison) isExpression() {}
func (And) isExpression()        {}
func (Or) isExpression()         {}
func (Opaque) isExpression()     {}

func (e ColumnRef) String() string { return e.Name }

func (e Literal) String() string {
	if e.Value == nil {
		return "NULL"
	}
	return e.Value.String()
}

func (e Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e And) String() string {
	return fmt.Sprintf("(%s AND %s)", e.Left, e.Right)
}

func (e Or) String() string {
	return fmt.Sprintf("(%s OR %s)", e.Left, e.Right)
}

func (e Opaque) String() string { return e.Repr }

// Col and Lit are shorthand constructors for building filter trees.
func Col(name string) ColumnRef {
	return ColumnRef{Name: name}
}

func Lit(v datavalues.Value) Literal {
	return Literal{Value: v}
}

// Cmp builds a comparison between a column and a literal.
func Cmp(op CmpOp, left, right Expression) Comparison {
	return Comparison{Op: op, Left: left, Right: right}
}
