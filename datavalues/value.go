package datavalues

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrUnsupportedType = errors.New("datavalues: unsupported type")

// Value is a single typed scalar. The set of implementations is closed: every
// variant carries a total order within its own type, which is what makes
// min/max statistics meaningful. Comparing values of different types is an
// error, never a silent coercion.
type Value interface {
	Type() DataType
	IsNull() bool
	// Compare returns -1, 0 or 1. Both values must be non-null and of the
	// same type.
	Compare(other Value) (int, error)
	String() string
}

type (
	Int64Value     int64
	UInt64Value    uint64
	Float64Value   float64
	StringValue    string
	BooleanValue   bool
	TimestampValue int64 // microseconds since epoch
	NullValue      struct{}
)

// Null returns the singleton null value.
func Null() Value {
	return NullValue{}
}

func (v Int64Value) Type() DataType     { return TypeInt64 }
func (v UInt64Value) Type() DataType    { return TypeUInt64 }
func (v Float64Value) Type() DataType   { return TypeFloat64 }
func (v StringValue) Type() DataType    { return TypeString }
func (v BooleanValue) Type() DataType   { return TypeBoolean }
func (v TimestampValue) Type() DataType { return TypeTimestamp }

func (v Int64Value) IsNull() bool     { return false }
func (v UInt64Value) IsNull() bool    { return false }
func (v Float64Value) IsNull() bool   { return false }
func (v StringValue) IsNull() bool    { return false }
func (v BooleanValue) IsNull() bool   { return false }
func (v TimestampValue) IsNull() bool { return false }

func (v Int64Value) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v UInt64Value) String() string    { return strconv.FormatUint(uint64(v), 10) }
func (v Float64Value) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v StringValue) String() string    { return string(v) }
func (v BooleanValue) String() string   { return strconv.FormatBool(bool(v)) }
func (v TimestampValue) String() string { return strconv.FormatInt(int64(v), 10) }

// A null carries no type of its own; callers must check IsNull before Type.
func (NullValue) Type() DataType { return DataType(0xff) }
func (NullValue) IsNull() bool   { return true }
func (NullValue) String() string { return "NULL" }

func (NullValue) Compare(other Value) (int, error) {
	return 0, fmt.Errorf("%w: cannot compare NULL", ErrUnsupportedType)
}

func compareCheck(a, b Value) error {
	if b.IsNull() {
		return fmt.Errorf("%w: cannot compare NULL", ErrUnsupportedType)
	}
	if a.Type() != b.Type() {
		return fmt.Errorf("%w: cannot compare %s with %s", ErrUnsupportedType, a.Type(), b.Type())
	}
	return nil
}

func (v Int64Value) Compare(other Value) (int, error) {
	if err := compareCheck(v, other); err != nil {
		return 0, err
	}
	return cmpOrdered(int64(v), int64(other.(Int64Value))), nil
}

func (v UInt64Value) Compare(other Value) (int, error) {
	if err := compareCheck(v, other); err != nil {
		return 0, err
	}
	return cmpOrdered(uint64(v), uint64(other.(UInt64Value))), nil
}

// Float64 comparison is a total order: NaN sorts below -Inf and equals
// itself. IEEE semantics would make NaN incomparable, which would let min/max
// bounds latch at NaN and silently stop tracking the column.
func (v Float64Value) Compare(other Value) (int, error) {
	if err := compareCheck(v, other); err != nil {
		return 0, err
	}
	a, b := float64(v), float64(other.(Float64Value))
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0, nil
	case aNaN:
		return -1, nil
	case bNaN:
		return 1, nil
	}
	return cmpOrdered(a, b), nil
}

func (v StringValue) Compare(other Value) (int, error) {
	if err := compareCheck(v, other); err != nil {
		return 0, err
	}
	return cmpOrdered(string(v), string(other.(StringValue))), nil
}

// false sorts before true
func (v BooleanValue) Compare(other Value) (int, error) {
	if err := compareCheck(v, other); err != nil {
		return 0, err
	}
	a, b := boolToInt(bool(v)), boolToInt(bool(other.(BooleanValue)))
	return cmpOrdered(a, b), nil
}

func (v TimestampValue) Compare(other Value) (int, error) {
	if err := compareCheck(v, other); err != nil {
		return 0, err
	}
	return cmpOrdered(int64(v), int64(other.(TimestampValue))), nil
}

func cmpOrdered[T int64 | uint64 | float64 | string | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
