package datavalues

import (
	"encoding/json"
	"fmt"
)

// DataType is the closed set of column types statistics can be computed for.
type DataType uint8

const (
	TypeInt64 DataType = iota
	TypeUInt64
	TypeFloat64
	TypeString
	TypeBoolean
	// TypeTimestamp is microseconds since the unix epoch, UTC.
	TypeTimestamp
)

func (t DataType) String() string {
	switch t {
	case TypeInt64:
		return "Int64"
	case TypeUInt64:
		return "UInt64"
	case TypeFloat64:
		return "Float64"
	case TypeString:
		return "String"
	case TypeBoolean:
		return "Boolean"
	case TypeTimestamp:
		return "Timestamp"
	default:
		return fmt.Sprintf("DataType(%d)", uint8(t))
	}
}

// ParseDataType is the inverse of DataType.String
func ParseDataType(s string) (DataType, error) {
	switch s {
	case "Int64":
		return TypeInt64, nil
	case "UInt64":
		return TypeUInt64, nil
	case "Float64":
		return TypeFloat64, nil
	case "String":
		return TypeString, nil
	case "Boolean":
		return TypeBoolean, nil
	case "Timestamp":
		return TypeTimestamp, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
	}
}

// Data types serialize by name so block files and metadata records stay
// self-describing.
func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *DataType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDataType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
