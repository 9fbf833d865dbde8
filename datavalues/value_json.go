package datavalues

import (
	"encoding/json"
	"fmt"
)

// valueEnvelope is the wire form of a Value inside metadata records. The
// declared type rides along so min/max round-trip with the exact variant they
// were written with.
type valueEnvelope struct {
	Type  string          `json:"type"`
	Null  bool            `json:"null,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalValue encodes a Value into its JSON envelope.
func MarshalValue(v Value) ([]byte, error) {
	if v == nil || v.IsNull() {
		return json.Marshal(valueEnvelope{Type: "Null", Null: true})
	}
	raw, err := json.Marshal(rawValue(v))
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueEnvelope{Type: v.Type().String(), Value: raw})
}

// UnmarshalValue decodes a Value from its JSON envelope.
func UnmarshalValue(b []byte) (Value, error) {
	var env valueEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	if env.Null {
		return Null(), nil
	}
	typ, err := ParseDataType(env.Type)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypeInt64:
		var v int64
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return Int64Value(v), nil
	case TypeUInt64:
		var v uint64
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return UInt64Value(v), nil
	case TypeFloat64:
		var v float64
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return Float64Value(v), nil
	case TypeString:
		var v string
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return StringValue(v), nil
	case TypeBoolean:
		var v bool
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return BooleanValue(v), nil
	case TypeTimestamp:
		var v int64
		if err := json.Unmarshal(env.Value, &v); err != nil {
			return nil, err
		}
		return TimestampValue(v), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, env.Type)
	}
}

func rawValue(v Value) any {
	switch tv := v.(type) {
	case Int64Value:
		return int64(tv)
	case UInt64Value:
		return uint64(tv)
	case Float64Value:
		return float64(tv)
	case StringValue:
		return string(tv)
	case BooleanValue:
		return bool(tv)
	case TimestampValue:
		return int64(tv)
	default:
		return nil
	}
}
