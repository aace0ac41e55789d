package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultKind tells apart a default that was never reported, an explicit NULL
// and a literal value.
type DefaultKind uint8

const (
	DefaultUnset DefaultKind = iota
	DefaultNull
	DefaultLiteral
)

// Default is a column default value. The zero value is an unset default.
// Literal values are string, int64, float64 or bool.
type Default struct {
	Kind  DefaultKind
	Value any
}

// NullDefault returns an explicit NULL default.
func NullDefault() Default { return Default{Kind: DefaultNull} }

// LiteralDefault returns a literal default holding v.
func LiteralDefault(v any) Default { return Default{Kind: DefaultLiteral, Value: v} }

// StringDefault returns a literal string default.
func StringDefault(s string) Default { return LiteralDefault(s) }

// IsNullish reports whether the default is unset or NULL.
func (d Default) IsNullish() bool { return d.Kind != DefaultLiteral }

// IsNull reports whether the default is an explicit NULL.
func (d Default) IsNull() bool { return d.Kind == DefaultNull }

// Text returns the string-coerced form: "undefined" for unset, "null" for NULL,
// and the formatted literal otherwise.
func (d Default) Text() string {
	switch d.Kind {
	case DefaultNull:
		return "null"
	case DefaultLiteral:
		switch v := d.Value.(type) {
		case string:
			return v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		default:
			return fmt.Sprint(v)
		}
	default:
		return "undefined"
	}
}

// Equal is strict equality on the raw values. Unset and NULL are equal to each
// other; literals are equal only when both type and value match.
func (d Default) Equal(o Default) bool {
	if d.IsNullish() || o.IsNullish() {
		return d.IsNullish() && o.IsNullish()
	}
	return d.Value == o.Value
}

// String implements fmt.Stringer.
func (d Default) String() string {
	if d.Kind == DefaultLiteral {
		return strconv.Quote(d.Text())
	}
	return d.Text()
}

// MarshalJSON encodes unset and NULL as JSON null and literals as-is.
func (d Default) MarshalJSON() ([]byte, error) {
	if d.IsNullish() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Value)
}

// UnmarshalJSON decodes JSON null as a NULL default. Numbers decode to int64
// when integral and float64 otherwise.
func (d *Default) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*d = NullDefault()
	case json.Number:
		if i, err := v.Int64(); err == nil {
			*d = LiteralDefault(i)
			return nil
		}
		f, err := v.Float64()
		if err != nil {
			return err
		}
		*d = LiteralDefault(f)
	case string, bool:
		*d = LiteralDefault(v)
	default:
		return fmt.Errorf("unsupported default value %s", string(data))
	}
	return nil
}

// MarshalYAML encodes unset and NULL as YAML null.
func (d Default) MarshalYAML() (any, error) {
	if d.IsNullish() {
		return nil, nil
	}
	return d.Value, nil
}
