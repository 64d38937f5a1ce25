// Package jsonv decodes JSON documents into an order-preserving value tree.
//
// Filter and order expressions are objects whose key order matters for
// deterministic output (and, for order specifications, for the meaning of the
// request). encoding/json decodes objects into maps and loses that order, so
// request bodies carry these expressions as a Value instead.
package jsonv

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Member is one key/value entry of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON value. The zero Value is null.
type Value struct {
	kind    Kind
	b       bool
	s       string
	items   []Value
	members []Member
}

// NullValue returns the null value.
func NullValue() Value { return Value{} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }

// NumberValue returns a number value holding the literal n.
func NumberValue(n json.Number) Value { return Value{kind: Number, s: string(n)} }

// IntValue returns a number value for i.
func IntValue(i int64) Value { return Value{kind: Number, s: strconv.FormatInt(i, 10)} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{kind: String, s: s} }

// ArrayValue returns an array of items.
func ArrayValue(items ...Value) Value { return Value{kind: Array, items: items} }

// ObjectValue returns an object with members in the given order.
func ObjectValue(members ...Member) Value { return Value{kind: Object, members: members} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == Null }

// IsScalar reports whether v is a string, number or boolean.
func (v Value) IsScalar() bool {
	return v.kind == Bool || v.kind == Number || v.kind == String
}

// Bool returns the boolean held by v.
func (v Value) Bool() bool { return v.b }

// Text returns the string held by v, or the literal text of a number.
func (v Value) Text() string { return v.s }

// Number returns the literal held by a number value.
func (v Value) Number() json.Number { return json.Number(v.s) }

// Items returns the elements of an array.
func (v Value) Items() []Value { return v.items }

// Members returns the entries of an object in document order.
func (v Value) Members() []Member { return v.members }

// Len returns the number of array elements or object members.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	}
	return 0
}

// Get returns the last member named key. Later duplicates win, as with
// encoding/json.
func (v Value) Get(key string) (Value, bool) {
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Key == key {
			return v.members[i].Value, true
		}
	}
	return Value{}, false
}

// Scalar returns the Go value of a scalar: string, bool, int64 for integral
// numbers that fit, float64 for other numbers, and nil for null.
func (v Value) Scalar() any {
	switch v.kind {
	case Bool:
		return v.b
	case String:
		return v.s
	case Number:
		return numberScalar(v.s)
	}
	return nil
}

func numberScalar(lit string) any {
	if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return i
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

// Interface converts v into plain Go values: map[string]any, []any and the
// results of Scalar.
func (v Value) Interface() any {
	switch v.kind {
	case Array:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.members))
		for _, m := range v.members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return v.Scalar()
}

// MarshalJSON encodes v with object keys in document order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.b))
	case Number:
		buf.WriteString(v.s)
	case String:
		b, err := json.Marshal(v.s)
		if err != nil {
			return errors.Wrap(err, "encode string")
		}
		buf.Write(b)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(m.Key)
			if err != nil {
				return errors.Wrap(err, "encode key")
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes data into v, keeping object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// Decode parses a single JSON document.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decode(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.New("jsonv: unexpected data after top-level value")
	}
	return v, nil
}

func decode(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, errors.Wrap(err, "jsonv: read token")
	}

	switch t := tok.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		return NumberValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
	}
	return Value{}, errors.Errorf("jsonv: unexpected token %v", tok)
}

func decodeObject(dec *json.Decoder) (Value, error) {
	members := []Member{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Value{}, errors.Wrap(err, "jsonv: read object key")
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, errors.Errorf("jsonv: object key must be a string, got %v", tok)
		}
		val, err := decode(dec)
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, errors.Wrap(err, "jsonv: close object")
	}
	return ObjectValue(members...), nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	items := []Value{}
	for dec.More() {
		item, err := decode(dec)
		if err != nil {
			return Value{}, err
		}
		items = append(items, item)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, errors.Wrap(err, "jsonv: close array")
	}
	return ArrayValue(items...), nil
}
