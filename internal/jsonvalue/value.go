// Package jsonvalue holds an order-preserving representation of JSON-like
// metadata documents.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Kind identifies the variant held by a Value.
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
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

// Member is a key/value pair of an object.
type Member struct {
	Key   string
	Value Value
}

// Value is a JSON value. Objects keep their member order. The zero Value is
// null.
type Value struct {
	kind    Kind
	b       bool
	n       float64
	s       string
	items   []Value
	members []Member
}

func FromBool(b bool) Value { return Value{kind: Bool, b: b} }

func FromNumber(n float64) Value { return Value{kind: Number, n: n} }

func FromString(s string) Value { return Value{kind: String, s: s} }

func NewArray(items ...Value) Value { return Value{kind: Array, items: items} }

// NewObject builds an object from members in the given order. A repeated key
// overwrites the earlier value in place.
func NewObject(members ...Member) Value {
	var b objectBuilder
	for _, m := range members {
		b.set(m.Key, m.Value)
	}
	return b.value()
}

// objectBuilder collects members in place. A repeated key overwrites the
// earlier value and keeps its position.
type objectBuilder struct {
	members []Member
	index   map[string]int
}

func (b *objectBuilder) set(key string, val Value) {
	if i, ok := b.index[key]; ok {
		b.members[i].Value = val
		return
	}
	if b.index == nil {
		b.index = make(map[string]int)
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: val})
}

func (b *objectBuilder) value() Value {
	return Value{kind: Object, members: b.members}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == Null }

// Str returns the string held by v.
func (v Value) Str() (string, bool) {
	return v.s, v.kind == String
}

// Num returns the number held by v.
func (v Value) Num() (float64, bool) {
	return v.n, v.kind == Number
}

// Bool returns the boolean held by v.
func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == Bool
}

// Items returns the elements of an array, nil otherwise.
func (v Value) Items() []Value {
	if v.kind != Array {
		return nil
	}
	return v.items
}

// Members returns the members of an object in document order, nil otherwise.
func (v Value) Members() []Member {
	if v.kind != Object {
		return nil
	}
	return v.members
}

// Lookup returns the member named key.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Get returns the member named key, or null.
func (v Value) Get(key string) Value {
	val, _ := v.Lookup(key)
	return val
}

// Has reports whether v is an object with a member named key.
func (v Value) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// With returns a copy of the object v with key set to val. Existing keys keep
// their position; new keys are appended. Non-objects are treated as empty
// objects.
func (v Value) With(key string, val Value) Value {
	out := Value{kind: Object, members: make([]Member, 0, len(v.members)+1)}
	if v.kind == Object {
		out.members = append(out.members, v.members...)
	}
	for i := range out.members {
		if out.members[i].Key == key {
			out.members[i].Value = val
			return out
		}
	}
	out.members = append(out.members, Member{Key: key, Value: val})
	return out
}

// Walk calls fn for v and every nested value, depth first in document
// order.
func (v Value) Walk(fn func(Value)) {
	fn(v)
	switch v.kind {
	case Array:
		for _, item := range v.items {
			item.Walk(fn)
		}
	case Object:
		for _, m := range v.members {
			m.Value.Walk(fn)
		}
	}
}

// Strings returns all string leaves in document order. Object keys are not
// included.
func (v Value) Strings() []string {
	var out []string
	v.Walk(func(n Value) {
		if n.kind == String {
			out = append(out, n.s)
		}
	})
	return out
}

// MarshalJSON implements json.Marshaler, keeping member order.
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
		buf.WriteString(strconv.FormatFloat(v.n, 'f', -1, 64))
	case String:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
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
			k, err := json.Marshal(m.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := m.Value.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
