package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Parse decodes a single JSON document.
func Parse(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a single JSON document from r, preserving object member
// order.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, errors.New("jsonvalue: trailing data after document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("jsonvalue: %w", err)
	}
	switch t := tok.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return FromBool(t), nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("jsonvalue: number %q: %w", t, err)
		}
		return FromNumber(n), nil
	case string:
		return FromString(t), nil
	case json.Delim:
		switch t {
		case '[':
			arr := Value{kind: Array}
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				arr.items = append(arr.items, item)
			}
			_, err := dec.Token()
			return arr, err
		case '{':
			var obj objectBuilder
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("jsonvalue: %w", err)
				}
				key, _ := keyTok.(string)
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				obj.set(key, val)
			}
			_, err := dec.Token()
			return obj.value(), err
		}
	}
	return Value{}, fmt.Errorf("jsonvalue: unexpected token %v", tok)
}

// ParseYAML decodes a single YAML document.
func ParseYAML(data []byte) (Value, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return Value{}, err
	}
	return FromYAML(&node)
}

// FromYAML converts a yaml.v3 node tree. Mapping order is kept and aliases
// are followed.
func FromYAML(node *yaml.Node) (Value, error) {
	if node == nil {
		return Value{}, nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Value{}, nil
		}
		return FromYAML(node.Content[0])
	case yaml.AliasNode:
		return FromYAML(node.Alias)
	case yaml.SequenceNode:
		arr := Value{kind: Array, items: make([]Value, 0, len(node.Content))}
		for _, child := range node.Content {
			item, err := FromYAML(child)
			if err != nil {
				return Value{}, err
			}
			arr.items = append(arr.items, item)
		}
		return arr, nil
	case yaml.MappingNode:
		var obj objectBuilder
		for i := 0; i+1 < len(node.Content); i += 2 {
			val, err := FromYAML(node.Content[i+1])
			if err != nil {
				return Value{}, err
			}
			obj.set(node.Content[i].Value, val)
		}
		return obj.value(), nil
	case yaml.ScalarNode:
		return scalarFromYAML(node)
	}
	return Value{}, fmt.Errorf("jsonvalue: unsupported yaml node kind %d at line %d", node.Kind, node.Line)
}

func scalarFromYAML(node *yaml.Node) (Value, error) {
	switch node.ShortTag() {
	case "!!null":
		return Value{}, nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return Value{}, err
		}
		return FromBool(b), nil
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err != nil {
			return Value{}, err
		}
		return FromNumber(n), nil
	}
	return FromString(node.Value), nil
}

// String renders v as compact JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return strconv.Quote(err.Error())
	}
	return string(b)
}
