// Package jsonfield is the boundary collaborator that turns a raw JSON
// byte range into the in-memory field tree the shredder walks
// (spec.md section 4.11's input contract: "a record tree where each
// node is one of {object, array, scalar-of-primitive-type, null} and
// carries a key/value text pair"). Parsing JSON itself is explicitly
// outside the core engine's scope — this package exists only to hand
// the shredder something to walk, built on the standard library's
// decoder rather than any schema-aware parsing library, since no
// library in the retrieved pack addresses this narrow boundary.
package jsonfield

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"shred/internal/types"
)

// Kind classifies one field tree node.
type Kind uint8

const (
	KindNull Kind = iota
	KindScalar
	KindObject
	KindArray
)

// Field is one node of the parsed record tree. Key is the JSON object
// key this field was found under (or its array index, formatted as
// text, when iterated as part of an indexed/heterogeneous array — the
// shredder assigns that key, not this package, since whether an array
// is indexed is a schema-time decision).
type Field struct {
	Key      string
	Kind     Kind
	TypeID   types.ID // valid only when Kind == KindScalar
	Text     string   // scalar text form; "" for containers and null
	Children []*Field // object fields (sorted by key) or array elements
}

// Parse decodes one JSON record and builds its field tree. The root
// must be a JSON object, per the shredder's invariant.
func Parse(data []byte) (*Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("jsonfield: decode: %w", err)
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("jsonfield: root must be a JSON object")
	}
	return buildObject("", obj), nil
}

func build(key string, v interface{}) *Field {
	switch x := v.(type) {
	case nil:
		return &Field{Key: key, Kind: KindNull}
	case map[string]interface{}:
		return buildObject(key, x)
	case []interface{}:
		return buildArray(key, x)
	case bool:
		text := "false"
		if x {
			text = "true"
		}
		return &Field{Key: key, Kind: KindScalar, TypeID: types.Boolean, Text: text}
	case json.Number:
		return &Field{Key: key, Kind: KindScalar, TypeID: inferNumberType(x), Text: x.String()}
	case string:
		return &Field{Key: key, Kind: KindScalar, TypeID: types.String, Text: x}
	default:
		return &Field{Key: key, Kind: KindNull}
	}
}

// inferNumberType picks Int64 for a value with no fractional or
// exponent part, Double otherwise — JSON itself carries no int/float
// distinction, so this is this boundary's own convention rather than
// anything the wire format declares.
func inferNumberType(n json.Number) types.ID {
	if _, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return types.Int64
	}
	return types.Double
}

func buildObject(key string, m map[string]interface{}) *Field {
	f := &Field{Key: key, Kind: KindObject}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.Children = append(f.Children, build(k, m[k]))
	}
	return f
}

func buildArray(key string, a []interface{}) *Field {
	f := &Field{Key: key, Kind: KindArray}
	for _, v := range a {
		f.Children = append(f.Children, build(key, v))
	}
	return f
}
