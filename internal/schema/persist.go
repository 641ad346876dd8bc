package schema

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"shred/internal/types"
)

// Encode serialises the tree as [block_header|node_array|name_array|
// valid_array] (spec.md section 4.4): a 4-byte body length, then for
// every node its parent/level/type/category/template-flag and child
// list, then every name NUL-terminated, then one valid byte per node.
func (t *Tree) Encode() []byte {
	var body bytes.Buffer

	writeU32(&body, uint32(len(t.nodes)))
	for _, n := range t.nodes {
		writeU32(&body, uint32(n.Parent))
		writeU32(&body, n.Level)
		writeU32(&body, uint32(int32(n.TypeID)))
		body.WriteByte(byte(n.Category))
		if n.Template {
			body.WriteByte(1)
		} else {
			body.WriteByte(0)
		}
		writeU32(&body, uint32(len(n.Children)))
		for _, c := range n.Children {
			writeU32(&body, uint32(c))
		}
	}
	for _, name := range t.names {
		body.WriteString(name)
		body.WriteByte(0)
	}
	for _, v := range t.valid {
		if v {
			body.WriteByte(1)
		} else {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	writeU32(&out, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

// Decode reconstructs a Tree from an Encode-produced image: node/type
// pointers are re-linked from the data-type registry implicitly (the
// registry is looked up by ID on every Node access via types.Get), the
// hash multi-map is rebuilt, and each node's child list — stored
// directly rather than re-derived from parent pointers, a minor
// simplification over the original's addChild-replay — is restored
// verbatim.
func Decode(data []byte) (*Tree, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("schema: truncated image header")
	}
	bodyLen := binary.LittleEndian.Uint32(data[:4])
	if uint64(len(data)-4) < uint64(bodyLen) {
		return nil, fmt.Errorf("schema: truncated image body")
	}
	r := bytes.NewReader(data[4 : 4+bodyLen])

	count, err := readU32(r)
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, count)
	for i := range nodes {
		parent, err := readU32(r)
		if err != nil {
			return nil, err
		}
		level, err := readU32(r)
		if err != nil {
			return nil, err
		}
		typeID, err := readU32(r)
		if err != nil {
			return nil, err
		}
		cat, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		tmpl, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		childCount, err := readU32(r)
		if err != nil {
			return nil, err
		}
		children := make([]Signature, childCount)
		for j := range children {
			c, err := readU32(r)
			if err != nil {
				return nil, err
			}
			children[j] = Signature(c)
		}
		nodes[i] = Node{
			Signature: Signature(i),
			Parent:    Signature(parent),
			Level:     level,
			TypeID:    types.ID(int32(typeID)),
			Category:  Category(cat),
			Template:  tmpl == 1,
			Children:  children,
		}
	}

	names := make([]string, count)
	for i := range names {
		s, err := readCString(r)
		if err != nil {
			return nil, err
		}
		names[i] = s
		nodes[i].Name = s
	}

	valid := make([]bool, count)
	for i := range valid {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		valid[i] = b == 1
	}

	t := &Tree{nodes: nodes, names: names, valid: valid, index: map[hashKey][]Signature{}}
	for _, n := range nodes {
		key := hashKey{n.Name, n.Parent}
		t.index[key] = append(t.index[key], n.Signature)
	}
	return t, nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var tmp [4]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(tmp[:]), nil
}

func readCString(r *bytes.Reader) (string, error) {
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0 {
			return string(buf), nil
		}
		buf = append(buf, b)
	}
}
