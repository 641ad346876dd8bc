// Package schema implements the typed multi-way schema tree (spec.md
// section 4.4): a contiguous node store indexed by signature, a
// name→signature multi-map for find-or-add lookups, and on-disk
// persistence for lazy, process-wide caching by (db, table).
package schema

import (
	"fmt"

	"shred/internal/types"
)

// Signature is a schema node's position in the tree's contiguous node
// store. Signature 0 is always the tree's root.
type Signature uint32

// RootSignature is the single-valued object root every tree is created
// with; its name is empty and it has no parent.
const RootSignature Signature = 0

// Category is a schema node's value category.
type Category uint8

const (
	CategoryInvalid Category = iota
	CategorySingle
	CategoryMulti
	CategoryIndex
)

// Reserved child names for a schema template's key/value pair. The
// template root's signature plus 1 and 2 always locate these two
// children, since AddTemplate appends all three nodes back to back.
const (
	TemplateKeyName   = "$key$"
	TemplateValueName = "$value$"
)

// Node is one entity in the schema tree.
type Node struct {
	Signature Signature
	Name      string
	Parent    Signature
	Children  []Signature
	Level     uint32
	TypeID    types.ID
	Category  Category
	Template  bool
}

// IsLeaf reports whether n is a primitive, non-template node — the
// only nodes that own a column.
func (n *Node) IsLeaf() bool {
	return !n.Template && n.TypeID != types.Invalid
}

// IsRepeated reports whether n introduces a repetition boundary: a
// multi-array category, or a dynamic-key template root.
func (n *Node) IsRepeated() bool {
	return n.Category == CategoryMulti || n.Template
}

type hashKey struct {
	name   string
	parent Signature
}

// Tree is a single table's schema: nodes append-only, indexed by
// signature, with a name→signature multi-map for O(1) candidate lookup
// before any insert.
type Tree struct {
	nodes []Node
	names []string
	valid []bool
	index map[hashKey][]Signature
}

// New creates a tree containing only the root node.
func New() *Tree {
	t := &Tree{index: map[hashKey][]Signature{}}
	t.nodes = append(t.nodes, Node{
		Signature: RootSignature,
		Name:      "",
		Parent:    RootSignature,
		Level:     0,
		TypeID:    types.Invalid,
		Category:  CategorySingle,
	})
	t.names = append(t.names, "")
	t.valid = append(t.valid, true)
	return t
}

// NodeCount reports the number of nodes in the tree, including the
// root.
func (t *Tree) NodeCount() int { return len(t.nodes) }

// Node returns a mutable pointer to the node at sig.
func (t *Tree) Node(sig Signature) *Node { return &t.nodes[sig] }

// IsValid reports the node's valid flag (the parallel 0/1 vector from
// spec.md's storage layout).
func (t *Tree) IsValid(sig Signature) bool { return t.valid[sig] }

// FindNode scans the candidate range sharing (name, parent) for one
// whose (type, category) also matches. The shredder calls this before
// every AddNode and only adds on a miss — invariant (c), distinct
// (name, type, category) triples per parent, is enforced by the
// caller's discipline, not by the tree itself.
func (t *Tree) FindNode(name string, parent Signature, typeID types.ID, cat Category) (Signature, bool) {
	key := hashKey{name, parent}
	for _, sig := range t.index[key] {
		n := &t.nodes[sig]
		if n.TypeID == typeID && n.Category == cat {
			return sig, true
		}
	}
	return 0, false
}

// AddNode appends a new node as a child of parent and updates the
// lookup multi-map. It does not check for an existing match — callers
// must FindNode first.
func (t *Tree) AddNode(name string, parent Signature, typeID types.ID, cat Category) (Signature, error) {
	if int(parent) >= len(t.nodes) {
		return 0, fmt.Errorf("schema: parent signature %d out of range", parent)
	}
	sig := Signature(len(t.nodes))
	level := t.nodes[parent].Level + 1
	t.nodes = append(t.nodes, Node{
		Signature: sig,
		Name:      name,
		Parent:    parent,
		Level:     level,
		TypeID:    typeID,
		Category:  cat,
	})
	t.names = append(t.names, name)
	t.valid = append(t.valid, true)
	t.nodes[parent].Children = append(t.nodes[parent].Children, sig)

	key := hashKey{name, parent}
	t.index[key] = append(t.index[key], sig)
	return sig, nil
}

// AddTemplate adds the three nodes a dynamic-key map materializes as:
// a repeated template root, a string-typed "key" child, and a
// valueType-typed "value" child. It returns the root's signature; the
// key and value children are always root+1 and root+2.
func (t *Tree) AddTemplate(parent Signature, valueType types.ID, valueCat Category) (Signature, error) {
	root, err := t.AddNode("", parent, types.Invalid, CategoryMulti)
	if err != nil {
		return 0, err
	}
	t.nodes[root].Template = true

	if _, err := t.AddNode(TemplateKeyName, root, types.String, CategorySingle); err != nil {
		return 0, err
	}
	if _, err := t.AddNode(TemplateValueName, root, valueType, valueCat); err != nil {
		return 0, err
	}
	return root, nil
}

// TemplateKey returns the signature of a template root's reserved key
// child.
func TemplateKey(root Signature) Signature { return root + 1 }

// TemplateValue returns the signature of a template root's reserved
// value child.
func TemplateValue(root Signature) Signature { return root + 2 }

// GetPath walks parent pointers from leaf to the root and returns the
// root-first sequence of signatures, excluding the root itself.
func (t *Tree) GetPath(leaf Signature) Path {
	var rev Path
	for s := leaf; s != RootSignature; s = t.nodes[s].Parent {
		rev = append(rev, s)
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev
}

// GetLowestRepeatedLevel returns the largest index i such that path[i]
// is repeated, plus 1 to include the (always implicitly shared) root
// in level numbering. It returns 0 if no element of path is repeated.
func (t *Tree) GetLowestRepeatedLevel(path Path) int {
	last := -1
	for i, sig := range path {
		if t.nodes[sig].IsRepeated() {
			last = i
		}
	}
	return last + 1
}
