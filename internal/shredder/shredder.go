// Package shredder implements the shredding algorithm (spec.md section
// 4.11): walking one record's in-memory field tree, growing the schema
// tree on first sight of a field, and emitting exactly one item per
// leaf per record — including explicit nulls for schema leaves absent
// from this particular record.
package shredder

import (
	"fmt"
	"strconv"

	"shred/internal/collection"
	"shred/internal/jsonfield"
	"shred/internal/schema"
	"shred/internal/types"
)

// ShredRecord walks root (which must be an object, jsonfield.Parse's
// own invariant) and fans its leaves out to cw's column writers.
func ShredRecord(cw *collection.Writer, root *jsonfield.Field) error {
	cw.Counter().Mark(schema.RootSignature)

	if err := shredObjectLike(cw, schema.RootSignature, root.Children, 0); err != nil {
		return err
	}
	if err := checkChildAppeared(cw, schema.RootSignature, 0); err != nil {
		return err
	}
	return cw.FlushRecord()
}

// inferCategory classifies one field the way spec.md section 4.11
// describes: single for anything but an array, multi-array for an
// array whose elements share one shape, indexed for a heterogeneous
// array. Per the spec's own open question on ambiguous indexed-array
// typing, this always trusts the current record rather than any
// history from earlier records.
func inferCategory(f *jsonfield.Field) (types.ID, schema.Category) {
	switch f.Kind {
	case jsonfield.KindScalar:
		return f.TypeID, schema.CategorySingle
	case jsonfield.KindObject:
		return types.Invalid, schema.CategorySingle
	case jsonfield.KindArray:
		if len(f.Children) == 0 {
			return types.Invalid, schema.CategoryMulti
		}
		first := f.Children[0]
		for _, c := range f.Children[1:] {
			if !sameShape(first, c) {
				return types.Invalid, schema.CategoryIndex
			}
		}
		if first.Kind == jsonfield.KindScalar {
			return first.TypeID, schema.CategoryMulti
		}
		return types.Invalid, schema.CategoryMulti
	default: // KindNull
		return types.Invalid, schema.CategorySingle
	}
}

func sameShape(a, b *jsonfield.Field) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Kind == jsonfield.KindScalar {
		return a.TypeID == b.TypeID
	}
	return true
}

// shredObjectLike processes the named children of an object, or of an
// indexed array whose elements have already been given positional
// string keys by the caller, under parent at repetition level rep.
func shredObjectLike(cw *collection.Writer, parent schema.Signature, children []*jsonfield.Field, rep uint64) error {
	tree := cw.Tree()
	for _, child := range children {
		if child.Kind == jsonfield.KindNull {
			// No prior schema node and no type this occurrence could
			// establish one from: treated as field-absent, same as a
			// field genuinely missing from the record. check-child-
			// appeared below still null-fills it if a node already
			// exists from an earlier record.
			continue
		}

		typeID, cat := inferCategory(child)
		sig, ok := tree.FindNode(child.Key, parent, typeID, cat)
		if !ok {
			var err error
			sig, err = tree.AddNode(child.Key, parent, typeID, cat)
			if err != nil {
				return fmt.Errorf("shredder: add node %q: %w", child.Key, err)
			}
			if tree.Node(sig).IsLeaf() {
				if _, err := cw.EnsureColumn(sig); err != nil {
					return err
				}
			}
		}
		cw.Counter().Mark(sig)
		node := tree.Node(sig)
		level := uint64(node.Level)

		switch {
		case cat == schema.CategoryMulti && child.Kind == jsonfield.KindArray:
			if err := shredMultiArray(cw, sig, child.Children, rep, level); err != nil {
				return err
			}
		case cat == schema.CategoryIndex:
			indexed := make([]*jsonfield.Field, len(child.Children))
			for i, e := range child.Children {
				copied := *e
				copied.Key = strconv.Itoa(i)
				indexed[i] = &copied
			}
			if err := shredObjectLike(cw, sig, indexed, rep); err != nil {
				return err
			}
			if err := checkChildAppeared(cw, sig, level); err != nil {
				return err
			}
		case node.IsLeaf():
			cw.Buffer(sig, rep, level, child.Text, false)
		case child.Kind == jsonfield.KindObject:
			if err := shredObjectLike(cw, sig, child.Children, rep); err != nil {
				return err
			}
			if err := checkChildAppeared(cw, sig, level); err != nil {
				return err
			}
		}
	}
	return nil
}

// shredMultiArray iterates a homogeneous array's elements under the
// single schema node sig. firstRep is the repetition level carried
// into the array's first element; every subsequent element uses
// level, the array's own schema level, per spec.md section 4.11 step
// 2. A matrix (array whose elements are themselves arrays) collapses
// onto this same node and level rather than allocating a nested schema
// node, per spec.md section 4.11's matrix special case.
func shredMultiArray(cw *collection.Writer, sig schema.Signature, elems []*jsonfield.Field, firstRep, level uint64) error {
	for i, elem := range elems {
		rep := level
		if i == 0 {
			rep = firstRep
		}
		switch elem.Kind {
		case jsonfield.KindScalar:
			cw.Buffer(sig, rep, level, elem.Text, false)
		case jsonfield.KindArray:
			if err := shredMultiArray(cw, sig, elem.Children, rep, level); err != nil {
				return err
			}
			continue
		case jsonfield.KindObject:
			if err := shredObjectLike(cw, sig, elem.Children, rep); err != nil {
				return err
			}
			if err := checkChildAppeared(cw, sig, level); err != nil {
				return err
			}
		case jsonfield.KindNull:
			cw.Buffer(sig, rep, level, "", true)
		}
		cw.Counter().Mark(sig)
	}
	return nil
}

// checkChildAppeared fills in nulls for every schema child of parent
// that was not seen in the record currently being shredded — the
// Dremel "fill in nulls" step, guaranteeing every leaf gets exactly one
// item per record.
func checkChildAppeared(cw *collection.Writer, parent schema.Signature, level uint64) error {
	tree := cw.Tree()
	node := tree.Node(parent)
	for _, childSig := range node.Children {
		if cw.Counter().Count(childSig) > 0 {
			continue
		}
		if err := emitNullSubtree(cw, childSig, level); err != nil {
			return err
		}
	}
	return nil
}

func emitNullSubtree(cw *collection.Writer, sig schema.Signature, level uint64) error {
	tree := cw.Tree()
	node := tree.Node(sig)
	if node.IsLeaf() {
		if _, err := cw.EnsureColumn(sig); err != nil {
			return err
		}
		cw.Buffer(sig, level, level, "", true)
		return nil
	}
	for _, c := range node.Children {
		if err := emitNullSubtree(cw, c, level); err != nil {
			return err
		}
	}
	return nil
}
