// Package assemble implements spec.md sections 4.12 through 4.14:
// reconstructing one nested binary record at a time from a fixed set of
// leaf columns, by driving a finite-state transition table (Table) over
// each column's (rep, def, nrep) items and folding the present values
// into an internal/record.Builder.
package assemble

import (
	"fmt"

	"shred/internal/record"
	"shred/internal/schema"
	"shred/internal/types"
)

// openFrame records which schema level and node a still-open
// record.Builder frame (beyond the always-open root) belongs to.
type openFrame struct {
	level int
	sig   schema.Signature
}

// Assembler reconstructs records from the column set a Table and
// Tracker were built over. One Assembler reassembles many records in
// sequence; AssembleRecord resets its internal state at the start of
// every call, so the same instance is meant to be reused across a
// whole table's record range.
type Assembler struct {
	tree    *schema.Tree
	table   *Table
	tracker *Tracker
	paths   []schema.Path

	builder *record.Builder
	open    []openFrame
}

// NewAssembler builds an Assembler over table and tracker, both built
// from the same ordered column list; tree resolves each leaf's value
// type and each path element's repeated/leaf status.
func NewAssembler(tree *schema.Tree, table *Table, tracker *Tracker) *Assembler {
	paths := make([]schema.Path, table.ColumnCount())
	for i := range paths {
		paths[i] = table.Path(i)
	}
	return &Assembler{
		tree:    tree,
		table:   table,
		tracker: tracker,
		paths:   paths,
		builder: record.NewBuilder(),
	}
}

// depthLevel is the schema level of the deepest currently open frame,
// or 0 (the root) when nothing is open.
func (a *Assembler) depthLevel() int {
	if len(a.open) == 0 {
		return 0
	}
	return a.open[len(a.open)-1].level
}

// moveDown opens one record.Builder frame for every schema level
// strictly between the currently open depth and target — every such
// level is, by construction, a non-leaf ancestor on some leaf's path
// (the leaf itself, the path's final element, never gets a frame of
// its own: its value is appended directly into its parent's frame, via
// AppendLeaf in AssembleRecord).
func (a *Assembler) moveDown(path schema.Path, target int) {
	for a.depthLevel() < target {
		level := a.depthLevel() + 1
		sig := path[level-1]
		a.builder.OpenObject()
		a.open = append(a.open, openFrame{level: level, sig: sig})
	}
}

// returnUp closes every open frame deeper than target. When mv2frt
// (the next item comes from a column at or before the current one —
// spec.md section 4.14 step 6's "move to front" case, which also
// covers a repeated leaf or repeated object directly repeating within
// itself) the frame at target itself is closed too: target is always a
// repeated node's own level in that case, and closing it finishes its
// current occurrence so the next moveDown opens a fresh one for the
// next occurrence, rather than appending further values into the one
// that just finished.
func (a *Assembler) returnUp(target int, mv2frt bool) {
	threshold := target
	if mv2frt {
		threshold--
	}
	for len(a.open) > 0 && a.open[len(a.open)-1].level > threshold {
		a.closeTop()
	}
}

func (a *Assembler) closeTop() {
	top := a.open[len(a.open)-1]
	a.open = a.open[:len(a.open)-1]
	a.builder.Close(uint32(top.sig))
}

// commonLevel is spec.md section 4.14 step 6's return-target-level
// computation: same column uses the item's own next-repetition value;
// moving to an earlier (or the same) column caps that value at the two
// columns' common repetition level; moving to a later column returns
// their lowest same level.
func (a *Assembler) commonLevel(cur, nxt, nrep int) int {
	if cur == nxt {
		return nrep
	}
	if nxt <= cur {
		c := commonRepLevel(a.tree, a.paths, nxt, cur)
		if nrep < c {
			return nrep
		}
		return c
	}
	return lowestSameLevel(a.paths, cur, nxt)
}

func (a *Assembler) firstActiveColumn() int {
	for i := 0; i < a.table.ColumnCount(); i++ {
		if a.tracker.Active(i) {
			return i
		}
	}
	return -1
}

// AssembleRecord reconstructs recordID's binary nested layout
// (internal/record's encoding) by walking every active column's items
// in FSM order. The returned slice is only valid until the next call —
// callers that need to retain it must copy.
func (a *Assembler) AssembleRecord(recordID uint64) ([]byte, error) {
	if a.tracker.NeedsUpdate(recordID) {
		a.tracker.Update(recordID)
	}

	for i := 0; i < a.table.ColumnCount(); i++ {
		if !a.tracker.Active(i) {
			continue
		}
		if err := a.tracker.Source(i).Reader.PrepareToReadRecord(recordID); err != nil {
			return nil, fmt.Errorf("assemble: record %d: %w", recordID, err)
		}
	}

	a.builder.Begin()
	a.open = a.open[:0]

	cidx := a.firstActiveColumn()
	for cidx >= 0 {
		path := a.paths[cidx]
		src := a.tracker.Source(cidx)

		item, ok := src.Reader.ReadItem()
		if !ok {
			return nil, fmt.Errorf("assemble: record %d: column %d exhausted mid-record", recordID, cidx)
		}

		def := int(item.Def)
		pathDepth := path.Depth()
		openTo := def
		if def == pathDepth {
			openTo = pathDepth - 1
		}
		a.moveDown(path, openTo)

		if def == pathDepth {
			if gotVal, err := a.hasRealValue(path.Leaf(), item.Value); err != nil {
				return nil, err
			} else if gotVal {
				a.builder.AppendLeaf(uint32(path.Leaf()), item.Value)
			}
		}

		nrep := int(item.NRep)
		nidx := a.table.Get(cidx, nrep)
		if nidx < 0 || nidx >= a.table.ColumnCount() || !a.tracker.Active(nidx) {
			a.returnUp(0, false)
			break
		}

		mv2frt := nidx <= cidx
		target := a.commonLevel(cidx, nidx, nrep)
		a.returnUp(target, mv2frt)
		cidx = nidx
	}

	return a.builder.Close(0), nil
}

// hasRealValue distinguishes a genuinely present leaf value from a
// null array element (spec.md section 4.11's shredding step writes a
// null element at the same definition level as a present one, unlike a
// null inherited from an absent ancestor, which always writes at a
// shallower level and so never reaches this check). For a
// FixedArray-backed type a null write leaves the slot holding that
// type's null sentinel rather than a nil value — item.Value == nil
// alone only catches the VariableArray-backed case (String, Bytes),
// where a null write leaves no offset at all — so both must be
// checked.
func (a *Assembler) hasRealValue(leaf schema.Signature, value []byte) (bool, error) {
	if value == nil {
		return false, nil
	}
	dt, err := types.Get(a.tree.Node(leaf).TypeID)
	if err != nil {
		return false, fmt.Errorf("assemble: leaf %d: %w", leaf, err)
	}
	return !dt.Equal(value, dt.NullBinary()), nil
}
