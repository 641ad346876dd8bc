// Package collection implements the collection writer (spec.md section
// 4.10): one column writer per schema leaf, lazily constructed on
// first appearance, with a per-leaf text-item buffer the shredder
// fills while walking one record and that this package drains to the
// underlying columns once the record is complete.
package collection

import (
	"fmt"
	"path/filepath"

	"shred/internal/colfile"
	"shred/internal/column"
	"shred/internal/schema"
	"shred/internal/types"
)

// Template fixes the parameters every leaf column in a table shares;
// per-leaf Type, PathDepth, RepBits and DefBits are derived from the
// schema tree as each leaf is discovered.
type Template struct {
	RecordCapacity    uint64
	ItemCapacityGuess uint64
	Codec             colfile.Codec
	Alignment         uint64
}

type pendingItem struct {
	rep, def uint64
	text     string
	isNull   bool
}

// Writer owns one column.Writer per leaf signature plus the schema
// tree being grown as new fields are discovered.
type Writer struct {
	tree     *schema.Tree
	dir      string
	tmpl     Template
	counter  *TreeCounter
	writers  map[schema.Signature]*column.Writer
	buffers  map[schema.Signature][]pendingItem
}

// NewWriter starts a collection writer rooted at dir, one file pair
// per leaf column (spec.md section 6's "<column>.data"/"<column>.info"
// sidecar convention).
func NewWriter(tree *schema.Tree, dir string, tmpl Template) *Writer {
	return &Writer{
		tree:    tree,
		dir:     dir,
		tmpl:    tmpl,
		counter: NewTreeCounter(),
		writers: make(map[schema.Signature]*column.Writer),
		buffers: make(map[schema.Signature][]pendingItem),
	}
}

func (w *Writer) Tree() *schema.Tree    { return w.tree }
func (w *Writer) Counter() *TreeCounter { return w.counter }

func (w *Writer) columnPaths(sig schema.Signature) (dataPath, infoPath string) {
	base := filepath.Join(w.dir, fmt.Sprintf("col_%d", sig))
	return base + ".data", base + ".info"
}

// bitsFor returns the minimal packed width (1..32 bits) needed to
// represent any value in [0, maxVal].
func bitsFor(maxVal uint64) uint64 {
	bits := uint64(1)
	for (uint64(1)<<bits)-1 < maxVal {
		bits++
	}
	return bits
}

// ConfigFor derives the column.Config a leaf's column is created or
// reopened with: type and bit widths come from the leaf's schema path,
// the rest from the table-wide template.
func (w *Writer) ConfigFor(sig schema.Signature) (column.Config, error) {
	node := w.tree.Node(sig)
	path := w.tree.GetPath(sig)

	dt, err := types.Get(node.TypeID)
	if err != nil {
		return column.Config{}, fmt.Errorf("collection: leaf %d: %w", sig, err)
	}

	pathDepth := uint64(len(path))
	repBits := bitsFor(uint64(w.tree.GetLowestRepeatedLevel(path)))
	defBits := bitsFor(pathDepth)

	return column.Config{
		Type:              dt,
		PathDepth:         pathDepth,
		RepBits:           repBits,
		DefBits:           defBits,
		RecordCapacity:    w.tmpl.RecordCapacity,
		ItemCapacityGuess: w.tmpl.ItemCapacityGuess,
		Codec:             w.tmpl.Codec,
		Alignment:         w.tmpl.Alignment,
	}, nil
}

// ColumnPaths returns the data/info file paths sig's column lives at.
func (w *Writer) ColumnPaths(sig schema.Signature) (dataPath, infoPath string) {
	return w.columnPaths(sig)
}

// EnsureColumn lazily creates sig's column writer on first appearance,
// then aligns it against the record history already written for
// existing siblings.
func (w *Writer) EnsureColumn(sig schema.Signature) (*column.Writer, error) {
	if cw, ok := w.writers[sig]; ok {
		return cw, nil
	}
	cfg, err := w.ConfigFor(sig)
	if err != nil {
		return nil, err
	}

	dataPath, infoPath := w.columnPaths(sig)
	cw, err := column.Create(dataPath, infoPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("collection: create column for leaf %d: %w", sig, err)
	}
	w.writers[sig] = cw

	// Alignment (spec.md section 4.10): every record already written
	// for the table's other columns must also produce exactly one item
	// in this brand-new column, or the columns fall out of lockstep.
	// This implementation does not retain each already-completed
	// record's per-signature appearance history (only the record
	// currently in progress is tracked, via TreeCounter), so it
	// backfills one absent (rep=0, def=0) item per prior record rather
	// than replaying the exact nested multiplicities a fully historical
	// tree-counter would reproduce for a leaf newly discovered deep
	// under an already-repeated ancestor. Every column still reports
	// the same record count, which is what read-side record alignment
	// (internal/column's record-indexed access) depends on.
	for i := uint64(0); i < w.counter.RecordCount(); i++ {
		if err := cw.WriteNull(0, 0); err != nil {
			return nil, fmt.Errorf("collection: align new column for leaf %d: %w", sig, err)
		}
	}
	return cw, nil
}

// Buffer queues one item for sig, to be written to its column once the
// current record finishes.
func (w *Writer) Buffer(sig schema.Signature, rep, def uint64, text string, isNull bool) {
	w.buffers[sig] = append(w.buffers[sig], pendingItem{rep: rep, def: def, text: text, isNull: isNull})
}

// FlushRecord drains every leaf's buffered items into its column
// writer, then advances the tree-counter to the next record.
func (w *Writer) FlushRecord() error {
	for sig, items := range w.buffers {
		cw, ok := w.writers[sig]
		if !ok {
			continue
		}
		for _, it := range items {
			var err error
			if it.isNull {
				err = cw.WriteNull(it.rep, it.def)
			} else {
				err = cw.WriteText(it.rep, it.def, it.text)
			}
			if err != nil {
				return fmt.Errorf("collection: flush leaf %d: %w", sig, err)
			}
		}
		delete(w.buffers, sig)
	}
	w.counter.EndRecord()
	return nil
}

// Close flushes and closes every column writer, returning the first
// error encountered (if any) after attempting to close them all.
func (w *Writer) Close() error {
	var firstErr error
	for _, cw := range w.writers {
		if err := cw.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
