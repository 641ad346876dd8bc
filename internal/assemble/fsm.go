package assemble

import "shred/internal/schema"

// Terminal marks a transition table entry with no next column: the
// record currently being assembled is complete.
const Terminal = -1

// Table is the finite-state-machine transition table spec.md section
// 4.13 describes: for a reader currently positioned on column i whose
// item just read carries next-repetition-level rep, Table.Get(i, rep)
// returns the column the assembler must read from next, or Terminal
// when there is none (the record ends here).
//
// The columns are whatever ordered list of leaf paths Build was given;
// callers own the mapping from that order back to a schema.Signature
// or a column.Reader.
type Table struct {
	paths []schema.Path
	trans [][]int // trans[col][rep] = next column, or Terminal
}

// commonRepLevel is the common repetition level between column cur's
// own path and column tgt's path (tgt >= cur), matching the original
// FSM construction's getCommonReptLevel. Unlike the construction this
// is grounded on, which only ever precomputes adjacent-pair values and
// folds a running minimum to reach a non-adjacent pair (an artifact of
// building the table one adjacent step at a time), schema.Path values
// here are plain signature slices: the common repetition level between
// any two paths can be computed directly from the two paths themselves,
// with no folding required. The two are equal whenever the paths are
// sorted by parent (the lowest-same-level of a sorted range's endpoints
// always equals the minimum of its adjacent lowest-same-levels), which
// Build's caller is required to provide.
func commonRepLevel(tree *schema.Tree, paths []schema.Path, cur, tgt int) int {
	if cur == tgt {
		return tree.GetLowestRepeatedLevel(paths[cur])
	}
	return schema.CommonRepetitionLevel(tree, paths[cur], paths[tgt])
}

// lowestSameLevel is the lowest same level between column cur's path
// and column tgt's path (tgt >= cur); see commonRepLevel's note on why
// this needs no adjacent-pair folding here.
func lowestSameLevel(paths []schema.Path, cur, tgt int) int {
	if cur == tgt {
		return paths[cur].Depth()
	}
	return schema.LowestSameLevel(paths[cur], paths[tgt])
}

// Build constructs the transition table for paths, an ordered list of
// every leaf path the assembler will read from, sorted by parent
// (spec.md section 4.13's precondition — siblings adjacent, a node
// always preceding its descendants). tree resolves a path element's
// repeated/optional status.
func Build(tree *schema.Tree, paths []schema.Path) *Table {
	n := len(paths)
	t := &Table{paths: paths, trans: make([][]int, n)}

	for pidx := 0; pidx < n; pidx++ {
		path := paths[pidx]
		splen := path.Depth()
		trlen := splen + 1 // +1 for the root's own rep = 0 entry

		barrier := pidx + 1
		var barrierLevel int
		if barrier < n {
			barrierLevel = commonRepLevel(tree, paths, pidx, barrier)
		} else {
			barrierLevel = 0 // the last column's common level is always 0
		}

		col := make([]int, trlen)
		for i := range col {
			col[i] = Terminal
		}

		// 1. every level at or below the barrier level jumps to the
		// barrier (the next column, or Terminal past the last one).
		barrierTarget := barrier
		if barrier >= n {
			barrierTarget = Terminal
		}
		for li := 0; li <= barrierLevel && li < trlen; li++ {
			col[li] = barrierTarget
		}

		// 2. levels above the barrier level may jump further back than
		// the immediate next column, to whichever earlier column shares
		// the deepest repeated ancestor at that level.
		for fi := pidx; fi >= 0; fi-- {
			com := commonRepLevel(tree, paths, fi, pidx)
			if com > barrierLevel && com < trlen {
				col[com] = fi
			}
		}

		// 3. fill any level still lacking a transition by copying the
		// level directly below it.
		for li := splen - 1; li > barrierLevel; li-- {
			if col[li] == Terminal {
				col[li] = col[li+1]
			}
		}

		// 4. a level whose schema node is not itself repeated can never
		// be revisited, so it carries no transition of its own.
		for spIdx := 0; spIdx < splen; spIdx++ {
			if !tree.Node(path[spIdx]).IsRepeated() {
				col[spIdx+1] = Terminal
			}
		}

		t.trans[pidx] = col
	}

	return t
}

// Get returns the column Table.Build's caller's column-order index to
// read next after reading an item from column col whose next
// repetition level is rep, or Terminal if the record ends here. col
// must be a valid column index and rep must be within [0, col's path
// depth]; both hold for any rep/nrep value ever produced by a schema
// this table was built from.
func (t *Table) Get(col, rep int) int {
	return t.trans[col][rep]
}

// ColumnCount reports how many columns this table covers.
func (t *Table) ColumnCount() int { return len(t.paths) }

// Path returns the schema path of column col.
func (t *Table) Path(col int) schema.Path { return t.paths[col] }
