package assemble

import (
	"sort"

	"shred/internal/cab"
	"shred/internal/schema"
)

// ItemReader is the column-level access the assembler needs, satisfied
// by *column.Reader without this package importing it directly (the
// dependency would otherwise run collection -> column -> assemble ->
// column).
type ItemReader interface {
	FirstValidRecordID() uint64
	PrepareToReadRecord(recordIndex uint64) error
	ReadItem() (cab.Item, bool)
}

// ColumnSource pairs one leaf's schema path with the reader serving its
// items; NewTracker's input, one per column in Table column order.
type ColumnSource struct {
	Path   schema.Path
	Reader ItemReader
}

// Tracker is spec.md section 4.12's assembly-time column bookkeeping:
// which columns are actually in play for the record currently being
// assembled. A column whose first item appears only partway through the
// table (because it was created after earlier records had already been
// written — see internal/collection's alignment backfill, which in this
// engine always starts a new column's first item at record 0, making
// that case unreachable in practice but still handled here for a column
// ingested some other way) must not be consulted before its first valid
// record, or the assembler would read an item that was never written.
type Tracker struct {
	sources []ColumnSource
	pending []uint64 // ascending first-valid-record-ids not yet applied, deduplicated
	active  []bool   // active[i]: column i is currently part of the assembly set
}

// NewTracker builds a Tracker over sources, column order matching the
// Table the same sources were passed to Build.
func NewTracker(sources []ColumnSource) *Tracker {
	seen := make(map[uint64]bool)
	var ids []uint64
	for _, s := range sources {
		id := s.Reader.FirstValidRecordID()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	active := make([]bool, len(sources))
	for i, s := range sources {
		active[i] = s.Reader.FirstValidRecordID() == 0
	}

	return &Tracker{sources: sources, pending: ids, active: active}
}

// NeedsUpdate reports whether any column's first valid record id is at
// or before recordID and has not yet been folded into the active set —
// i.e. whether Update must run before assembling recordID.
func (tr *Tracker) NeedsUpdate(recordID uint64) bool {
	return len(tr.pending) > 0 && tr.pending[0] <= recordID
}

// Update activates every column whose first valid record id is at or
// before recordID.
func (tr *Tracker) Update(recordID uint64) {
	for len(tr.pending) > 0 && tr.pending[0] <= recordID {
		tr.pending = tr.pending[1:]
	}
	for i, s := range tr.sources {
		if s.Reader.FirstValidRecordID() <= recordID {
			tr.active[i] = true
		}
	}
}

// Active reports whether column i is part of the current assembly set.
func (tr *Tracker) Active(i int) bool { return tr.active[i] }

// Source returns column i's underlying reader and path.
func (tr *Tracker) Source(i int) ColumnSource { return tr.sources[i] }
