package collection

import "shred/internal/schema"

// TreeCounter is the process-local per-record bookkeeping spec.md
// section 4.10 describes: how many times each schema signature has
// been seen while shredding the record currently in progress, plus a
// root-level count of records completed so far. The shredder's
// check-child-appeared step consults Count to find schema children
// that were not seen this record; the collection writer's alignment
// path consults RecordCount when lazily creating a new leaf's column.
type TreeCounter struct {
	counts      map[schema.Signature]uint64
	recordCount uint64
}

func NewTreeCounter() *TreeCounter {
	return &TreeCounter{counts: make(map[schema.Signature]uint64)}
}

// Mark records one appearance of sig in the record currently being
// shredded.
func (c *TreeCounter) Mark(sig schema.Signature) {
	c.counts[sig]++
}

// Count reports how many times sig has appeared so far this record.
func (c *TreeCounter) Count(sig schema.Signature) uint64 {
	return c.counts[sig]
}

// RecordCount reports how many records have completed so far.
func (c *TreeCounter) RecordCount() uint64 { return c.recordCount }

// EndRecord clears the per-record counts and advances the record
// count, called once a record's items have all been flushed.
func (c *TreeCounter) EndRecord() {
	for k := range c.counts {
		delete(c.counts, k)
	}
	c.recordCount++
}
