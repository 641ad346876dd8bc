package column

import (
	"fmt"
	"os"

	"shred/internal/cab"
	"shred/internal/colfile"
)

// Reader serves items from one column file, tracking the current CAB
// and an item cursor within it so sequential record access never has
// to reload or rescan from the start.
type Reader struct {
	cfg   Config
	file  *os.File
	lay   *colfile.Layouter
	descs *colfile.Buffer

	curDescIdx int // -1 until the first PrepareToReadRecord
	curCAB     *cab.CAB
	itemCursor uint64
}

func Open(dataPath, infoPath string, cfg Config) (*Reader, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("column: open %s: %w", dataPath, err)
	}
	descs, err := colfile.OpenRead(infoPath)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{
		cfg:        cfg,
		file:       f,
		lay:        colfile.NewLayouter(f, cfg.Codec, cfg.Alignment),
		descs:      descs,
		curDescIdx: -1,
	}, nil
}

func (r *Reader) Close() error { return r.file.Close() }

func (r *Reader) RecordCount() uint64 { return r.descs.Footer().TotalRecords }

// FirstValidRecordID reports the lowest record index this column has
// ever recorded an item for (spec.md section 4.12's per-reader "valid
// record id"). Every column this engine creates starts at 0 (see
// internal/collection's alignment backfill), but the sidecar still
// carries the field for a column ingested some other way.
func (r *Reader) FirstValidRecordID() uint64 { return r.descs.Footer().FirstValidRecordID }

// descriptorIndexForRecord binary-searches the descriptor array for
// the CAB whose [begin_record_id, begin_record_id+record_count) range
// covers recordIndex.
func (r *Reader) descriptorIndexForRecord(recordIndex uint64) (int, error) {
	lo, hi := 0, r.descs.Count()-1
	for lo <= hi {
		mid := (lo + hi) / 2
		d := r.descs.Get(mid)
		begin := d.Info.BeginRecordID
		end := begin + d.Info.RecordCount
		switch {
		case recordIndex < begin:
			hi = mid - 1
		case recordIndex >= end:
			lo = mid + 1
		default:
			return mid, nil
		}
	}
	return -1, fmt.Errorf("column: record %d out of range", recordIndex)
}

// PrepareToReadRecord positions the reader at the first item of
// recordIndex. If the target record falls in the CAB already loaded,
// the reload (and its binary search) is skipped; either way, the item
// cursor is found by walking rep values from the CAB's first item
// until the record count matches, per spec.md section 4.9 — a CAB only
// records its begin-record-id and item count, not a per-record item
// index, so locating a record's first item is inherently a scan.
func (r *Reader) PrepareToReadRecord(recordIndex uint64) error {
	idx, err := r.descriptorIndexForRecord(recordIndex)
	if err != nil {
		return err
	}
	d := r.descs.Get(idx)

	if r.curCAB == nil || idx != r.curDescIdx {
		c := cab.New(r.cfg.Type, r.cfg.RepBits, r.cfg.DefBits, r.cfg.PathDepth, r.cfg.RecordCapacity, r.cfg.ItemCapacityGuess)
		if err := r.lay.Load(d, c); err != nil {
			return fmt.Errorf("column: load CAB %d: %w", idx, err)
		}
		r.curCAB = c
		r.curDescIdx = idx
	}

	target := recordIndex - d.Info.BeginRecordID
	var cursor uint64
	var occurrence int64 = -1
	for {
		item, ok := r.curCAB.Read(cursor)
		if !ok {
			return fmt.Errorf("column: walked past end of CAB %d looking for record %d", idx, recordIndex)
		}
		if item.Rep == 0 {
			occurrence++
			if uint64(occurrence) == target {
				break
			}
		}
		cursor++
	}
	r.itemCursor = cursor
	return nil
}

// ReadItem returns the item at the cursor and advances it.
func (r *Reader) ReadItem() (cab.Item, bool) {
	item, ok := r.curCAB.Read(r.itemCursor)
	if ok {
		r.itemCursor++
	}
	return item, ok
}
