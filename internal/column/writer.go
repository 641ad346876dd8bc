package column

import (
	"fmt"
	"os"

	"shred/internal/cab"
	"shred/internal/colfile"
)

// Writer owns one CAB and one descriptor buffer; every write goes
// through the current CAB, flushing and rotating to a fresh one when
// the CAB reports full.
type Writer struct {
	cfg   Config
	file  *os.File
	lay   *colfile.Layouter
	descs *colfile.Buffer
	cur   *cab.CAB

	// replaceTailOnFlush is true exactly once, right after OpenAppend
	// reconstructs an in-progress tail CAB: that CAB's next flush must
	// overwrite the sidecar's existing tail descriptor rather than
	// append a new one, since it is the same logical CAB continuing.
	replaceTailOnFlush bool
}

// Create starts a brand-new column (new data file and sidecar).
func Create(dataPath, infoPath string, cfg Config) (*Writer, error) {
	f, descs, err := colfile.CreateColumnFile(dataPath, infoPath)
	if err != nil {
		return nil, err
	}
	c := cab.New(cfg.Type, cfg.RepBits, cfg.DefBits, cfg.PathDepth, cfg.RecordCapacity, cfg.ItemCapacityGuess)
	if err := c.InitForWrite(0); err != nil {
		f.Close()
		return nil, fmt.Errorf("column: init first CAB: %w", err)
	}
	return &Writer{
		cfg:   cfg,
		file:  f,
		lay:   colfile.NewLayouter(f, cfg.Codec, cfg.Alignment),
		descs: descs,
		cur:   c,
	}, nil
}

// OpenAppend reopens an existing column for more writes. If the
// sidecar's tail descriptor represents an in-progress CAB (it always
// does, since every flush but the last leaves the CAB open for more
// records), that CAB's content is replayed item-by-item through the
// normal write path into a fresh write-capable CAB of the same shape —
// this implementation's bit-packed vectors and value arrays size their
// backing buffers at construction, so there is no raw buffer to simply
// keep growing in place the way the original's C arrays do; replaying
// every item once at reopen time reconstructs an equivalent CAB with
// its original begin-record-id and content, ready to accept more
// writes with full spare capacity.
func OpenAppend(dataPath, infoPath string, cfg Config) (*Writer, error) {
	f, err := os.OpenFile(dataPath, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("column: open %s: %w", dataPath, err)
	}
	descs, err := colfile.OpenAppend(infoPath)
	if err != nil {
		f.Close()
		return nil, err
	}
	lay := colfile.NewLayouter(f, cfg.Codec, cfg.Alignment)

	w := &Writer{cfg: cfg, file: f, lay: lay, descs: descs}

	tail, ok := descs.Last()
	if !ok {
		c := cab.New(cfg.Type, cfg.RepBits, cfg.DefBits, cfg.PathDepth, cfg.RecordCapacity, cfg.ItemCapacityGuess)
		if err := c.InitForWrite(0); err != nil {
			f.Close()
			return nil, err
		}
		w.cur = c
		return w, nil
	}

	loaded := cab.New(cfg.Type, cfg.RepBits, cfg.DefBits, cfg.PathDepth, cfg.RecordCapacity, cfg.ItemCapacityGuess)
	if err := lay.Load(tail, loaded); err != nil {
		f.Close()
		return nil, fmt.Errorf("column: load tail CAB: %w", err)
	}

	c := cab.New(cfg.Type, cfg.RepBits, cfg.DefBits, cfg.PathDepth, cfg.RecordCapacity, cfg.ItemCapacityGuess)
	if err := c.InitForWrite(tail.Info.BeginRecordID); err != nil {
		f.Close()
		return nil, err
	}
	for i := uint64(0); i < tail.Info.ItemCount; i++ {
		item, ok := loaded.Read(i)
		if !ok {
			f.Close()
			return nil, fmt.Errorf("column: replay item %d: missing from reloaded tail CAB", i)
		}
		var werr error
		if item.Value != nil {
			_, werr = c.WriteBinary(item.Rep, item.Def, item.Value)
		} else {
			_, werr = c.WriteNull(item.Rep, item.Def)
		}
		if werr != nil {
			f.Close()
			return nil, fmt.Errorf("column: replay item %d: %w", i, werr)
		}
	}
	w.cur = c
	w.replaceTailOnFlush = true
	return w, nil
}

// rotate flushes the current CAB (forcing a full crucial tail payload)
// and records or replaces its descriptor, then starts a fresh CAB
// beginning at the next record id. tail is true only when the caller
// is closing the column for good — a mid-stream rotation (the CAB hit
// capacity) is never a tail flush, since more records are coming.
func (w *Writer) rotate(tail bool) error {
	d, err := w.lay.Flush(tail, w.cur)
	if err != nil {
		return err
	}
	if w.replaceTailOnFlush {
		if err := w.descs.ReplaceTail(d); err != nil {
			return err
		}
		w.replaceTailOnFlush = false
	} else {
		w.descs.Append(d)
	}
	if tail {
		return nil
	}
	next := cab.New(w.cfg.Type, w.cfg.RepBits, w.cfg.DefBits, w.cfg.PathDepth, w.cfg.RecordCapacity, w.cfg.ItemCapacityGuess)
	nextBegin := w.cur.BeginRecordID() + w.cur.ItemInfo().RecordCount
	if err := next.InitForWrite(nextBegin); err != nil {
		return err
	}
	w.cur = next
	return nil
}

// WriteNull appends a null item, rotating the CAB first if it is full.
func (w *Writer) WriteNull(rep, def uint64) error {
	return w.write(rep, func() (bool, error) { return w.cur.WriteNull(rep, def) })
}

// WriteText appends a present leaf value from its text form.
func (w *Writer) WriteText(rep, def uint64, text string) error {
	return w.write(rep, func() (bool, error) { return w.cur.WriteText(rep, def, text) })
}

// WriteBinary appends a present leaf value already in binary form.
func (w *Writer) WriteBinary(rep, def uint64, bin []byte) error {
	return w.write(rep, func() (bool, error) { return w.cur.WriteBinary(rep, def, bin) })
}

func (w *Writer) write(rep uint64, do func() (bool, error)) error {
	if w.cur.CheckFull(rep) {
		if err := w.rotate(false); err != nil {
			return err
		}
	}
	ok, err := do()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("column: write rejected after rotation, CAB still reports full")
	}
	return nil
}

// Close flushes the in-progress CAB as a tail CAB, closes the sidecar,
// and closes the data file.
func (w *Writer) Close() error {
	if err := w.rotate(true); err != nil {
		return err
	}
	if err := w.descs.Close(); err != nil {
		return err
	}
	return w.file.Close()
}

// CheckFull reports whether the next write, if it starts a new
// record, would need a rotation — used by a collection writer deciding
// whether to flush siblings in lockstep.
func (w *Writer) CheckFull(rep uint64) bool { return w.cur.CheckFull(rep) }
