// Package cab implements the Column-Aligned Block (spec.md section
// 4.5): a record-aligned collection of column items, held as one major
// unit plus zero or more minor units once the major unit's per-unit
// item capacity is exhausted mid-CAB.
package cab

import (
	"encoding/binary"
	"fmt"

	"shred/internal/bitvec"
	"shred/internal/types"
	"shred/internal/valuearray"
)

// Kind classifies a CAB's accumulated content.
type Kind uint8

const (
	KindTrivial Kind = iota
	KindAllNull
	KindCrucial
)

func (k Kind) String() string {
	switch k {
	case KindTrivial:
		return "trivial"
	case KindAllNull:
		return "allnull"
	case KindCrucial:
		return "crucial"
	default:
		return "unknown"
	}
}

// ItemInfo is the running bookkeeping embedded in a CAB's descriptor.
type ItemInfo struct {
	BeginRecordID uint64
	RecordCount   uint64
	ItemCount     uint64
	NullCount     uint64
	TrivialCount  uint64
}

// Kind classifies the CAB this info describes: trivial if every item
// was an all-zero (rep=0,def=0) item; allnull if every item's
// def fell short of the owning column's path depth; crucial otherwise.
func (info ItemInfo) Kind() Kind {
	if info.ItemCount > 0 && info.TrivialCount == info.ItemCount {
		return KindTrivial
	}
	if info.ItemCount > 0 && info.NullCount == info.ItemCount {
		return KindAllNull
	}
	return KindCrucial
}

// unit is one (rep, def, value) triple.
type unit struct {
	rep    *bitvec.Vector
	def    *bitvec.Vector
	values valuearray.Array
}

func newUnit(dt types.Type, repWidth, defWidth, itemCap uint64) (*unit, error) {
	rep, err := bitvec.NewForWrite(repWidth, itemCap)
	if err != nil {
		return nil, err
	}
	def, err := bitvec.NewForWrite(defWidth, itemCap)
	if err != nil {
		return nil, err
	}
	return &unit{rep: rep, def: def, values: valuearray.New(dt, itemCap)}, nil
}

// CAB holds at most Capacity records, every item of a record landing
// in the same CAB.
type CAB struct {
	dt        types.Type
	pathDepth uint64
	repWidth  uint64
	defWidth  uint64
	capacity  uint64 // records per CAB
	itemCap   uint64 // per-unit item capacity (a config-driven guess)

	units []*unit // units[0] is the major unit; rest are minor units
	cur   *unit

	info ItemInfo

	// reading, when true, means this CAB was populated by InitForRead
	// rather than accumulated via the Write* methods; in that case
	// readKind is authoritative (info's trivial/null counters are not
	// repopulated on reload, so info.Kind() can no longer be trusted).
	reading  bool
	readKind Kind
}

// New creates a CAB description; call InitForWrite or InitForRead
// before using it. maxRepBits/maxDefBits size the packed rep/def
// vectors; pathDepth is the owning leaf column's path depth (an item
// with def < pathDepth encodes a null at some ancestor level).
func New(dt types.Type, maxRepBits, maxDefBits, pathDepth, recordCapacity, itemCapacityGuess uint64) *CAB {
	return &CAB{
		dt:        dt,
		pathDepth: pathDepth,
		repWidth:  maxRepBits,
		defWidth:  maxDefBits,
		capacity:  recordCapacity,
		itemCap:   itemCapacityGuess,
	}
}

func (c *CAB) ItemInfo() ItemInfo { return c.info }

// Kind classifies the CAB's content: for a CAB under construction this
// reflects the live counters; for a reloaded CAB it is whatever kind
// InitForRead was told, since a reload never repopulates the
// trivial/null counters.
func (c *CAB) Kind() Kind {
	if c.reading {
		return c.readKind
	}
	return c.info.Kind()
}

func (c *CAB) BeginRecordID() uint64 { return c.info.BeginRecordID }

// InitForWrite resets the CAB to a single empty major unit.
func (c *CAB) InitForWrite(beginRecordID uint64) error {
	u, err := newUnit(c.dt, c.repWidth, c.defWidth, c.itemCap)
	if err != nil {
		return err
	}
	c.units = []*unit{u}
	c.cur = u
	c.info = ItemInfo{BeginRecordID: beginRecordID}
	c.reading = false
	return nil
}

// CheckFull reports whether the next write, if it starts a new record
// (rep == 0), would push this CAB past its record capacity. The
// column writer must flush before such a write, since a CAB always
// ends on a record boundary.
func (c *CAB) CheckFull(rep uint64) bool {
	return rep == 0 && c.info.RecordCount+1 > c.capacity
}

func (c *CAB) bumpCounters(rep, def uint64) {
	c.info.ItemCount++
	if rep == 0 {
		c.info.RecordCount++
	}
	if rep == 0 && def == 0 {
		c.info.TrivialCount++
	}
	if def < c.pathDepth {
		c.info.NullCount++
	}
}

// ensureRoom allocates a fresh minor unit when the current one's item
// capacity is exhausted.
func (c *CAB) ensureRoom() error {
	if c.cur.rep.ElemUsed() < c.itemCap {
		return nil
	}
	u, err := newUnit(c.dt, c.repWidth, c.defWidth, c.itemCap)
	if err != nil {
		return err
	}
	c.units = append(c.units, u)
	c.cur = u
	return nil
}

// WriteNull appends a null item — rep/def only, no leaf value — used
// both for genuine ancestor-level nulls (def < pathDepth) and for the
// all-absent (0,0) trivial case.
func (c *CAB) WriteNull(rep, def uint64) (bool, error) {
	if c.CheckFull(rep) {
		return false, nil
	}
	if err := c.ensureRoom(); err != nil {
		return false, err
	}
	if err := c.cur.rep.Append(rep); err != nil {
		return false, err
	}
	if err := c.cur.def.Append(def); err != nil {
		return false, err
	}
	if _, err := c.cur.values.WriteNull(); err != nil {
		return false, err
	}
	c.bumpCounters(rep, def)
	return true, nil
}

// WriteText appends a present leaf value (def == pathDepth), converted
// from its text form.
func (c *CAB) WriteText(rep, def uint64, text string) (bool, error) {
	if c.CheckFull(rep) {
		return false, nil
	}
	if err := c.ensureRoom(); err != nil {
		return false, err
	}
	if err := c.cur.rep.Append(rep); err != nil {
		return false, err
	}
	if err := c.cur.def.Append(def); err != nil {
		return false, err
	}
	ok, err := c.cur.values.WriteText(text)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("cab: value array reported full despite matching item capacity")
	}
	c.bumpCounters(rep, def)
	return true, nil
}

// WriteBinary is WriteText's binary-value counterpart, used when a
// caller already holds the leaf's binary representation (e.g. copying
// a value during a merge rather than re-parsing text).
func (c *CAB) WriteBinary(rep, def uint64, bin []byte) (bool, error) {
	if c.CheckFull(rep) {
		return false, nil
	}
	if err := c.ensureRoom(); err != nil {
		return false, err
	}
	if err := c.cur.rep.Append(rep); err != nil {
		return false, err
	}
	if err := c.cur.def.Append(def); err != nil {
		return false, err
	}
	ok, err := c.cur.values.WriteBinary(bin)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("cab: value array reported full despite matching item capacity")
	}
	c.bumpCounters(rep, def)
	return true, nil
}

// Merge serialises this CAB's content for a flush to the column file.
// isTail forces a full crucial payload even for an otherwise-trivial
// or all-null CAB, so later appends to the column can find a complete
// rep/def/value image to reopen (spec.md section 4.9).
//
// Layout: a small self-describing header (unit count, then each
// unit's item count) followed by every unit's rep bytes, then every
// unit's def bytes, then — for crucial content — every unit's
// fixed/offset part followed by every unit's value part. The header is
// this implementation's own addition: each unit's rep/def bytes are
// rounded up to a whole byte on their own (see bitvec.Vector.Bytes), so a reader must
// know each unit's item count to find its boundary; the original C
// implementation always reopens a whole CAB as a single unit and does
// not need this, but a faithful multi-unit port does.
func (c *CAB) Merge(isTail bool) []byte {
	kind := c.Kind()
	if kind == KindTrivial && !isTail {
		return nil
	}

	var header []byte
	header = appendU32(header, uint32(len(c.units)))
	for _, u := range c.units {
		header = appendU32(header, uint32(u.rep.ElemUsed()))
	}

	out := header
	for _, u := range c.units {
		out = append(out, u.rep.Bytes()...)
	}
	for _, u := range c.units {
		out = append(out, u.def.Bytes()...)
	}

	if kind == KindAllNull && !isTail {
		return out
	}

	for _, u := range c.units {
		out = append(out, u.values.FlushFixedPart()...)
	}
	for _, u := range c.units {
		out = append(out, u.values.FlushValuePart()...)
	}
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// InitForRead attaches this CAB to a payload produced by Merge, per
// the descriptor's classified kind, begin-record-id and total item
// count.
func (c *CAB) InitForRead(kind Kind, beginRecordID, itemCount uint64, payload []byte) error {
	c.info = ItemInfo{BeginRecordID: beginRecordID, ItemCount: itemCount}
	c.reading = true
	c.readKind = kind

	if kind == KindTrivial {
		c.units = nil
		c.cur = nil
		return nil
	}
	if len(payload) < 4 {
		return fmt.Errorf("cab: truncated payload header")
	}
	unitCount := binary.LittleEndian.Uint32(payload[:4])
	off := 4
	counts := make([]uint32, unitCount)
	for i := range counts {
		if len(payload) < off+4 {
			return fmt.Errorf("cab: truncated payload header")
		}
		counts[i] = binary.LittleEndian.Uint32(payload[off:])
		off += 4
	}

	units := make([]*unit, unitCount)
	for i, n := range counts {
		nbytes := int((c.repWidth*uint64(n) + 7) / 8)
		if len(payload) < off+nbytes {
			return fmt.Errorf("cab: truncated rep stream")
		}
		rep, err := bitvec.NewForRead(c.repWidth, uint64(n), payload[off:off+nbytes])
		if err != nil {
			return err
		}
		off += nbytes
		units[i] = &unit{rep: rep}
	}
	for i, n := range counts {
		nbytes := int((c.defWidth*uint64(n) + 7) / 8)
		if len(payload) < off+nbytes {
			return fmt.Errorf("cab: truncated def stream")
		}
		def, err := bitvec.NewForRead(c.defWidth, uint64(n), payload[off:off+nbytes])
		if err != nil {
			return err
		}
		off += nbytes
		units[i].def = def
	}

	if kind == KindCrucial {
		if c.dt.DefaultSize() > 0 {
			for i, n := range counts {
				nbytes := int(n) * c.dt.DefaultSize()
				if len(payload) < off+nbytes {
					return fmt.Errorf("cab: truncated fixed value part")
				}
				fx, err := valuearray.NewFixedForRead(c.dt, uint64(n), payload[off:off+nbytes])
				if err != nil {
					return err
				}
				off += nbytes
				units[i].values = fx
			}
		} else {
			offsetBytes := make([][]byte, unitCount)
			for i, n := range counts {
				nbytes := int(n) * 4
				if len(payload) < off+nbytes {
					return fmt.Errorf("cab: truncated offset table")
				}
				offsetBytes[i] = payload[off : off+nbytes]
				off += nbytes
			}
			for i, n := range counts {
				// Each unit's value part runs to the declared total;
				// since only FlushValuePart's own length is known at
				// write time and we recorded no explicit per-unit
				// value-byte length, a single-minor-unit (the common
				// case) always consumes the remainder of payload.
				var valueBytes []byte
				if i == len(counts)-1 {
					valueBytes = payload[off:]
				} else {
					return fmt.Errorf("cab: multi-minor-unit variable-length CAB reload not supported")
				}
				va, err := valuearray.NewVariableForRead(c.dt, uint64(n), offsetBytes[i], valueBytes)
				if err != nil {
					return err
				}
				units[i].values = va
			}
		}
	}

	c.units = units
	if len(units) > 0 {
		c.cur = units[0]
	}
	return nil
}

// Read returns the (rep, def, nrep, value) tuple for the item at idx
// (spec.md's ColumnItem). nrep is rep(idx+1) when in range, else 0.
// value is nil unless this is a crucial CAB and def equals the owning
// path's depth.
type Item struct {
	Rep   uint64
	Def   uint64
	NRep  uint64
	Value []byte
}

func (c *CAB) Read(idx uint64) (Item, bool) {
	if idx >= c.info.ItemCount {
		return Item{}, false
	}
	kind := c.Kind()
	if kind == KindTrivial {
		var nrep uint64
		if idx+1 < c.info.ItemCount {
			nrep = 0
		}
		return Item{Rep: 0, Def: 0, NRep: nrep}, true
	}

	u, localIdx := c.unitFor(idx)
	rep := u.rep.Get(localIdx)
	def := u.def.Get(localIdx)

	var nrep uint64
	if idx+1 < c.info.ItemCount {
		nu, nLocal := c.unitFor(idx + 1)
		nrep = nu.rep.Get(nLocal)
	}

	item := Item{Rep: rep, Def: def, NRep: nrep}
	if kind == KindCrucial && def == c.pathDepth {
		if bin, ok := u.values.Read(localIdx); ok {
			item.Value = bin
		}
	}
	return item, true
}

// unitFor maps a flat item index to its (unit, within-unit index).
func (c *CAB) unitFor(idx uint64) (*unit, uint64) {
	for _, u := range c.units {
		n := u.rep.ElemUsed()
		if idx < n {
			return u, idx
		}
		idx -= n
	}
	panic("cab: item index out of range after bounds check")
}
