// Package colfile implements the CAB layouter (spec.md section 4.6, a
// thin pipeline between in-memory CAB content and the on-disk column
// file, with optional compression) and the descriptor buffer (section
// 4.7, the append-only array of CAB descriptors plus footer resident
// in each column's ".info" sidecar file).
package colfile

import (
	"encoding/binary"
	"fmt"

	"shred/internal/cab"
	"shred/internal/types"
)

// minMaxWidth bounds the inline min/max value buffer at a descriptor's
// tail to the widest fixed primitive (bytes-12), keeping the
// descriptor record fixed-size as spec.md requires. A column whose
// leaf type is String carries no min/max (MinPresent/MaxPresent stay
// false): a variable-length value cannot be folded into a 12-byte slot
// without truncation, so this implementation skips min/max tracking
// for String columns rather than store a corrupted prefix.
const minMaxWidth = types.BytesFixedSize

// Descriptor is a fixed-size record describing one flushed CAB.
type Descriptor struct {
	StorageSize uint64 // on-disk size, padded to the alignment
	DiskSize    uint64 // compressed (or raw) byte length
	MemSize     uint64 // uncompressed byte length
	Kind        cab.Kind
	CodecID     uint8
	FileOffset  uint64
	Info        cab.ItemInfo

	MinPresent bool
	MaxPresent bool
	Min        [minMaxWidth]byte
	Max        [minMaxWidth]byte
}

const descriptorSize = 8*3 + 1 + 1 + 8 + 8*5 + 1 + 1 + minMaxWidth*2

func encodeDescriptor(d Descriptor) []byte {
	buf := make([]byte, 0, descriptorSize)
	buf = appendU64(buf, d.StorageSize)
	buf = appendU64(buf, d.DiskSize)
	buf = appendU64(buf, d.MemSize)
	buf = append(buf, byte(d.Kind))
	buf = append(buf, d.CodecID)
	buf = appendU64(buf, d.FileOffset)
	buf = appendU64(buf, d.Info.BeginRecordID)
	buf = appendU64(buf, d.Info.RecordCount)
	buf = appendU64(buf, d.Info.ItemCount)
	buf = appendU64(buf, d.Info.NullCount)
	buf = appendU64(buf, d.Info.TrivialCount)
	buf = append(buf, boolByte(d.MinPresent), boolByte(d.MaxPresent))
	buf = append(buf, d.Min[:]...)
	buf = append(buf, d.Max[:]...)
	return buf
}

func decodeDescriptor(b []byte) (Descriptor, error) {
	if len(b) != descriptorSize {
		return Descriptor{}, fmt.Errorf("colfile: descriptor size %d != %d", len(b), descriptorSize)
	}
	var d Descriptor
	r := &reader{b: b}
	d.StorageSize = r.u64()
	d.DiskSize = r.u64()
	d.MemSize = r.u64()
	d.Kind = cab.Kind(r.u8())
	d.CodecID = r.u8()
	d.FileOffset = r.u64()
	d.Info.BeginRecordID = r.u64()
	d.Info.RecordCount = r.u64()
	d.Info.ItemCount = r.u64()
	d.Info.NullCount = r.u64()
	d.Info.TrivialCount = r.u64()
	d.MinPresent = r.u8() == 1
	d.MaxPresent = r.u8() == 1
	copy(d.Min[:], r.bytes(minMaxWidth))
	copy(d.Max[:], r.bytes(minMaxWidth))
	return d, r.err
}

// Footer closes out a sidecar: value-info (min/max presence and
// sentinels across the whole column) plus the bookkeeping needed to
// reopen the descriptor array.
type Footer struct {
	MinPresent         bool
	MaxPresent         bool
	Min                [minMaxWidth]byte
	Max                [minMaxWidth]byte
	FirstValidRecordID uint64
	TotalRecords       uint64
	UsedCount          uint32
}

const footerSize = 1 + 1 + minMaxWidth*2 + 8 + 8 + 4

func encodeFooter(f Footer) []byte {
	buf := make([]byte, 0, footerSize)
	buf = append(buf, boolByte(f.MinPresent), boolByte(f.MaxPresent))
	buf = append(buf, f.Min[:]...)
	buf = append(buf, f.Max[:]...)
	buf = appendU64(buf, f.FirstValidRecordID)
	buf = appendU64(buf, f.TotalRecords)
	buf = appendU32(buf, f.UsedCount)
	return buf
}

func decodeFooter(b []byte) (Footer, error) {
	if len(b) != footerSize {
		return Footer{}, fmt.Errorf("colfile: footer size %d != %d", len(b), footerSize)
	}
	var f Footer
	r := &reader{b: b}
	f.MinPresent = r.u8() == 1
	f.MaxPresent = r.u8() == 1
	copy(f.Min[:], r.bytes(minMaxWidth))
	copy(f.Max[:], r.bytes(minMaxWidth))
	f.FirstValidRecordID = r.u64()
	f.TotalRecords = r.u64()
	f.UsedCount = uint32(r.u64Bits(32))
	return f, r.err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

// reader is a small cursor over a byte slice for decode helpers above;
// once any read fails (truncated input) it sticks at err and every
// subsequent read returns zero, so callers can check err once at the
// end instead of after every field.
type reader struct {
	b   []byte
	off int
	err error
}

func (r *reader) need(n int) []byte {
	if r.err != nil || r.off+n > len(r.b) {
		if r.err == nil {
			r.err = fmt.Errorf("colfile: truncated record")
		}
		return make([]byte, n)
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u8() uint8    { return r.need(1)[0] }
func (r *reader) u64() uint64  { return binary.LittleEndian.Uint64(r.need(8)) }
func (r *reader) bytes(n int) []byte { return r.need(n) }

func (r *reader) u64Bits(bits int) uint64 {
	switch bits {
	case 32:
		return uint64(binary.LittleEndian.Uint32(r.need(4)))
	default:
		return r.u64()
	}
}
