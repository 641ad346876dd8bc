package colfile

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/klauspost/compress/s2"

	"shred/internal/cab"
)

// Codec identifies the compression applied to a flushed CAB's disk
// payload. It applies to the whole merged payload (header, rep/def
// streams and value content alike) of every CAB that merges to a
// non-empty payload.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecS2
)

// Layouter moves CAB content between memory and a column's main data
// file (spec.md section 4.6): flush appends a new CAB's serialised
// form at the file's current end, optionally compressed; load seeks to
// a descriptor's recorded offset and reverses the process.
type Layouter struct {
	file  *os.File
	codec Codec
	align uint64
}

// NewLayouter wraps an already-open column file. align pads every
// flushed CAB up to a storage-size multiple (0 disables padding); a
// config-driven value lets a deployment match its storage's natural
// write granularity.
func NewLayouter(file *os.File, codec Codec, align uint64) *Layouter {
	return &Layouter{file: file, codec: codec, align: align}
}

// Flush serialises c (forcing a full crucial payload when tail is
// true, per spec.md section 4.9) and appends it to the column file,
// returning the descriptor fields this flush produced. A trivial,
// non-tail CAB merges to nothing and is recorded with zero sizes —
// its descriptor alone (kind + item counters) is enough to reconstruct
// it on read.
func (l *Layouter) Flush(tail bool, c *cab.CAB) (Descriptor, error) {
	info := c.ItemInfo()
	d := Descriptor{Info: info, Kind: c.Kind()}

	mem := c.Merge(tail)
	if len(mem) == 0 {
		return d, nil
	}
	d.MemSize = uint64(len(mem))

	disk := mem
	codec := l.codec
	if codec == CodecS2 {
		disk = s2.Encode(nil, mem)
	}
	d.DiskSize = uint64(len(disk))
	d.CodecID = uint8(codec)

	padded := padTo(disk, l.align)
	d.StorageSize = uint64(len(padded))

	off, err := l.file.Seek(0, io.SeekEnd)
	if err != nil {
		return Descriptor{}, fmt.Errorf("colfile: seek column file: %w", err)
	}
	d.FileOffset = uint64(off)

	if _, err := l.file.Write(padded); err != nil {
		return Descriptor{}, fmt.Errorf("colfile: write CAB payload: %w", err)
	}
	return d, nil
}

// Load reads d's payload from the column file and loads it into c.
func (l *Layouter) Load(d Descriptor, c *cab.CAB) error {
	if d.DiskSize == 0 {
		return c.InitForRead(d.Kind, d.Info.BeginRecordID, d.Info.ItemCount, nil)
	}
	disk := make([]byte, d.DiskSize)
	if _, err := l.file.ReadAt(disk, int64(d.FileOffset)); err != nil {
		return fmt.Errorf("colfile: read CAB payload at %d: %w", d.FileOffset, err)
	}
	mem := disk
	if Codec(d.CodecID) == CodecS2 {
		var err error
		mem, err = s2.Decode(nil, disk)
		if err != nil {
			return fmt.Errorf("colfile: s2 decode: %w", err)
		}
	}
	return c.InitForRead(d.Kind, d.Info.BeginRecordID, d.Info.ItemCount, mem)
}

func padTo(b []byte, align uint64) []byte {
	if align == 0 {
		return b
	}
	rem := uint64(len(b)) % align
	if rem == 0 {
		return b
	}
	pad := align - rem
	return append(b, make([]byte, pad)...)
}

// CreateColumnFile creates a brand-new, empty column data file and an
// in-memory descriptor buffer for its sidecar. The data file is created
// under a uuid-named temp name in the same directory and renamed to its
// real name straight away; the sidecar file itself is not written until
// the returned Buffer is closed.
func CreateColumnFile(dataPath, infoPath string) (*os.File, *Buffer, error) {
	tmpData := dataPath + "." + uuid.NewString() + ".tmp"
	f, err := os.OpenFile(tmpData, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("colfile: create %s: %w", tmpData, err)
	}
	if err := os.Rename(tmpData, dataPath); err != nil {
		f.Close()
		os.Remove(tmpData)
		return nil, nil, fmt.Errorf("colfile: rename %s: %w", tmpData, err)
	}
	buf := OpenWrite(infoPath, 0)
	return f, buf, nil
}
