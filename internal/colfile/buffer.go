package colfile

import (
	"fmt"
	"os"
)

// Mode selects how a Buffer was opened, mirroring spec.md section 4.7's
// three descriptor-sidecar entry modes.
type Mode int

const (
	ModeWrite Mode = iota
	ModeRead
	ModeAppend
)

// Buffer is the append-only array of CAB descriptors resident in a
// column's ".info" sidecar, plus the footer that closes it out. The
// whole array lives in memory for the lifetime of the writer/reader —
// Go's growable slice already gives emplacement the buffer-resize
// behaviour spec.md calls out as needing a "refreshed base pointer"
// after a C array realloc; there is no stale pointer to refresh here.
type Buffer struct {
	path        string
	mode        Mode
	descriptors []Descriptor
	footer      Footer
}

// OpenWrite starts a fresh descriptor buffer for a new column.
func OpenWrite(path string, firstValidRecordID uint64) *Buffer {
	return &Buffer{
		path:   path,
		mode:   ModeWrite,
		footer: Footer{FirstValidRecordID: firstValidRecordID},
	}
}

// OpenRead loads an existing sidecar file in full.
func OpenRead(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) < footerSize {
		return nil, fmt.Errorf("colfile: sidecar %s shorter than footer", path)
	}
	footer, err := decodeFooter(data[len(data)-footerSize:])
	if err != nil {
		return nil, fmt.Errorf("colfile: %s: %w", path, err)
	}
	descBytes := data[:len(data)-footerSize]
	if len(descBytes) != int(footer.UsedCount)*descriptorSize {
		return nil, fmt.Errorf("colfile: %s: descriptor array size %d != %d*%d",
			path, len(descBytes), footer.UsedCount, descriptorSize)
	}
	descriptors := make([]Descriptor, footer.UsedCount)
	for i := range descriptors {
		d, err := decodeDescriptor(descBytes[i*descriptorSize : (i+1)*descriptorSize])
		if err != nil {
			return nil, fmt.Errorf("colfile: %s: descriptor %d: %w", path, i, err)
		}
		descriptors[i] = d
	}
	return &Buffer{path: path, mode: ModeRead, descriptors: descriptors, footer: footer}, nil
}

// OpenAppend loads an existing sidecar and positions it to accept more
// descriptors (a table reopened for further ingest, spec.md section
// 4.9's append path).
func OpenAppend(path string) (*Buffer, error) {
	b, err := OpenRead(path)
	if err != nil {
		return nil, err
	}
	b.mode = ModeAppend
	return b, nil
}

func (b *Buffer) Mode() Mode   { return b.mode }
func (b *Buffer) Count() int   { return len(b.descriptors) }
func (b *Buffer) Footer() Footer { return b.footer }

// Get returns the i'th descriptor.
func (b *Buffer) Get(i int) Descriptor { return b.descriptors[i] }

// Last returns the most recently appended descriptor, used by a column
// writer reopening its tail CAB for more writes.
func (b *Buffer) Last() (Descriptor, bool) {
	if len(b.descriptors) == 0 {
		return Descriptor{}, false
	}
	return b.descriptors[len(b.descriptors)-1], true
}

// Append adds a new descriptor and folds its record count into the
// footer's running total.
func (b *Buffer) Append(d Descriptor) int {
	b.descriptors = append(b.descriptors, d)
	b.footer.TotalRecords += d.Info.RecordCount
	return len(b.descriptors) - 1
}

// ReplaceTail overwrites the last descriptor in place: an append-mode
// writer reopens its tail CAB, keeps accumulating into the same CAB,
// and each subsequent flush of that still-open CAB replaces (rather
// than appends) its descriptor entry until the CAB itself is finally
// closed out.
func (b *Buffer) ReplaceTail(d Descriptor) error {
	if len(b.descriptors) == 0 {
		return fmt.Errorf("colfile: no descriptor to replace")
	}
	last := len(b.descriptors) - 1
	old := b.descriptors[last]
	b.footer.TotalRecords += d.Info.RecordCount - old.Info.RecordCount
	b.descriptors[last] = d
	return nil
}

// UpdateValueRange folds a flushed CAB's min/max into the footer's
// running column-wide range.
func (b *Buffer) UpdateValueRange(d Descriptor, less func(a, b [minMaxWidth]byte) bool) {
	if d.MinPresent {
		if !b.footer.MinPresent || less(d.Min, b.footer.Min) {
			b.footer.Min = d.Min
			b.footer.MinPresent = true
		}
	}
	if d.MaxPresent {
		if !b.footer.MaxPresent || less(b.footer.Max, d.Max) {
			b.footer.Max = d.Max
			b.footer.MaxPresent = true
		}
	}
}

// Close serialises the descriptor array and footer back to path. A
// read-mode buffer never wrote anything, so Close is a no-op for it.
func (b *Buffer) Close() error {
	if b.mode == ModeRead {
		return nil
	}
	b.footer.UsedCount = uint32(len(b.descriptors))
	out := make([]byte, 0, len(b.descriptors)*descriptorSize+footerSize)
	for _, d := range b.descriptors {
		out = append(out, encodeDescriptor(d)...)
	}
	out = append(out, encodeFooter(b.footer)...)
	return os.WriteFile(b.path, out, 0o644)
}
