// Package record implements the binary nested-record layout assembly
// produces (spec.md section 4.15's handoff format, described in
// section 3 as "[size|values|offset_array|info]"): a self-describing
// byte range per object or array instance, with an object additionally
// prepending an id array (the schema signature of each present child)
// ahead of its offset array, since a sparse object's present fields
// cannot be inferred from position alone once a leaf's ancestor can be
// absent. This package owns only the layout; walking the schema tree
// to decide when to open, append to, or close a frame is
// internal/assemble's job.
package record

import "encoding/binary"

// Kind distinguishes the two container shapes a frame can take.
type Kind uint8

const (
	KindObject Kind = iota
	KindArray
)

// frame is one currently-open object or array instance: every append
// accumulates bytes into values and records where that child began (and,
// for an object, which schema signature it is).
type frame struct {
	kind    Kind
	offsets []uint32
	ids     []uint32
	values  []byte
}

// Builder assembles one binary nested record at a time via a stack of
// open frames, mirroring the schema path currently being written.
// Builder is not safe for concurrent use; one Builder is reused across
// consecutive Begin/Close cycles within one assembly pass.
type Builder struct {
	frames []*frame
}

func NewBuilder() *Builder { return &Builder{} }

// Begin starts a new record: a single open root object frame. The
// root is always an object (spec.md section 3's invariant (f)).
func (b *Builder) Begin() {
	b.frames = append(b.frames[:0], &frame{kind: KindObject})
}

// Depth reports how many frames are currently open, the root counting
// as depth 1.
func (b *Builder) Depth() int { return len(b.frames) }

// OpenObject pushes a new object frame as a child of the currently open
// frame.
func (b *Builder) OpenObject() { b.frames = append(b.frames, &frame{kind: KindObject}) }

// OpenArray pushes a new array frame as a child of the currently open
// frame.
func (b *Builder) OpenArray() { b.frames = append(b.frames, &frame{kind: KindArray}) }

// AppendLeaf appends a present leaf's binary value as the next child of
// the currently open frame. sig is the leaf's schema signature,
// recorded in the id array when the open frame is an object (an array
// frame's children are positional and need no id).
func (b *Builder) AppendLeaf(sig uint32, value []byte) {
	f := b.frames[len(b.frames)-1]
	f.offsets = append(f.offsets, uint32(len(f.values)))
	if f.kind == KindObject {
		f.ids = append(f.ids, sig)
	}
	f.values = append(f.values, value...)
}

// Close pops the currently open frame, serialises it, and either
// returns the serialised record (the root frame just closed) or
// appends it as the next child of the new top frame under sig.
func (b *Builder) Close(sig uint32) []byte {
	f := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	encoded := encodeFrame(f)
	if len(b.frames) == 0 {
		return encoded
	}
	parent := b.frames[len(b.frames)-1]
	parent.offsets = append(parent.offsets, uint32(len(parent.values)))
	if parent.kind == KindObject {
		parent.ids = append(parent.ids, sig)
	}
	parent.values = append(parent.values, encoded...)
	return nil
}

// offsetWidth returns the narrowest width (in bytes) able to hold
// maxOffset, the convention info's width flag records.
func offsetWidth(maxOffset uint32) int {
	switch {
	case maxOffset < 1<<8:
		return 1
	case maxOffset < 1<<16:
		return 2
	default:
		return 4
	}
}

func widthCode(width int) uint32 {
	switch width {
	case 1:
		return 0
	case 2:
		return 1
	default:
		return 2
	}
}

func putWidth(dst []byte, v uint32, width int) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(dst, uint16(v))
	default:
		binary.LittleEndian.PutUint32(dst, v)
	}
}

// encodeFrame serialises f as [size|values|(ids)|offset_array|info],
// size included, ready to be appended whole into a parent frame's
// values or returned as a finished record.
func encodeFrame(f *frame) []byte {
	n := len(f.offsets)
	width := offsetWidth(uint32(len(f.values)))

	body := make([]byte, 0, len(f.values)+n*4+n*width+4)
	body = append(body, f.values...)

	if f.kind == KindObject {
		for _, id := range f.ids {
			var idBytes [4]byte
			binary.LittleEndian.PutUint32(idBytes[:], id)
			body = append(body, idBytes[:]...)
		}
	}

	offBytes := make([]byte, width)
	for _, off := range f.offsets {
		putWidth(offBytes, off, width)
		body = append(body, offBytes...)
	}

	info := (uint32(n) & 0x00FFFFFF) | (widthCode(width) << 24)
	var infoBytes [4]byte
	binary.LittleEndian.PutUint32(infoBytes[:], info)
	body = append(body, infoBytes[:]...)

	out := make([]byte, 4, 4+len(body))
	binary.LittleEndian.PutUint32(out, uint32(4+len(body)))
	return append(out, body...)
}
