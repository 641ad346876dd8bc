package assemble

import (
	"encoding/binary"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"shred/internal/colfile"
	"shred/internal/collection"
	"shred/internal/column"
	"shred/internal/jsonfield"
	"shred/internal/schema"
	"shred/internal/shredder"
	"shred/internal/types"
)

// decodedFrame mirrors internal/record's object-frame layout well
// enough to read an Assembler's output back out in tests. Every frame
// this package ever builds is an object (moveDown only ever calls
// OpenObject), so this decoder does not need an array variant.
type decodedFrame struct {
	ids     []uint32
	offsets []uint32
	values  []byte
}

func decodeObjectFrame(t *testing.T, buf []byte) decodedFrame {
	t.Helper()
	require.GreaterOrEqual(t, len(buf), 8)
	size := binary.LittleEndian.Uint32(buf[:4])
	require.Equal(t, int(size), len(buf))

	info := binary.LittleEndian.Uint32(buf[len(buf)-4:])
	n := int(info & 0x00FFFFFF)
	width := map[uint32]int{0: 1, 1: 2, 2: 4}[info>>24]
	require.NotZero(t, width)

	cursor := len(buf) - 4
	offsets := make([]uint32, n)
	for i := n - 1; i >= 0; i-- {
		cursor -= width
		switch width {
		case 1:
			offsets[i] = uint32(buf[cursor])
		case 2:
			offsets[i] = uint32(binary.LittleEndian.Uint16(buf[cursor : cursor+2]))
		default:
			offsets[i] = binary.LittleEndian.Uint32(buf[cursor : cursor+4])
		}
	}

	ids := make([]uint32, n)
	for i := n - 1; i >= 0; i-- {
		cursor -= 4
		ids[i] = binary.LittleEndian.Uint32(buf[cursor : cursor+4])
	}

	return decodedFrame{ids: ids, offsets: offsets, values: buf[4:cursor]}
}

// childBytes returns the i-th child's raw byte range: either a leaf
// value or a nested frame's full [size|...] encoding.
func (df decodedFrame) childBytes(i int) []byte {
	start := df.offsets[i]
	end := uint32(len(df.values))
	if i+1 < len(df.offsets) {
		end = df.offsets[i+1]
	}
	return df.values[start:end]
}

// field looks up the first child under sig, returning its raw bytes and
// whether it was present at all.
func (df decodedFrame) field(sig schema.Signature) ([]byte, bool) {
	for i, id := range df.ids {
		if schema.Signature(id) == sig {
			return df.childBytes(i), true
		}
	}
	return nil, false
}

// fields returns every child under sig, for a repeated leaf or object.
func (df decodedFrame) fields(sig schema.Signature) [][]byte {
	var out [][]byte
	for i, id := range df.ids {
		if schema.Signature(id) == sig {
			out = append(out, df.childBytes(i))
		}
	}
	return out
}

func assemblerTestTemplate() collection.Template {
	return collection.Template{
		RecordCapacity:    64,
		ItemCapacityGuess: 64,
		Codec:             colfile.CodecS2,
	}
}

// buildAssembler shreds records into cw's tree and returns an Assembler
// ready to reconstruct any of them, plus the tree itself (for looking up
// signatures and value types).
func buildAssembler(t *testing.T, records []string) (*schema.Tree, *Assembler) {
	t.Helper()
	dir := t.TempDir()
	tree := schema.New()
	cw := collection.NewWriter(tree, dir, assemblerTestTemplate())

	for _, raw := range records {
		root, err := jsonfield.Parse([]byte(raw))
		require.NoError(t, err)
		require.NoError(t, shredder.ShredRecord(cw, root))
	}
	require.NoError(t, cw.Close())

	var leaves []schema.Signature
	for sig := schema.Signature(0); int(sig) < tree.NodeCount(); sig++ {
		if sig == schema.RootSignature {
			continue
		}
		if tree.Node(sig).IsLeaf() {
			leaves = append(leaves, sig)
		}
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i] < leaves[j] })

	paths := make([]schema.Path, len(leaves))
	sources := make([]ColumnSource, len(leaves))
	for i, leaf := range leaves {
		paths[i] = tree.GetPath(leaf)
		cfg, err := cw.ConfigFor(leaf)
		require.NoError(t, err)
		dataPath, infoPath := cw.ColumnPaths(leaf)
		r, err := column.Open(dataPath, infoPath, cfg)
		require.NoError(t, err)
		t.Cleanup(func() { r.Close() })
		sources[i] = ColumnSource{Path: paths[i], Reader: r}
	}

	table := Build(tree, paths)
	tracker := NewTracker(sources)
	return tree, NewAssembler(tree, table, tracker)
}

func mustFindLeaf(t *testing.T, tr *schema.Tree, name string, parent schema.Signature) schema.Signature {
	t.Helper()
	node := tr.Node(parent)
	for _, child := range node.Children {
		if tr.Node(child).Name == name {
			return child
		}
	}
	t.Fatalf("no schema child named %q under parent %d", name, parent)
	return 0
}

func textOf(t *testing.T, tr *schema.Tree, sig schema.Signature, raw []byte) string {
	t.Helper()
	dt, err := types.Get(tr.Node(sig).TypeID)
	require.NoError(t, err)
	text, err := dt.ToText(raw)
	require.NoError(t, err)
	return text
}

// TestAssembleThreeRecords reassembles the same three records
// internal/shredder's TestShredThreeRecords shreds, and checks the
// rebuilt binary layout against the original JSON field by field: a
// flat scalar, a nested object, a repeated scalar array, and a field
// that only appears on the last record.
func TestAssembleThreeRecords(t *testing.T) {
	records := []string{
		`{"a":1,"b":{"c":"x"},"tags":["t1","t2"]}`,
		`{"a":2,"tags":["t3"]}`,
		`{"a":3,"b":{"c":"y"},"d":true}`,
	}
	tree, asm := buildAssembler(t, records)

	aSig := mustFindLeaf(t, tree, "a", schema.RootSignature)
	bSig := mustFindLeaf(t, tree, "b", schema.RootSignature)
	cSig := mustFindLeaf(t, tree, "c", bSig)
	tagsSig := mustFindLeaf(t, tree, "tags", schema.RootSignature)
	dSig := mustFindLeaf(t, tree, "d", schema.RootSignature)

	out, err := asm.AssembleRecord(0)
	require.NoError(t, err)
	root := decodeObjectFrame(t, out)

	raw, ok := root.field(aSig)
	require.True(t, ok)
	require.Equal(t, "1", textOf(t, tree, aSig, raw))

	bRaw, ok := root.field(bSig)
	require.True(t, ok)
	bFrame := decodeObjectFrame(t, bRaw)
	cRaw, ok := bFrame.field(cSig)
	require.True(t, ok)
	require.Equal(t, `"x"`, textOf(t, tree, cSig, cRaw))

	tagVals := root.fields(tagsSig)
	require.Len(t, tagVals, 2)
	require.Equal(t, `"t1"`, textOf(t, tree, tagsSig, tagVals[0]))
	require.Equal(t, `"t2"`, textOf(t, tree, tagsSig, tagVals[1]))

	_, ok = root.field(dSig)
	require.False(t, ok)

	out, err = asm.AssembleRecord(1)
	require.NoError(t, err)
	root = decodeObjectFrame(t, out)

	raw, ok = root.field(aSig)
	require.True(t, ok)
	require.Equal(t, "2", textOf(t, tree, aSig, raw))

	_, ok = root.field(bSig)
	require.False(t, ok)

	tagVals = root.fields(tagsSig)
	require.Len(t, tagVals, 1)
	require.Equal(t, `"t3"`, textOf(t, tree, tagsSig, tagVals[0]))

	out, err = asm.AssembleRecord(2)
	require.NoError(t, err)
	root = decodeObjectFrame(t, out)

	raw, ok = root.field(aSig)
	require.True(t, ok)
	require.Equal(t, "3", textOf(t, tree, aSig, raw))

	bRaw, ok = root.field(bSig)
	require.True(t, ok)
	bFrame = decodeObjectFrame(t, bRaw)
	cRaw, ok = bFrame.field(cSig)
	require.True(t, ok)
	require.Equal(t, `"y"`, textOf(t, tree, cSig, cRaw))

	require.Empty(t, root.fields(tagsSig))

	dRaw, ok := root.field(dSig)
	require.True(t, ok)
	require.Equal(t, "true", textOf(t, tree, dSig, dRaw))
}
