package shredder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shred/internal/colfile"
	"shred/internal/collection"
	"shred/internal/column"
	"shred/internal/jsonfield"
	"shred/internal/schema"
)

func testTemplate() collection.Template {
	return collection.Template{
		RecordCapacity:    64,
		ItemCapacityGuess: 64,
		Codec:             colfile.CodecS2,
	}
}

// readAllText reads every record of sig's column back to its text form,
// using the exact config and file paths the collection writer created it
// with.
func readAllText(t *testing.T, cw *collection.Writer, sig schema.Signature) []string {
	t.Helper()
	cfg, err := cw.ConfigFor(sig)
	require.NoError(t, err)
	dataPath, infoPath := cw.ColumnPaths(sig)
	r, err := column.Open(dataPath, infoPath, cfg)
	require.NoError(t, err)
	defer r.Close()

	n := r.RecordCount()
	out := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		require.NoError(t, r.PrepareToReadRecord(i))
		item, ok := r.ReadItem()
		require.True(t, ok)
		if item.Value == nil {
			out = append(out, "<null>")
			continue
		}
		text, err := cfg.Type.ToText(item.Value)
		require.NoError(t, err)
		out = append(out, text)
	}
	return out
}

// readGroupedText reads every item of sig's column, grouped by the
// record it belongs to (a repeated leaf may emit more than one item per
// record). It scans once from the very first item rather than calling
// PrepareToReadRecord per record, using each item's rep value to detect
// where one record's items end and the next begin.
func readGroupedText(t *testing.T, cw *collection.Writer, sig schema.Signature) [][]string {
	t.Helper()
	cfg, err := cw.ConfigFor(sig)
	require.NoError(t, err)
	dataPath, infoPath := cw.ColumnPaths(sig)
	r, err := column.Open(dataPath, infoPath, cfg)
	require.NoError(t, err)
	defer r.Close()

	n := r.RecordCount()
	if n == 0 {
		return nil
	}
	require.NoError(t, r.PrepareToReadRecord(0))

	toText := func(value []byte) string {
		if value == nil {
			return "<null>"
		}
		text, err := cfg.Type.ToText(value)
		require.NoError(t, err)
		return text
	}

	item, ok := r.ReadItem()
	require.True(t, ok)

	groups := make([][]string, 0, n)
	for len(groups) < int(n) {
		group := []string{toText(item.Value)}
		for {
			next, ok := r.ReadItem()
			if !ok {
				item = next
				break
			}
			if next.Rep == 0 {
				item = next
				break
			}
			group = append(group, toText(next.Value))
		}
		groups = append(groups, group)
	}
	return groups
}

// TestShredThreeRecords walks three records through the shredder: a
// homogeneous array, a nested object, a null, and a field ("d") that
// only appears on the third record, after two records have already
// completed — exercising the collection writer's alignment backfill.
func TestShredThreeRecords(t *testing.T) {
	dir := t.TempDir()
	tree := schema.New()
	cw := collection.NewWriter(tree, dir, testTemplate())

	records := []string{
		`{"a":1,"b":{"c":"x"},"tags":["t1","t2"]}`,
		`{"a":2,"tags":["t3"]}`,
		`{"a":3,"b":{"c":"y"},"d":true}`,
	}

	for _, raw := range records {
		root, err := jsonfield.Parse([]byte(raw))
		require.NoError(t, err)
		require.NoError(t, ShredRecord(cw, root))
	}
	require.NoError(t, cw.Close())

	tr := cw.Tree()

	aSig := mustFind(t, tr, "a", schema.RootSignature)
	assert.Equal(t, []string{"1", "2", "3"}, readAllText(t, cw, aSig))

	bSig := mustFind(t, tr, "b", schema.RootSignature)
	cSig := mustFind(t, tr, "c", bSig)
	assert.Equal(t, []string{`"x"`, "<null>", `"y"`}, readAllText(t, cw, cSig))

	tagsSig := mustFind(t, tr, "tags", schema.RootSignature)
	tagsGroups := readGroupedText(t, cw, tagsSig)
	require.Len(t, tagsGroups, 3)
	assert.Equal(t, []string{`"t1"`, `"t2"`}, tagsGroups[0])
	assert.Equal(t, []string{`"t3"`}, tagsGroups[1])
	assert.Equal(t, []string{"<null>"}, tagsGroups[2])

	dSig := mustFind(t, tr, "d", schema.RootSignature)
	dVals := readAllText(t, cw, dSig)
	require.Len(t, dVals, 3)
	assert.Equal(t, "<null>", dVals[0])
	assert.Equal(t, "<null>", dVals[1])
	assert.Equal(t, "true", dVals[2])
}

// mustFind locates the first schema child named name under parent,
// regardless of its (type, category) — test-only convenience since the
// production FindNode signature requires matching them too.
func mustFind(t *testing.T, tr *schema.Tree, name string, parent schema.Signature) schema.Signature {
	t.Helper()
	node := tr.Node(parent)
	for _, childSig := range node.Children {
		if tr.Node(childSig).Name == name {
			return childSig
		}
	}
	t.Fatalf("no schema child named %q under parent %d", name, parent)
	return 0
}
