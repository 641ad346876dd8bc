package column

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shred/internal/colfile"
	"shred/internal/types"
)

func testConfig(t *testing.T) Config {
	dt, err := types.Get(types.Int32)
	require.NoError(t, err)
	return Config{
		Type:              dt,
		PathDepth:         1,
		RepBits:           1,
		DefBits:           1,
		RecordCapacity:    2,
		ItemCapacityGuess: 16,
		Codec:             colfile.CodecS2,
	}
}

func writeRecords(t *testing.T, w *Writer, values []string) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, w.WriteText(0, 1, v))
	}
}

func TestWriterRotatesCABsAtRecordCapacity(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	dataPath := filepath.Join(dir, "c.data")
	infoPath := filepath.Join(dir, "c.info")

	w, err := Create(dataPath, infoPath, cfg)
	require.NoError(t, err)

	// capacity 2: 5 single-item records should span 3 CABs (2+2+1)
	writeRecords(t, w, []string{"1", "2", "3", "4", "5"})
	require.NoError(t, w.Close())

	r, err := Open(dataPath, infoPath, cfg)
	require.NoError(t, err)
	defer r.Close()

	assert.GreaterOrEqual(t, r.descs.Count(), 3)
	assert.Equal(t, uint64(5), r.RecordCount())

	for i, want := range []string{"1", "2", "3", "4", "5"} {
		require.NoError(t, r.PrepareToReadRecord(uint64(i)))
		item, ok := r.ReadItem()
		require.True(t, ok)
		text, err := cfg.Type.ToText(item.Value)
		require.NoError(t, err)
		assert.Equal(t, want, text)
	}
}

func TestReaderRandomAccessOutOfOrder(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	dataPath := filepath.Join(dir, "c.data")
	infoPath := filepath.Join(dir, "c.info")

	w, err := Create(dataPath, infoPath, cfg)
	require.NoError(t, err)
	writeRecords(t, w, []string{"10", "20", "30", "40"})
	require.NoError(t, w.Close())

	r, err := Open(dataPath, infoPath, cfg)
	require.NoError(t, err)
	defer r.Close()

	order := []int{3, 0, 2, 1}
	want := []string{"40", "10", "30", "20"}
	for i, recIdx := range order {
		require.NoError(t, r.PrepareToReadRecord(uint64(recIdx)))
		item, ok := r.ReadItem()
		require.True(t, ok)
		text, err := cfg.Type.ToText(item.Value)
		require.NoError(t, err)
		assert.Equal(t, want[i], text)
	}
}

func TestOpenAppendReplaysTailCABAndAcceptsMoreWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.RecordCapacity = 100 // keep everything in one CAB across the reopen
	dataPath := filepath.Join(dir, "c.data")
	infoPath := filepath.Join(dir, "c.info")

	w, err := Create(dataPath, infoPath, cfg)
	require.NoError(t, err)
	writeRecords(t, w, []string{"1", "2"})
	require.NoError(t, w.Close())

	w2, err := OpenAppend(dataPath, infoPath, cfg)
	require.NoError(t, err)
	writeRecords(t, w2, []string{"3", "4"})
	require.NoError(t, w2.Close())

	r, err := Open(dataPath, infoPath, cfg)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, uint64(4), r.RecordCount())
	for i, want := range []string{"1", "2", "3", "4"} {
		require.NoError(t, r.PrepareToReadRecord(uint64(i)))
		item, ok := r.ReadItem()
		require.True(t, ok)
		text, err := cfg.Type.ToText(item.Value)
		require.NoError(t, err)
		assert.Equal(t, want, text)
	}
}
