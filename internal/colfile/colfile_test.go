package colfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shred/internal/cab"
	"shred/internal/types"
)

func TestDescriptorEncodeDecodeRoundTrip(t *testing.T) {
	d := Descriptor{
		StorageSize: 128,
		DiskSize:    100,
		MemSize:     140,
		Kind:        cab.KindCrucial,
		CodecID:     uint8(CodecS2),
		FileOffset:  4096,
		Info: cab.ItemInfo{
			BeginRecordID: 10,
			RecordCount:   3,
			ItemCount:     7,
			NullCount:     1,
			TrivialCount:  0,
		},
		MinPresent: true,
		MaxPresent: true,
	}
	d.Min[0] = 1
	d.Max[0] = 9

	enc := encodeDescriptor(d)
	assert.Len(t, enc, descriptorSize)

	got, err := decodeDescriptor(enc)
	require.NoError(t, err)
	assert.Equal(t, d, got)
}

func TestFooterEncodeDecodeRoundTrip(t *testing.T) {
	f := Footer{
		MinPresent:         true,
		MaxPresent:         true,
		FirstValidRecordID: 5,
		TotalRecords:       42,
		UsedCount:          3,
	}
	f.Min[0] = 2

	enc := encodeFooter(f)
	assert.Len(t, enc, footerSize)

	got, err := decodeFooter(enc)
	require.NoError(t, err)
	assert.Equal(t, f, got)
}

func TestBufferWriteThenReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	infoPath := filepath.Join(dir, "col.info")

	w := OpenWrite(infoPath, 0)
	idx := w.Append(Descriptor{Info: cab.ItemInfo{RecordCount: 5}, Kind: cab.KindCrucial})
	assert.Equal(t, 0, idx)
	w.Append(Descriptor{Info: cab.ItemInfo{RecordCount: 7}, Kind: cab.KindTrivial})
	require.NoError(t, w.Close())

	r, err := OpenRead(infoPath)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Count())
	assert.Equal(t, uint64(12), r.Footer().TotalRecords)
	assert.Equal(t, cab.KindTrivial, r.Get(1).Kind)
}

func TestBufferAppendModeReplacesTail(t *testing.T) {
	dir := t.TempDir()
	infoPath := filepath.Join(dir, "col.info")

	w := OpenWrite(infoPath, 0)
	w.Append(Descriptor{Info: cab.ItemInfo{RecordCount: 3}})
	require.NoError(t, w.Close())

	a, err := OpenAppend(infoPath)
	require.NoError(t, err)
	require.NoError(t, a.ReplaceTail(Descriptor{Info: cab.ItemInfo{RecordCount: 6}}))
	last, ok := a.Last()
	require.True(t, ok)
	assert.Equal(t, uint64(6), last.Info.RecordCount)
	require.NoError(t, a.Close())

	r, err := OpenRead(infoPath)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), r.Footer().TotalRecords)
}

func TestLayouterFlushAndLoadCrucialCAB(t *testing.T) {
	dt, err := types.Get(types.Int32)
	require.NoError(t, err)

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "col.data")
	infoPath := filepath.Join(dir, "col.info")

	f, descs, err := CreateColumnFile(dataPath, infoPath)
	require.NoError(t, err)
	defer f.Close()

	lay := NewLayouter(f, CodecS2, 0)

	c := cab.New(dt, 2, 2, 1, 10, 32)
	require.NoError(t, c.InitForWrite(0))
	for _, v := range []string{"10", "20", "30"} {
		ok, err := c.WriteText(0, 1, v)
		require.NoError(t, err)
		require.True(t, ok)
	}

	d, err := lay.Flush(false, c)
	require.NoError(t, err)
	descs.Append(d)
	require.NoError(t, descs.Close())
	assert.Greater(t, d.DiskSize, uint64(0))

	// reopen everything fresh, as a reader process would
	rf, err := os.Open(dataPath)
	require.NoError(t, err)
	defer rf.Close()

	rbuf, err := OpenRead(infoPath)
	require.NoError(t, err)
	require.Equal(t, 1, rbuf.Count())

	rlay := NewLayouter(rf, CodecS2, 0)
	rc := cab.New(dt, 2, 2, 1, 10, 32)
	require.NoError(t, rlay.Load(rbuf.Get(0), rc))

	for i, want := range []string{"10", "20", "30"} {
		item, ok := rc.Read(uint64(i))
		require.True(t, ok)
		text, err := dt.ToText(item.Value)
		require.NoError(t, err)
		assert.Equal(t, want, text)
	}
}

func TestLayouterFlushTrivialCABHasNoDiskBytes(t *testing.T) {
	dt, err := types.Get(types.Int32)
	require.NoError(t, err)

	dir := t.TempDir()
	f, descs, err := CreateColumnFile(filepath.Join(dir, "col.data"), filepath.Join(dir, "col.info"))
	require.NoError(t, err)
	defer f.Close()

	lay := NewLayouter(f, CodecNone, 0)
	c := cab.New(dt, 1, 1, 1, 10, 32)
	require.NoError(t, c.InitForWrite(0))
	for i := 0; i < 3; i++ {
		ok, err := c.WriteNull(0, 0)
		require.NoError(t, err)
		require.True(t, ok)
	}

	d, err := lay.Flush(false, c)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), d.DiskSize)
	assert.Equal(t, cab.KindTrivial, d.Kind)
	descs.Append(d)
	require.NoError(t, descs.Close())

	rc := cab.New(dt, 1, 1, 1, 10, 32)
	require.NoError(t, lay.Load(d, rc))
	item, ok := rc.Read(0)
	require.True(t, ok)
	assert.Equal(t, uint64(0), item.Rep)
	assert.Equal(t, uint64(0), item.Def)
}

func TestPadToAlignment(t *testing.T) {
	assert.Equal(t, []byte{1, 2, 3}, padTo([]byte{1, 2, 3}, 0))
	assert.Len(t, padTo([]byte{1, 2, 3}, 4), 4)
	assert.Len(t, padTo([]byte{1, 2, 3, 4}, 4), 4)
}
