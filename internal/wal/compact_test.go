package wal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanlalwani007/kvs/internal/record"
)

func appendRecord(t *testing.T, l *Log, idx *Index, rec record.Record) {
	t.Helper()
	enc, err := record.Encode(rec)
	require.NoError(t, err)
	offset, err := l.Append(enc)
	require.NoError(t, err)

	if rec.IsSet() {
		idx.Set(rec.Key, LogPointer{Offset: offset, Size: uint64(len(enc))})
	} else {
		idx.Delete(rec.Key)
	}
}

func TestCompactRewritesOnlyLiveRecords(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenActive(dir)
	require.NoError(t, err)
	defer l.Close()

	idx := NewIndex()
	appendRecord(t, l, idx, record.NewSet("a", "1"))
	appendRecord(t, l, idx, record.NewSet("a", "2")) // supersedes the first "a"
	appendRecord(t, l, idx, record.NewSet("b", "x"))
	appendRecord(t, l, idx, record.NewSet("c", "y"))
	appendRecord(t, l, idx, record.NewRemove("c")) // c no longer indexed

	require.Greater(t, idx.Garbage(), uint64(0))
	oldPath := l.Path()

	require.NoError(t, l.Compact(idx))

	assert.Equal(t, 1, l.ID())
	assert.Equal(t, filepath.Join(dir, "1.log"), l.Path())
	assert.NoFileExists(t, oldPath)
	assert.Zero(t, idx.Garbage())
	assert.Equal(t, 2, idx.Len())

	size, err := l.Size()
	require.NoError(t, err)

	var sum uint64
	for _, key := range idx.SortedKeys() {
		ptr, ok := idx.Get(key)
		require.True(t, ok)
		sum += ptr.Size

		raw, err := l.ReadAt(ptr.Offset, ptr.Size)
		require.NoError(t, err)
		rec, err := record.DecodeOne(raw)
		require.NoError(t, err)
		assert.True(t, rec.IsSet())
	}
	assert.EqualValues(t, size, sum)

	valA, ok := idx.Get("a")
	require.True(t, ok)
	raw, err := l.ReadAt(valA.Offset, valA.Size)
	require.NoError(t, err)
	recA, err := record.DecodeOne(raw)
	require.NoError(t, err)
	assert.Equal(t, "2", recA.Value)

	_, ok = idx.Get("c")
	assert.False(t, ok)
}

func TestCompactFailureLeavesIndexAndLogUntouched(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenActive(dir)
	require.NoError(t, err)
	defer l.Close()

	idx := NewIndex()
	appendRecord(t, l, idx, record.NewSet("a", "1"))

	// Pre-create the final compaction target's tmp file so beginCompaction's
	// O_EXCL create fails, simulating a step-1 compaction failure.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.log.tmp"), nil, 0o644))

	err = l.Compact(idx)
	require.Error(t, err)

	assert.Equal(t, 0, l.ID())
	ptr, ok := idx.Get("a")
	require.True(t, ok)
	assert.EqualValues(t, 0, ptr.Offset)
}
