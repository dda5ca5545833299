package wal

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenActiveCreatesCanonicalZeroLog(t *testing.T) {
	dir := t.TempDir()

	l, err := OpenActive(dir)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, 0, l.ID())
	assert.Equal(t, filepath.Join(dir, "0.log"), l.Path())
	assert.FileExists(t, l.Path())
}

func TestOpenActivePicksHighestNumberedLog(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0.log", "3.log", "1.log"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	// A partial compaction's tmp file and an unrelated file must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "4.log.tmp"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	l, err := OpenActive(dir)
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, 3, l.ID())
	assert.Equal(t, filepath.Join(dir, "3.log"), l.Path())
}

func TestCleanPartialCompactionsRemovesOnlyTmpLogs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.log"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.log.tmp"), []byte("y"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt.tmp"), []byte("z"), 0o644))

	require.NoError(t, CleanPartialCompactions(dir))

	assert.FileExists(t, filepath.Join(dir, "0.log"))
	assert.NoFileExists(t, filepath.Join(dir, "1.log.tmp"))
	assert.FileExists(t, filepath.Join(dir, "notes.txt.tmp"))
}

func TestAppendAndReadAt(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenActive(dir)
	require.NoError(t, err)
	defer l.Close()

	off1, err := l.Append([]byte("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, off1)

	off2, err := l.Append([]byte("world!"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, off2)

	got, err := l.ReadAt(off2, 6)
	require.NoError(t, err)
	assert.Equal(t, "world!", string(got))

	size, err := l.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 11, size)
}

func TestReaderStreamsFromStart(t *testing.T) {
	dir := t.TempDir()
	l, err := OpenActive(dir)
	require.NoError(t, err)
	defer l.Close()

	_, err = l.Append([]byte("abc"))
	require.NoError(t, err)

	r, err := l.Reader()
	require.NoError(t, err)
	defer r.Close()

	b, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
}
