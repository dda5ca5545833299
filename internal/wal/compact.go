package wal

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amanlalwani007/kvs/internal/record"
	"github.com/amanlalwani007/kvs/internal/storeerr"
)

// compactionWriter accumulates the rewritten log in a temporary file
// that is only renamed into place once every live record has been
// copied over successfully, so a crash mid-compaction never leaves a
// half-written file at a name that could be mistaken for a real log.
type compactionWriter struct {
	tmpPath   string
	finalPath string
	f         *os.File
	bw        *bufio.Writer
	offset    uint64
}

func beginCompaction(dir string, id int) (*compactionWriter, error) {
	final := filepath.Join(dir, fmt.Sprintf("%d%s", id, Ext))
	tmp := final + tmpSuffix
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return &compactionWriter{tmpPath: tmp, finalPath: final, f: f, bw: bufio.NewWriter(f)}, nil
}

func (c *compactionWriter) append(b []byte) (uint64, error) {
	offset := c.offset
	n, err := c.bw.Write(b)
	if err != nil {
		return 0, err
	}
	c.offset += uint64(n)
	return offset, nil
}

func (c *compactionWriter) finish() (string, error) {
	if err := c.bw.Flush(); err != nil {
		return "", err
	}
	if err := c.f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(c.tmpPath, c.finalPath); err != nil {
		return "", err
	}
	return c.finalPath, nil
}

func (c *compactionWriter) abort() {
	_ = c.f.Close()
	_ = os.Remove(c.tmpPath)
}

// Compact rewrites the active log to contain exactly one live Set
// record per indexed key, in idx's sorted key order, swaps l to point at
// the new file, and deletes the old one. If it fails before the rename
// into place, l and idx are untouched and still satisfy the store's
// invariants: the caller may simply try again later once more garbage
// has accumulated, or leave the engine running on the unrewritten log.
func (l *Log) Compact(idx *Index) error {
	newID := l.id + 1
	cw, err := beginCompaction(l.dir, newID)
	if err != nil {
		return storeerr.Io.Wrap(err)
	}

	newPtrs := make(map[string]LogPointer, idx.Len())
	for _, key := range idx.SortedKeys() {
		ptr, ok := idx.Get(key)
		if !ok {
			continue
		}

		raw, err := l.ReadAt(ptr.Offset, ptr.Size)
		if err != nil {
			cw.abort()
			return storeerr.Io.Wrap(err)
		}

		rec, err := record.DecodeOne(raw)
		if err != nil {
			cw.abort()
			return err
		}
		if !rec.IsSet() {
			cw.abort()
			return storeerr.Decoding.Wrap(fmt.Errorf("compact: indexed record for %q is not a Set", key))
		}

		enc, err := record.Encode(rec)
		if err != nil {
			cw.abort()
			return err
		}

		offset, err := cw.append(enc)
		if err != nil {
			cw.abort()
			return storeerr.Io.Wrap(err)
		}
		newPtrs[key] = LogPointer{Offset: offset, Size: uint64(len(enc))}
	}

	finalPath, err := cw.finish()
	if err != nil {
		cw.abort()
		return storeerr.Io.Wrap(err)
	}

	oldPath := l.path
	if err := l.reopen(finalPath, newID); err != nil {
		return storeerr.Io.Wrap(err)
	}
	for key, ptr := range newPtrs {
		idx.UpdatePointer(key, ptr)
	}
	idx.ResetGarbage()

	// The swap has already happened; a failure here just leaves the
	// stale file behind for the caller to notice and clean up later.
	if err := os.Remove(oldPath); err != nil {
		return storeerr.Io.Wrap(err)
	}
	return nil
}
