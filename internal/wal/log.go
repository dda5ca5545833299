// Package wal owns the on-disk side of the store: selecting and naming
// log files in a directory, appending to and reading from the active
// log, and rewriting it during compaction.
package wal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Ext is the log-identifying file extension. Filenames follow
// "<integer>.log"; the integer increases across compactions.
const Ext = ".log"

const tmpSuffix = ".tmp"

// Log is the active log file: one append-only handle positioned at the
// end for writes, and one read-only handle used for bounded reads at
// arbitrary offsets. Keeping both open avoids reopening a file handle on
// every Get, at the cost of needing to swap both on compaction.
type Log struct {
	dir     string
	path    string
	id      int
	appendF *os.File
	readF   *os.File
}

// CleanPartialCompactions removes any "<n>.log.tmp" files left behind by
// a compaction that crashed before it could rename into place. Not
// required for correctness: a .tmp file never has the .log extension
// and so is never chosen as the active log, but this keeps the directory
// tidy across opens.
func CleanPartialCompactions(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), Ext+tmpSuffix) {
			_ = os.Remove(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}

// OpenActive scans dir for existing *.log files and opens the
// highest-numbered one for determinism across repeated opens, creating
// 0.log if none exists.
func OpenActive(dir string) (*Log, error) {
	path, id, err := selectActiveLog(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = filepath.Join(dir, fmt.Sprintf("0%s", Ext))
		id = 0
	}
	return openAt(dir, path, id)
}

func openAt(dir, path string, id int) (*Log, error) {
	appendF, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	readF, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		_ = appendF.Close()
		return nil, err
	}
	return &Log{dir: dir, path: path, id: id, appendF: appendF, readF: readF}, nil
}

func selectActiveLog(dir string) (path string, id int, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", 0, err
	}
	best := -1
	var bestName string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, Ext) {
			continue
		}
		n, ok := parseID(strings.TrimSuffix(name, Ext))
		if !ok {
			continue
		}
		if n > best {
			best = n
			bestName = name
		}
	}
	if best < 0 {
		return "", 0, nil
	}
	return filepath.Join(dir, bestName), best, nil
}

func parseID(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Path returns the active log's current file path.
func (l *Log) Path() string { return l.path }

// ID returns the active log's integer suffix.
func (l *Log) ID() int { return l.id }

// Append writes b as a single write call to the end of the active log
// and returns the offset it was written at.
func (l *Log) Append(b []byte) (uint64, error) {
	info, err := l.appendF.Stat()
	if err != nil {
		return 0, err
	}
	offset := uint64(info.Size())
	if _, err := l.appendF.Write(b); err != nil {
		return 0, err
	}
	return offset, nil
}

// ReadAt reads exactly size bytes starting at offset from the active
// log, without mutating it.
func (l *Log) ReadAt(offset, size uint64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := l.readF.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}
	return buf, nil
}

// Reader opens an independent handle over the full active log from the
// start, for replay.
func (l *Log) Reader() (io.ReadCloser, error) {
	return os.Open(l.path)
}

// Size returns the current size of the active log file.
func (l *Log) Size() (int64, error) {
	info, err := l.appendF.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close releases both of the active log's file handles.
func (l *Log) Close() error {
	err1 := l.appendF.Close()
	err2 := l.readF.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// reopen points l at a newly-compacted file, closing its old handles.
func (l *Log) reopen(path string, id int) error {
	next, err := openAt(l.dir, path, id)
	if err != nil {
		return err
	}
	_ = l.Close()
	*l = *next
	return nil
}
