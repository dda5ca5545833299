package wal

import "sort"

// LogPointer locates one record in the active log: the byte range
// [Offset, Offset+Size) to read and decode to recover it.
type LogPointer struct {
	Offset uint64
	Size   uint64
}

// Index is the in-memory key -> LogPointer map, the store's only
// acceleration structure. It also owns the garbage counter, since every
// mutation that can create garbage (a superseded Set, a Remove of an
// indexed key) happens exactly where the index itself is mutated, and a
// parallel sorted key slice, which buys deterministic iteration order
// for compaction without requiring a CompactedMap/BTreeMap type.
type Index struct {
	ptrs    map[string]LogPointer
	keys    []string
	garbage uint64
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{ptrs: make(map[string]LogPointer)}
}

// Get returns key's current pointer, if any.
func (x *Index) Get(key string) (LogPointer, bool) {
	ptr, ok := x.ptrs[key]
	return ptr, ok
}

// Len returns the number of indexed keys.
func (x *Index) Len() int { return len(x.ptrs) }

// Garbage returns the total size of records in the active log that are
// no longer reachable from the index.
func (x *Index) Garbage() uint64 { return x.garbage }

// ResetGarbage zeroes the garbage counter; called once a compaction has
// rewritten the log to contain only reachable records.
func (x *Index) ResetGarbage() { x.garbage = 0 }

// Set installs ptr as key's current pointer. If key already had a
// pointer, its size is added to the garbage counter, since the old
// record it identified is now unreachable.
func (x *Index) Set(key string, ptr LogPointer) {
	if old, ok := x.ptrs[key]; ok {
		x.garbage += old.Size
	} else {
		x.insertKey(key)
	}
	x.ptrs[key] = ptr
}

// Delete removes key's pointer, if any, adding its size to the garbage
// counter. It reports whether key was present.
func (x *Index) Delete(key string) (LogPointer, bool) {
	old, ok := x.ptrs[key]
	if !ok {
		return LogPointer{}, false
	}
	delete(x.ptrs, key)
	x.removeKey(key)
	x.garbage += old.Size
	return old, true
}

// UpdatePointer rewrites key's pointer without touching the garbage
// counter. Compaction alone uses this: it moves live records to new
// offsets in a new file without creating any new garbage.
func (x *Index) UpdatePointer(key string, ptr LogPointer) {
	x.ptrs[key] = ptr
}

// SortedKeys returns a snapshot of the indexed keys in ascending order.
func (x *Index) SortedKeys() []string {
	out := make([]string, len(x.keys))
	copy(out, x.keys)
	return out
}

func (x *Index) insertKey(key string) {
	i := sort.SearchStrings(x.keys, key)
	x.keys = append(x.keys, "")
	copy(x.keys[i+1:], x.keys[i:])
	x.keys[i] = key
}

func (x *Index) removeKey(key string) {
	i := sort.SearchStrings(x.keys, key)
	if i < len(x.keys) && x.keys[i] == key {
		x.keys = append(x.keys[:i], x.keys[i+1:]...)
	}
}
