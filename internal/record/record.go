// Package record defines the Set/Remove command record and its
// self-delimiting JSON encoding: the unit of append and replay described
// in the store's on-disk log format.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/amanlalwani007/kvs/internal/storeerr"
)

const (
	opSet    = "set"
	opRemove = "rm"
)

// Record is one encoded command: a Set carries both Key and Value, a
// Remove carries only Key. Value is omitted from the wire form for a
// Remove and for a Set whose value is the empty string, matching the
// original enum's shape where the Rm variant has no value field at all.
type Record struct {
	Op    string `json:"op"`
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// NewSet builds a Set record.
func NewSet(key, value string) Record {
	return Record{Op: opSet, Key: key, Value: value}
}

// NewRemove builds a Remove record.
func NewRemove(key string) Record {
	return Record{Op: opRemove, Key: key}
}

// IsSet reports whether r is a Set record.
func (r Record) IsSet() bool { return r.Op == opSet }

// IsRemove reports whether r is a Remove record.
func (r Record) IsRemove() bool { return r.Op == opRemove }

// Encode returns the canonical JSON encoding of r. Encoding is canonical
// because json.Marshal of a fixed struct always produces the same bytes
// for the same field values, which is what lets compaction re-encode a
// record without changing its size.
func Encode(r Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, storeerr.Encoding.Wrap(err)
	}
	return b, nil
}

// DecodeOne decodes exactly one record from b, failing if any bytes of b
// remain unconsumed afterward. It is used to decode a record whose exact
// byte range is already known from a LogPointer.
func DecodeOne(b []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return Record{}, storeerr.Decoding.Wrap(err)
	}
	if consumed := dec.InputOffset(); consumed != int64(len(b)) {
		return Record{}, storeerr.Decoding.Wrap(fmt.Errorf("record: %d trailing bytes after decode", int64(len(b))-consumed))
	}
	if !rec.IsSet() && !rec.IsRemove() {
		return Record{}, storeerr.Decoding.Wrap(fmt.Errorf("record: unknown op %q", rec.Op))
	}
	return rec, nil
}
