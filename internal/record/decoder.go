package record

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/amanlalwani007/kvs/internal/storeerr"
)

// Decoder streams records out of a concatenated-JSON-objects log: records
// are written back to back with no header and no separator, so the only
// way to find the boundary between two records is to ask the decoder how
// many bytes of the stream it has consumed.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder wraps r for streaming record decoding.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

// Next decodes the next record and reports the byte range [start, end) it
// occupied in the stream. A clean end of stream is reported as io.EOF;
// any other error means the bytes at [start, ...) are corrupt or
// truncated and replay must stop, whether from a decode error or from
// partial trailing bytes.
func (d *Decoder) Next() (rec Record, start, end int64, err error) {
	start = d.dec.InputOffset()
	if err = d.dec.Decode(&rec); err != nil {
		if err == io.EOF {
			return Record{}, start, start, err
		}
		return Record{}, start, start, storeerr.Decoding.Wrap(err)
	}
	if !rec.IsSet() && !rec.IsRemove() {
		return Record{}, start, start, storeerr.Decoding.Wrap(fmt.Errorf("record: unknown op %q", rec.Op))
	}
	end = d.dec.InputOffset()
	return rec, start, end, nil
}
