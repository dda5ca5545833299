// Package storeerr defines the error taxonomy at the store's boundary:
// Io, Encoding, Decoding, and NotFound. Every error the engine returns
// belongs to exactly one of these classes.
package storeerr

import (
	"errors"
	"fmt"

	"github.com/zeebo/errs"
)

var (
	// Io covers directory creation, file open, seek, read, write, and
	// delete failures.
	Io = errs.Class("io")

	// Encoding covers a record that could not be marshaled to its
	// on-disk form.
	Encoding = errs.Class("encoding")

	// Decoding covers a log byte range that could not be parsed back
	// into a record, including truncated trailing bytes.
	Decoding = errs.Class("decoding")

	// NotFound covers remove calls against a key absent from the index.
	NotFound = errs.Class("not found")
)

// keyNotFoundError carries the key a NotFound error was raised for.
type keyNotFoundError struct {
	key string
}

func (e *keyNotFoundError) Error() string {
	return fmt.Sprintf("key %q not found", e.key)
}

// NewNotFound builds the NotFound-class error for a remove call against
// an absent key.
func NewNotFound(key string) error {
	return NotFound.Wrap(&keyNotFoundError{key: key})
}

// KeyOf extracts the key from a NotFound error built by NewNotFound.
func KeyOf(err error) (string, bool) {
	var kerr *keyNotFoundError
	if errors.As(err, &kerr) {
		return kerr.key, true
	}
	return "", false
}

// Is reports whether err belongs to class.
func Is(err error, class *errs.Class) bool {
	return class.Has(err)
}
