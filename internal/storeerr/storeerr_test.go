package storeerr

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNotFoundCarriesKey(t *testing.T) {
	err := NewNotFound("missing-key")

	assert.True(t, Is(err, &NotFound))
	assert.False(t, Is(err, &Io))

	key, ok := KeyOf(err)
	require.True(t, ok)
	assert.Equal(t, "missing-key", key)
}

func TestKeyOfOnUnrelatedErrorReportsFalse(t *testing.T) {
	_, ok := KeyOf(errors.New("boom"))
	assert.False(t, ok)
}

func TestIoWrapPreservesUnderlyingError(t *testing.T) {
	underlying := fs.ErrNotExist
	wrapped := Io.Wrap(underlying)

	assert.True(t, Is(wrapped, &Io))
	assert.ErrorIs(t, wrapped, underlying)
}
