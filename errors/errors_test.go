package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New("test error")
	require.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestWrap(t *testing.T) {
	original := New("original")
	wrapped := Wrap(original, "wrapped")

	assert.Contains(t, wrapped.Error(), "wrapped")
	assert.Contains(t, wrapped.Error(), "original")
	assert.True(t, Is(wrapped, original))
}

func TestSentinels(t *testing.T) {
	err := Wrap(ErrNotFound, "series lookup")

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrConflict))
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsNotFoundError(nil))
}

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("country %d", 42)

	require.NotNil(t, err)
	assert.True(t, Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "country 42")
}

func TestIsAny(t *testing.T) {
	err := Wrap(ErrUnsupportedVersion, "loading snapshot")

	assert.True(t, IsAny(err, ErrNotFound, ErrUnsupportedVersion))
	assert.False(t, IsAny(err, ErrNotFound, ErrConflict))
}
