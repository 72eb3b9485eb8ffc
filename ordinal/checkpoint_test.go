package ordinal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_AdvanceAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint")

	cp, _, err := OpenCheckpoint(path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, cp.Height())

	require.NoError(t, cp.Advance(42))
	assert.EqualValues(t, 42, cp.Height())
	require.NoError(t, cp.Close())

	cp2, _, err := OpenCheckpoint(path)
	require.NoError(t, err)
	defer cp2.Close()
	assert.EqualValues(t, 42, cp2.Height())
}

func TestCheckpoint_InvalidateAndRewind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint")
	cp, _, err := OpenCheckpoint(path)
	require.NoError(t, err)
	defer cp.Close()

	require.NoError(t, cp.Advance(10))
	require.NoError(t, cp.Rewind())
	assert.EqualValues(t, 9, cp.Height())

	require.NoError(t, cp.Invalidate())
	assert.Equal(t, InvalidHeight, cp.Height())
}
