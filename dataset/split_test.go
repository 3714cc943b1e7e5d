package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/graphbatch/errors"
)

func TestSplitIndex_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "splits.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train: [2, 0]\ntest: [1]\n"), 0o644))

	s := NewSplitIndex(path)
	idx, err := s.Get("train")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, idx)

	idx[0] = 99
	again, _ := s.Get("train")
	assert.Equal(t, 2, again[0], "Get returns a copy")

	_, err = s.Get("valid")
	assert.ErrorIs(t, err, errors.ErrUnknownSplit)
}

func TestSplitIndex_LoadErrors(t *testing.T) {
	_, err := NewSplitIndex(filepath.Join(t.TempDir(), "absent.json")).Names()
	assert.True(t, errors.IsFatal(err))

	path := filepath.Join(t.TempDir(), "splits.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err = NewSplitIndex(path).Get("train")
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
}
