package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o750))
	for _, name := range []string{"a.hcl", "nested/b.hcl", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	t.Run("walks directories recursively", func(t *testing.T) {
		t.Parallel()
		files, err := FindFilesByExtension(dir, ".hcl")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "a.hcl"),
			filepath.Join(dir, "nested", "b.hcl"),
		}, files)
	})

	t.Run("accepts a matching file as root", func(t *testing.T) {
		t.Parallel()
		file := filepath.Join(dir, "a.hcl")
		files, err := FindFilesByExtension(file, ".hcl")
		require.NoError(t, err)
		assert.Equal(t, []string{file}, files)
	})

	t.Run("non-matching file root yields nothing", func(t *testing.T) {
		t.Parallel()
		files, err := FindFilesByExtension(filepath.Join(dir, "notes.txt"), ".hcl")
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("missing root is an error", func(t *testing.T) {
		t.Parallel()
		_, err := FindFilesByExtension(filepath.Join(dir, "missing"), ".hcl")
		assert.Error(t, err)
	})

	t.Run("empty extension panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { _, _ = FindFilesByExtension(dir, "") })
	})
}
