package fsutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindProjectFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "Subprojects", "Koui")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "project.hcl"), []byte(`name = "koui"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.hcl"), []byte(`name = "x"`), 0644))

	t.Run("directory resolves to the project file inside it", func(t *testing.T) {
		got, err := FindProjectFile(sub, "project.hcl")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(sub, "project.hcl"), got)
	})

	t.Run("file is returned as is", func(t *testing.T) {
		got, err := FindProjectFile(filepath.Join(dir, "custom.hcl"), "project.hcl")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "custom.hcl"), got)
	})

	t.Run("later candidate names are tried", func(t *testing.T) {
		got, err := FindProjectFile(dir, "project.hcl", "custom.hcl")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "custom.hcl"), got)
	})

	t.Run("directory without project file", func(t *testing.T) {
		_, err := FindProjectFile(dir, "project.hcl")
		assert.ErrorIs(t, err, ErrNoProjectFile)
	})

	t.Run("symlinked directory resolves to the real file", func(t *testing.T) {
		link := filepath.Join(dir, "link")
		require.NoError(t, os.Symlink(sub, link))

		got, err := FindProjectFile(filepath.Join(link, "."), "project.hcl")
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(filepath.Join(sub, "project.hcl"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("self-referencing symlink collapses", func(t *testing.T) {
		loop := filepath.Join(sub, "loop")
		require.NoError(t, os.Symlink(".", loop))

		got, err := FindProjectFile(filepath.Join(loop, "loop", "loop"), "project.hcl")
		require.NoError(t, err)
		want, err := filepath.EvalSymlinks(filepath.Join(sub, "project.hcl"))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := FindProjectFile(filepath.Join(dir, "nope"), "project.hcl")
		assert.ErrorIs(t, err, fs.ErrNotExist)
	})
}
