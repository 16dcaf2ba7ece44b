package document

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirSource_List(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	names, err := NewDirSource(dir).List(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.pdf"}, names)
}

func TestDirSource_List_MissingDirectory(t *testing.T) {
	src := NewDirSource(filepath.Join(t.TempDir(), "does-not-exist"))

	names, err := src.List(context.Background())

	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDirSource_Read(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	src := NewDirSource(dir)

	data, err := src.Read(context.Background(), "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = src.Read(context.Background(), "../a.txt")
	assert.Error(t, err)

	_, err = src.Read(context.Background(), "missing.txt")
	assert.Error(t, err)
}
