package npz

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestArchive builds a single-member .npz archive from a flat
// float32 buffer.
func writeTestArchive(t *testing.T, name string, data []float32) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.npz")

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	member, err := zw.Create(name)
	require.NoError(t, err)

	err = npyio.Write(member, data)
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return path
}

func TestLoadFirstReadsBackFlatMatrix(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	path := writeTestArchive(t, "weights.npy", data)

	m, err := LoadFirst(path)
	require.NoError(t, err)
	assert.Equal(t, data, m.Data)
}

func TestLoadFirstRejectsEmptyArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.npz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = LoadFirst(path)
	assert.Error(t, err)
}

func TestLoadFirstPicksLowestNameWhenMultipleMembers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "multi.npz")
	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	b, err := zw.Create("b.npy")
	require.NoError(t, err)
	require.NoError(t, npyio.Write(b, []float32{9}))
	a, err := zw.Create("a.npy")
	require.NoError(t, err)
	require.NoError(t, npyio.Write(a, []float32{1}))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	m, err := LoadFirst(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, m.Data)
}
