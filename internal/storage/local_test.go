package storage

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemStorage() *LocalFileStorage {
	return NewWithFs(afero.NewMemMapFs())
}

func TestSaveAndRead(t *testing.T) {
	s := newMemStorage()
	rel, n, err := s.Save("p1", "sales.csv", strings.NewReader("a,b\n1,2\n"), 1024)
	require.NoError(t, err)
	assert.Equal(t, "p1/sales.csv", rel)
	assert.Equal(t, int64(8), n)

	data, err := s.ReadFile(rel)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(data))
}

func TestSaveAvoidsCollisions(t *testing.T) {
	s := newMemStorage()
	var paths []string
	for i := 0; i < 3; i++ {
		rel, _, err := s.Save("p1", "data.csv", strings.NewReader("x"), 0)
		require.NoError(t, err)
		paths = append(paths, rel)
	}
	assert.Equal(t, []string{"p1/data.csv", "p1/data_1.csv", "p1/data_2.csv"}, paths)
}

func TestSaveRejectsOversizedUpload(t *testing.T) {
	s := newMemStorage()
	_, _, err := s.Save("p1", "big.csv", bytes.NewReader(make([]byte, 11)), 10)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	exists, _ := afero.Exists(s.fs, "p1/big.csv")
	assert.False(t, exists, "partial upload must be removed")

	_, n, err := s.Save("p1", "ok.csv", bytes.NewReader(make([]byte, 10)), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
}

func TestSaveSanitizesNames(t *testing.T) {
	s := newMemStorage()
	rel, _, err := s.Save("p1", "../../etc/passwd", strings.NewReader("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, "p1/passwd", rel)

	rel, _, err = s.Save("p1", "", strings.NewReader("x"), 0)
	require.NoError(t, err)
	assert.Equal(t, "p1/unnamed", rel)

	_, _, err = s.Save("..", "a.csv", strings.NewReader("x"), 0)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	s := newMemStorage()
	rel, _, err := s.Save("p1", "a.csv", strings.NewReader("x"), 0)
	require.NoError(t, err)
	require.NoError(t, s.Delete(rel))
	assert.NoError(t, s.Delete(rel), "deleting a missing file is not an error")

	_, _, err = s.Save("p2", "b.csv", strings.NewReader("x"), 0)
	require.NoError(t, err)
	require.NoError(t, s.DeleteProjectDir("p2"))
	exists, _ := afero.DirExists(s.fs, "p2")
	assert.False(t, exists)
}

func TestNewLocal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewLocal(dir)
	require.NoError(t, err)

	rel, _, err := s.Save("p1", "a.csv", strings.NewReader("x,y\n"), 0)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "p1", "a.csv"))

	data, err := s.ReadFile(rel)
	require.NoError(t, err)
	assert.Equal(t, "x,y\n", string(data))
}
