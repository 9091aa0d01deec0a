package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "pantryInventory")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Put(ctx, "pantryInventory", []byte(`["milk"]`)))
	got, err := s.Get(ctx, "pantryInventory")
	require.NoError(t, err)
	assert.Equal(t, `["milk"]`, string(got))

	// Overwrite replaces the whole payload.
	require.NoError(t, s.Put(ctx, "pantryInventory", []byte(`["eggs","bread"]`)))
	got, err = s.Get(ctx, "pantryInventory")
	require.NoError(t, err)
	assert.Equal(t, `["eggs","bread"]`, string(got))

	// Keys are independent.
	require.NoError(t, s.Put(ctx, "pantryPalLanguage", []byte("fr")))
	got, err = s.Get(ctx, "pantryPalLanguage")
	require.NoError(t, err)
	assert.Equal(t, "fr", string(got))
	got, err = s.Get(ctx, "pantryInventory")
	require.NoError(t, err)
	assert.Equal(t, `["eggs","bread"]`, string(got))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	value := []byte("abc")
	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'z'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	data, err := os.ReadFile(filepath.Join(dir, "pantryInventory.json"))
	require.NoError(t, err)
	assert.Equal(t, `["eggs","bread"]`, string(data))

	// No temp files are left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Put(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
	_, err = s.Get(context.Background(), "a/b")
	assert.Error(t, err)
}

func TestSQLStore_SQLite(t *testing.T) {
	s, err := NewSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "db", "pantrypal.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DriverMemory, dir, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(DriverFile, dir, "")
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	s, err = Open(DriverSQLite, dir, "")
	require.NoError(t, err)
	assert.IsType(t, &SQLStore{}, s)
	assert.NoError(t, s.Close())
	assert.FileExists(t, filepath.Join(dir, "pantrypal.db"))

	_, err = Open("redis", dir, "")
	assert.Error(t, err)
}
