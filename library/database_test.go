package library

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	return NewSQLiteStore(filepath.Join(t.TempDir(), "depo.db"))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := tempSQLite(t)
	want := sampleState(t)

	require.NoError(t, store.Save(want))
	got, err := store.Load()
	require.NoError(t, err)
	assertSameState(t, want, got)
}

func TestSQLiteStorePreservesOrderAfterSwapRemoval(t *testing.T) {
	store := tempSQLite(t)
	state := NewState()
	for _, code := range []string{"A", "B", "C", "D"} {
		state.Books.Add(NewBook(code, "Title "+code, 2000))
	}
	require.True(t, state.Books.Remove("B"))

	require.NoError(t, store.Save(state))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D", "C"}, identities(got.Books))
}

func TestSQLiteStoreSaveReplacesEverything(t *testing.T) {
	store := tempSQLite(t)
	require.NoError(t, store.Save(sampleState(t)))

	smaller := NewState()
	smaller.Magazines.Add(NewMagazine("M9", "Hulk", 1962, "Bruce Banner"))
	require.NoError(t, store.Save(smaller))

	got, err := store.Load()
	require.NoError(t, err)
	assertSameState(t, smaller, got)
}

func TestSQLiteStoreManyRows(t *testing.T) {
	store := tempSQLite(t)
	state := NewState()
	for i := 0; i < 3*insertBatch+7; i++ {
		state.Books.Add(NewBook(fmt.Sprintf("B%04d", i), "Book", 1900+i%100))
	}

	require.NoError(t, store.Save(state))
	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.Books.Items(), got.Books.Items())
}

func TestSQLiteStoreLoadMissingFile(t *testing.T) {
	store := tempSQLite(t)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// Loading must not leave an empty database behind.
	_, statErr := os.Stat(store.Path())
	assert.ErrorIs(t, statErr, fs.ErrNotExist)
}

func TestSQLiteStoreLoadRejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depo.db")
	require.NoError(t, os.WriteFile(path, []byte(`{"books": []}`), 0o644))

	_, err := NewSQLiteStore(path).Load()
	assert.ErrorIs(t, err, ErrPersistence)
}
