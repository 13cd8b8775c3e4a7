package library

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(t *testing.T) *State {
	t.Helper()
	s := NewState()
	s.Books.Add(NewBook("A1", "Dune", 1965))
	s.Books.Add(NewBook("B2", "Emma", 1815))
	s.Magazines.Add(NewMagazine("M1", "Spider-Man", 1963, "Peter Parker"))

	ann, err := NewReader("Ann")
	require.NoError(t, err)
	NewBook("C3", "Ulysses", 1922).BorrowInto(ann)
	NewMagazine("M2", "X-Men", 1963, "Storm").BorrowInto(ann)
	bob, err := NewReader("Bob")
	require.NoError(t, err)
	s.Readers = append(s.Readers, ann, bob)
	return s
}

func assertSameState(t *testing.T, want, got *State) {
	t.Helper()
	assert.Equal(t, want.Books.Items(), got.Books.Items())
	assert.Equal(t, want.Magazines.Items(), got.Magazines.Items())
	require.Len(t, got.Readers, len(want.Readers))
	for i := range want.Readers {
		assert.Equal(t, want.Readers[i].Name(), got.Readers[i].Name())
		assert.Equal(t, want.Readers[i].BorrowedBooks(), got.Readers[i].BorrowedBooks())
		assert.Equal(t, want.Readers[i].BorrowedMagazines(), got.Readers[i].BorrowedMagazines())
	}
}

func writeDoc(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depo.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestJSONStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depo.json")
	store := NewJSONStore(path)
	want := sampleState(t)

	require.NoError(t, store.Save(want))
	got, err := store.Load()
	require.NoError(t, err)
	assertSameState(t, want, got)

	_, err = os.Stat(path + ".tmp")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestJSONStoreDocumentLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depo.json")
	require.NoError(t, NewJSONStore(path).Save(sampleState(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	doc := json.Get(data)
	assert.Equal(t, FormatVersion, doc.Get("version").ToInt())
	assert.Equal(t, "A1", doc.Get("books", 0, "isbnCode").ToString())
	assert.Equal(t, 1965, doc.Get("books", 0, "year").ToInt())
	assert.Equal(t, "Peter Parker", doc.Get("magazines", 0, "featuredCharacter").ToString())
	assert.Equal(t, "Ulysses", doc.Get("readers", 0, "booksBorrowed", 0, "title").ToString())
	assert.Equal(t, 0, doc.Get("readers", 1, "magazinesBorrowed").Size())
}

func TestJSONStoreSaveOverwritesWholeDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depo.json")
	store := NewJSONStore(path)
	require.NoError(t, store.Save(sampleState(t)))

	smaller := NewState()
	smaller.Books.Add(NewBook("Z9", "Only", 2020))
	require.NoError(t, store.Save(smaller))

	got, err := store.Load()
	require.NoError(t, err)
	assertSameState(t, smaller, got)
}

func TestJSONStoreEmptyStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "depo.json")
	store := NewJSONStore(path)
	require.NoError(t, store.Save(NewState()))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, got.Books.Len())
	assert.Equal(t, 0, got.Magazines.Len())
	assert.Empty(t, got.Readers)
}

func TestJSONStoreLoadMissingFile(t *testing.T) {
	_, err := NewJSONStore(filepath.Join(t.TempDir(), "missing.json")).Load()
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestJSONStoreLoadRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"books": [`},
		{"not an object", `[]`},
		{"missing books", `{"magazines": [], "readers": []}`},
		{"missing readers", `{"books": [], "magazines": []}`},
		{"books not array", `{"books": {}, "magazines": [], "readers": []}`},
		{"book missing code", `{"books": [{"title": "Dune", "year": 1965}], "magazines": [], "readers": []}`},
		{"year as string", `{"books": [{"isbnCode": "A1", "title": "Dune", "year": "1965"}], "magazines": [], "readers": []}`},
		{"fractional year", `{"books": [{"isbnCode": "A1", "title": "Dune", "year": 1965.5}], "magazines": [], "readers": []}`},
		{"magazine missing character", `{"books": [], "magazines": [{"isbnCode": "M1", "title": "X", "year": 1}], "readers": []}`},
		{"reader missing lists", `{"books": [], "magazines": [], "readers": [{"name": "Ann"}]}`},
		{"borrowed book missing title", `{"books": [], "magazines": [], "readers": [{"name": "Ann", "booksBorrowed": [{"isbnCode": "A1", "year": 1}], "magazinesBorrowed": []}]}`},
		{"null books", `{"books": null, "magazines": [], "readers": []}`},
		{"future version", `{"version": 2, "books": [], "magazines": [], "readers": []}`},
		{"version as string", `{"version": "1", "books": [], "magazines": [], "readers": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONStore(writeDoc(t, tt.body)).Load()
			assert.ErrorIs(t, err, ErrPersistence)
		})
	}
}

func TestJSONStoreLoadsDocumentWithoutVersion(t *testing.T) {
	path := writeDoc(t, `{
  "books": [{"isbnCode": "A1", "title": "Dune", "year": 1965}],
  "magazines": [],
  "readers": [{"name": "Ann", "booksBorrowed": [], "magazinesBorrowed": []}]
}`)

	got, err := NewJSONStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, []Book{NewBook("A1", "Dune", 1965)}, got.Books.Items())
	require.Len(t, got.Readers, 1)
	assert.Equal(t, "Ann", got.Readers[0].Name())
}

func TestJSONStoreSaveToUnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := NewJSONStore(filepath.Join(blocker, "depo.json")).Save(NewState())
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestOpenStorePicksBackend(t *testing.T) {
	assert.IsType(t, &JSONStore{}, OpenStore("books_depo.json"))
	assert.IsType(t, &JSONStore{}, OpenStore("depo"))
	assert.IsType(t, &SQLiteStore{}, OpenStore("depo.db"))
	assert.IsType(t, &SQLiteStore{}, OpenStore("depo.SQLITE"))
	assert.Equal(t, "depo.db", OpenStore("depo.db").Path())
}

func TestLoadFileSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depo.json")
	want := sampleState(t)
	require.NoError(t, SaveFile(path, want))

	got, err := LoadFile(path)
	require.NoError(t, err)
	assertSameState(t, want, got)
}
