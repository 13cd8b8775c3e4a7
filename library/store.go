package library

import (
	"path/filepath"
	"strings"
)

// Store loads and saves the whole depository state as one unit.
type Store interface {
	Load() (*State, error)
	Save(state *State) error
	Path() string
}

// OpenStore picks a backend from the file extension: SQLite for .db,
// .sqlite and .sqlite3, a JSON document otherwise. Nothing is read or
// written until Load or Save is called.
func OpenStore(path string) Store {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteStore(path)
	default:
		return NewJSONStore(path)
	}
}

// LoadFile reads the state stored at path.
func LoadFile(path string) (*State, error) { return OpenStore(path).Load() }

// SaveFile overwrites the state stored at path.
func SaveFile(path string, state *State) error { return OpenStore(path).Save(state) }
