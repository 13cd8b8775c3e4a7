package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps the state in a single SQLite file. Positions are stored
// explicitly so the in-memory order survives a round trip.
type SQLiteStore struct {
	path string
}

func NewSQLiteStore(path string) *SQLiteStore { return &SQLiteStore{path: path} }

var _ Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Path() string { return s.path }

var dialect = goqu.Dialect("sqlite3")

// insertBatch keeps generated statements under SQLite's bound-variable limit.
const insertBatch = 100

func (s *SQLiteStore) open() (*sqlx.DB, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", s.path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// ---------------------------------------------------------------------------
// Schema
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applySchema(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`,
		`CREATE TABLE IF NOT EXISTS books (
            position INTEGER PRIMARY KEY,
            isbn_code TEXT NOT NULL,
            title TEXT NOT NULL,
            year INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS magazines (
            position INTEGER PRIMARY KEY,
            isbn_code TEXT NOT NULL,
            title TEXT NOT NULL,
            year INTEGER NOT NULL,
            featured_character TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS readers (
            position INTEGER PRIMARY KEY,
            name TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS borrowed_books (
            reader_position INTEGER NOT NULL REFERENCES readers(position) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            isbn_code TEXT NOT NULL,
            title TEXT NOT NULL,
            year INTEGER NOT NULL,
            PRIMARY KEY (reader_position, position)
        );`,
		`CREATE TABLE IF NOT EXISTS borrowed_magazines (
            reader_position INTEGER NOT NULL REFERENCES readers(position) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            isbn_code TEXT NOT NULL,
            title TEXT NOT NULL,
            year INTEGER NOT NULL,
            featured_character TEXT NOT NULL,
            PRIMARY KEY (reader_position, position)
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, strconv.Itoa(schemaVersion)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

type readerRow struct {
	Position int    `db:"position"`
	Name     string `db:"name"`
}

type borrowedBookRow struct {
	ReaderPosition int    `db:"reader_position"`
	ISBNCode       string `db:"isbn_code"`
	Title          string `db:"title"`
	Year           int    `db:"year"`
}

type borrowedMagazineRow struct {
	ReaderPosition    int    `db:"reader_position"`
	ISBNCode          string `db:"isbn_code"`
	Title             string `db:"title"`
	Year              int    `db:"year"`
	FeaturedCharacter string `db:"featured_character"`
}

// Load reads every table. The file must already exist and carry the schema
// version written by Save.
func (s *SQLiteStore) Load() (*State, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, persistenceError("sqlitestore.stat", s.path, err)
	}

	db, err := s.open()
	if err != nil {
		return nil, persistenceError("sqlitestore.open", s.path, err)
	}
	defer db.Close()

	var version string
	if err := db.Get(&version, `SELECT value FROM meta WHERE key='schema_version'`); err != nil {
		return nil, persistenceError("sqlitestore.version", s.path, fmt.Errorf("not a depository database: %w", err))
	}
	if version != strconv.Itoa(schemaVersion) {
		return nil, persistenceError("sqlitestore.version", s.path, fmt.Errorf("unsupported schema version %s", version))
	}

	var (
		books     []bookRecord
		magazines []magazineRecord
		readers   []readerRow
		rBooks    []borrowedBookRow
		rMags     []borrowedMagazineRow
	)
	queries := []struct {
		dest  any
		query string
	}{
		{&books, `SELECT isbn_code, title, year FROM books ORDER BY position`},
		{&magazines, `SELECT isbn_code, title, year, featured_character FROM magazines ORDER BY position`},
		{&readers, `SELECT position, name FROM readers ORDER BY position`},
		{&rBooks, `SELECT reader_position, isbn_code, title, year FROM borrowed_books ORDER BY reader_position, position`},
		{&rMags, `SELECT reader_position, isbn_code, title, year, featured_character FROM borrowed_magazines ORDER BY reader_position, position`},
	}
	for _, q := range queries {
		if err := db.Select(q.dest, q.query); err != nil {
			return nil, persistenceError("sqlitestore.select", s.path, err)
		}
	}

	state := NewState()
	for _, b := range books {
		state.Books.Add(b.book())
	}
	for _, m := range magazines {
		state.Magazines.Add(m.magazine())
	}

	byPosition := make(map[int]*Reader, len(readers))
	for _, rr := range readers {
		r := &Reader{name: rr.Name}
		byPosition[rr.Position] = r
		state.Readers = append(state.Readers, r)
	}
	for _, row := range rBooks {
		if r, ok := byPosition[row.ReaderPosition]; ok {
			r.booksBorrowed = append(r.booksBorrowed, NewBook(row.ISBNCode, row.Title, row.Year))
		}
	}
	for _, row := range rMags {
		if r, ok := byPosition[row.ReaderPosition]; ok {
			r.magazinesBorrowed = append(r.magazinesBorrowed,
				NewMagazine(row.ISBNCode, row.Title, row.Year, row.FeaturedCharacter))
		}
	}
	return state, nil
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

// Save replaces the content of every table inside one transaction, creating
// the file and schema on first use.
func (s *SQLiteStore) Save(state *State) error {
	if state == nil {
		return persistenceError("sqlitestore.save", s.path, fmt.Errorf("nil state"))
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return persistenceError("sqlitestore.mkdir", dir, err)
		}
	}

	db, err := s.open()
	if err != nil {
		return persistenceError("sqlitestore.open", s.path, err)
	}
	defer db.Close()

	if err := applySchema(db); err != nil {
		return persistenceError("sqlitestore.schema", s.path, err)
	}

	if err := writeState(db, state); err != nil {
		return persistenceError("sqlitestore.write", s.path, err)
	}
	return nil
}

func writeState(db *sqlx.DB, state *State) error {
	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"borrowed_books", "borrowed_magazines", "readers", "books", "magazines"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	var (
		books, magazines, readers, rBooks, rMags []goqu.Record
	)
	if state.Books != nil {
		for i, b := range state.Books.items {
			books = append(books, bookRow(goqu.Record{"position": i}, b))
		}
	}
	if state.Magazines != nil {
		for i, m := range state.Magazines.items {
			magazines = append(magazines, magazineRow(goqu.Record{"position": i}, m))
		}
	}
	for i, r := range state.Readers {
		readers = append(readers, goqu.Record{"position": i, "name": r.name})
		for j, b := range r.booksBorrowed {
			rBooks = append(rBooks, bookRow(goqu.Record{"reader_position": i, "position": j}, b))
		}
		for j, m := range r.magazinesBorrowed {
			rMags = append(rMags, magazineRow(goqu.Record{"reader_position": i, "position": j}, m))
		}
	}

	inserts := []struct {
		table string
		rows  []goqu.Record
	}{
		{"books", books},
		{"magazines", magazines},
		{"readers", readers},
		{"borrowed_books", rBooks},
		{"borrowed_magazines", rMags},
	}
	for _, ins := range inserts {
		if err := insertRows(tx, ins.table, ins.rows); err != nil {
			return fmt.Errorf("insert %s: %w", ins.table, err)
		}
	}

	return tx.Commit()
}

func bookRow(rec goqu.Record, b Book) goqu.Record {
	rec["isbn_code"] = b.code
	rec["title"] = b.title
	rec["year"] = b.year
	return rec
}

func magazineRow(rec goqu.Record, m Magazine) goqu.Record {
	rec["isbn_code"] = m.code
	rec["title"] = m.title
	rec["year"] = m.year
	rec["featured_character"] = m.featuredCharacter
	return rec
}

func insertRows(tx *sqlx.Tx, table string, rows []goqu.Record) error {
	for start := 0; start < len(rows); start += insertBatch {
		end := min(start+insertBatch, len(rows))
		batch := make([]interface{}, 0, end-start)
		for _, r := range rows[start:end] {
			batch = append(batch, r)
		}

		query, args, err := dialect.Insert(table).Prepared(true).Rows(batch...).ToSQL()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return err
		}
	}
	return nil
}
