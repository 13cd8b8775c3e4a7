package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
)

// FormatVersion is written into every JSON document. Documents without a
// version field are read as version 1.
const FormatVersion = 1

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type bookRecord struct {
	ISBNCode string `json:"isbnCode" db:"isbn_code"`
	Title    string `json:"title" db:"title"`
	Year     int    `json:"year" db:"year"`
}

type magazineRecord struct {
	ISBNCode          string `json:"isbnCode" db:"isbn_code"`
	Title             string `json:"title" db:"title"`
	Year              int    `json:"year" db:"year"`
	FeaturedCharacter string `json:"featuredCharacter" db:"featured_character"`
}

type readerRecord struct {
	Name              string           `json:"name"`
	BooksBorrowed     []bookRecord     `json:"booksBorrowed"`
	MagazinesBorrowed []magazineRecord `json:"magazinesBorrowed"`
}

type document struct {
	Version   int              `json:"version"`
	Books     []bookRecord     `json:"books"`
	Magazines []magazineRecord `json:"magazines"`
	Readers   []readerRecord   `json:"readers"`
}

// JSONStore keeps the state in a single JSON document.
type JSONStore struct {
	path string
}

func NewJSONStore(path string) *JSONStore { return &JSONStore{path: path} }

var _ Store = (*JSONStore)(nil)

func (s *JSONStore) Path() string { return s.path }

// Load reads and validates the document. A missing file is an error, never
// an empty state.
func (s *JSONStore) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, persistenceError("jsonstore.read", s.path, err)
	}

	if err := validateDocument(data); err != nil {
		return nil, persistenceError("jsonstore.validate", s.path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, persistenceError("jsonstore.decode", s.path, err)
	}

	return doc.toState(), nil
}

// Save overwrites the whole document: it writes a temp file next to the
// target and renames it into place.
func (s *JSONStore) Save(state *State) error {
	if state == nil {
		return persistenceError("jsonstore.save", s.path, errors.New("nil state"))
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return persistenceError("jsonstore.mkdir", dir, err)
		}
	}

	b, err := json.MarshalIndent(newDocument(state), "", "  ")
	if err != nil {
		return persistenceError("jsonstore.marshal", s.path, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(b, '\n'), 0o644); err != nil {
		return persistenceError("jsonstore.write", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return persistenceError("jsonstore.rename", s.path, err)
	}
	return nil
}

func newDocument(state *State) document {
	doc := document{
		Version:   FormatVersion,
		Books:     make([]bookRecord, 0),
		Magazines: make([]magazineRecord, 0),
		Readers:   make([]readerRecord, 0, len(state.Readers)),
	}
	if state.Books != nil {
		doc.Books = bookRecords(state.Books.items)
	}
	if state.Magazines != nil {
		doc.Magazines = magazineRecords(state.Magazines.items)
	}
	for _, r := range state.Readers {
		doc.Readers = append(doc.Readers, readerRecord{
			Name:              r.name,
			BooksBorrowed:     bookRecords(r.booksBorrowed),
			MagazinesBorrowed: magazineRecords(r.magazinesBorrowed),
		})
	}
	return doc
}

func bookRecords(books []Book) []bookRecord {
	out := make([]bookRecord, 0, len(books))
	for _, b := range books {
		out = append(out, bookRecord{ISBNCode: b.code, Title: b.title, Year: b.year})
	}
	return out
}

func magazineRecords(mags []Magazine) []magazineRecord {
	out := make([]magazineRecord, 0, len(mags))
	for _, m := range mags {
		out = append(out, magazineRecord{
			ISBNCode:          m.code,
			Title:             m.title,
			Year:              m.year,
			FeaturedCharacter: m.featuredCharacter,
		})
	}
	return out
}

func (doc document) toState() *State {
	state := NewState()
	for _, b := range doc.Books {
		state.Books.Add(b.book())
	}
	for _, m := range doc.Magazines {
		state.Magazines.Add(m.magazine())
	}
	for _, rr := range doc.Readers {
		r := &Reader{name: rr.Name}
		for _, b := range rr.BooksBorrowed {
			r.booksBorrowed = append(r.booksBorrowed, b.book())
		}
		for _, m := range rr.MagazinesBorrowed {
			r.magazinesBorrowed = append(r.magazinesBorrowed, m.magazine())
		}
		state.Readers = append(state.Readers, r)
	}
	return state
}

func (b bookRecord) book() Book { return NewBook(b.ISBNCode, b.Title, b.Year) }

func (m magazineRecord) magazine() Magazine {
	return NewMagazine(m.ISBNCode, m.Title, m.Year, m.FeaturedCharacter)
}

// ---------------------------------------------------------------------------
// Document validation
// ---------------------------------------------------------------------------

type fieldSpec struct {
	name string
	kind jsoniter.ValueType
}

var (
	documentFields = []fieldSpec{
		{"books", jsoniter.ArrayValue},
		{"magazines", jsoniter.ArrayValue},
		{"readers", jsoniter.ArrayValue},
	}
	bookFields = []fieldSpec{
		{"isbnCode", jsoniter.StringValue},
		{"title", jsoniter.StringValue},
		{"year", jsoniter.NumberValue},
	}
	magazineFields = []fieldSpec{
		{"isbnCode", jsoniter.StringValue},
		{"title", jsoniter.StringValue},
		{"year", jsoniter.NumberValue},
		{"featuredCharacter", jsoniter.StringValue},
	}
	readerFields = []fieldSpec{
		{"name", jsoniter.StringValue},
		{"booksBorrowed", jsoniter.ArrayValue},
		{"magazinesBorrowed", jsoniter.ArrayValue},
	}
)

// validateDocument checks that every mandatory member is present with the
// right JSON type. Decoding alone would silently zero missing fields.
func validateDocument(data []byte) error {
	if !json.Valid(data) {
		return errors.New("document is not valid json")
	}

	doc := json.Get(data)
	if err := checkObject(doc, "document", documentFields); err != nil {
		return err
	}

	switch v := doc.Get("version"); v.ValueType() {
	case jsoniter.InvalidValue:
	case jsoniter.NumberValue:
		if v.ToInt() != FormatVersion {
			return fmt.Errorf("unsupported format version %s", v.ToString())
		}
	default:
		return errors.New(`field "version" has wrong type`)
	}

	if err := checkEach(doc.Get("books"), "books", bookFields); err != nil {
		return err
	}
	if err := checkEach(doc.Get("magazines"), "magazines", magazineFields); err != nil {
		return err
	}
	if err := checkEach(doc.Get("readers"), "readers", readerFields); err != nil {
		return err
	}

	readers := doc.Get("readers")
	for i := 0; i < readers.Size(); i++ {
		r := readers.Get(i)
		where := fmt.Sprintf("readers[%d]", i)
		if err := checkEach(r.Get("booksBorrowed"), where+".booksBorrowed", bookFields); err != nil {
			return err
		}
		if err := checkEach(r.Get("magazinesBorrowed"), where+".magazinesBorrowed", magazineFields); err != nil {
			return err
		}
	}
	return nil
}

func checkEach(arr jsoniter.Any, where string, fields []fieldSpec) error {
	for i := 0; i < arr.Size(); i++ {
		if err := checkObject(arr.Get(i), fmt.Sprintf("%s[%d]", where, i), fields); err != nil {
			return err
		}
	}
	return nil
}

func checkObject(obj jsoniter.Any, where string, fields []fieldSpec) error {
	if obj.ValueType() != jsoniter.ObjectValue {
		return fmt.Errorf("%s: expected an object", where)
	}
	for _, f := range fields {
		switch obj.Get(f.name).ValueType() {
		case f.kind:
		case jsoniter.InvalidValue:
			return fmt.Errorf("%s: missing field %q", where, f.name)
		default:
			return fmt.Errorf("%s: field %q has wrong type", where, f.name)
		}
	}
	return nil
}
