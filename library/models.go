package library

import (
	"slices"
	"strings"
)

// Item is the capability set a catalog entry needs to take part in the
// generic depository operations. Identity is the ISBN-like code; title and
// year are descriptive only.
type Item interface {
	Identity() string
	Title() string
	Year() int
	// BorrowInto appends a copy of the item to the reader list it belongs in.
	BorrowInto(r *Reader)
}

// Book is an immutable catalog entry.
type Book struct {
	code  string
	title string
	year  int
}

// NewBook builds a book from already validated fields.
func NewBook(code, title string, year int) Book {
	return Book{code: code, title: title, year: year}
}

func (b Book) Identity() string { return b.code }
func (b Book) Title() string    { return b.title }
func (b Book) Year() int        { return b.year }

func (b Book) BorrowInto(r *Reader) {
	r.booksBorrowed = append(r.booksBorrowed, b)
}

// Magazine is a catalog entry that also names the character it features.
type Magazine struct {
	code              string
	title             string
	year              int
	featuredCharacter string
}

// NewMagazine builds a magazine from already validated fields.
func NewMagazine(code, title string, year int, featuredCharacter string) Magazine {
	return Magazine{code: code, title: title, year: year, featuredCharacter: featuredCharacter}
}

func (m Magazine) Identity() string          { return m.code }
func (m Magazine) Title() string             { return m.title }
func (m Magazine) Year() int                 { return m.year }
func (m Magazine) FeaturedCharacter() string { return m.featuredCharacter }

func (m Magazine) BorrowInto(r *Reader) {
	r.magazinesBorrowed = append(r.magazinesBorrowed, m)
}

var (
	_ Item = Book{}
	_ Item = Magazine{}
)

// Reader is a registered borrower.
type Reader struct {
	name              string
	booksBorrowed     []Book
	magazinesBorrowed []Magazine
}

// NewReader registers a reader under the trimmed name. Names are not
// required to be unique.
func NewReader(name string) (*Reader, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("reader.create", "reader name cannot be empty")
	}
	return &Reader{name: name}, nil
}

func (r *Reader) Name() string { return r.name }

// BorrowedBooks returns a copy of the reader's borrowed books in borrow order.
func (r *Reader) BorrowedBooks() []Book { return slices.Clone(r.booksBorrowed) }

// BorrowedMagazines returns a copy of the reader's borrowed magazines in borrow order.
func (r *Reader) BorrowedMagazines() []Magazine { return slices.Clone(r.magazinesBorrowed) }

// HasBorrowed reports whether either borrowed list holds an item with code.
func (r *Reader) HasBorrowed(code string) bool {
	for _, b := range r.booksBorrowed {
		if b.code == code {
			return true
		}
	}
	for _, m := range r.magazinesBorrowed {
		if m.code == code {
			return true
		}
	}
	return false
}

// matchesName compares trimmed names case-insensitively.
func (r *Reader) matchesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(r.name), strings.TrimSpace(name))
}

// State is the whole depository: it is always loaded and saved as one unit.
type State struct {
	Books     *Depository[Book]
	Magazines *Depository[Magazine]
	Readers   []*Reader
}

// NewState returns an empty depository.
func NewState() *State {
	return &State{
		Books:     NewDepository[Book](),
		Magazines: NewDepository[Magazine](),
		Readers:   []*Reader{},
	}
}
