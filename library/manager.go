package library

import (
	"errors"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"strings"
)

// LibraryManager is a thin façade over a Store and the state it loaded,
// keeping CLI code simple. One manager serves one load → mutate → save run.
type LibraryManager struct {
	store Store
	state *State
	log   *slog.Logger
}

// NewLibraryManager loads the depository stored at path. A load failure is
// returned as is; callers must not continue with an empty state.
func NewLibraryManager(path string, logger *slog.Logger) (*LibraryManager, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	store := OpenStore(path)
	state, err := store.Load()
	if err != nil {
		logger.Error("library.load_failed", "path", path, "err", err)
		return nil, err
	}
	logger.Debug("library.loaded",
		"path", path,
		"books", state.Books.Len(),
		"magazines", state.Magazines.Len(),
		"readers", len(state.Readers),
	)
	return &LibraryManager{store: store, state: state, log: logger}, nil
}

// InitStore writes an empty depository to path. An existing file is only
// replaced when force is set.
func InitStore(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return &OpError{Op: "library.init", Kind: KindValidation, Path: path, Err: fs.ErrExist}
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return persistenceError("library.init", path, err)
	}
	return OpenStore(path).Save(NewState())
}

// State exposes the loaded state.
func (lm *LibraryManager) State() *State { return lm.state }

// Save writes the full state back to the store.
func (lm *LibraryManager) Save() error {
	if err := lm.store.Save(lm.state); err != nil {
		lm.log.Error("library.save_failed", "path", lm.store.Path(), "err", err)
		return err
	}
	lm.log.Info("library.saved", "path", lm.store.Path())
	return nil
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(code, title string, year int) (Book, error) {
	code, title, err := requireCodeAndTitle("library.add_book", code, title)
	if err != nil {
		return Book{}, err
	}
	b := NewBook(code, title, year)
	lm.state.Books.Add(b)
	lm.log.Info("library.book_added", "code", code, "title", title, "year", year)
	return b, nil
}

func (lm *LibraryManager) ListBooks() iter.Seq[Listing] { return lm.state.Books.List() }

// RemoveBook reports whether a book with code was found and removed.
func (lm *LibraryManager) RemoveBook(code string) bool {
	removed := lm.state.Books.Remove(strings.TrimSpace(code))
	lm.log.Info("library.book_removed", "code", code, "removed", removed)
	return removed
}

// BorrowBook lends the book at the listed position to the named reader.
func (lm *LibraryManager) BorrowBook(position int, readerName string) (Book, error) {
	b, err := lm.state.Books.FindByPosition(position)
	if err != nil {
		return Book{}, err
	}
	if _, err := lm.state.Books.BorrowTransfer(lm.state.Readers, b, readerName); err != nil {
		lm.log.Warn("library.borrow_failed", "code", b.Identity(), "reader", readerName, "err", err)
		return Book{}, err
	}
	lm.log.Info("library.book_borrowed", "code", b.Identity(), "reader", readerName)
	return b, nil
}

// ------------------ Magazine helpers ------------------

func (lm *LibraryManager) AddMagazine(code, title string, year int, featuredCharacter string) (Magazine, error) {
	code, title, err := requireCodeAndTitle("library.add_magazine", code, title)
	if err != nil {
		return Magazine{}, err
	}
	m := NewMagazine(code, title, year, strings.TrimSpace(featuredCharacter))
	lm.state.Magazines.Add(m)
	lm.log.Info("library.magazine_added", "code", code, "title", title, "year", year)
	return m, nil
}

func (lm *LibraryManager) ListMagazines() iter.Seq[Listing] { return lm.state.Magazines.List() }

func (lm *LibraryManager) RemoveMagazine(code string) bool {
	removed := lm.state.Magazines.Remove(strings.TrimSpace(code))
	lm.log.Info("library.magazine_removed", "code", code, "removed", removed)
	return removed
}

func (lm *LibraryManager) BorrowMagazine(position int, readerName string) (Magazine, error) {
	m, err := lm.state.Magazines.FindByPosition(position)
	if err != nil {
		return Magazine{}, err
	}
	if _, err := lm.state.Magazines.BorrowTransfer(lm.state.Readers, m, readerName); err != nil {
		lm.log.Warn("library.borrow_failed", "code", m.Identity(), "reader", readerName, "err", err)
		return Magazine{}, err
	}
	lm.log.Info("library.magazine_borrowed", "code", m.Identity(), "reader", readerName)
	return m, nil
}

// ------------------ Reader helpers ------------------

func (lm *LibraryManager) AddReader(name string) (*Reader, error) {
	r, err := NewReader(name)
	if err != nil {
		return nil, err
	}
	lm.state.Readers = append(lm.state.Readers, r)
	lm.log.Info("library.reader_added", "name", r.Name())
	return r, nil
}

// Readers returns the registered readers in registration order.
func (lm *LibraryManager) Readers() []*Reader {
	out := make([]*Reader, len(lm.state.Readers))
	copy(out, lm.state.Readers)
	return out
}

func requireCodeAndTitle(op, code, title string) (string, string, error) {
	code = strings.TrimSpace(code)
	title = strings.TrimSpace(title)
	if code == "" {
		return "", "", validationError(op, "identity code cannot be empty")
	}
	if title == "" {
		return "", "", validationError(op, "title cannot be empty")
	}
	return code, title, nil
}
