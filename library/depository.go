package library

import (
	"fmt"
	"iter"
)

// Listing is one row of a depository listing. Position is 1-based.
type Listing struct {
	Position int
	Title    string
	Year     int
}

// Depository is an ordered collection of catalog items of one kind. The
// same operations serve books, magazines and any other Item.
//
// Removal swaps the last element into the freed slot, so the relative order
// of the remaining items is not preserved after a remove or a borrow.
type Depository[T Item] struct {
	items []T
}

// NewDepository returns an empty depository, optionally seeded in order.
func NewDepository[T Item](seed ...T) *Depository[T] {
	items := make([]T, 0, len(seed))
	items = append(items, seed...)
	return &Depository[T]{items: items}
}

// Add appends item. Duplicates are allowed.
func (d *Depository[T]) Add(item T) {
	d.items = append(d.items, item)
}

func (d *Depository[T]) Len() int { return len(d.items) }

// Items returns a copy of the collection in its current order.
func (d *Depository[T]) Items() []T {
	out := make([]T, len(d.items))
	copy(out, d.items)
	return out
}

// List enumerates the collection in its current order. Every range over the
// returned sequence starts again from the current state.
func (d *Depository[T]) List() iter.Seq[Listing] {
	return func(yield func(Listing) bool) {
		for i, item := range d.items {
			if !yield(Listing{Position: i + 1, Title: item.Title(), Year: item.Year()}) {
				return
			}
		}
	}
}

// FindByPosition returns the item at the 1-based position shown by List.
func (d *Depository[T]) FindByPosition(pos int) (T, error) {
	var zero T
	if pos < 1 || pos > len(d.items) {
		return zero, &OpError{
			Op:   "depository.find",
			Kind: KindNotFound,
			Err:  fmt.Errorf("no item at position %d", pos),
		}
	}
	return d.items[pos-1], nil
}

// Contains reports whether an item with code is in the collection.
func (d *Depository[T]) Contains(code string) bool {
	for _, item := range d.items {
		if item.Identity() == code {
			return true
		}
	}
	return false
}

// RemoveByIdentity removes the item sharing target's identity. Title and
// year are ignored.
func (d *Depository[T]) RemoveByIdentity(target T) bool {
	return d.Remove(target.Identity())
}

// Remove scans from the back and removes the first item whose identity is
// code. It reports false and leaves the collection untouched when nothing
// matches.
func (d *Depository[T]) Remove(code string) bool {
	for i := len(d.items) - 1; i >= 0; i-- {
		if d.items[i].Identity() != code {
			continue
		}
		last := len(d.items) - 1
		d.items[i] = d.items[last]
		var zero T
		d.items[last] = zero
		d.items = d.items[:last]
		return true
	}
	return false
}

// BorrowTransfer moves item from the depository to the first reader whose
// name matches readerName case-insensitively. If no reader matches the
// depository is left as it was.
func (d *Depository[T]) BorrowTransfer(readers []*Reader, item T, readerName string) (*Reader, error) {
	reader := findReader(readers, readerName)
	if reader == nil {
		return nil, &OpError{
			Op:   "depository.borrow",
			Kind: KindReaderNotFound,
			Err:  fmt.Errorf("no reader named %q", readerName),
		}
	}
	d.RemoveByIdentity(item)
	item.BorrowInto(reader)
	return reader, nil
}

func findReader(readers []*Reader, name string) *Reader {
	for _, r := range readers {
		if r != nil && r.matchesName(name) {
			return r
		}
	}
	return nil
}
