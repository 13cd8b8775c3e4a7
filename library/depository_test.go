package library

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identities[T Item](d *Depository[T]) []string {
	var out []string
	for _, item := range d.Items() {
		out = append(out, item.Identity())
	}
	return out
}

func TestListFollowsInsertionOrder(t *testing.T) {
	d := NewDepository[Book]()
	d.Add(NewBook("A1", "Dune", 1965))
	d.Add(NewBook("B2", "Emma", 1815))
	d.Add(NewBook("C3", "Ulysses", 1922))

	got := slices.Collect(d.List())
	assert.Equal(t, []Listing{
		{Position: 1, Title: "Dune", Year: 1965},
		{Position: 2, Title: "Emma", Year: 1815},
		{Position: 3, Title: "Ulysses", Year: 1922},
	}, got)
}

func TestListIsRestartableAndReflectsCurrentState(t *testing.T) {
	d := NewDepository(NewBook("A1", "Dune", 1965))
	seq := d.List()

	first := slices.Collect(seq)
	require.Len(t, first, 1)

	d.Add(NewBook("B2", "Emma", 1815))
	second := slices.Collect(seq)
	require.Len(t, second, 2)
	assert.Equal(t, 2, second[1].Position)
	assert.Equal(t, 2, d.Len())
}

func TestListStopsEarly(t *testing.T) {
	d := NewDepository(NewBook("A1", "Dune", 1965), NewBook("B2", "Emma", 1815))
	n := 0
	for range d.List() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestAddAllowsDuplicates(t *testing.T) {
	d := NewDepository[Book]()
	d.Add(NewBook("A1", "Dune", 1965))
	d.Add(NewBook("A1", "Dune", 1965))
	assert.Equal(t, 2, d.Len())
}

func TestFindByPosition(t *testing.T) {
	d := NewDepository(
		NewBook("A1", "Dune", 1965),
		NewBook("B2", "Emma", 1815),
		NewBook("C3", "Ulysses", 1922),
	)

	b, err := d.FindByPosition(2)
	require.NoError(t, err)
	assert.Equal(t, "B2", b.Identity())

	for _, pos := range []int{0, -1, 4, 99} {
		_, err := d.FindByPosition(pos)
		assert.ErrorIs(t, err, ErrNotFound, "position %d", pos)
		assert.True(t, IsKind(err, KindNotFound))
	}
}

func TestFindByPositionOnEmptyDepository(t *testing.T) {
	_, err := NewDepository[Magazine]().FindByPosition(1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveByIdentityIgnoresTitleAndYear(t *testing.T) {
	d := NewDepository(NewBook("A1", "Dune", 1965))

	removed := d.RemoveByIdentity(NewBook("A1", "Something else", 2001))
	assert.True(t, removed)
	assert.Equal(t, 0, d.Len())
}

func TestRemoveByIdentityAbsentIsNoop(t *testing.T) {
	d := NewDepository(NewBook("A1", "Dune", 1965), NewBook("B2", "Emma", 1815))
	before := identities(d)

	removed := d.RemoveByIdentity(NewBook("ZZ", "Dune", 1965))
	assert.False(t, removed)
	assert.Equal(t, before, identities(d))

	// Same title and year but a different code is still a different entry.
	assert.False(t, d.Remove("Dune"))
	assert.Equal(t, 2, d.Len())
}

func TestRemoveSwapsLastIntoSlot(t *testing.T) {
	d := NewDepository(
		NewBook("A1", "Dune", 1965),
		NewBook("B2", "Emma", 1815),
		NewBook("C3", "Ulysses", 1922),
		NewBook("D4", "Walden", 1854),
	)

	require.True(t, d.Remove("B2"))
	assert.Equal(t, []string{"A1", "D4", "C3"}, identities(d))

	got := slices.Collect(d.List())
	assert.Equal(t, Listing{Position: 2, Title: "Walden", Year: 1854}, got[1])
}

func TestRemoveTakesLastDuplicate(t *testing.T) {
	d := NewDepository(
		NewBook("A1", "Dune", 1965),
		NewBook("B2", "Emma", 1815),
		NewBook("A1", "Dune (2nd copy)", 1965),
	)

	require.True(t, d.Remove("A1"))
	assert.Equal(t, []string{"A1", "B2"}, identities(d))
	first, err := d.FindByPosition(1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", first.Title())
}

func TestBorrowTransferMovesBook(t *testing.T) {
	ann, err := NewReader("Ann")
	require.NoError(t, err)
	readers := []*Reader{ann}

	b := NewBook("B1", "Dune", 1965)
	d := NewDepository(NewBook("A0", "Emma", 1815), b)

	got, err := d.BorrowTransfer(readers, b, "ann")
	require.NoError(t, err)
	assert.Same(t, ann, got)

	assert.False(t, d.Contains("B1"))
	assert.Equal(t, []Book{b}, ann.BorrowedBooks())
	assert.Empty(t, ann.BorrowedMagazines())
}

func TestBorrowTransferMovesMagazineToMagazineList(t *testing.T) {
	bob, _ := NewReader("Bob")
	m := NewMagazine("M1", "Spider-Man", 1963, "Peter Parker")
	d := NewDepository(m)

	_, err := d.BorrowTransfer([]*Reader{bob}, m, "  BOB ")
	require.NoError(t, err)

	assert.Equal(t, 0, d.Len())
	assert.Equal(t, []Magazine{m}, bob.BorrowedMagazines())
	assert.Empty(t, bob.BorrowedBooks())
}

func TestBorrowTransferUnknownReaderLeavesDepository(t *testing.T) {
	ann, _ := NewReader("Ann")
	b := NewBook("B1", "Dune", 1965)
	d := NewDepository(b)

	_, err := d.BorrowTransfer([]*Reader{ann}, b, "Anna")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReaderNotFound))

	assert.True(t, d.Contains("B1"))
	assert.False(t, ann.HasBorrowed("B1"))
}

func TestBorrowTransferFirstMatchingReaderWins(t *testing.T) {
	first, _ := NewReader("Sam")
	second, _ := NewReader("SAM")
	b := NewBook("B1", "Dune", 1965)
	d := NewDepository(b)

	got, err := d.BorrowTransfer([]*Reader{first, second}, b, "sam")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Len(t, first.BorrowedBooks(), 1)
	assert.Empty(t, second.BorrowedBooks())
}

func TestBorrowTransferItemInExactlyOnePlace(t *testing.T) {
	ann, _ := NewReader("Ann")
	bob, _ := NewReader("Bob")
	readers := []*Reader{ann, bob}
	d := NewDepository(
		NewBook("A1", "Dune", 1965),
		NewBook("B2", "Emma", 1815),
		NewBook("C3", "Ulysses", 1922),
	)

	item, err := d.FindByPosition(1)
	require.NoError(t, err)
	_, err = d.BorrowTransfer(readers, item, "Bob")
	require.NoError(t, err)

	holders := 0
	for _, r := range readers {
		if r.HasBorrowed("A1") {
			holders++
		}
	}
	assert.Equal(t, 1, holders)
	assert.False(t, d.Contains("A1"))
	assert.ElementsMatch(t, []string{"B2", "C3"}, identities(d))
}
