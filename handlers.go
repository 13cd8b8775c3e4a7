package main

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"

	"github.com/matsen17/books/library"
)

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty depository file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := library.InitStore(a.cfg.DataFile, force); err != nil {
				if library.IsKind(err, library.KindValidation) {
					return fmt.Errorf("%s already exists, use --force to replace it", a.cfg.DataFile)
				}
				return err
			}
			fmt.Fprintf(a.out, "Initialized empty depository at %s\n", a.cfg.DataFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing depository")
	return cmd
}

// ------------------ Books ------------------

func newAddBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add-book",
		Aliases: []string{"addbook"},
		Short:   "Add a book to the depository",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				return handleAddBook(a, cmd, lm)
			})
		},
	}
	cmd.Flags().String("title", "", "book title")
	cmd.Flags().String("year", "", "publication year")
	cmd.Flags().String("code", "", "identity (ISBN) code")
	return cmd
}

func handleAddBook(a *app, cmd *cobra.Command, lm *library.LibraryManager) error {
	title, err := a.field(cmd, "title", "Enter book name")
	if err != nil {
		return err
	}
	year, err := a.intField(cmd, "year", "Enter book year")
	if err != nil {
		return err
	}
	code, err := a.field(cmd, "code", "Enter book ISBN code")
	if err != nil {
		return err
	}

	b, err := lm.AddBook(code, title, year)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Adding a new book called %s and published in %d\n", b.Title(), b.Year())
	return nil
}

func newListBooksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list-books",
		Aliases: []string{"listbooks"},
		Short:   "List the books in the depository",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				printListing(a.out, lm.ListBooks(), "No books in depository.")
				return nil
			})
		},
	}
}

func newRemoveBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove-book",
		Aliases: []string{"removebook"},
		Short:   "Remove a book by its identity code",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				code, err := a.field(cmd, "code", "Enter book ISBN code")
				if err != nil {
					return err
				}
				reportRemoval(a.out, "book", code, lm.RemoveBook(code))
				return nil
			})
		},
	}
	cmd.Flags().String("code", "", "identity (ISBN) code")
	return cmd
}

func newBorrowBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "borrow-book",
		Aliases: []string{"borrowbook"},
		Short:   "Lend a book to a reader",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				return handleBorrow(a, cmd, "book", lm.State().Books, lm.ListBooks(), lm.BorrowBook)
			})
		},
	}
	addBorrowFlags(cmd)
	return cmd
}

// ------------------ Magazines ------------------

func newAddMagazineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add-magazine",
		Aliases: []string{"addmagazine"},
		Short:   "Add a magazine to the depository",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				return handleAddMagazine(a, cmd, lm)
			})
		},
	}
	cmd.Flags().String("title", "", "magazine title")
	cmd.Flags().String("year", "", "publication year")
	cmd.Flags().String("character", "", "featured character")
	cmd.Flags().String("code", "", "identity (ISBN) code")
	return cmd
}

func handleAddMagazine(a *app, cmd *cobra.Command, lm *library.LibraryManager) error {
	title, err := a.field(cmd, "title", "Enter magazine name")
	if err != nil {
		return err
	}
	year, err := a.intField(cmd, "year", "Enter magazine year")
	if err != nil {
		return err
	}
	character, err := a.field(cmd, "character", "Enter featured character")
	if err != nil {
		return err
	}
	code, err := a.field(cmd, "code", "Enter magazine ISBN code")
	if err != nil {
		return err
	}

	m, err := lm.AddMagazine(code, title, year, character)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Adding a new magazine called %s and published in %d\n", m.Title(), m.Year())
	return nil
}

func newListMagazinesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list-magazines",
		Aliases: []string{"listmagazines"},
		Short:   "List the magazines in the depository",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				printListing(a.out, lm.ListMagazines(), "No magazines in depository.")
				return nil
			})
		},
	}
}

func newRemoveMagazineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove-magazine",
		Aliases: []string{"removemagazine"},
		Short:   "Remove a magazine by its identity code",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				code, err := a.field(cmd, "code", "Enter magazine ISBN code")
				if err != nil {
					return err
				}
				reportRemoval(a.out, "magazine", code, lm.RemoveMagazine(code))
				return nil
			})
		},
	}
	cmd.Flags().String("code", "", "identity (ISBN) code")
	return cmd
}

func newBorrowMagazineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "borrow-magazine",
		Aliases: []string{"borrowmagazine"},
		Short:   "Lend a magazine to a reader",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				return handleBorrow(a, cmd, "magazine", lm.State().Magazines, lm.ListMagazines(), lm.BorrowMagazine)
			})
		},
	}
	addBorrowFlags(cmd)
	return cmd
}

// ------------------ Readers ------------------

func newAddReaderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add-reader",
		Aliases: []string{"adduser"},
		Short:   "Register a reader",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				name, err := a.field(cmd, "name", "Enter reader name")
				if err != nil {
					return err
				}
				r, err := lm.AddReader(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Adding a new reader called %s\n", r.Name())
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "reader name")
	return cmd
}

func newListReadersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list-readers",
		Aliases: []string{"listreaders"},
		Short:   "List readers and what they borrowed",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return a.withManager(func(lm *library.LibraryManager) error {
				readers := lm.Readers()
				if len(readers) == 0 {
					fmt.Fprintln(a.out, "No readers registered.")
					return nil
				}
				for i, r := range readers {
					fmt.Fprintf(a.out, "%d. %s\n", i+1, r.Name())
					for _, b := range r.BorrowedBooks() {
						fmt.Fprintf(a.out, "   Book: %s (%d) [%s]\n", b.Title(), b.Year(), b.Identity())
					}
					for _, m := range r.BorrowedMagazines() {
						fmt.Fprintf(a.out, "   Magazine: %s (%d) [%s]\n", m.Title(), m.Year(), m.Identity())
					}
				}
				return nil
			})
		},
	}
}

// ------------------ Shared ------------------

func addBorrowFlags(cmd *cobra.Command) {
	cmd.Flags().String("index", "", "position shown by the list command")
	cmd.Flags().String("reader", "", "borrowing reader name")
}

// handleBorrow lists the catalog, resolves the selected position and lends
// the item. A bad position ends the run before the reader is asked for.
func handleBorrow[T library.Item](
	a *app,
	cmd *cobra.Command,
	noun string,
	depot *library.Depository[T],
	listing iter.Seq[library.Listing],
	borrow func(position int, readerName string) (T, error),
) error {
	if !cmd.Flags().Changed("index") {
		printListing(a.out, listing, fmt.Sprintf("No %ss in depository.", noun))
	}

	pos, err := a.intField(cmd, "index", fmt.Sprintf("Select %s to borrow by index:", noun))
	if err != nil {
		return err
	}
	if _, err := depot.FindByPosition(pos); err != nil {
		fmt.Fprintf(a.out, "No %s found with ID %d\n", noun, pos)
		return err
	}

	readerName, err := a.field(cmd, "reader", "Enter borrowing reader name:")
	if err != nil {
		return err
	}

	item, err := borrow(pos, readerName)
	if errors.Is(err, library.ErrReaderNotFound) {
		fmt.Fprintln(a.out, "No reader was found")
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s borrowed %s %q\n", readerName, noun, item.Title())
	return nil
}

func printListing(w io.Writer, listing iter.Seq[library.Listing], empty string) {
	n := 0
	for l := range listing {
		fmt.Fprintf(w, "%d. Title: %s Year %d\n", l.Position, l.Title, l.Year)
		n++
	}
	if n == 0 {
		fmt.Fprintln(w, empty)
	}
}

func reportRemoval(w io.Writer, noun, code string, removed bool) {
	if removed {
		fmt.Fprintf(w, "Found and removed %s %s\n", noun, code)
		return
	}
	fmt.Fprintf(w, "No %s found with code %s\n", noun, code)
}
