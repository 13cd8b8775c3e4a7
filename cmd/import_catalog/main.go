package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen17/books/config"
	"github.com/matsen17/books/library"
	"github.com/matsen17/books/logging"
)

func main() {
	if err := newImportCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:          "import_catalog [flags] catalog.csv",
		Short:        "Bulk-add books and magazines from a CSV file",
		Long:         "Each row is kind,isbnCode,title,year[,featuredCharacter] where kind is book or magazine.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("file") {
				cfg.DataFile = file
			}

			cleanup, _ := logging.Setup(logging.Config{Dir: cfg.LogDir, Debug: cfg.Debug})
			if cleanup != nil {
				defer func() { _ = cleanup() }()
			}

			manager, err := library.NewLibraryManager(cfg.DataFile, logging.L())
			if err != nil {
				return fmt.Errorf("error loading depository: %w", err)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Importing catalog from %s...\n", args[0])
			res, err := importCatalog(manager, f)
			if err != nil {
				return err
			}
			for _, line := range res.Failures {
				fmt.Fprintf(cmd.ErrOrStderr(), "  ✗ %s\n", line)
			}

			if err := manager.Save(); err != nil {
				return fmt.Errorf("error saving depository: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Import complete: %d added, %d failed\n", res.Added, len(res.Failures))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "depository file; overrides LIBRARY_DATA_FILE")
	return cmd
}

type importResult struct {
	Added    int
	Failures []string
}

// importCatalog adds every well-formed row and collects a message for the
// rest. Only an unreadable CSV stream is an error.
func importCatalog(manager *library.LibraryManager, r io.Reader) (importResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var res importResult
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("read csv: %w", err)
		}

		if err := importRow(manager, rec); err != nil {
			line, _ := cr.FieldPos(0)
			res.Failures = append(res.Failures, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		res.Added++
	}
}

func importRow(manager *library.LibraryManager, rec []string) error {
	if len(rec) < 4 {
		return fmt.Errorf("expected at least 4 fields, got %d", len(rec))
	}
	kind := strings.ToLower(strings.TrimSpace(rec[0]))
	year, err := strconv.Atoi(strings.TrimSpace(rec[3]))
	if err != nil {
		return fmt.Errorf("invalid year %q", rec[3])
	}

	switch kind {
	case "book":
		_, err = manager.AddBook(rec[1], rec[2], year)
	case "magazine":
		character := ""
		if len(rec) > 4 {
			character = rec[4]
		}
		_, err = manager.AddMagazine(rec[1], rec[2], year, character)
	default:
		err = fmt.Errorf("unknown kind %q", rec[0])
	}
	return err
}
