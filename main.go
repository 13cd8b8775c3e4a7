package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matsen17/books/config"
	"github.com/matsen17/books/library"
	"github.com/matsen17/books/logging"
)

func main() {
	if err := execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs for a single run.
type app struct {
	cfg     config.Config
	file    string
	debug   bool
	in      *bufio.Scanner
	out     io.Writer
	prompts bool
	log     *slog.Logger
	cleanup func() error
}

func execute(args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	err := cmd.Execute()
	if a.cleanup != nil {
		_ = a.cleanup()
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "library",
		Short:        "Manage the books, magazines and readers of a library depository",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.file, "file", "", "depository file (.json, or .db/.sqlite for SQLite); overrides LIBRARY_DATA_FILE")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable verbose logging")

	cmd.AddCommand(
		newInitCmd(a),
		newAddBookCmd(a),
		newListBooksCmd(a),
		newRemoveBookCmd(a),
		newBorrowBookCmd(a),
		newAddMagazineCmd(a),
		newListMagazinesCmd(a),
		newRemoveMagazineCmd(a),
		newBorrowMagazineCmd(a),
		newAddReaderCmd(a),
		newListReadersCmd(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if cmd.Flags().Changed("file") {
		cfg.DataFile = strings.TrimSpace(a.file)
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg

	cleanup, err := logging.Setup(logging.Config{Dir: cfg.LogDir, Debug: cfg.Debug})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: logging disabled: %v\n", err)
	}
	a.cleanup = cleanup
	a.log = logging.L().With("command", cmd.Name())

	a.in = bufio.NewScanner(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	a.prompts = isTerminal(cmd.InOrStdin())
	return nil
}

// withManager runs one load → action → save cycle. Validation errors and
// position misses happen before anything is mutated, so the run stops
// without saving; every other outcome is saved and then reported.
func (a *app) withManager(action func(lm *library.LibraryManager) error) error {
	lm, err := library.NewLibraryManager(a.cfg.DataFile, a.log)
	if err != nil {
		return fmt.Errorf("error loading book depository data: %w", err)
	}

	actionErr := action(lm)
	if errors.Is(actionErr, library.ErrValidation) || errors.Is(actionErr, library.ErrNotFound) {
		return actionErr
	}

	if err := lm.Save(); err != nil {
		return errors.Join(actionErr, fmt.Errorf("error saving data: %w", err))
	}
	fmt.Fprintln(a.out, "Data saved successfully.")
	return actionErr
}

// ------------------ Input helpers ------------------

// field returns the flag value when it was given, otherwise the next input line.
func (a *app) field(cmd *cobra.Command, flag, prompt string) (string, error) {
	if cmd.Flags().Changed(flag) {
		v, err := cmd.Flags().GetString(flag)
		return strings.TrimSpace(v), err
	}
	return a.ask(prompt)
}

func (a *app) ask(prompt string) (string, error) {
	if a.prompts {
		fmt.Fprintln(a.out, prompt)
	}
	if !a.in.Scan() {
		if err := a.in.Err(); err != nil {
			return "", err
		}
		return "", &library.OpError{Op: "input", Kind: library.KindValidation, Err: fmt.Errorf("no input for %q", prompt)}
	}
	return strings.TrimSpace(a.in.Text()), nil
}

func (a *app) intField(cmd *cobra.Command, flag, prompt string) (int, error) {
	raw, err := a.field(cmd, flag, prompt)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &library.OpError{Op: "input." + flag, Kind: library.KindValidation, Err: fmt.Errorf("invalid input %q: not a number", raw)}
	}
	return n, nil
}

// isTerminal decides whether prompts are worth printing; piped input gets none.
func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
