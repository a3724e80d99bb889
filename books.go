package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-ledger/library"
)

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, s)
	}
	return id, nil
}

// parseYear validates a year field. Empty input yields nil unless required.
func parseYear(field, s string, required bool) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		if required {
			return nil, fmt.Errorf("%s is required", field)
		}
		return nil, nil
	}
	y, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number: %q", field, s)
	}
	return &y, nil
}

type bookFlags struct {
	title, author, category, year string
}

func (f *bookFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "book title (required)")
	cmd.Flags().StringVar(&f.author, "author", "", "book author (required)")
	cmd.Flags().StringVar(&f.category, "category", "", "book category")
	cmd.Flags().StringVar(&f.year, "year", "", "publication year (required)")
}

func (f *bookFlags) input() (library.BookInput, error) {
	in := library.BookInput{
		Title:    strings.TrimSpace(f.title),
		Author:   strings.TrimSpace(f.author),
		Category: strings.TrimSpace(f.category),
	}
	if in.Title == "" || in.Author == "" {
		return in, errors.New("title and author are required")
	}
	y, err := parseYear("year", f.year, true)
	if err != nil {
		return in, err
	}
	in.Year = *y
	return in, nil
}

func newBookCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "book", Short: "Catalog commands"}
	cmd.AddCommand(
		newBookAddCommand(a),
		newBookListCommand(a),
		newBookSearchCommand(a),
		newBookShowCommand(a),
		newBookUpdateCommand(a),
		newBookDeleteCommand(a),
		newBookResetStatusCommand(a),
	)
	return cmd
}

func newBookAddCommand(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			id, err := a.mgr.AddBook(in)
			if err != nil {
				return fmt.Errorf("adding book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added book ID %d.\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBookListCommand(a *app) *cobra.Command {
	var sort string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			books, err := a.mgr.ListBooks(library.ParseBookSort(sort))
			if err != nil {
				return err
			}
			return a.renderBooks(cmd.OutOrStdout(), books)
		},
	}
	cmd.Flags().StringVar(&sort, "sort", library.BookIDDesc.String(),
		"newest, oldest, title, author, year-desc, year-asc, category or status")
	return cmd
}

func newBookSearchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search [term]",
		Short: "Search books by title, author or category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var term string
			if len(args) == 1 {
				term = strings.TrimSpace(args[0])
			}
			books, err := a.mgr.SearchBooks(term)
			if err != nil {
				return err
			}
			return a.renderBooks(cmd.OutOrStdout(), books)
		},
	}
}

func newBookShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <book-id>",
		Short: "Show a book and its current borrower",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			book, err := a.mgr.GetBook(id)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return writeJSON(out, book)
			}
			fmt.Fprintln(out, library.PrettyBook(book))
			if book.Status != library.StatusOnLoan {
				return nil
			}
			loan, err := a.mgr.ActiveLoan(id)
			if err != nil {
				return err
			}
			if loan == nil {
				fmt.Fprintln(out, "Marked on loan but no open loan was found. Use 'return' or 'book reset-status' to repair.")
				return nil
			}
			fmt.Fprintf(out, "Borrowed by %s (ID: %d) since %s\n", loan.MemberName, loan.MemberID, loan.LoanDate)
			return nil
		},
	}
}

func newBookUpdateCommand(a *app) *cobra.Command {
	var f bookFlags
	cmd := &cobra.Command{
		Use:   "update <book-id>",
		Short: "Edit title, author, category and year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			in, err := f.input()
			if err != nil {
				return err
			}
			if err := a.mgr.UpdateBook(id, in); err != nil {
				return fmt.Errorf("updating book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d updated.\n", id)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newBookDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <book-id>",
		Short: "Delete a book that is not on loan, with its loan history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			res, err := a.mgr.DeleteBook(id)
			switch res {
			case library.Deleted:
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d deleted.\n", id)
			case library.DeleteRejectedOnLoan:
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d is on loan and cannot be deleted. Return it first.\n", id)
			default:
				return fmt.Errorf("deleting book: %w", err)
			}
			return nil
		},
	}
}

func newBookResetStatusCommand(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset-status <book-id>",
		Short: "Force a book's status to Available without closing any loan",
		Long: "Administrative repair for a book marked on loan with no open loan.\n" +
			"It bypasses 'return' and leaves loan rows untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Force book %d to Available? [y/N] ", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}
			if err := a.mgr.ForceAvailable(id); err != nil {
				return fmt.Errorf("resetting status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book %d status reset to Available.\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks a yes/no question. It refuses to guess when stdin is not a terminal.
func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		return false, errors.New("confirmation required: rerun with --yes")
	}
	fmt.Fprint(out, prompt)
	sc := bufio.NewScanner(in)
	if !sc.Scan() {
		return false, sc.Err()
	}
	answer := strings.ToLower(strings.TrimSpace(sc.Text()))
	return answer == "y" || answer == "yes", nil
}
