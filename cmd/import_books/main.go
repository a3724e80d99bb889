package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"library-ledger/config"
	"library-ledger/library"
)

type importOptions struct {
	file  string
	reset bool
}

func main() {
	if err := newImportCommand(config.NewConfig()).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCommand(cfg *config.Config) *cobra.Command {
	var opts importOptions
	cmd := &cobra.Command{
		Use:           "import_books",
		Short:         "Load a CSV catalog of title,author,category,year rows into the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, opts)
		},
	}
	cmd.Flags().StringVar(&opts.file, "file", "books.csv", "CSV catalog with title,author,category,year rows")
	cmd.Flags().StringVar(&cfg.Database.Path, "db", cfg.Database.Path, "path to the SQLite database file")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "remove the existing database files before importing")
	return cmd
}

func run(out, errOut io.Writer, cfg *config.Config, opts importOptions) error {
	if opts.reset {
		fmt.Fprintln(out, "Cleaning up existing database files...")
		for _, suffix := range []string{"", "-shm", "-wal"} {
			name := cfg.Database.Path + suffix
			if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(out, "Warning: Could not remove %s: %v\n", name, err)
			}
		}
		fmt.Fprintln(out, "Database cleanup complete.")
	}

	manager, err := library.NewLibraryManager(cfg.Database.Path, library.WithLogger(cfg.Log.NewLogger(errOut)))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer manager.Close()

	f, err := os.Open(opts.file)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(out, "Importing books from %s...\n", opts.file)
	report, err := manager.ImportBooksCSV(f)
	if err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}
	for _, rowErr := range report.Errors {
		fmt.Fprintf(out, "ERROR - %v\n", rowErr)
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", len(report.Imported))
	fmt.Fprintf(out, "Errors: %d\n", len(report.Errors))

	if len(report.Imported) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\nImported books:")
	fmt.Fprintf(out, "%-4s %-50s %-30s %s\n", "ID", "Title", "Author", "Year")
	fmt.Fprintln(out, strings.Repeat("-", 92))
	for _, id := range report.Imported {
		book, err := manager.GetBook(id)
		if err != nil {
			fmt.Fprintf(out, "Error retrieving book %d: %v\n", id, err)
			continue
		}
		fmt.Fprintf(out, "%-4d %-50s %-30s %d\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30), book.Year)
	}
	return nil
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
