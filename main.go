package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"library-ledger/config"
	"library-ledger/library"
)

// app carries what every command needs once the ledger is open.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	mgr     *library.LibraryManager
	jsonOut bool
}

func main() {
	cfg := config.NewConfig()
	a := &app{cfg: cfg}

	err := newRootCommand(a).Execute()
	// PersistentPostRunE is skipped when a command fails.
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "library",
		Short:         "Manage a small library: books, members, loans and returns",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.cfg.Database.Path, "db", a.cfg.Database.Path, "path to the SQLite database file")
	root.PersistentFlags().BoolVar(&a.cfg.Database.StrictLoans, "strict-loans", a.cfg.Database.StrictLoans, "refuse to loan a book that is already on loan")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newBookCommand(a),
		newMemberCommand(a),
		newLoanCommand(a),
		newReturnCommand(a),
		newActiveCommand(a),
		newHistoryCommand(a),
		newCheckCommand(a),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	if a.mgr != nil {
		return nil
	}
	a.logger = a.cfg.Log.NewLogger(cmd.ErrOrStderr())

	mgr, err := library.NewLibraryManager(a.cfg.Database.Path,
		library.WithLogger(a.logger),
		library.WithStrictLoans(a.cfg.Database.StrictLoans),
	)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	for _, w := range mgr.Warnings() {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}
	a.mgr = mgr
	return nil
}

func (a *app) close() error {
	if a.mgr == nil {
		return nil
	}
	err := a.mgr.Close()
	a.mgr = nil
	return err
}
