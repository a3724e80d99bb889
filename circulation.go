package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"library-ledger/library"
)

func newLoanCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "loan <book-id> <member-id>",
		Short: "Loan an available book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			memberID, err := parseID("member", args[1])
			if err != nil {
				return err
			}

			// The ledger trusts its caller on availability, so check right before loaning.
			book, err := a.mgr.GetBook(bookID)
			if err != nil {
				return err
			}
			if book.Status != library.StatusAvailable {
				fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' is already on loan.\n", book.Title)
				return nil
			}
			member, err := a.mgr.GetMember(memberID)
			if err != nil {
				return err
			}

			if err := a.mgr.LoanBook(bookID, memberID); err != nil {
				return fmt.Errorf("loaning book: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Book '%s' loaned to %s\n", book.Title, member.Name)
			return nil
		},
	}
}

func newReturnCommand(a *app) *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "return <book-id>",
		Short: "Return a book, closing its open loan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			res, err := a.mgr.ReturnBook(bookID, note)
			switch res {
			case library.Returned:
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d returned.\n", bookID)
			case library.NoActiveLoan:
				fmt.Fprintf(cmd.OutOrStdout(), "Book %d had no open loan; its status is now Available.\n", bookID)
			default:
				return fmt.Errorf("returning book: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "condition note recorded with the return")
	return cmd
}

func newActiveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "active <book-id>",
		Short: "Show who currently has a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bookID, err := parseID("book", args[0])
			if err != nil {
				return err
			}
			loan, err := a.mgr.ActiveLoan(bookID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.jsonOut {
				return writeJSON(out, loan)
			}
			if loan == nil {
				fmt.Fprintf(out, "Book %d has no open loan.\n", bookID)
				return nil
			}
			fmt.Fprintf(out, "%s (ID: %d) since %s\n", loan.MemberName, loan.MemberID, loan.LoanDate)
			return nil
		},
	}
}

func newHistoryCommand(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show loan history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.mgr.History(library.ParseHistoryFilter(filter))
			if err != nil {
				return err
			}
			return a.renderHistory(cmd.OutOrStdout(), entries)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", library.HistoryNewest.String(), "newest, oldest, open or closed")
	return cmd
}

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "List books whose status disagrees with their loans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bad, err := a.mgr.InconsistentBooks()
			if err != nil {
				return err
			}
			return a.renderInconsistencies(cmd.OutOrStdout(), bad)
		},
	}
}
