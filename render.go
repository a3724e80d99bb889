package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"

	"library-ledger/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func yearOrDash(y *int64) string {
	if y == nil {
		return "-"
	}
	return strconv.FormatInt(*y, 10)
}

func (a *app) renderBooks(w io.Writer, books []*library.Book) error {
	if a.jsonOut {
		return writeJSON(w, books)
	}
	if len(books) == 0 {
		fmt.Fprintln(w, "No books found.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTitle\tAuthor\tCategory\tYear\tStatus")
	for _, b := range books {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", b.ID, b.Title, b.Author, b.Category, b.Year, b.Status)
	}
	return tw.Flush()
}

func (a *app) renderMembers(w io.Writer, members []*library.Member) error {
	if a.jsonOut {
		return writeJSON(w, members)
	}
	if len(members) == 0 {
		fmt.Fprintln(w, "No members found.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tName\tBirth year\tGender\tPhone\tAddress")
	for _, m := range members {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, yearOrDash(m.BirthYear), m.Gender, m.Phone, m.Address)
	}
	return tw.Flush()
}

func (a *app) renderBorrowers(w io.Writer, options []*library.BorrowerOption) error {
	if a.jsonOut {
		return writeJSON(w, options)
	}
	if len(options) == 0 {
		fmt.Fprintln(w, "No members found.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tName")
	for _, o := range options {
		fmt.Fprintf(tw, "%d\t%s\n", o.ID, o.Name)
	}
	return tw.Flush()
}

func (a *app) renderHistory(w io.Writer, entries []*library.HistoryEntry) error {
	if a.jsonOut {
		return writeJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No loans found.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "Loan\tBook\tMember\tLoaned\tReturned\tNote")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", e.LoanID, e.BookTitle, e.MemberName, e.LoanDate, orDash(e.ReturnDate), orDash(e.Note))
	}
	return tw.Flush()
}

func (a *app) renderInconsistencies(w io.Writer, bad []*library.Inconsistency) error {
	if a.jsonOut {
		return writeJSON(w, bad)
	}
	if len(bad) == 0 {
		fmt.Fprintln(w, "All book statuses match their loans.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTitle\tStatus\tOpen loans")
	for _, b := range bad {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", b.BookID, b.Title, b.Status, b.OpenLoans)
	}
	return tw.Flush()
}
