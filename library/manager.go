package library

import (
	"context"
	"errors"
	"fmt"
)

// DeleteResult is the outcome of LibraryManager.DeleteBook.
type DeleteResult int

const (
	DeleteFailed DeleteResult = iota
	Deleted
	DeleteRejectedOnLoan
)

func (r DeleteResult) String() string {
	switch r {
	case Deleted:
		return "deleted"
	case DeleteRejectedOnLoan:
		return "rejected: on loan"
	default:
		return "failed"
	}
}

// LibraryManager is a thin façade over the Database, keeping CLI code simple.
// Every call runs to completion before returning; there is no cancellation.
type LibraryManager struct {
	db *Database
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string, opts ...Option) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath, opts...)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{db: db}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Warnings returns non-fatal migration problems found at startup.
func (lm *LibraryManager) Warnings() []string { return lm.db.Warnings() }

// ------------------ Member helpers ------------------

func (lm *LibraryManager) AddMember(in MemberInput) (int64, error) {
	return lm.db.AddMember(context.Background(), in)
}

func (lm *LibraryManager) UpdateMember(id int64, in MemberInput) error {
	return lm.db.UpdateMember(context.Background(), id, in)
}

func (lm *LibraryManager) GetMember(id int64) (*Member, error) {
	return lm.db.GetMember(context.Background(), id)
}

func (lm *LibraryManager) ListMembers(sort MemberSort) ([]*Member, error) {
	return lm.db.ListMembers(context.Background(), sort)
}

func (lm *LibraryManager) SearchMembers(term string, sort MemberSort) ([]*Member, error) {
	return lm.db.SearchMembers(context.Background(), term, sort)
}

// SearchBorrowers feeds the borrower picker of the loan dialog.
func (lm *LibraryManager) SearchBorrowers(term string) ([]*BorrowerOption, error) {
	return lm.db.SearchBorrowers(context.Background(), term)
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(in BookInput) (int64, error) {
	return lm.db.AddBook(context.Background(), in)
}

func (lm *LibraryManager) UpdateBook(id int64, in BookInput) error {
	return lm.db.UpdateBook(context.Background(), id, in)
}

func (lm *LibraryManager) GetBook(id int64) (*Book, error) {
	return lm.db.GetBook(context.Background(), id)
}

func (lm *LibraryManager) ListBooks(sort BookSort) ([]*Book, error) {
	return lm.db.ListBooks(context.Background(), sort)
}

func (lm *LibraryManager) SearchBooks(term string) ([]*Book, error) {
	return lm.db.SearchBooks(context.Background(), term)
}

// DeleteBook maps the storage outcome onto Deleted, DeleteRejectedOnLoan or
// DeleteFailed. The refusal is not an error; a failure carries its cause.
func (lm *LibraryManager) DeleteBook(id int64) (DeleteResult, error) {
	err := lm.db.DeleteBook(context.Background(), id)
	switch {
	case err == nil:
		return Deleted, nil
	case errors.Is(err, ErrBookOnLoan):
		return DeleteRejectedOnLoan, nil
	default:
		return DeleteFailed, err
	}
}

// ------------------ Circulation ------------------

func (lm *LibraryManager) LoanBook(bookID, memberID int64) error {
	return lm.db.LoanBook(context.Background(), bookID, memberID)
}

func (lm *LibraryManager) ActiveLoan(bookID int64) (*ActiveLoan, error) {
	return lm.db.ActiveLoan(context.Background(), bookID)
}

func (lm *LibraryManager) ReturnBook(bookID int64, note string) (ReturnResult, error) {
	return lm.db.ReturnBook(context.Background(), bookID, note)
}

func (lm *LibraryManager) History(filter HistoryFilter) ([]*HistoryEntry, error) {
	return lm.db.History(context.Background(), filter)
}

// ForceAvailable is the recovery escape hatch for a book stuck OnLoan with no
// open loan. Callers are expected to ask for confirmation first.
func (lm *LibraryManager) ForceAvailable(bookID int64) error {
	return lm.db.ForceAvailable(context.Background(), bookID)
}

func (lm *LibraryManager) InconsistentBooks() ([]*Inconsistency, error) {
	return lm.db.InconsistentBooks(context.Background())
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-30s %-25s %-15s %-6d %-10s", b.ID, b.Title, b.Author, b.Category, b.Year, b.Status)
}
