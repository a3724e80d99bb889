package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
)

// ReturnResult tells the caller whether Return closed a loan.
type ReturnResult int

const (
	ReturnFailed ReturnResult = iota
	Returned
	NoActiveLoan
)

func (r ReturnResult) String() string {
	switch r {
	case Returned:
		return "returned"
	case NoActiveLoan:
		return "no active loan"
	default:
		return "failed"
	}
}

// LoanBook flips the book to OnLoan and opens a loan dated today, in one
// transaction. Availability is re-checked only with WithStrictLoans; by
// default the caller must have verified it.
func (d *Database) LoanBook(ctx context.Context, bookID, memberID int64) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if d.strictLoans {
		var status BookStatus
		err := tx.GetContext(ctx, &status, `SELECT status FROM books WHERE id=?`, bookID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("book %d: %w", bookID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if status == StatusOnLoan {
			return fmt.Errorf("book %d: %w", bookID, ErrBookOnLoan)
		}
	}

	res, err := tx.ExecContext(ctx, `UPDATE books SET status=? WHERE id=?`, StatusOnLoan, bookID)
	if err != nil {
		return d.rolledBack("loan", err, "book_id", bookID)
	}
	if err := requireAffected(res, "book", bookID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO loans(book_id,member_id,loan_date) VALUES(?,?,?)`,
		bookID, memberID, d.today()); err != nil {
		return d.rolledBack("loan", err, "book_id", bookID, "member_id", memberID)
	}

	if err := tx.Commit(); err != nil {
		return d.rolledBack("loan", err, "book_id", bookID)
	}
	d.logger.Info("book loaned", "book_id", bookID, "member_id", memberID)
	return nil
}

// ActiveLoan returns the most recent open loan of a book, or nil when there
// is none. A nil result for an OnLoan book is the detectable inconsistency.
func (d *Database) ActiveLoan(ctx context.Context, bookID int64) (*ActiveLoan, error) {
	var loan ActiveLoan
	err := d.db.GetContext(ctx, &loan, `
        SELECT m.name AS member_name, l.loan_date, l.member_id
        FROM loans l
        JOIN members m ON m.id = l.member_id
        WHERE l.book_id = ? AND l.return_date IS NULL
        ORDER BY l.loan_date DESC, l.id DESC
        LIMIT 1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ReturnBook makes the book Available and closes its most recent open loan
// with today's date and note. The status flip commits even when there is no
// open loan to close; that case reports NoActiveLoan.
func (d *Database) ReturnBook(ctx context.Context, bookID int64, note string) (ReturnResult, error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return ReturnFailed, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE books SET status=? WHERE id=?`, StatusAvailable, bookID)
	if err != nil {
		return ReturnFailed, d.rolledBack("return", err, "book_id", bookID)
	}
	if err := requireAffected(res, "book", bookID); err != nil {
		return ReturnFailed, err
	}

	var loanID int64
	err = tx.GetContext(ctx, &loanID, `
        SELECT id FROM loans
        WHERE book_id = ? AND return_date IS NULL
        ORDER BY loan_date DESC, id DESC
        LIMIT 1`, bookID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if err := tx.Commit(); err != nil {
			return ReturnFailed, d.rolledBack("return", err, "book_id", bookID)
		}
		d.logger.Warn("book returned without an open loan", "book_id", bookID)
		return NoActiveLoan, nil
	case err != nil:
		return ReturnFailed, d.rolledBack("return", err, "book_id", bookID)
	}

	if d.hasNote {
		_, err = tx.ExecContext(ctx, `UPDATE loans SET return_date=?, note=? WHERE id=?`, d.today(), note, loanID)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE loans SET return_date=? WHERE id=?`, d.today(), loanID)
	}
	if err != nil {
		return ReturnFailed, d.rolledBack("return", err, "book_id", bookID, "loan_id", loanID)
	}

	if err := tx.Commit(); err != nil {
		return ReturnFailed, d.rolledBack("return", err, "book_id", bookID)
	}
	d.logger.Info("book returned", "book_id", bookID, "loan_id", loanID)
	return Returned, nil
}

// DeleteBook removes an Available book together with its closed loans. A book
// on loan is refused with ErrBookOnLoan and nothing is written.
func (d *Database) DeleteBook(ctx context.Context, bookID int64) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status BookStatus
	err = tx.GetContext(ctx, &status, `SELECT status FROM books WHERE id=?`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("book %d: %w", bookID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status == StatusOnLoan {
		return fmt.Errorf("book %d: %w", bookID, ErrBookOnLoan)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM loans WHERE book_id=?`, bookID); err != nil {
		return d.rolledBack("delete", err, "book_id", bookID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM books WHERE id=?`, bookID); err != nil {
		return d.rolledBack("delete", err, "book_id", bookID)
	}

	if err := tx.Commit(); err != nil {
		return d.rolledBack("delete", err, "book_id", bookID)
	}
	d.logger.Info("book deleted", "book_id", bookID)
	return nil
}

// ForceAvailable is the administrative override: it sets the status to
// Available without touching any loan row.
func (d *Database) ForceAvailable(ctx context.Context, bookID int64) error {
	res, err := d.db.ExecContext(ctx, `UPDATE books SET status=? WHERE id=?`, StatusAvailable, bookID)
	if err != nil {
		return err
	}
	if err := requireAffected(res, "book", bookID); err != nil {
		return err
	}
	d.logger.Warn("book status forced to available", "book_id", bookID)
	return nil
}

// History joins loans with their book and member in the order the filter asks for.
func (d *Database) History(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, error) {
	ds := d.builder.From(goqu.T("loans").As("l")).
		Join(goqu.T("books").As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("l.book_id")))).
		Join(goqu.T("members").As("m"), goqu.On(goqu.I("m.id").Eq(goqu.I("l.member_id")))).
		Select(
			goqu.I("l.id").As("loan_id"),
			goqu.I("b.title").As("book_title"),
			goqu.I("m.name").As("member_name"),
			goqu.I("l.loan_date").As("loan_date"),
			goqu.I("l.return_date").As("return_date"),
			d.noteColumn(),
		)
	ds = filter.apply(ds)

	entries := make([]*HistoryEntry, 0)
	if err := d.selectInto(ctx, &entries, ds); err != nil {
		return nil, err
	}
	return entries, nil
}

const inconsistentBooksQuery = `
    SELECT b.id, b.title, b.status, COUNT(l.id) AS open_loans
    FROM books b
    LEFT JOIN loans l ON l.book_id = b.id AND l.return_date IS NULL
    GROUP BY b.id, b.title, b.status
    HAVING (b.status = 'OnLoan' AND COUNT(l.id) = 0)
        OR (b.status = 'Available' AND COUNT(l.id) > 0)
        OR COUNT(l.id) > 1
    ORDER BY b.id`

// InconsistentBooks lists books whose status disagrees with their open loans,
// including books with more than one open loan.
func (d *Database) InconsistentBooks(ctx context.Context) ([]*Inconsistency, error) {
	out := make([]*Inconsistency, 0)
	if err := d.db.SelectContext(ctx, &out, inconsistentBooksQuery); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) rolledBack(op string, err error, args ...any) error {
	d.logger.Error(op+" rolled back", append(args, "error", err)...)
	return fmt.Errorf("%s: %w", op, err)
}
