package library

// BookStatus is the availability of a book. It is only changed by loan,
// return and the administrative override.
type BookStatus string

const (
	StatusAvailable BookStatus = "Available"
	StatusOnLoan    BookStatus = "OnLoan"
)

// DateLayout is how loan and return dates are stored: calendar date, no time.
const DateLayout = "2006-01-02"

// Book is a catalog item.
type Book struct {
	ID       int64      `db:"id" json:"id"`
	Title    string     `db:"title" json:"title"`
	Author   string     `db:"author" json:"author"`
	Category string     `db:"category" json:"category"`
	Year     int64      `db:"year" json:"year"`
	Status   BookStatus `db:"status" json:"status"`
}

// Member represents a registered borrower. BirthYear is nil when unknown.
type Member struct {
	ID        int64  `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	BirthYear *int64 `db:"birth_year" json:"birth_year,omitempty"`
	Gender    string `db:"gender" json:"gender"`
	Phone     string `db:"phone" json:"phone"`
	Address   string `db:"address" json:"address"`
}

// MemberInput carries the editable member fields for create and update.
type MemberInput struct {
	Name      string
	BirthYear *int64
	Gender    string
	Phone     string
	Address   string
}

// BookInput carries the editable book fields. Status is deliberately absent.
type BookInput struct {
	Title    string
	Author   string
	Category string
	Year     int64
}

// Loan is a single borrowing transaction. A nil ReturnDate means the loan is open.
type Loan struct {
	ID         int64   `db:"id" json:"id"`
	BookID     int64   `db:"book_id" json:"book_id"`
	MemberID   int64   `db:"member_id" json:"member_id"`
	LoanDate   string  `db:"loan_date" json:"loan_date"`
	ReturnDate *string `db:"return_date" json:"return_date"`
	Note       *string `db:"note" json:"note"`
}

// Open reports whether the loan has not been returned yet.
func (l Loan) Open() bool { return l.ReturnDate == nil }

// ActiveLoan is the borrower side of a book's open loan.
type ActiveLoan struct {
	MemberName string `db:"member_name" json:"member_name"`
	LoanDate   string `db:"loan_date" json:"loan_date"`
	MemberID   int64  `db:"member_id" json:"member_id"`
}

// BorrowerOption is a lightweight (id, name) row for the loan borrower picker.
type BorrowerOption struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// HistoryEntry is one loan joined with its book title and member name.
type HistoryEntry struct {
	LoanID     int64   `db:"loan_id" json:"loan_id"`
	BookTitle  string  `db:"book_title" json:"book_title"`
	MemberName string  `db:"member_name" json:"member_name"`
	LoanDate   string  `db:"loan_date" json:"loan_date"`
	ReturnDate *string `db:"return_date" json:"return_date"`
	Note       *string `db:"note" json:"note"`
}

// Inconsistency describes a book whose status disagrees with its loans.
type Inconsistency struct {
	BookID    int64      `db:"id" json:"book_id"`
	Title     string     `db:"title" json:"title"`
	Status    BookStatus `db:"status" json:"status"`
	OpenLoans int64      `db:"open_loans" json:"open_loans"`
}
