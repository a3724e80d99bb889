package library

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts ...Option) *LibraryManager {
	t.Helper()
	dir := t.TempDir()
	mgr, err := NewLibraryManager(filepath.Join(dir, "lib.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestScenarioLoanAndReturn(t *testing.T) {
	clock := newClock()
	mgr := newManager(t, WithClock(clock.now))

	bookID, err := mgr.AddBook(BookInput{Title: "Laskar Pelangi", Author: "Andrea Hirata", Category: "Novel", Year: 2005})
	require.NoError(t, err)
	book, err := mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, book.Status)

	memberID, err := mgr.AddMember(MemberInput{Name: "Budi", BirthYear: year(1990), Gender: "L", Phone: "08123", Address: "Jl. A"})
	require.NoError(t, err)

	require.NoError(t, mgr.LoanBook(bookID, memberID))
	book, err = mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, StatusOnLoan, book.Status)

	active, err := mgr.ActiveLoan(bookID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, ActiveLoan{MemberName: "Budi", LoanDate: "2026-10-16", MemberID: memberID}, *active)

	res, err := mgr.ReturnBook(bookID, "kondisi baik")
	require.NoError(t, err)
	assert.Equal(t, Returned, res)

	book, err = mgr.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, book.Status)

	closed, err := mgr.History(HistoryClosed)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.NotNil(t, closed[0].Note)
	assert.Equal(t, "kondisi baik", *closed[0].Note)
	require.NotNil(t, closed[0].ReturnDate)
	assert.Equal(t, "2026-10-16", *closed[0].ReturnDate)

	bad, err := mgr.InconsistentBooks()
	require.NoError(t, err)
	assert.Empty(t, bad)
}

func TestManagerDeleteResults(t *testing.T) {
	mgr := newManager(t)

	onLoan, err := mgr.AddBook(BookInput{Title: "Pulang", Author: "Leila S. Chudori"})
	require.NoError(t, err)
	free, err := mgr.AddBook(BookInput{Title: "Gadis Kretek", Author: "Ratih Kumala"})
	require.NoError(t, err)
	member, err := mgr.AddMember(MemberInput{Name: "Yuni"})
	require.NoError(t, err)
	require.NoError(t, mgr.LoanBook(onLoan, member))

	tests := []struct {
		name    string
		id      int64
		want    DeleteResult
		wantErr error
	}{
		{"on loan is refused", onLoan, DeleteRejectedOnLoan, nil},
		{"refusal is repeatable", onLoan, DeleteRejectedOnLoan, nil},
		{"available is deleted", free, Deleted, nil},
		{"missing fails", free, DeleteFailed, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mgr.DeleteBook(tt.id)
			assert.Equal(t, tt.want, got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	books, err := mgr.ListBooks(BookIDDesc)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, StatusOnLoan, books[0].Status)
}

func TestManagerForceAvailableRecovers(t *testing.T) {
	mgr := newManager(t)
	bookID, err := mgr.AddBook(BookInput{Title: "Perahu Kertas", Author: "Dee Lestari"})
	require.NoError(t, err)
	member, err := mgr.AddMember(MemberInput{Name: "Tono"})
	require.NoError(t, err)
	require.NoError(t, mgr.LoanBook(bookID, member))

	require.NoError(t, mgr.ForceAvailable(bookID))
	res, err := mgr.DeleteBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, Deleted, res, "an overridden book can be deleted")
}

func TestResultStrings(t *testing.T) {
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "rejected: on loan", DeleteRejectedOnLoan.String())
	assert.Equal(t, "failed", DeleteFailed.String())
	assert.Equal(t, "returned", Returned.String())
	assert.Equal(t, "no active loan", NoActiveLoan.String())
	assert.Equal(t, "failed", ReturnFailed.String())
}

func TestParseSortAndFilterFallbacks(t *testing.T) {
	assert.Equal(t, MemberNameAsc, ParseMemberSort("Name"))
	assert.Equal(t, MemberBirthYearDesc, ParseMemberSort(" birth-desc "))
	assert.Equal(t, MemberNewest, ParseMemberSort("Nama (A-Z)"))

	assert.Equal(t, BookYearAsc, ParseBookSort("year-asc"))
	assert.Equal(t, BookStatusAsc, ParseBookSort("STATUS"))
	assert.Equal(t, BookIDDesc, ParseBookSort("typo"))

	assert.Equal(t, HistoryClosed, ParseHistoryFilter("closed"))
	assert.Equal(t, HistoryOpen, ParseHistoryFilter("open"))
	assert.Equal(t, HistoryNewest, ParseHistoryFilter(""))

	assert.Equal(t, "newest", MemberSort(99).String())
	assert.Equal(t, "newest", BookSort(99).String())
	assert.Equal(t, "newest", HistoryFilter(99).String())
}

func TestImportBooksCSV(t *testing.T) {
	mgr := newManager(t)

	input := strings.Join([]string{
		"title,author,category,year",
		"Laskar Pelangi,Andrea Hirata,Novel,2005",
		`"Bumi Manusia",Pramoedya Ananta Toer,Sejarah,1980`,
		",No Title,Novel,2000",
		"Ronggeng Dukuh Paruk,Ahmad Tohari,Novel,unknown",
		"Too,Short",
		"Supernova,Dee Lestari,Fiksi Ilmiah,2001",
	}, "\n")

	report, err := mgr.ImportBooksCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, report.Imported, 3)
	require.Len(t, report.Errors, 3)
	assert.Contains(t, report.Errors[0].Error(), "line 4")
	assert.Contains(t, report.Errors[1].Error(), "invalid year")
	assert.Contains(t, report.Errors[2].Error(), "want 4 fields")

	books, err := mgr.ListBooks(BookTitleAsc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bumi Manusia", "Laskar Pelangi", "Supernova"}, bookTitles(books))
	for _, b := range books {
		assert.Equal(t, StatusAvailable, b.Status)
	}
}

func TestPrettyBook(t *testing.T) {
	line := PrettyBook(&Book{ID: 3, Title: "Laskar Pelangi", Author: "Andrea Hirata", Category: "Novel", Year: 2005, Status: StatusOnLoan})
	assert.True(t, strings.HasPrefix(line, "3 "))
	assert.Contains(t, line, "Laskar Pelangi")
	assert.Contains(t, line, "OnLoan")
}
