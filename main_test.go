package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-ledger/config"
	"library-ledger/library"
)

type cli struct {
	t      *testing.T
	dbPath string
}

func newCLI(t *testing.T) *cli {
	return &cli{t: t, dbPath: filepath.Join(t.TempDir(), "library.db")}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	a := &app{cfg: &config.Config{
		Database: config.Database{Path: c.dbPath},
		Log:      config.Log{Level: "error"},
	}}
	root := newRootCommand(a)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	require.NoError(c.t, a.close())
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func TestCLILoanReturnFlow(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun("member", "add", "--name", "Budi", "--birth-year", "1990", "--gender", "L", "--phone", "08123", "--address", "Jl. A")
	assert.Contains(t, out, "Added member 'Budi' with ID 1")

	out = c.mustRun("book", "add", "--title", "Laskar Pelangi", "--author", "Andrea Hirata", "--category", "Novel", "--year", "2005")
	assert.Contains(t, out, "Added book ID 1.")

	out = c.mustRun("loan", "1", "1")
	assert.Contains(t, out, "Book 'Laskar Pelangi' loaned to Budi")

	out = c.mustRun("loan", "1", "1")
	assert.Contains(t, out, "already on loan")

	out = c.mustRun("book", "show", "1")
	assert.Contains(t, out, "OnLoan")
	assert.Contains(t, out, "Borrowed by Budi (ID: 1)")

	out = c.mustRun("book", "delete", "1")
	assert.Contains(t, out, "cannot be deleted")

	out = c.mustRun("return", "1", "--note", "kondisi baik")
	assert.Contains(t, out, "Book 1 returned.")

	out = c.mustRun("--json", "history", "--filter", "closed")
	var entries []library.HistoryEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Note)
	assert.Equal(t, "kondisi baik", *entries[0].Note)
	assert.Equal(t, "Budi", entries[0].MemberName)

	out = c.mustRun("check")
	assert.Contains(t, out, "All book statuses match")

	out = c.mustRun("book", "delete", "1")
	assert.Contains(t, out, "Book 1 deleted.")

	out = c.mustRun("history")
	assert.Contains(t, out, "No loans found.")
}

func TestCLIValidatesInput(t *testing.T) {
	c := newCLI(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing year", []string{"book", "add", "--title", "T", "--author", "A"}, "year is required"},
		{"bad year", []string{"book", "add", "--title", "T", "--author", "A", "--year", "dua ribu"}, "year must be a number"},
		{"missing author", []string{"book", "add", "--title", "T", "--year", "2000"}, "title and author are required"},
		{"missing name", []string{"member", "add", "--phone", "0812"}, "name is required"},
		{"bad birth year", []string{"member", "add", "--name", "Ani", "--birth-year", "x"}, "birth year must be a number"},
		{"bad id", []string{"book", "show", "abc"}, "invalid book ID"},
		{"unknown book", []string{"book", "update", "9", "--title", "T", "--author", "A", "--year", "1"}, "record not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run("", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCLIResetStatusNeedsConfirmation(t *testing.T) {
	c := newCLI(t)
	c.mustRun("member", "add", "--name", "Sari")
	c.mustRun("book", "add", "--title", "Pulang", "--author", "Tere Liye", "--year", "2015")
	c.mustRun("loan", "1", "1")

	out, err := c.run("n\n", "book", "reset-status", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Contains(t, c.mustRun("book", "show", "1"), "OnLoan")

	out, err = c.run("y\n", "book", "reset-status", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "status reset to Available")

	// The open loan remains, which the consistency check reports.
	out = c.mustRun("check")
	assert.Contains(t, out, "Pulang")

	out = c.mustRun("book", "reset-status", "1", "--yes")
	assert.Contains(t, out, "status reset to Available")
}

func TestCLIListingsAndSorts(t *testing.T) {
	c := newCLI(t)
	c.mustRun("member", "add", "--name", "Citra", "--birth-year", "1995")
	c.mustRun("member", "add", "--name", "Agus", "--birth-year", "1980")
	c.mustRun("book", "add", "--title", "Bumi Manusia", "--author", "Pramoedya Ananta Toer", "--year", "1980")
	c.mustRun("book", "add", "--title", "Amba", "--author", "Laksmi Pamuntjak", "--year", "2012")

	out := c.mustRun("--json", "member", "list", "--sort", "birth-asc")
	var members []library.Member
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 2)
	assert.Equal(t, "Agus", members[0].Name)

	out = c.mustRun("--json", "book", "list", "--sort", "title")
	var books []library.Book
	require.NoError(t, json.Unmarshal([]byte(out), &books))
	require.Len(t, books, 2)
	assert.Equal(t, "Amba", books[0].Title)

	out = c.mustRun("book", "search", "pramoedya")
	assert.Contains(t, out, "Bumi Manusia")
	assert.NotContains(t, out, "Amba")

	out = c.mustRun("member", "pick", "ag")
	assert.Contains(t, out, "Agus")
	assert.NotContains(t, out, "Citra")

	out = c.mustRun("member", "search", "zzz")
	assert.Contains(t, out, "No members found.")

	out = c.mustRun("active", "1")
	assert.Contains(t, out, "has no open loan")
}

func TestParseYear(t *testing.T) {
	y, err := parseYear("year", " 2005 ", true)
	require.NoError(t, err)
	assert.Equal(t, int64(2005), *y)

	y, err = parseYear("birth year", "", false)
	require.NoError(t, err)
	assert.Nil(t, y)
}
