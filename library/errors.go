package library

import "errors"

var (
	// ErrNotFound is returned by mutations that reference a missing book or member.
	ErrNotFound = errors.New("record not found")

	// ErrBookOnLoan is a policy refusal: the book has an open loan.
	ErrBookOnLoan = errors.New("book is currently on loan")

	ErrBuildingQueryFailed = errors.New("building query failed")
	ErrEmptyDatabasePath   = errors.New("empty database path supplied")
)
