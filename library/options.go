package library

import (
	"log/slog"
	"time"
)

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the structured logger. Migration warnings go to Warn,
// rolled-back transactions to Error and committed circulation changes to Info.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Database) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock replaces time.Now as the source of loan and return dates.
func WithClock(now func() time.Time) Option {
	return func(d *Database) {
		if now != nil {
			d.now = now
		}
	}
}

// WithStrictLoans makes LoanBook re-read the book's status inside its
// transaction and refuse with ErrBookOnLoan instead of opening a second loan.
func WithStrictLoans(strict bool) Option {
	return func(d *Database) {
		d.strictLoans = strict
	}
}
