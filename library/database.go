package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const dialectSQLite = "sqlite3"

// Database owns the SQLite handle behind the ledger. It is opened once per
// process and released with Close.
type Database struct {
	db      *sqlx.DB
	builder goqu.DialectWrapper
	logger  *slog.Logger
	now     func() time.Time

	strictLoans bool
	hasNote     bool
	warnings    []string

	addBookStmt   *sqlx.Stmt
	addMemberStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string, opts ...Option) (*Database, error) {
	if dbPath == "" {
		return nil, ErrEmptyDatabasePath
	}

	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps the file exclusively owned by this process.
	db.SetMaxOpenConns(1)

	database := &Database{
		db:      db,
		builder: goqu.Dialect(dialectSQLite),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(database)
	}

	ctx := context.Background()
	if err := database.applyMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := database.prepareStatements(ctx); err != nil {
		db.Close()
		return nil, err
	}

	database.logger.Info("ledger opened", "path", dbPath, "strict_loans", database.strictLoans)
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addMemberStmt != nil {
		d.addMemberStmt.Close()
	}
	return d.db.Close()
}

// Warnings returns the non-fatal migration problems recorded while opening.
func (d *Database) Warnings() []string {
	out := make([]string, len(d.warnings))
	copy(out, d.warnings)
	return out
}

func (d *Database) today() string { return d.now().Format(DateLayout) }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 2

// Tables are created in their first-release shape; later columns are added by
// additiveColumns so that old and new files converge on the same schema.
var baseSchema = []string{
	`CREATE TABLE IF NOT EXISTS members (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        birth_year INTEGER,
        gender TEXT NOT NULL DEFAULT '',
        phone TEXT NOT NULL DEFAULT '',
        address TEXT NOT NULL DEFAULT ''
    );`,
	`CREATE TABLE IF NOT EXISTS books (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        author TEXT NOT NULL,
        category TEXT NOT NULL DEFAULT '',
        year INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL DEFAULT 'Available'
    );`,
	`CREATE TABLE IF NOT EXISTS loans (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        book_id INTEGER NOT NULL REFERENCES books(id),
        member_id INTEGER NOT NULL REFERENCES members(id),
        loan_date TEXT NOT NULL,
        return_date TEXT
    );`,
	`CREATE INDEX IF NOT EXISTS idx_loans_book_open ON loans(book_id, return_date);`,
}

type columnMigration struct {
	table  string
	column string
	decl   string
}

var additiveColumns = []columnMigration{
	{table: "loans", column: "note", decl: "TEXT"},
}

func (d *Database) applyMigrations(ctx context.Context) error {
	// WAL improves write concurrency.
	if _, err := d.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := d.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range baseSchema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	for _, m := range additiveColumns {
		if err := d.ensureColumn(ctx, m); err != nil {
			msg := fmt.Sprintf("ensure column %s.%s: %v", m.table, m.column, err)
			d.warnings = append(d.warnings, msg)
			d.logger.Warn("migration degraded", "table", m.table, "column", m.column, "error", err)
		}
	}
	d.hasNote = d.columnExists(ctx, "loans", "note")

	var current int
	err = d.db.GetContext(ctx, &current, `SELECT value FROM meta WHERE key='schema_version';`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		d.warnings = append(d.warnings, fmt.Sprintf("read schema version: %v", err))
		d.logger.Warn("schema version unreadable", "error", err)
	}
	if current >= schemaVersion || len(d.warnings) > 0 {
		return nil
	}
	_, err = d.db.ExecContext(ctx, `INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion)
	if err != nil {
		d.warnings = append(d.warnings, fmt.Sprintf("record schema version: %v", err))
		d.logger.Warn("schema version not recorded", "error", err)
	}
	return nil
}

// ensureColumn adds m.column to m.table unless it is already present.
func (d *Database) ensureColumn(ctx context.Context, m columnMigration) error {
	columns, err := d.tableColumns(ctx, m.table)
	if err != nil {
		return err
	}
	if _, ok := columns[m.column]; ok {
		return nil
	}
	_, err = d.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.decl))
	return err
}

func (d *Database) columnExists(ctx context.Context, table, column string) bool {
	columns, err := d.tableColumns(ctx, table)
	if err != nil {
		return false
	}
	_, ok := columns[column]
	return ok
}

func (d *Database) tableColumns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := d.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := make(map[string]struct{})
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		columns[name] = struct{}{}
	}
	return columns, rows.Err()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements(ctx context.Context) error {
	var err error
	if d.addBookStmt, err = d.db.PreparexContext(ctx,
		`INSERT INTO books(title,author,category,year,status) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.PreparexContext(ctx,
		`INSERT INTO members(name,birth_year,gender,phone,address) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// selectInto renders ds with placeholders and scans every row into dest.
func (d *Database) selectInto(ctx context.Context, dest any, ds *goqu.SelectDataset) error {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return errors.Join(ErrBuildingQueryFailed, err)
	}
	return d.db.SelectContext(ctx, dest, query, args...)
}

func likePattern(term string) string { return "%" + term + "%" }

func requireAffected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

var memberColumns = []any{"id", "name", "birth_year", "gender", "phone", "address"}

// AddMember registers a member. The name is stored as given.
func (d *Database) AddMember(ctx context.Context, in MemberInput) (int64, error) {
	res, err := d.addMemberStmt.ExecContext(ctx, in.Name, in.BirthYear, in.Gender, in.Phone, in.Address)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateMember replaces every editable field of member id.
func (d *Database) UpdateMember(ctx context.Context, id int64, in MemberInput) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE members SET name=?, birth_year=?, gender=?, phone=?, address=? WHERE id=?`,
		in.Name, in.BirthYear, in.Gender, in.Phone, in.Address, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "member", id)
}

// GetMember fetches a single member.
func (d *Database) GetMember(ctx context.Context, id int64) (*Member, error) {
	var m Member
	err := d.db.GetContext(ctx, &m, `SELECT id,name,birth_year,gender,phone,address FROM members WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("member %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns all members in the requested order.
func (d *Database) ListMembers(ctx context.Context, sort MemberSort) ([]*Member, error) {
	return d.SearchMembers(ctx, "", sort)
}

// SearchMembers matches term case-insensitively against name, phone, address
// and the textual id. An empty term matches every member.
func (d *Database) SearchMembers(ctx context.Context, term string, sort MemberSort) ([]*Member, error) {
	ds := d.builder.From("members").Select(memberColumns...).Order(sort.order()...)
	if term != "" {
		p := likePattern(term)
		ds = ds.Where(goqu.Or(
			goqu.C("name").ILike(p),
			goqu.C("phone").ILike(p),
			goqu.C("address").ILike(p),
			goqu.L("CAST(id AS TEXT) LIKE ?", p),
		))
	}

	members := make([]*Member, 0)
	if err := d.selectInto(ctx, &members, ds); err != nil {
		return nil, err
	}
	return members, nil
}

// SearchBorrowers is the borrower-picker lookup: id or name match, name order.
func (d *Database) SearchBorrowers(ctx context.Context, term string) ([]*BorrowerOption, error) {
	ds := d.builder.From("members").
		Select("id", "name").
		Order(goqu.I("name").Asc(), goqu.I("id").Asc())
	if term != "" {
		p := likePattern(term)
		ds = ds.Where(goqu.Or(
			goqu.C("name").ILike(p),
			goqu.L("CAST(id AS TEXT) LIKE ?", p),
		))
	}

	options := make([]*BorrowerOption, 0)
	if err := d.selectInto(ctx, &options, ds); err != nil {
		return nil, err
	}
	return options, nil
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

var bookColumns = []any{"id", "title", "author", "category", "year", "status"}

// AddBook catalogs a book. New books are always Available.
func (d *Database) AddBook(ctx context.Context, in BookInput) (int64, error) {
	res, err := d.addBookStmt.ExecContext(ctx, in.Title, in.Author, in.Category, in.Year, StatusAvailable)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateBook edits the descriptive fields of a book; status is left alone.
func (d *Database) UpdateBook(ctx context.Context, id int64, in BookInput) error {
	res, err := d.db.ExecContext(ctx,
		`UPDATE books SET title=?, author=?, category=?, year=? WHERE id=?`,
		in.Title, in.Author, in.Category, in.Year, id)
	if err != nil {
		return err
	}
	return requireAffected(res, "book", id)
}

// GetBook fetches a single book.
func (d *Database) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := d.db.GetContext(ctx, &b, `SELECT id,title,author,category,year,status FROM books WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("book %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBooks returns the catalog in the requested order.
func (d *Database) ListBooks(ctx context.Context, sort BookSort) ([]*Book, error) {
	return d.queryBooks(ctx, d.builder.From("books").Select(bookColumns...).Order(sort.order()...))
}

// SearchBooks matches term against title, author and category, newest first.
func (d *Database) SearchBooks(ctx context.Context, term string) ([]*Book, error) {
	ds := d.builder.From("books").Select(bookColumns...).Order(BookIDDesc.order()...)
	if term != "" {
		p := likePattern(term)
		ds = ds.Where(goqu.Or(
			goqu.C("title").ILike(p),
			goqu.C("author").ILike(p),
			goqu.C("category").ILike(p),
		))
	}
	return d.queryBooks(ctx, ds)
}

func (d *Database) queryBooks(ctx context.Context, ds *goqu.SelectDataset) ([]*Book, error) {
	books := make([]*Book, 0)
	if err := d.selectInto(ctx, &books, ds); err != nil {
		return nil, err
	}
	return books, nil
}

// noteColumn selects the loan note, or NULL when the note migration failed.
func (d *Database) noteColumn() exp.Expression {
	if d.hasNote {
		return goqu.I("l.note").As("note")
	}
	return goqu.L("NULL").As("note")
}
