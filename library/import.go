package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ImportReport summarises a catalog import.
type ImportReport struct {
	Imported []int64
	Errors   []error
}

// ImportBooksCSV catalogs every row of r as a new Available book. Rows are
// title,author,category,year; a leading header row is skipped. A bad row is
// recorded in the report and does not stop the import.
func (lm *LibraryManager) ImportBooksCSV(r io.Reader) (ImportReport, error) {
	var report ImportReport

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return report, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 && len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "title") {
			continue
		}

		in, err := parseBookRecord(record)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		id, err := lm.AddBook(in)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		report.Imported = append(report.Imported, id)
	}
	return report, nil
}

func parseBookRecord(record []string) (BookInput, error) {
	if len(record) < 4 {
		return BookInput{}, fmt.Errorf("want 4 fields, got %d", len(record))
	}
	in := BookInput{
		Title:    strings.TrimSpace(record[0]),
		Author:   strings.TrimSpace(record[1]),
		Category: strings.TrimSpace(record[2]),
	}
	if in.Title == "" || in.Author == "" {
		return BookInput{}, errors.New("title and author are required")
	}
	year, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return BookInput{}, fmt.Errorf("invalid year %q", record[3])
	}
	in.Year = year
	return in, nil
}
