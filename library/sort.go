package library

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// MemberSort selects the ordering of member listings. Any value outside the
// declared constants orders like MemberNewest.
type MemberSort int

const (
	MemberNewest MemberSort = iota
	MemberNameAsc
	MemberBirthYearAsc
	MemberBirthYearDesc
)

var memberSortNames = map[MemberSort]string{
	MemberNewest:        "newest",
	MemberNameAsc:       "name",
	MemberBirthYearAsc:  "birth-asc",
	MemberBirthYearDesc: "birth-desc",
}

func (s MemberSort) String() string {
	if name, ok := memberSortNames[s]; ok {
		return name
	}
	return memberSortNames[MemberNewest]
}

// ParseMemberSort maps a name to a MemberSort, falling back to MemberNewest.
func ParseMemberSort(name string) MemberSort {
	for s, n := range memberSortNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return s
		}
	}
	return MemberNewest
}

// Equal keys tie-break on insertion order so that listing and searching agree.
func (s MemberSort) order() []exp.OrderedExpression {
	switch s {
	case MemberNameAsc:
		return []exp.OrderedExpression{goqu.I("name").Asc(), goqu.I("id").Asc()}
	case MemberBirthYearAsc:
		return []exp.OrderedExpression{goqu.I("birth_year").Asc(), goqu.I("id").Asc()}
	case MemberBirthYearDesc:
		return []exp.OrderedExpression{goqu.I("birth_year").Desc(), goqu.I("id").Asc()}
	default:
		return []exp.OrderedExpression{goqu.I("id").Desc()}
	}
}

// BookSort selects the ordering of book listings. Unknown values order like BookIDDesc.
type BookSort int

const (
	BookIDDesc BookSort = iota
	BookIDAsc
	BookTitleAsc
	BookAuthorAsc
	BookYearDesc
	BookYearAsc
	BookCategoryAsc
	BookStatusAsc
)

var bookSortNames = map[BookSort]string{
	BookIDDesc:      "newest",
	BookIDAsc:       "oldest",
	BookTitleAsc:    "title",
	BookAuthorAsc:   "author",
	BookYearDesc:    "year-desc",
	BookYearAsc:     "year-asc",
	BookCategoryAsc: "category",
	BookStatusAsc:   "status",
}

func (s BookSort) String() string {
	if name, ok := bookSortNames[s]; ok {
		return name
	}
	return bookSortNames[BookIDDesc]
}

// ParseBookSort maps a name to a BookSort, falling back to BookIDDesc.
func ParseBookSort(name string) BookSort {
	for s, n := range bookSortNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return s
		}
	}
	return BookIDDesc
}

func (s BookSort) order() []exp.OrderedExpression {
	byColumn := func(col string, desc bool) []exp.OrderedExpression {
		if desc {
			return []exp.OrderedExpression{goqu.I(col).Desc(), goqu.I("id").Asc()}
		}
		return []exp.OrderedExpression{goqu.I(col).Asc(), goqu.I("id").Asc()}
	}

	switch s {
	case BookIDAsc:
		return []exp.OrderedExpression{goqu.I("id").Asc()}
	case BookTitleAsc:
		return byColumn("title", false)
	case BookAuthorAsc:
		return byColumn("author", false)
	case BookYearDesc:
		return byColumn("year", true)
	case BookYearAsc:
		return byColumn("year", false)
	case BookCategoryAsc:
		return byColumn("category", false)
	case BookStatusAsc:
		return byColumn("status", false)
	default:
		return []exp.OrderedExpression{goqu.I("id").Desc()}
	}
}

// HistoryFilter selects which loans the history shows and in what order.
// Unknown values behave like HistoryNewest.
type HistoryFilter int

const (
	HistoryNewest HistoryFilter = iota
	HistoryOpen
	HistoryClosed
	HistoryOldest
)

var historyFilterNames = map[HistoryFilter]string{
	HistoryNewest: "newest",
	HistoryOpen:   "open",
	HistoryClosed: "closed",
	HistoryOldest: "oldest",
}

func (f HistoryFilter) String() string {
	if name, ok := historyFilterNames[f]; ok {
		return name
	}
	return historyFilterNames[HistoryNewest]
}

// ParseHistoryFilter maps a name to a HistoryFilter, falling back to HistoryNewest.
func ParseHistoryFilter(name string) HistoryFilter {
	for f, n := range historyFilterNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return f
		}
	}
	return HistoryNewest
}

func (f HistoryFilter) apply(ds *goqu.SelectDataset) *goqu.SelectDataset {
	switch f {
	case HistoryOpen:
		return ds.Where(goqu.I("l.return_date").IsNull()).
			Order(goqu.I("l.loan_date").Desc(), goqu.I("l.id").Desc())
	case HistoryClosed:
		return ds.Where(goqu.I("l.return_date").IsNotNull()).
			Order(goqu.I("l.return_date").Desc(), goqu.I("l.id").Desc())
	case HistoryOldest:
		return ds.Order(goqu.I("l.loan_date").Asc(), goqu.I("l.id").Asc())
	default:
		return ds.Order(goqu.I("l.loan_date").Desc(), goqu.I("l.id").Desc())
	}
}
