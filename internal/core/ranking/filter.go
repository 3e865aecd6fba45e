package ranking

import (
	"fmt"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// Filter restricts the candidate universe before scoring. Every axis is
// independently omittable; present axes combine with AND. The two importance
// modifiers apply after the base predicate: WithImportant widens it with OR,
// OnlyImportant narrows it with AND.
type Filter struct {
	URLs          []string
	Year          int
	SemesterIDs   []int64
	DateRanges    []domain.DateRange
	DepartmentIDs []int64
	Categories    []string

	WithImportant *bool
	OnlyImportant *bool
}

// Validate rejects contradictory modifier combinations. The combined
// semantics of setting both WithImportant and OnlyImportant depend on
// application order, so the combination is refused outright.
func (f Filter) Validate() error {
	if f.WithImportant != nil && f.OnlyImportant != nil {
		return domain.WrapError(domain.ErrInvalidInput, "validate filter",
			fmt.Errorf("with_important and only_important are mutually exclusive"))
	}
	return nil
}

// Matches evaluates the full predicate against one document.
func (f Filter) Matches(doc domain.Document) bool {
	result := f.matchesBase(doc)

	if f.WithImportant != nil {
		result = result || (doc.IsImportant != nil && *doc.IsImportant == *f.WithImportant)
	}
	if f.OnlyImportant != nil {
		result = result && doc.IsImportant != nil && *doc.IsImportant == *f.OnlyImportant
	}
	return result
}

func (f Filter) matchesBase(doc domain.Document) bool {
	if len(f.URLs) > 0 && !containsString(f.URLs, doc.URL) {
		return false
	}

	if f.Year != 0 {
		if doc.Date == nil {
			return false
		}
		st := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, doc.Date.Location())
		if doc.Date.Before(st) || !doc.Date.Before(st.AddDate(1, 0, 0)) {
			return false
		}
	}

	if len(f.SemesterIDs) > 0 {
		if doc.SemesterID == nil || !containsInt64(f.SemesterIDs, *doc.SemesterID) {
			return false
		}
	}

	if len(f.DateRanges) > 0 {
		if doc.Date == nil || !inAnyRange(f.DateRanges, *doc.Date) {
			return false
		}
	}

	if len(f.DepartmentIDs) > 0 {
		if doc.DepartmentID == nil || !containsInt64(f.DepartmentIDs, *doc.DepartmentID) {
			return false
		}
	}

	if len(f.Categories) > 0 && !containsString(f.Categories, doc.Category) {
		return false
	}

	return true
}

// inAnyRange is a disjunction: the date must fall in at least one window,
// both ends inclusive.
func inAnyRange(ranges []domain.DateRange, date time.Time) bool {
	for _, r := range ranges {
		if !date.Before(r.StDate) && !date.After(r.EdDate) {
			return true
		}
	}
	return false
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt64(set []int64, v int64) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
