package domain

import "time"

// SemesterTerm is the kind of academic period a semester window covers.
type SemesterTerm string

const (
	TermSpring SemesterTerm = "spring"
	TermSummer SemesterTerm = "summer"
	TermFall   SemesterTerm = "fall"
	TermWinter SemesterTerm = "winter"
)

// Semester is one academic period with its date window. Windows of the same
// academic cycle are contiguous and non-overlapping. The year label follows
// the academic year: January and February belong to the previous year's
// winter recess.
type Semester struct {
	ID     int64        `json:"id"`
	Year   int          `json:"year"`
	Term   SemesterTerm `json:"term"`
	StDate time.Time    `json:"st_date"`
	EdDate time.Time    `json:"ed_date"`
}

// Contains reports whether t falls inside the semester window, end inclusive.
func (s Semester) Contains(t time.Time) bool {
	day := t.Truncate(24 * time.Hour)
	return !day.Before(s.StDate) && !day.After(s.EdDate)
}

// SemesterKey identifies a semester independently of storage.
type SemesterKey struct {
	Year int          `json:"year"`
	Term SemesterTerm `json:"term"`
}

// DateRange is a closed date window used by search filters.
type DateRange struct {
	StDate time.Time `json:"st_date"`
	EdDate time.Time `json:"ed_date"`
}
