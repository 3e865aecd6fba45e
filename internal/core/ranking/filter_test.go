package ranking

import (
	"testing"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

func boolPtr(v bool) *bool    { return &v }
func int64Ptr(v int64) *int64 { return &v }

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestFilterConjunctionAcrossAxes(t *testing.T) {
	f := Filter{
		DepartmentIDs: []int64{1},
		Categories:    []string{"X"},
	}

	inBoth := domain.Document{DepartmentID: int64Ptr(1), Category: "X"}
	wrongCategory := domain.Document{DepartmentID: int64Ptr(1), Category: "Y"}
	wrongDepartment := domain.Document{DepartmentID: int64Ptr(2), Category: "X"}

	if !f.Matches(inBoth) {
		t.Fatalf("document matching all axes must pass")
	}
	if f.Matches(wrongCategory) {
		t.Fatalf("department A category Y must not pass departments=[A] categories=[X]")
	}
	if f.Matches(wrongDepartment) {
		t.Fatalf("wrong department must not pass")
	}
}

func TestFilterYearWindow(t *testing.T) {
	f := Filter{Year: 2024}

	cases := []struct {
		date *time.Time
		want bool
	}{
		{date(2024, time.January, 1), true},
		{date(2024, time.December, 31), true},
		{date(2025, time.January, 1), false},
		{date(2023, time.December, 31), false},
		{nil, false},
	}
	for i, c := range cases {
		got := f.Matches(domain.Document{Date: c.date})
		if got != c.want {
			t.Fatalf("case %d: got %v, want %v", i, got, c.want)
		}
	}
}

func TestFilterDateRangesDisjunction(t *testing.T) {
	f := Filter{
		DateRanges: []domain.DateRange{
			{StDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), EdDate: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)},
			{StDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), EdDate: time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)},
		},
	}

	if !f.Matches(domain.Document{Date: date(2024, time.September, 15)}) {
		t.Fatalf("date inside second range must pass")
	}
	if f.Matches(domain.Document{Date: date(2024, time.June, 15)}) {
		t.Fatalf("date outside every range must not pass")
	}
}

func TestFilterSemesterMembershipRequiresAssignment(t *testing.T) {
	f := Filter{SemesterIDs: []int64{7, 9}}

	if !f.Matches(domain.Document{SemesterID: int64Ptr(9)}) {
		t.Fatalf("assigned semester in set must pass")
	}
	if f.Matches(domain.Document{SemesterID: int64Ptr(3)}) {
		t.Fatalf("semester outside set must not pass")
	}
	if f.Matches(domain.Document{}) {
		t.Fatalf("unassigned semester must not pass a semester filter")
	}
}

func TestFilterWithImportantWidens(t *testing.T) {
	f := Filter{
		Categories:    []string{"X"},
		WithImportant: boolPtr(true),
	}

	important := domain.Document{Category: "Y", IsImportant: boolPtr(true)}
	if !f.Matches(important) {
		t.Fatalf("important document failing the base predicate must still surface")
	}

	mundane := domain.Document{Category: "Y", IsImportant: boolPtr(false)}
	if f.Matches(mundane) {
		t.Fatalf("non-important document failing the base predicate must not surface")
	}
}

func TestFilterOnlyImportantNarrows(t *testing.T) {
	f := Filter{
		Categories:    []string{"X"},
		OnlyImportant: boolPtr(true),
	}

	mundane := domain.Document{Category: "X", IsImportant: boolPtr(false)}
	if f.Matches(mundane) {
		t.Fatalf("non-important document must be removed even when the base predicate passes")
	}

	unset := domain.Document{Category: "X"}
	if f.Matches(unset) {
		t.Fatalf("tri-state unset importance must not satisfy only_important")
	}

	important := domain.Document{Category: "X", IsImportant: boolPtr(true)}
	if !f.Matches(important) {
		t.Fatalf("important document passing the base predicate must stay")
	}
}

func TestFilterRejectsBothImportanceModifiers(t *testing.T) {
	f := Filter{
		WithImportant: boolPtr(true),
		OnlyImportant: boolPtr(true),
	}
	err := f.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFilterURLMembership(t *testing.T) {
	f := Filter{URLs: []string{"https://cse.pusan.ac.kr/notice/1"}}

	if !f.Matches(domain.Document{URL: "https://cse.pusan.ac.kr/notice/1"}) {
		t.Fatalf("listed url must pass")
	}
	if f.Matches(domain.Document{URL: "https://cse.pusan.ac.kr/notice/2"}) {
		t.Fatalf("unlisted url must not pass")
	}
}

func TestFilterEmptyMatchesEverything(t *testing.T) {
	if !(Filter{}).Matches(domain.Document{URL: "x", Category: "y"}) {
		t.Fatalf("omitted axes must impose no constraint")
	}
}
