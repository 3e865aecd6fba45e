package calendar

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// CanonicalYear builds the four windows of one academic year under the
// boundary convention: months 3-6 spring term, 7-8 summer recess, 9-12 fall
// term, and January-February of the following calendar year as this year's
// winter recess. Windows are contiguous and non-overlapping.
func CanonicalYear(year int) []domain.Semester {
	return []domain.Semester{
		{
			Year: year, Term: domain.TermSpring,
			StDate: time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC),
			EdDate: time.Date(year, time.June, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			Year: year, Term: domain.TermSummer,
			StDate: time.Date(year, time.July, 1, 0, 0, 0, 0, time.UTC),
			EdDate: time.Date(year, time.August, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			Year: year, Term: domain.TermFall,
			StDate: time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC),
			EdDate: time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			Year: year, Term: domain.TermWinter,
			StDate: time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
			// last day of February, leap-aware
			EdDate: time.Date(year+1, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1),
		},
	}
}

type seedFile struct {
	// Years expand to canonical windows.
	Years []int `yaml:"years"`
	// Semesters override or extend the canonical windows with the dates the
	// university actually published.
	Semesters []seedSemester `yaml:"semesters"`
}

type seedSemester struct {
	Year   int       `yaml:"year"`
	Term   string    `yaml:"term"`
	StDate time.Time `yaml:"st_date"`
	EdDate time.Time `yaml:"ed_date"`
}

// LoadSeed parses an academic-calendar seed. Explicit entries win over
// canonical windows for the same (year, term).
func LoadSeed(r io.Reader) ([]domain.Semester, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read calendar seed: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse calendar seed: %w", err)
	}

	byKey := make(map[domain.SemesterKey]domain.Semester)
	keys := make([]domain.SemesterKey, 0, 4*len(file.Years)+len(file.Semesters))
	put := func(sem domain.Semester) {
		key := domain.SemesterKey{Year: sem.Year, Term: sem.Term}
		if _, ok := byKey[key]; !ok {
			keys = append(keys, key)
		}
		byKey[key] = sem
	}

	for _, year := range file.Years {
		for _, sem := range CanonicalYear(year) {
			put(sem)
		}
	}
	for _, entry := range file.Semesters {
		term, err := parseTerm(entry.Term)
		if err != nil {
			return nil, err
		}
		if entry.EdDate.Before(entry.StDate) {
			return nil, fmt.Errorf("calendar seed %d/%s: window ends before it starts", entry.Year, entry.Term)
		}
		put(domain.Semester{
			Year:   entry.Year,
			Term:   term,
			StDate: entry.StDate,
			EdDate: entry.EdDate,
		})
	}

	out := make([]domain.Semester, 0, len(keys))
	for _, key := range keys {
		out = append(out, byKey[key])
	}
	return out, nil
}

// LoadSeedFile reads a seed from disk; a missing path yields no semesters.
func LoadSeedFile(path string) ([]domain.Semester, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open calendar seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

func parseTerm(s string) (domain.SemesterTerm, error) {
	switch domain.SemesterTerm(s) {
	case domain.TermSpring, domain.TermSummer, domain.TermFall, domain.TermWinter:
		return domain.SemesterTerm(s), nil
	}
	return "", fmt.Errorf("calendar seed: unknown term %q", s)
}
