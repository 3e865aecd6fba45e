package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
)

// RelatedSemesterKey maps a semester to its "preparation" period, the one
// unioned into date-bounded filters so questions about a term also cover the
// recess leading into it. The summer→summer identity and winter→next summer
// cases reproduce the ranking behavior this service replaces; both live here
// so a future correction is a one-line change.
func RelatedSemesterKey(key domain.SemesterKey) domain.SemesterKey {
	switch key.Term {
	case domain.TermSpring:
		return domain.SemesterKey{Year: key.Year - 1, Term: domain.TermWinter}
	case domain.TermFall:
		return domain.SemesterKey{Year: key.Year, Term: domain.TermSummer}
	case domain.TermSummer:
		return domain.SemesterKey{Year: key.Year, Term: domain.TermSummer}
	case domain.TermWinter:
		return domain.SemesterKey{Year: key.Year + 1, Term: domain.TermSummer}
	}
	return key
}

type dateKey struct {
	year, month, day int
}

// Service resolves calendar dates to semester windows. Resolutions are
// cached per (year, month, day) with explicit invalidation; the cache never
// outlives a calendar reseed.
type Service struct {
	store ports.SemesterStore

	mu    sync.Mutex
	cache map[dateKey][]domain.Semester
}

func NewService(store ports.SemesterStore) *Service {
	return &Service{
		store: store,
		cache: make(map[dateKey][]domain.Semester),
	}
}

// Resolve returns the semester window containing the date and its related
// preparation semester, in that order. A date outside every window, or a
// missing related window, is a hard error.
func (s *Service) Resolve(ctx context.Context, year int, month time.Month, day int) ([]domain.Semester, error) {
	key := dateKey{year: year, month: int(month), day: day}

	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	current, err := s.store.SemesterByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("resolve current semester: %w", err)
	}

	related, err := s.store.SemesterByKey(ctx, RelatedSemesterKey(domain.SemesterKey{
		Year: current.Year,
		Term: current.Term,
	}))
	if err != nil {
		return nil, fmt.Errorf("resolve related semester: %w", err)
	}

	resolved := []domain.Semester{*current, *related}
	s.mu.Lock()
	s.cache[key] = resolved
	s.mu.Unlock()
	return resolved, nil
}

// SemesterIDs resolves explicit semester keys plus their related periods to
// the id set a search filter widens over. Keys without a stored window are
// skipped; related windows that do not exist are skipped too.
func (s *Service) SemesterIDs(ctx context.Context, keys []domain.SemesterKey) ([]int64, error) {
	semesters, err := s.store.SemestersByKeys(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load semesters: %w", err)
	}

	ids := make([]int64, 0, 2*len(semesters))
	seen := make(map[int64]bool, 2*len(semesters))
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, sem := range semesters {
		add(sem.ID)
	}
	for _, sem := range semesters {
		related, err := s.store.SemesterByKey(ctx, RelatedSemesterKey(domain.SemesterKey{
			Year: sem.Year,
			Term: sem.Term,
		}))
		if err != nil {
			if domain.IsKind(err, domain.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load related semester: %w", err)
		}
		add(related.ID)
	}
	return ids, nil
}

// Invalidate drops all cached resolutions. Called after reseeding the
// calendar and by callers that cross a day boundary.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cache = make(map[dateKey][]domain.Semester)
	s.mu.Unlock()
}
