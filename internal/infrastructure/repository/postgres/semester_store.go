package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

type SemesterStore struct {
	db *sql.DB
}

func NewSemesterStore(db *sql.DB) *SemesterStore {
	return &SemesterStore{db: db}
}

const semesterColumns = "id, year, term, st_date, ed_date"

func scanSemester(row rowScanner) (domain.Semester, error) {
	var (
		sem  domain.Semester
		term string
	)
	if err := row.Scan(&sem.ID, &sem.Year, &term, &sem.StDate, &sem.EdDate); err != nil {
		return domain.Semester{}, err
	}
	sem.Term = domain.SemesterTerm(term)
	return sem, nil
}

func (s *SemesterStore) UpsertSemesters(ctx context.Context, semesters []domain.Semester) ([]domain.Semester, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin semester tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO semesters (year, term, st_date, ed_date)
VALUES ($1,$2,$3,$4)
ON CONFLICT (year, term) DO UPDATE SET st_date = EXCLUDED.st_date, ed_date = EXCLUDED.ed_date
RETURNING id
`
	out := make([]domain.Semester, 0, len(semesters))
	for _, sem := range semesters {
		stored := sem
		err := tx.QueryRowContext(ctx, query, sem.Year, string(sem.Term), sem.StDate, sem.EdDate).Scan(&stored.ID)
		if err != nil {
			return nil, fmt.Errorf("upsert semester %d/%s: %w", sem.Year, sem.Term, err)
		}
		out = append(out, stored)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit semester tx: %w", err)
	}
	return out, nil
}

func (s *SemesterStore) SemesterByDate(ctx context.Context, date time.Time) (*domain.Semester, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+semesterColumns+`
FROM semesters
WHERE $1 BETWEEN st_date AND ed_date
ORDER BY st_date
LIMIT 1
`, date)

	sem, err := scanSemester(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "semester by date",
				fmt.Errorf("no window contains %s", date.Format("2006-01-02")))
		}
		return nil, fmt.Errorf("scan semester: %w", err)
	}
	return &sem, nil
}

func (s *SemesterStore) SemesterByKey(ctx context.Context, key domain.SemesterKey) (*domain.Semester, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT `+semesterColumns+`
FROM semesters
WHERE year = $1 AND term = $2
`, key.Year, string(key.Term))

	sem, err := scanSemester(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "semester by key",
				fmt.Errorf("%d/%s", key.Year, key.Term))
		}
		return nil, fmt.Errorf("scan semester: %w", err)
	}
	return &sem, nil
}

func (s *SemesterStore) SemestersByKeys(ctx context.Context, keys []domain.SemesterKey) ([]domain.Semester, error) {
	if len(keys) == 0 {
		return []domain.Semester{}, nil
	}

	args := make([]any, 0, 2*len(keys))
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		args = append(args, key.Year, string(key.Term))
		pairs = append(pairs, fmt.Sprintf("(year = $%d AND term = $%d)", len(args)-1, len(args)))
	}

	query := fmt.Sprintf("SELECT %s FROM semesters WHERE %s ORDER BY st_date",
		semesterColumns, strings.Join(pairs, " OR "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query semesters: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Semester, 0, len(keys))
	for rows.Next() {
		sem, err := scanSemester(rows)
		if err != nil {
			return nil, fmt.Errorf("scan semester: %w", err)
		}
		out = append(out, sem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate semesters: %w", err)
	}
	return out, nil
}

func (s *SemesterStore) ListSemesters(ctx context.Context) ([]domain.Semester, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+semesterColumns+` FROM semesters ORDER BY st_date`)
	if err != nil {
		return nil, fmt.Errorf("list semesters: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Semester, 0)
	for rows.Next() {
		sem, err := scanSemester(rows)
		if err != nil {
			return nil, fmt.Errorf("scan semester: %w", err)
		}
		out = append(out, sem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate semesters: %w", err)
	}
	return out, nil
}
