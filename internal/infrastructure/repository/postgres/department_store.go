package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

type DepartmentStore struct {
	db *sql.DB
}

func NewDepartmentStore(db *sql.DB) *DepartmentStore {
	return &DepartmentStore{db: db}
}

// IDsByNames resolves department names to ids. Unknown names drop out
// silently: a search scoped to a department nobody has ever posted under
// should return nothing, not fail.
func (s *DepartmentStore) IDsByNames(ctx context.Context, names []string) ([]int64, error) {
	if len(names) == 0 {
		return []int64{}, nil
	}

	args := make([]any, len(names))
	ph := make([]string, len(names))
	for i, name := range names {
		args[i] = name
		ph[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("SELECT id FROM departments WHERE name IN (%s) ORDER BY id", strings.Join(ph, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query departments: %w", err)
	}
	defer rows.Close()

	out := make([]int64, 0, len(names))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan department id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate departments: %w", err)
	}
	return out, nil
}

func (s *DepartmentStore) ByName(ctx context.Context, name string) (*domain.Department, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name FROM departments WHERE name = $1`, name)

	var dep domain.Department
	if err := row.Scan(&dep.ID, &dep.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "department by name",
				fmt.Errorf("name %q", name))
		}
		return nil, fmt.Errorf("scan department: %w", err)
	}
	return &dep, nil
}

func (s *DepartmentStore) Ensure(ctx context.Context, name string) (*domain.Department, error) {
	row := s.db.QueryRowContext(ctx, `
INSERT INTO departments (name)
VALUES ($1)
ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
RETURNING id, name
`, name)

	var dep domain.Department
	if err := row.Scan(&dep.ID, &dep.Name); err != nil {
		return nil, fmt.Errorf("ensure department: %w", err)
	}
	return &dep, nil
}
