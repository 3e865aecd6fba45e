package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// argList numbers query placeholders as filter clauses accumulate.
type argList struct {
	args []any
}

func (a *argList) add(v any) string {
	a.args = append(a.args, v)
	return fmt.Sprintf("$%d", len(a.args))
}

func (a *argList) addAll(vs ...any) string {
	ph := make([]string, len(vs))
	for i, v := range vs {
		ph[i] = a.add(v)
	}
	return strings.Join(ph, ",")
}

// filterWhere renders a ranking.Filter as a WHERE predicate over the board's
// document table. Axes a board does not carry are skipped rather than
// rejected: a dateless board simply never matches a date-bound query, which
// the use case layer already prevents by not setting those axes.
func filterWhere(f ranking.Filter, spec entitySpec, args *argList) string {
	var base []string

	if len(f.URLs) > 0 {
		vs := make([]any, len(f.URLs))
		for i, u := range f.URLs {
			vs[i] = u
		}
		base = append(base, fmt.Sprintf("url IN (%s)", args.addAll(vs...)))
	}

	if f.Year != 0 && spec.hasDate {
		st := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		base = append(base, fmt.Sprintf("date >= %s AND date < %s",
			args.add(st), args.add(st.AddDate(1, 0, 0))))
	}

	if len(f.SemesterIDs) > 0 && spec.hasSemester {
		vs := make([]any, len(f.SemesterIDs))
		for i, id := range f.SemesterIDs {
			vs[i] = id
		}
		base = append(base, fmt.Sprintf("semester_id IN (%s)", args.addAll(vs...)))
	}

	if len(f.DateRanges) > 0 && spec.hasDate {
		ors := make([]string, len(f.DateRanges))
		for i, r := range f.DateRanges {
			ors[i] = fmt.Sprintf("date BETWEEN %s AND %s", args.add(r.StDate), args.add(r.EdDate))
		}
		base = append(base, "("+strings.Join(ors, " OR ")+")")
	}

	if len(f.DepartmentIDs) > 0 && spec.hasDepartment {
		vs := make([]any, len(f.DepartmentIDs))
		for i, id := range f.DepartmentIDs {
			vs[i] = id
		}
		base = append(base, fmt.Sprintf("department_id IN (%s)", args.addAll(vs...)))
	}

	if len(f.Categories) > 0 {
		vs := make([]any, len(f.Categories))
		for i, c := range f.Categories {
			vs[i] = c
		}
		base = append(base, fmt.Sprintf("category IN (%s)", args.addAll(vs...)))
	}

	where := strings.Join(base, " AND ")
	if where == "" {
		where = "TRUE"
	}

	if spec.hasImportant {
		if f.WithImportant != nil {
			where = fmt.Sprintf("(%s OR is_important = %s)", where, args.add(*f.WithImportant))
		}
		if f.OnlyImportant != nil {
			where = fmt.Sprintf("(%s) AND is_important = %s", where, args.add(*f.OnlyImportant))
		}
	}
	return where
}
