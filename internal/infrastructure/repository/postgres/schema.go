package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const sharedDDL = `
CREATE TABLE IF NOT EXISTS departments (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS semesters (
	id BIGSERIAL PRIMARY KEY,
	year INTEGER NOT NULL,
	term TEXT NOT NULL,
	st_date DATE NOT NULL,
	ed_date DATE NOT NULL,
	UNIQUE (year, term)
);

CREATE INDEX IF NOT EXISTS idx_semesters_window ON semesters(st_date, ed_date);
`

// EnsureSchema creates the shared tables and each board's table triple.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026053101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, sharedDDL); err != nil {
		return fmt.Errorf("execute shared ddl: %w", err)
	}

	for _, spec := range []entitySpec{noticeSpec, pnuNoticeSpec, supportSpec} {
		if _, err := tx.ExecContext(ctx, entityDDL(spec)); err != nil {
			return fmt.Errorf("execute %s ddl: %w", spec.docTable, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func entityDDL(spec entitySpec) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", spec.docTable)
	b.WriteString(`	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	url TEXT NOT NULL UNIQUE,
	author TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT '',
	sub_category TEXT NOT NULL DEFAULT '',
	title_vector JSONB,
	title_sparse_vector JSONB`)
	if spec.hasDate {
		b.WriteString(",\n	date DATE")
	}
	if spec.hasImportant {
		b.WriteString(",\n	is_important BOOLEAN")
	}
	if spec.hasDepartment {
		b.WriteString(",\n	department_id BIGINT REFERENCES departments(id)")
	}
	if spec.hasSemester {
		b.WriteString(",\n	semester_id BIGINT REFERENCES semesters(id)")
	}
	b.WriteString("\n);\n\n")

	fmt.Fprintf(&b, `CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	%s BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	url TEXT NOT NULL
);

`, spec.attachmentTable, spec.fkColumn, spec.docTable)

	fmt.Fprintf(&b, `CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	%s BIGINT NOT NULL REFERENCES %s(id) ON DELETE CASCADE,
	attachment_id BIGINT REFERENCES %s(id) ON DELETE CASCADE,
	content TEXT NOT NULL,
	vector JSONB,
	sparse_vector JSONB
);

`, spec.chunkTable, spec.fkColumn, spec.docTable, spec.attachmentTable)

	fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_doc ON %s(%s);\n",
		spec.chunkTable, spec.chunkTable, spec.fkColumn)
	fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_doc ON %s(%s);\n",
		spec.attachmentTable, spec.attachmentTable, spec.fkColumn)
	if spec.hasDate {
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_date ON %s(date DESC);\n",
			spec.docTable, spec.docTable)
	}
	if spec.hasDepartment {
		fmt.Fprintf(&b, "CREATE INDEX IF NOT EXISTS idx_%s_department ON %s(department_id);\n",
			spec.docTable, spec.docTable)
	}
	return b.String()
}
