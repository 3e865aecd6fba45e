package postgres

import (
	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// entitySpec describes one board's table set and which filter axes its rows
// carry. The three boards share the pipeline but not the schema shape:
// supports are undated, department-agnostic and never pinned.
type entitySpec struct {
	kind            domain.DocumentKind
	docTable        string
	chunkTable      string
	attachmentTable string
	fkColumn        string

	hasDepartment bool
	hasSemester   bool
	hasDate       bool
	hasImportant  bool
}

var noticeSpec = entitySpec{
	kind:            domain.KindNotice,
	docTable:        "notices",
	chunkTable:      "notice_content_chunks",
	attachmentTable: "notice_attachments",
	fkColumn:        "notice_id",
	hasDepartment:   true,
	hasSemester:     true,
	hasDate:         true,
	hasImportant:    true,
}

var pnuNoticeSpec = entitySpec{
	kind:            domain.KindPNUNotice,
	docTable:        "pnu_notices",
	chunkTable:      "pnu_notice_content_chunks",
	attachmentTable: "pnu_notice_attachments",
	fkColumn:        "pnu_notice_id",
	hasSemester:     true,
	hasDate:         true,
	hasImportant:    true,
}

var supportSpec = entitySpec{
	kind:            domain.KindSupport,
	docTable:        "supports",
	chunkTable:      "support_content_chunks",
	attachmentTable: "support_attachments",
	fkColumn:        "support_id",
}

// docColumns is the SELECT list for the board's document table, in scan
// order. Optional axes append after the shared prefix.
func (s entitySpec) docColumns() []string {
	cols := []string{
		"id", "title", "content", "url", "author", "category", "sub_category",
		"title_vector", "title_sparse_vector",
	}
	if s.hasDate {
		cols = append(cols, "date")
	}
	if s.hasImportant {
		cols = append(cols, "is_important")
	}
	if s.hasDepartment {
		cols = append(cols, "department_id")
	}
	if s.hasSemester {
		cols = append(cols, "semester_id")
	}
	return cols
}
