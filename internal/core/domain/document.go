package domain

import "time"

// DocumentKind distinguishes the three retrievable board types. They share
// one schema shape but live in separate tables and differ in which filter
// axes apply (supports carry no date, department or importance flag).
type DocumentKind string

const (
	KindNotice    DocumentKind = "notice"
	KindPNUNotice DocumentKind = "pnu_notice"
	KindSupport   DocumentKind = "support"
)

// Document is the top-level retrievable unit: a departmental notice, a
// university-wide notice or a student-support article. URL uniquely
// identifies a document within its kind.
type Document struct {
	ID   int64        `json:"id"`
	Kind DocumentKind `json:"kind"`

	Title       string `json:"title"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Author      string `json:"author,omitempty"`
	Category    string `json:"category,omitempty"`
	SubCategory string `json:"sub_category,omitempty"`

	// Date is the authoring date. Support articles are undated.
	Date *time.Time `json:"date,omitempty"`

	// IsImportant is tri-state: unset on boards that do not pin notices.
	IsImportant *bool `json:"is_important,omitempty"`

	DepartmentID *int64 `json:"department_id,omitempty"`
	SemesterID   *int64 `json:"semester_id,omitempty"`

	// Nil vectors mean the document has not been indexed yet. Callers must
	// treat them as not searchable, never as zero vectors.
	TitleVector       []float32       `json:"-"`
	TitleSparseVector map[int]float32 `json:"-"`
}

// Indexed reports whether the document's title embeddings are present.
func (d *Document) Indexed() bool {
	return d.TitleVector != nil && d.TitleSparseVector != nil
}

// Chunk is a slice of a document's body text (AttachmentID nil) or of one
// attachment's extracted text. Every chunk belongs to exactly one document.
type Chunk struct {
	ID           int64  `json:"id"`
	DocumentID   int64  `json:"document_id"`
	AttachmentID *int64 `json:"attachment_id,omitempty"`

	Content      string          `json:"content"`
	Vector       []float32       `json:"-"`
	SparseVector map[int]float32 `json:"-"`
}

// Attachment is a file linked from a document. Its extracted text is stored
// as chunks referencing the attachment id.
type Attachment struct {
	ID         int64  `json:"id"`
	DocumentID int64  `json:"document_id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
}

// Department owns departmental notices. Support and university-wide notices
// are department-agnostic.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
