package ports

import (
	"context"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// SearchOptions tune one search call. Zero values fall back to the engine
// defaults (lexical_ratio 0.5, rrf_k 120, count 5, top_k 20, threshold 0.5).
type SearchOptions struct {
	Count        int
	TopK         int
	Threshold    float64
	LexicalRatio float64
	RRFK         int

	Departments []string
	Categories  []string
	Semesters   []domain.SemesterKey
	DateRanges  []domain.DateRange
	Year        int
	URLs        []string

	WithImportant *bool
	OnlyImportant *bool
}

// SearchService is the inbound contract of the retrieval engine: filtered
// hybrid search over each board, returning chunk-merged document aggregates
// in fused order. An empty result is an empty slice, never an error.
type SearchService interface {
	SearchNotices(ctx context.Context, query string, opts SearchOptions) ([]domain.DocumentContext, error)
	SearchPNUNotices(ctx context.Context, query string, opts SearchOptions) ([]domain.DocumentContext, error)
	SearchSupports(ctx context.Context, query string, opts SearchOptions) ([]domain.DocumentContext, error)
}

// AnswerService composes an LLM answer with citations over search results.
type AnswerService interface {
	Ask(ctx context.Context, question string, opts SearchOptions) (*domain.Answer, error)
}

// IngestAttachment is one crawled attachment reference.
type IngestAttachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IngestRecord is one crawled board record handed to the ingestor. Content
// may still carry markup; the indexing pipeline strips it.
type IngestRecord struct {
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	URL         string             `json:"url"`
	Author      string             `json:"author,omitempty"`
	Category    string             `json:"category,omitempty"`
	SubCategory string             `json:"sub_category,omitempty"`
	Date        *time.Time         `json:"date,omitempty"`
	IsImportant *bool              `json:"is_important,omitempty"`
	Department  string             `json:"department,omitempty"`
	Attachments []IngestAttachment `json:"attachments,omitempty"`
}

// DocumentIngestor stores crawled records (upsert by URL) and schedules them
// for indexing. DeleteByDepartment clears one department's notices before a
// from-scratch re-crawl; an unknown name is ErrNotFound.
type DocumentIngestor interface {
	Ingest(ctx context.Context, kind domain.DocumentKind, records []IngestRecord) ([]domain.Document, error)
	DeleteByDepartment(ctx context.Context, department string) (int64, error)
}

// DocumentIndexer embeds and indexes one stored document: title embedding,
// body and attachment chunks, semester assignment.
type DocumentIndexer interface {
	Index(ctx context.Context, kind domain.DocumentKind, documentID int64) error
}
