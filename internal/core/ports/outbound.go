package ports

import (
	"context"
	"time"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// ChunkSearchResult is one filtered, ranked, truncated chunk search together
// with the parent rows loaded from the same transactional snapshot, so the
// caller can aggregate or rerank without a second read.
type ChunkSearchResult struct {
	Hits        []ranking.ScoredChunk
	Documents   map[int64]domain.Document
	Attachments map[int64]domain.Attachment
}

// DocumentSearchResult is the document-level counterpart.
type DocumentSearchResult struct {
	Hits      []ranking.ScoredDocument
	Documents map[int64]domain.Document
}

// DocumentStore persists and searches one document kind. One implementation
// is instantiated per entity table set (notice, pnu-notice, support).
type DocumentStore interface {
	// UpsertByURL inserts records or updates the existing row with the same
	// URL, returning the stored rows with ids. This is the only write path
	// for crawled records: at-most-one ingestion per source URL.
	UpsertByURL(ctx context.Context, docs []domain.Document) ([]domain.Document, error)

	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	ListAttachments(ctx context.Context, documentID int64) ([]domain.Attachment, error)
	InsertAttachments(ctx context.Context, documentID int64, attachments []domain.Attachment) ([]domain.Attachment, error)

	// ReplaceChunks deletes a document's chunks and stores the new set, used
	// when a document is (re)indexed.
	ReplaceChunks(ctx context.Context, documentID int64, chunks []domain.Chunk) error
	SetTitleEmbedding(ctx context.Context, documentID int64, embedding domain.Embedding) error

	// SearchChunks runs the filter → rank → fuse → truncate pipeline inside
	// one read-consistent transaction and returns the hits with their parent
	// documents and attachment metadata.
	SearchChunks(ctx context.Context, query domain.Embedding, filter ranking.Filter, params ranking.Params) (*ChunkSearchResult, error)

	// SearchDocuments ranks whole documents (content aggregated by max over
	// chunks, title per document) in one snapshot.
	SearchDocuments(ctx context.Context, query domain.Embedding, filter ranking.Filter, params ranking.Params) (*DocumentSearchResult, error)

	// CountDocuments and DeleteDocuments apply the same filter semantics as
	// search; both treat an empty match as zero, not an error.
	CountDocuments(ctx context.Context, filter ranking.Filter) (int64, error)
	DeleteDocuments(ctx context.Context, filter ranking.Filter) (int64, error)

	// AssignSemester stamps the semester id on documents whose date falls
	// inside the semester window and returns the affected count.
	AssignSemester(ctx context.Context, semester domain.Semester, filter ranking.Filter) (int64, error)

	// FindLastBySequence returns the document whose URL carries the highest
	// numeric board sequence, used by crawl scheduling to find the high-water
	// mark. Nil when the table is empty.
	FindLastBySequence(ctx context.Context) (*domain.Document, error)
}

// DepartmentStore resolves and manages departments (notice boards only).
type DepartmentStore interface {
	// IDsByNames maps department names to ids; unknown names are omitted.
	IDsByNames(ctx context.Context, names []string) ([]int64, error)
	// ByName returns ErrNotFound for an unknown department.
	ByName(ctx context.Context, name string) (*domain.Department, error)
	Ensure(ctx context.Context, name string) (*domain.Department, error)
}

// SemesterStore persists academic calendar windows.
type SemesterStore interface {
	UpsertSemesters(ctx context.Context, semesters []domain.Semester) ([]domain.Semester, error)
	// SemesterByDate returns ErrNotFound when no window contains the date.
	SemesterByDate(ctx context.Context, date time.Time) (*domain.Semester, error)
	SemesterByKey(ctx context.Context, key domain.SemesterKey) (*domain.Semester, error)
	SemestersByKeys(ctx context.Context, keys []domain.SemesterKey) ([]domain.Semester, error)
	ListSemesters(ctx context.Context) ([]domain.Semester, error)
}

// TextCleaner strips markup from crawled body text before chunking.
type TextCleaner interface {
	Clean(text string) string
}

// Embedder calls the embedding service: one dense and one sparse vector per
// input text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]domain.Embedding, error)
	EmbedQuery(ctx context.Context, text string) (domain.Embedding, error)
}

// Reranker is the optional cross-encoder second stage over fused candidates.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]domain.RerankResult, error)
}

// AnswerGenerator composes the final answer from retrieved contexts.
type AnswerGenerator interface {
	ComposeAnswer(ctx context.Context, question string, contexts []domain.DocumentContext) (string, error)
}

// TextExtractor extracts plain text from an attachment for chunking.
type TextExtractor interface {
	Extract(ctx context.Context, attachment domain.Attachment) (string, error)
}

// Chunker splits extracted text into embeddable slices.
type Chunker interface {
	Split(text string) []string
}

// MessageQueue carries ingestion events from the API to the indexing worker.
type MessageQueue interface {
	PublishDocumentStored(ctx context.Context, kind domain.DocumentKind, documentID int64) error
	SubscribeDocumentStored(ctx context.Context, handler func(context.Context, domain.DocumentKind, int64) error) error
	Close()
}
