package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// IndexUseCase embeds one stored document: title embedding, body chunks,
// attachment chunks, semester assignment. Runs on the worker, one document
// per queue event.
type IndexUseCase struct {
	stores    map[domain.DocumentKind]ports.DocumentStore
	semesters ports.SemesterStore
	embedder  ports.Embedder
	extractor ports.TextExtractor
	cleaner   ports.TextCleaner
	chunker   ports.Chunker
	logger    *slog.Logger
}

func NewIndexUseCase(
	stores map[domain.DocumentKind]ports.DocumentStore,
	semesters ports.SemesterStore,
	embedder ports.Embedder,
	extractor ports.TextExtractor,
	cleaner ports.TextCleaner,
	chunker ports.Chunker,
	logger *slog.Logger,
) *IndexUseCase {
	return &IndexUseCase{
		stores:    stores,
		semesters: semesters,
		embedder:  embedder,
		extractor: extractor,
		cleaner:   cleaner,
		chunker:   chunker,
		logger:    logger,
	}
}

func (uc *IndexUseCase) Index(ctx context.Context, kind domain.DocumentKind, documentID int64) error {
	store, ok := uc.stores[kind]
	if !ok {
		return domain.WrapError(domain.ErrInvalidInput, "index", fmt.Errorf("unknown document kind %q", kind))
	}

	doc, err := store.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}

	body := uc.cleaner.Clean(doc.Content)
	bodyChunks := uc.chunker.Split(body)

	// one embedding batch covers title + body so a partial failure never
	// leaves a title-indexed document without body chunks
	texts := append([]string{doc.Title}, bodyChunks...)
	embeddings, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}
	if len(embeddings) != len(texts) {
		return domain.WrapError(domain.ErrUpstream, "embed document",
			fmt.Errorf("embedding count %d does not match input %d", len(embeddings), len(texts)))
	}

	chunks := make([]domain.Chunk, 0, len(bodyChunks))
	for i, content := range bodyChunks {
		emb := embeddings[i+1]
		chunks = append(chunks, domain.Chunk{
			DocumentID:   documentID,
			Content:      content,
			Vector:       emb.Dense,
			SparseVector: emb.Sparse,
		})
	}

	attachmentChunks, err := uc.indexAttachments(ctx, store, doc)
	if err != nil {
		return err
	}
	chunks = append(chunks, attachmentChunks...)

	if err := store.ReplaceChunks(ctx, documentID, chunks); err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}
	if err := store.SetTitleEmbedding(ctx, documentID, embeddings[0]); err != nil {
		return fmt.Errorf("store title embedding: %w", err)
	}

	if err := uc.assignSemester(ctx, store, doc); err != nil {
		return err
	}

	uc.logger.Info("indexed document", "kind", kind, "document_id", documentID, "chunks", len(chunks))
	return nil
}

// indexAttachments extracts, chunks and embeds each attachment. A single
// unparseable attachment is skipped with a warning; the document's body must
// still become searchable.
func (uc *IndexUseCase) indexAttachments(ctx context.Context, store ports.DocumentStore, doc *domain.Document) ([]domain.Chunk, error) {
	attachments, err := store.ListAttachments(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	var out []domain.Chunk
	for _, att := range attachments {
		text, err := uc.extractor.Extract(ctx, att)
		if err != nil {
			if domain.IsKind(err, domain.ErrParse) {
				uc.logger.Warn("skip unparseable attachment", "attachment", att.URL, "error", err)
				continue
			}
			return nil, fmt.Errorf("extract attachment %q: %w", att.Name, err)
		}

		pieces := uc.chunker.Split(text)
		if len(pieces) == 0 {
			continue
		}
		embeddings, err := uc.embedder.Embed(ctx, pieces)
		if err != nil {
			return nil, fmt.Errorf("embed attachment %q: %w", att.Name, err)
		}
		if len(embeddings) != len(pieces) {
			return nil, domain.WrapError(domain.ErrUpstream, "embed attachment",
				fmt.Errorf("embedding count %d does not match input %d", len(embeddings), len(pieces)))
		}

		attachmentID := att.ID
		for i, content := range pieces {
			out = append(out, domain.Chunk{
				DocumentID:   doc.ID,
				AttachmentID: &attachmentID,
				Content:      content,
				Vector:       embeddings[i].Dense,
				SparseVector: embeddings[i].Sparse,
			})
		}
	}
	return out, nil
}

// assignSemester stamps the window containing the document date. Dateless
// documents and dates outside every window stay unassigned; the calendar
// backfill catches them after the next seed.
func (uc *IndexUseCase) assignSemester(ctx context.Context, store ports.DocumentStore, doc *domain.Document) error {
	if doc.Date == nil || doc.SemesterID != nil {
		return nil
	}

	semester, err := uc.semesters.SemesterByDate(ctx, *doc.Date)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("find semester window: %w", err)
	}

	if _, err := store.AssignSemester(ctx, *semester, ranking.Filter{URLs: []string{doc.URL}}); err != nil {
		return fmt.Errorf("assign semester: %w", err)
	}
	return nil
}
