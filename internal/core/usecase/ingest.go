package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
	"github.com/pnu-aid/campus-faq/internal/core/ports"
	"github.com/pnu-aid/campus-faq/internal/core/ranking"
)

// IngestUseCase stores crawled records and schedules them for indexing.
// Records are upserted by URL, so re-crawling a board is idempotent.
type IngestUseCase struct {
	stores      map[domain.DocumentKind]ports.DocumentStore
	departments ports.DepartmentStore
	queue       ports.MessageQueue
	logger      *slog.Logger
}

func NewIngestUseCase(
	stores map[domain.DocumentKind]ports.DocumentStore,
	departments ports.DepartmentStore,
	queue ports.MessageQueue,
	logger *slog.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		stores:      stores,
		departments: departments,
		queue:       queue,
		logger:      logger,
	}
}

// Ingest validates and stores a crawled batch. Malformed records (missing
// title or URL) are skipped with a warning so one broken page does not abort
// the batch; an unknown department is a hard error because it means the
// record would be stored unreachable by every department filter.
func (uc *IngestUseCase) Ingest(ctx context.Context, kind domain.DocumentKind, records []ports.IngestRecord) ([]domain.Document, error) {
	store, ok := uc.stores[kind]
	if !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest", fmt.Errorf("unknown document kind %q", kind))
	}
	if len(records) == 0 {
		return []domain.Document{}, nil
	}

	docs := make([]domain.Document, 0, len(records))
	attachmentsByURL := make(map[string][]ports.IngestAttachment, len(records))
	for _, record := range records {
		doc, err := uc.toDocument(ctx, kind, record)
		if err != nil {
			if domain.IsKind(err, domain.ErrParse) {
				uc.logger.Warn("skip malformed record", "kind", kind, "url", record.URL, "error", err)
				continue
			}
			return nil, err
		}
		docs = append(docs, doc)
		attachmentsByURL[doc.URL] = record.Attachments
	}
	if len(docs) == 0 {
		return []domain.Document{}, nil
	}

	stored, err := store.UpsertByURL(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("upsert documents: %w", err)
	}

	for _, doc := range stored {
		if atts := attachmentsByURL[doc.URL]; len(atts) > 0 {
			rows := make([]domain.Attachment, 0, len(atts))
			for _, att := range atts {
				rows = append(rows, domain.Attachment{Name: att.Name, URL: att.URL})
			}
			if _, err := store.InsertAttachments(ctx, doc.ID, rows); err != nil {
				return nil, fmt.Errorf("insert attachments: %w", err)
			}
		}
		if err := uc.queue.PublishDocumentStored(ctx, kind, doc.ID); err != nil {
			return nil, fmt.Errorf("schedule indexing: %w", err)
		}
	}

	uc.logger.Info("ingested batch", "kind", kind, "stored", len(stored), "skipped", len(records)-len(docs))
	return stored, nil
}

// DeleteByDepartment removes every notice of one department, used when a
// department page is re-crawled from scratch. An unknown department name is
// ErrNotFound rather than a silent zero-row delete.
func (uc *IngestUseCase) DeleteByDepartment(ctx context.Context, name string) (int64, error) {
	department, err := uc.departments.ByName(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("resolve department %q: %w", name, err)
	}
	store, ok := uc.stores[domain.KindNotice]
	if !ok {
		return 0, domain.WrapError(domain.ErrInvalidInput, "delete by department",
			fmt.Errorf("notice store not configured"))
	}
	deleted, err := store.DeleteDocuments(ctx, ranking.Filter{DepartmentIDs: []int64{department.ID}})
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	uc.logger.Info("deleted department documents", "department", name, "deleted", deleted)
	return deleted, nil
}

func (uc *IngestUseCase) toDocument(ctx context.Context, kind domain.DocumentKind, record ports.IngestRecord) (domain.Document, error) {
	if strings.TrimSpace(record.URL) == "" || strings.TrimSpace(record.Title) == "" {
		return domain.Document{}, domain.WrapError(domain.ErrParse, "validate record",
			fmt.Errorf("record missing title or url"))
	}

	doc := domain.Document{
		Kind:        kind,
		Title:       record.Title,
		Content:     record.Content,
		URL:         record.URL,
		Author:      record.Author,
		Category:    record.Category,
		SubCategory: record.SubCategory,
		Date:        record.Date,
		IsImportant: record.IsImportant,
	}

	if record.Department != "" {
		if kind != domain.KindNotice {
			return domain.Document{}, domain.WrapError(domain.ErrInvalidInput, "validate record",
				fmt.Errorf("%s records carry no department", kind))
		}
		department, err := uc.departments.ByName(ctx, record.Department)
		if err != nil {
			return domain.Document{}, fmt.Errorf("resolve department %q: %w", record.Department, err)
		}
		doc.DepartmentID = &department.ID
	}

	return doc, nil
}
