package ranking

import "github.com/pnu-aid/campus-faq/internal/core/domain"

// AggregateChunks regroups ordered chunk hits into one context-bearing
// aggregate per parent document, preserving the fusion order of each
// parent's first occurrence. A body chunk overwrites the aggregate content
// (last writer wins); an attachment chunk appends one attachment-context
// entry per chunk, without merging chunks of the same attachment.
//
// Parents absent from docs are skipped: a hit whose parent row vanished
// mid-query has nothing to aggregate onto.
func AggregateChunks(hits []ScoredChunk, docs map[int64]domain.Document, attachments map[int64]domain.Attachment) []domain.DocumentContext {
	order := make([]int64, 0, len(hits))
	grouped := make(map[int64]*domain.DocumentContext, len(hits))

	for _, hit := range hits {
		docID := hit.Candidate.DocumentID
		agg, ok := grouped[docID]
		if !ok {
			doc, found := docs[docID]
			if !found {
				continue
			}
			doc.Content = ""
			agg = &domain.DocumentContext{
				Document:           doc,
				AttachmentContexts: []domain.AttachmentContext{},
			}
			grouped[docID] = agg
			order = append(order, docID)
		}

		if hit.Candidate.AttachmentID == nil {
			agg.Document.Content = hit.Candidate.Content
			continue
		}

		entry := domain.AttachmentContext{Content: hit.Candidate.Content}
		if att, found := attachments[*hit.Candidate.AttachmentID]; found {
			entry.Name = att.Name
			entry.URL = att.URL
		}
		agg.AttachmentContexts = append(agg.AttachmentContexts, entry)
	}

	out := make([]domain.DocumentContext, 0, len(order))
	for _, docID := range order {
		out = append(out, *grouped[docID])
	}
	return out
}

// ContextsFromDocuments lifts document-level hits into contexts, keeping the
// fused order. Title-only hits pass through with their stored content.
func ContextsFromDocuments(hits []ScoredDocument, docs map[int64]domain.Document) []domain.DocumentContext {
	out := make([]domain.DocumentContext, 0, len(hits))
	for _, hit := range hits {
		doc, found := docs[hit.DocumentID]
		if !found {
			continue
		}
		out = append(out, domain.DocumentContext{
			Document:           doc,
			AttachmentContexts: []domain.AttachmentContext{},
		})
	}
	return out
}
