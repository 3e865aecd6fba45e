package ranking

import (
	"sort"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// Candidate is one chunk row joined with its parent document's title
// embeddings, the unit the two rankings are computed over.
type Candidate struct {
	ChunkID      int64
	DocumentID   int64
	AttachmentID *int64
	Content      string

	ChunkVector []float32
	ChunkSparse map[int]float32
	TitleVector []float32
	TitleSparse map[int]float32
}

// ScoredChunk is a candidate with its two rank ordinals and fused RRF score.
// A zero rank means the candidate was absent from that axis.
type ScoredChunk struct {
	Candidate   Candidate
	ContentRank int
	TitleRank   int
	RRFScore    float64
}

// ScoredDocument is a document-level hit from RankDocuments.
type ScoredDocument struct {
	DocumentID  int64
	ContentRank int
	TitleRank   int
	RRFScore    float64
}

type axisEntry struct {
	id    int64
	score float64
}

// assignRanks orders entries by descending score and assigns dense ranks
// 1..N. Ties break by ascending id so the ranking is deterministic across
// backends.
func assignRanks(entries []axisEntry) map[int64]int {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].id < entries[j].id
	})
	ranks := make(map[int64]int, len(entries))
	for i, e := range entries {
		ranks[e.id] = i + 1
	}
	return ranks
}

// rankChunkAxes computes the content and title rankings over one filtered
// candidate snapshot. Both rankings are taken over chunk rows: chunks of the
// same document share a title score but hold distinct title ranks.
func rankChunkAxes(query domain.Embedding, candidates []Candidate, lexicalRatio float64) (content, title map[int64]int) {
	contentEntries := make([]axisEntry, 0, len(candidates))
	titleEntries := make([]axisEntry, 0, len(candidates))

	for _, c := range candidates {
		if score, ok := FusedScore(query, c.ChunkVector, c.ChunkSparse, lexicalRatio); ok {
			contentEntries = append(contentEntries, axisEntry{id: c.ChunkID, score: score})
		}
		if score, ok := FusedScore(query, c.TitleVector, c.TitleSparse, lexicalRatio); ok {
			titleEntries = append(titleEntries, axisEntry{id: c.ChunkID, score: score})
		}
	}
	return assignRanks(contentEntries), assignRanks(titleEntries)
}

// rankDocumentAxes computes document-level rankings. The content score of a
// document is the maximum fused score over its chunks: one excellent chunk
// wins over many mediocre ones.
func rankDocumentAxes(query domain.Embedding, docs []domain.Document, chunks []domain.Chunk, lexicalRatio float64) (content, title map[int64]int) {
	best := make(map[int64]float64, len(docs))
	for _, ch := range chunks {
		score, ok := FusedScore(query, ch.Vector, ch.SparseVector, lexicalRatio)
		if !ok {
			continue
		}
		if prev, seen := best[ch.DocumentID]; !seen || score > prev {
			best[ch.DocumentID] = score
		}
	}

	contentEntries := make([]axisEntry, 0, len(best))
	titleEntries := make([]axisEntry, 0, len(docs))
	for _, d := range docs {
		if score, seen := best[d.ID]; seen {
			contentEntries = append(contentEntries, axisEntry{id: d.ID, score: score})
		}
		if score, ok := FusedScore(query, d.TitleVector, d.TitleSparseVector, lexicalRatio); ok {
			titleEntries = append(titleEntries, axisEntry{id: d.ID, score: score})
		}
	}
	return assignRanks(contentEntries), assignRanks(titleEntries)
}
