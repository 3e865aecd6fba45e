package ranking

import (
	"sort"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// rrfTerm is one reciprocal-rank term. A zero (absent) rank contributes
// nothing, equivalent to a rank of infinity.
func rrfTerm(rrfK, rank int) float64 {
	if rank <= 0 {
		return 0
	}
	return 1.0 / float64(rrfK+rank)
}

// RankChunks runs the full chunk-level pipeline over one filtered candidate
// snapshot: fused scoring on the content and title axes, dense rank
// assignment, reciprocal-rank fusion, ordering and truncation. A candidate
// enters the result when at least one axis ranked it; lacking a title vector
// alone never drops it.
func RankChunks(query domain.Embedding, candidates []Candidate, params Params) []ScoredChunk {
	p := params.normalize()
	contentRanks, titleRanks := rankChunkAxes(query, candidates, p.LexicalRatio)

	out := make([]ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		rc := contentRanks[c.ChunkID]
		rt := titleRanks[c.ChunkID]
		if rc == 0 && rt == 0 {
			continue
		}
		out = append(out, ScoredChunk{
			Candidate:   c,
			ContentRank: rc,
			TitleRank:   rt,
			RRFScore:    rrfTerm(p.RRFK, rc) + rrfTerm(p.RRFK, rt),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RRFScore != out[j].RRFScore {
			return out[i].RRFScore > out[j].RRFScore
		}
		return out[i].Candidate.ChunkID < out[j].Candidate.ChunkID
	})

	if len(out) > p.Count {
		out = out[:p.Count]
	}
	return out
}

// RankDocuments runs the document-level pipeline: per-document content score
// aggregated by max over chunks, title score straight from the document, the
// two rankings fused by RRF. A document with no scoreable chunks but a
// ranked title is still a hit (title-only match).
func RankDocuments(query domain.Embedding, docs []domain.Document, chunks []domain.Chunk, params Params) []ScoredDocument {
	p := params.normalize()
	contentRanks, titleRanks := rankDocumentAxes(query, docs, chunks, p.LexicalRatio)

	out := make([]ScoredDocument, 0, len(docs))
	for _, d := range docs {
		rc := contentRanks[d.ID]
		rt := titleRanks[d.ID]
		if rc == 0 && rt == 0 {
			continue
		}
		out = append(out, ScoredDocument{
			DocumentID:  d.ID,
			ContentRank: rc,
			TitleRank:   rt,
			RRFScore:    rrfTerm(p.RRFK, rc) + rrfTerm(p.RRFK, rt),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RRFScore != out[j].RRFScore {
			return out[i].RRFScore > out[j].RRFScore
		}
		return out[i].DocumentID < out[j].DocumentID
	})

	if len(out) > p.Count {
		out = out[:p.Count]
	}
	return out
}
