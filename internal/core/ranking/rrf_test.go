package ranking

import (
	"math"
	"testing"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

func TestRRFTermPrefersBetterRankPair(t *testing.T) {
	for _, k := range []int{20, 40, 120} {
		best := rrfTerm(k, 1) + rrfTerm(k, 1)
		worse := rrfTerm(k, 2) + rrfTerm(k, 2)
		if best <= worse {
			t.Fatalf("rrf_k=%d: rank pair (1,1) must beat (2,2): %v <= %v", k, best, worse)
		}
	}
}

func TestRRFTermAbsentRankContributesZero(t *testing.T) {
	if got := rrfTerm(120, 0); got != 0 {
		t.Fatalf("absent rank must contribute 0, got %v", got)
	}
}

func TestRankChunksIdempotent(t *testing.T) {
	query := domain.Embedding{Dense: []float32{1, 0}, Sparse: map[int]float32{0: 1}}
	candidates := []Candidate{
		{ChunkID: 1, DocumentID: 10, ChunkVector: []float32{1, 0}, ChunkSparse: map[int]float32{0: 3}, TitleVector: []float32{1, 0}, TitleSparse: map[int]float32{0: 2}},
		{ChunkID: 2, DocumentID: 20, ChunkVector: []float32{1, 0}, ChunkSparse: map[int]float32{0: 1}, TitleVector: []float32{1, 0}, TitleSparse: map[int]float32{0: 5}},
		{ChunkID: 3, DocumentID: 30, ChunkVector: []float32{1, 0}, ChunkSparse: map[int]float32{0: 2}, TitleVector: []float32{1, 0}, TitleSparse: map[int]float32{0: 1}},
	}
	params := Params{LexicalRatio: 1, RRFK: 120, Count: 5}

	first := RankChunks(query, candidates, params)
	second := RankChunks(query, candidates, params)

	if len(first) != len(second) {
		t.Fatalf("rerun changed result size: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Candidate.ChunkID != second[i].Candidate.ChunkID || first[i].RRFScore != second[i].RRFScore {
			t.Fatalf("rerun changed ordering at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// Three chunks under parents A, B, C engineered to take content ranks
// {1,3,2} and title ranks {2,1,3} respectively.
func TestRankChunksEndToEndScenario(t *testing.T) {
	query := domain.Embedding{Dense: []float32{1, 0}, Sparse: map[int]float32{0: 1}}

	candidates := []Candidate{
		// A: best content, second title
		{ChunkID: 1, DocumentID: 100, ChunkVector: []float32{1, 0}, ChunkSparse: map[int]float32{0: 3}, TitleVector: []float32{1, 0}, TitleSparse: map[int]float32{0: 2}},
		// B: worst content, best title
		{ChunkID: 2, DocumentID: 200, ChunkVector: []float32{1, 0}, ChunkSparse: map[int]float32{0: 1}, TitleVector: []float32{1, 0}, TitleSparse: map[int]float32{0: 5}},
		// C: middle content, worst title
		{ChunkID: 3, DocumentID: 300, ChunkVector: []float32{1, 0}, ChunkSparse: map[int]float32{0: 2}, TitleVector: []float32{1, 0}, TitleSparse: map[int]float32{0: 1}},
	}

	hits := RankChunks(query, candidates, Params{LexicalRatio: 1, RRFK: 120, Count: 5})
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}

	want := []struct {
		chunkID int64
		score   float64
	}{
		{1, 1.0/121 + 1.0/122}, // A: (1,2)
		{2, 1.0/123 + 1.0/121}, // B: (3,1)
		{3, 1.0/122 + 1.0/123}, // C: (2,3)
	}
	for i, w := range want {
		if hits[i].Candidate.ChunkID != w.chunkID {
			t.Fatalf("position %d: expected chunk %d, got %d", i, w.chunkID, hits[i].Candidate.ChunkID)
		}
		if math.Abs(hits[i].RRFScore-w.score) > 1e-6 {
			t.Fatalf("chunk %d: rrf score %v, want %v", w.chunkID, hits[i].RRFScore, w.score)
		}
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].RRFScore >= hits[i-1].RRFScore {
			t.Fatalf("scores not strictly descending at %d: %v >= %v", i, hits[i].RRFScore, hits[i-1].RRFScore)
		}
	}
}

func TestRankChunksTruncatesToCount(t *testing.T) {
	query := domain.Embedding{Dense: []float32{1}, Sparse: map[int]float32{0: 1}}
	candidates := make([]Candidate, 0, 10)
	for i := 1; i <= 10; i++ {
		candidates = append(candidates, Candidate{
			ChunkID:     int64(i),
			DocumentID:  int64(i),
			ChunkVector: []float32{1},
			ChunkSparse: map[int]float32{0: float32(i)},
		})
	}

	hits := RankChunks(query, candidates, Params{LexicalRatio: 1, RRFK: 60, Count: 4})
	if len(hits) != 4 {
		t.Fatalf("expected truncation to 4, got %d", len(hits))
	}
	if hits[0].Candidate.ChunkID != 10 {
		t.Fatalf("expected strongest chunk first, got %d", hits[0].Candidate.ChunkID)
	}
}

func TestRankChunksKeepsChunkWithoutTitleVector(t *testing.T) {
	query := domain.Embedding{Dense: []float32{1}, Sparse: map[int]float32{0: 1}}
	candidates := []Candidate{
		{ChunkID: 1, DocumentID: 1, ChunkVector: []float32{1}, ChunkSparse: map[int]float32{0: 2}},
		{ChunkID: 2, DocumentID: 2, ChunkVector: []float32{1}, ChunkSparse: map[int]float32{0: 3}, TitleVector: []float32{1}, TitleSparse: map[int]float32{0: 1}},
	}

	hits := RankChunks(query, candidates, Params{LexicalRatio: 1, RRFK: 120, Count: 5})
	if len(hits) != 2 {
		t.Fatalf("chunk lacking title vector must stay in candidacy, got %d hits", len(hits))
	}
	for _, h := range hits {
		if h.Candidate.ChunkID == 1 && h.TitleRank != 0 {
			t.Fatalf("expected no title rank for chunk 1, got %d", h.TitleRank)
		}
	}
}
