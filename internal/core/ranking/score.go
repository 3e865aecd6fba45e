package ranking

import "github.com/pnu-aid/campus-faq/internal/core/domain"

const (
	// DefaultLexicalRatio blends lexical and semantic similarity evenly.
	DefaultLexicalRatio = 0.5
	// DefaultRRFK is the smoothing constant used by the full search path.
	// Narrower call sites override it (20 and 40 are also in use).
	DefaultRRFK = 120
	// DefaultCount is the number of results returned by a search.
	DefaultCount = 5
)

// Params are the tunables of one fused-ranking computation.
type Params struct {
	// LexicalRatio in [0,1]: 1 scores purely lexical, 0 purely semantic.
	LexicalRatio float64
	// RRFK is the reciprocal-rank-fusion smoothing constant, > 0.
	RRFK int
	// Count truncates the fused result list.
	Count int
}

func (p Params) normalize() Params {
	out := p
	if out.LexicalRatio < 0 || out.LexicalRatio > 1 {
		out.LexicalRatio = DefaultLexicalRatio
	}
	if out.RRFK <= 0 {
		out.RRFK = DefaultRRFK
	}
	if out.Count <= 0 {
		out.Count = DefaultCount
	}
	return out
}

// FusedScore blends the dense cosine similarity and the sparse inner-product
// similarity of one candidate against the query. The second return is false
// when either candidate vector is absent: unindexed candidates are excluded
// from the axis, never scored as zero.
func FusedScore(query domain.Embedding, dense []float32, sparse map[int]float32, lexicalRatio float64) (float64, bool) {
	if dense == nil || sparse == nil {
		return 0, false
	}
	scoreDense := CosineSimilarity(query.Dense, dense)
	scoreLexical := SparseDot(query.Sparse, sparse)
	return lexicalRatio*scoreLexical + (1-lexicalRatio)*scoreDense, true
}
