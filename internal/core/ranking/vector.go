package ranking

import "math"

// CosineSimilarity returns the cosine of the angle between a and b, the
// complement of pgvector's cosine distance. Zero-norm or mismatched inputs
// score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// SparseDot returns the inner product of two sparse vectors. This is the
// sign-inverted max_inner_product distance, i.e. a similarity.
func SparseDot(a, b map[int]float32) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// iterate the smaller map
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, av := range a {
		if bv, ok := b[idx]; ok {
			dot += float64(av) * float64(bv)
		}
	}
	return dot
}
