package embedding

import (
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"unicode"
)

// LexicalEncoder builds BM25-style sparse vectors locally. It backs up the
// embedding service: when a deployment runs a dense-only model, documents and
// queries still get comparable lexical vectors because both sides hash terms
// into the same vocabulary space.
type LexicalEncoder struct{}

const (
	docTFSaturation   = 1.2
	queryTFSaturation = 1.2
	maxLexicalTerms   = 256
)

func NewLexicalEncoder() *LexicalEncoder {
	return &LexicalEncoder{}
}

func (e *LexicalEncoder) EncodeDocument(text string) map[int]float32 {
	return termFreqToSparse(termFrequencies(text), docTFSaturation)
}

func (e *LexicalEncoder) EncodeQuery(query string) map[int]float32 {
	return termFreqToSparse(termFrequencies(query), queryTFSaturation)
}

func termFrequencies(text string) map[int]float64 {
	tokens := tokenize(text)
	tf := make(map[int]float64, len(tokens))
	for _, token := range tokens {
		tf[hashToken(token)]++
	}
	return tf
}

func termFreqToSparse(tf map[int]float64, k float64) map[int]float32 {
	if len(tf) == 0 {
		return map[int]float32{}
	}

	indices := make([]int, 0, len(tf))
	for idx := range tf {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	if len(indices) > maxLexicalTerms {
		indices = indices[:maxLexicalTerms]
	}

	out := make(map[int]float32, len(indices))
	for _, idx := range indices {
		weight := (tf[idx] * (k + 1.0)) / (tf[idx] + k)
		if math.IsNaN(weight) || math.IsInf(weight, 0) {
			weight = 0
		}
		out[idx] = float32(weight)
	}
	return out
}

func hashToken(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	sum := int(h.Sum32() & 0x7fffffff)
	if sum == 0 {
		return 1
	}
	return sum
}

// tokenize lowercases and splits on anything that is not a letter or digit.
// Letter covers Hangul, so Korean board text tokenizes per word.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
